package postgres

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querylens/querylens-engine/pkg/config"
	"github.com/querylens/querylens-engine/pkg/models"
)

func TestBuildConnectionStringEscapesPassword(t *testing.T) {
	cfg := config.SchemaConfig{
		Host:     "db.example.com",
		Port:     5432,
		User:     "reader",
		Password: "p@ss/w?rd#1",
		Database: "orders",
		SSLMode:  "disable",
	}

	connStr := buildConnectionString(cfg)

	parsed, err := url.Parse(connStr)
	require.NoError(t, err)
	assert.Equal(t, "postgresql", parsed.Scheme)
	assert.Equal(t, "reader", parsed.User.Username())
	pass, _ := parsed.User.Password()
	assert.Equal(t, "p@ss/w?rd#1", pass)
	assert.Equal(t, "db.example.com:5432", parsed.Host)
	assert.Equal(t, "disable", parsed.Query().Get("sslmode"))
}

func TestBuildConnectionStringDefaultsSSLMode(t *testing.T) {
	connStr := buildConnectionString(config.SchemaConfig{Host: "h", Port: 5432})

	parsed, err := url.Parse(connStr)
	require.NoError(t, err)
	assert.Equal(t, "require", parsed.Query().Get("sslmode"))
}

func TestKindFor(t *testing.T) {
	assert.Equal(t, models.IndexKindPrimaryKey, kindFor(true, true))
	assert.Equal(t, models.IndexKindUniqueIndex, kindFor(false, true))
	assert.Equal(t, models.IndexKindRegularIndex, kindFor(false, false))
}
