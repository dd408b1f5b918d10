package config

import (
	"os"
	"sync"
)

var (
	dockerOnce    sync.Once
	dockerProbeOK bool
)

// inDockerContainer reports whether the process runs inside a Docker
// container, detected by the /.dockerenv marker file. The probe result
// is cached.
func inDockerContainer() bool {
	dockerOnce.Do(func() {
		_, err := os.Stat("/.dockerenv")
		dockerProbeOK = err == nil
	})
	return dockerProbeOK
}

// ResolvedHost returns the database host to dial. When the engine runs
// inside Docker and the configured host points at the loopback
// interface, the host machine is reachable via host.docker.internal
// instead.
func (s SchemaConfig) ResolvedHost() string {
	if !inDockerContainer() {
		return s.Host
	}
	if s.Host == "localhost" || s.Host == "127.0.0.1" {
		return "host.docker.internal"
	}
	return s.Host
}
