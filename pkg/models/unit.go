package models

// MethodParameter is one formal parameter of a query method, as exposed
// by the source-model collaborator. BoundColumn is the column whose value
// the parameter supplies, when the collaborator could determine it.
type MethodParameter struct {
	Ref         ParameterRef `json:"ref"`
	BoundColumn string       `json:"bound_column,omitempty"`
}

// QueryMethod is one data-access method to analyze. RawQuery is empty for
// derived (name-inferred) methods, which also have no parsed statement.
type QueryMethod struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	RawQuery     string            `json:"raw_query,omitempty"`
	PrimaryTable string            `json:"primary_table"`
	Parameters   []MethodParameter `json:"parameters,omitempty"`
	// Derived marks methods whose query is inferred from the method name
	// rather than declared as query text.
	Derived bool `json:"derived,omitempty"`
}
