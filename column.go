package quarry

// A TableHandle identifies a table within a connector. Handles are opaque
// to the optimizer; column names are resolved through Metadata.
type TableHandle interface {
	TableName() string
}

// A ColumnHandle identifies a column of a table within a connector,
// optionally narrowed to a set of required Subfields.
type ColumnHandle interface {
	// WithRequiredSubfields returns a copy of this handle which requests
	// only the given Subfields from the underlying reader. Connectors
	// which cannot prune may return the handle unchanged.
	WithRequiredSubfields(subfields []Subfield) ColumnHandle
	// RequiredSubfields returns the Subfields this handle is narrowed
	// to, or nil when the full column is requested
	RequiredSubfields() []Subfield
}

// ColumnMetadata describes a resolved column of a table
type ColumnMetadata struct {
	Name string
	Type Type
}

// Metadata resolves catalog information consumed by the optimizer. It is
// an opaque external service from the optimizer's point of view.
type Metadata interface {
	// ColumnMetadata resolves the metadata for a column of a table
	ColumnMetadata(session *Session, table TableHandle, column ColumnHandle) (ColumnMetadata, error)
	// FunctionMetadata resolves the metadata for a function
	FunctionMetadata(handle FunctionHandle) (FunctionMetadata, error)
}
