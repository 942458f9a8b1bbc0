package ir

// Version constants for the output schema and generator.
const (
	// SchemaVersion is the association output schema version.
	SchemaVersion = "1"

	// GeneratorVersion is the asngen generator version.
	GeneratorVersion = "0.1.0"
)
