package ir

// Version constants for the kernel IR and the generator.
const (
	// IRVersion is the kernel IR schema version. It is part of every kernel
	// hash, so bumping it invalidates cached runs.
	IRVersion = "1"

	// GeneratorVersion is the symgen generator version.
	GeneratorVersion = "0.1.0"
)
