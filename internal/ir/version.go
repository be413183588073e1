package ir

// Versions recorded with every journaled run. Replay refuses runs written
// under a different constant text syntax.
const (
	// TextVersion is the version of the constant text syntax.
	TextVersion = "1"

	// EngineVersion is the constfold engine version.
	EngineVersion = "0.1.0"
)
