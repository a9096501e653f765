package commands

// Config is assembled by main from the global (pre-verb) flags and handed to
// every verb.
type Config struct {
	// IsQuiet suppresses the human-oriented stdout output.
	IsQuiet bool

	// LabConfigPath points to the lab configuration file; empty selects
	// the default location.
	LabConfigPath string
}
