package config

const (
	defaultStateDir         = "~/.local/share/outtake"
	defaultLogDir           = "~/.local/share/outtake/logs"
	defaultHashAlgorithm    = HashSHA1
	defaultPreserveMetadata = true
	defaultJournalEnabled   = true
	defaultLogFormat        = "console"
	defaultLogLevel         = "warn"
	defaultLogFile          = true
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Relocation: Relocation{
			HashAlgorithm:    defaultHashAlgorithm,
			PreserveMetadata: defaultPreserveMetadata,
		},
		Journal: Journal{
			Enabled: defaultJournalEnabled,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
			File:   defaultLogFile,
		},
	}
}
