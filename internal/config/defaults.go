package config

import "github.com/danielemils/new-alice/internal/effects"

const (
	defaultOutputDir             = "~/Music/alice"
	defaultStateDir              = "~/.local/share/alice"
	defaultLogDir                = "~/.local/share/alice/logs"
	defaultSoxBinary             = "sox"
	defaultPollIntervalMS        = 100
	defaultTerminateGraceSeconds = 5
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultLogMaxSizeMB          = 20
	defaultLogMaxBackups         = 5
	defaultLogMaxAgeDays         = 60
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	fx := effects.Default()
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
			StateDir:  defaultStateDir,
		},
		Effects: Effects{
			Noise:          fx.Noise,
			Compressor:     fx.Compressor,
			Frequency:      fx.Frequency,
			ChunkIntoHours: fx.ChunkIntoHours,
		},
		Sox: Sox{
			Binary:                defaultSoxBinary,
			PollIntervalMS:        defaultPollIntervalMS,
			TerminateGraceSeconds: defaultTerminateGraceSeconds,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
		},
	}
}
