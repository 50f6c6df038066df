package config

const (
	defaultDataDir                   = "~/.local/share/stemset/data"
	defaultRawAudioSubdir            = "raw/audio"
	defaultSpleeterSubdir            = "processed/spleeter_audio"
	defaultDemucsSubdir              = "processed/demucs_audio"
	defaultCatalogDir                = "~/.config/stemset/catalogs"
	defaultLogDir                    = "~/.local/share/stemset/logs"
	defaultYtDlp                     = "yt-dlp"
	defaultFFmpeg                    = "ffmpeg"
	defaultFFprobe                   = "ffprobe"
	defaultSpleeter                  = "spleeter"
	defaultDemucs                    = "demucs"
	defaultProbeTimeoutSeconds       = 10
	defaultAttemptsPerSource         = 3
	defaultSplitTimeoutSeconds       = 10
	defaultSpleeterModel             = "spleeter:5stems-16kHz"
	defaultDemucsModel               = "htdemucs_6s"
	defaultSpleeterTimeoutMultiplier = 5
	defaultDemucsTimeoutMultiplier   = 10
	defaultLogFormat                 = "console"
	defaultLogLevel                  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:    defaultDataDir,
			CatalogDir: defaultCatalogDir,
			LogDir:     defaultLogDir,
		},
		Tools: Tools{
			YtDlp:    defaultYtDlp,
			FFmpeg:   defaultFFmpeg,
			FFprobe:  defaultFFprobe,
			Spleeter: defaultSpleeter,
			Demucs:   defaultDemucs,
		},
		Acquisition: Acquisition{
			ProbeTimeout:      defaultProbeTimeoutSeconds,
			AttemptsPerSource: defaultAttemptsPerSource,
			SplitTimeout:      defaultSplitTimeoutSeconds,
		},
		Separation: Separation{
			SpleeterModel:             defaultSpleeterModel,
			DemucsModel:               defaultDemucsModel,
			SpleeterTimeoutMultiplier: defaultSpleeterTimeoutMultiplier,
			DemucsTimeoutMultiplier:   defaultDemucsTimeoutMultiplier,
			SeparateChannels:          true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
