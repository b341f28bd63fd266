package config

const (
	defaultConfigPath  = "~/.config/autosub/config.toml"
	projectConfigName  = "autosub.toml"
	defaultEngine      = "baidu"
	defaultLanguage    = "1537"
	defaultRetries     = 3
	defaultOnError     = "skip"
	defaultFormat      = "srt"
	defaultConcurrency = 1
	defaultSampleRate  = 16000
	defaultPadding     = 0.25
	defaultFrameWidth  = 4096
	defaultMinRegion   = 0.5
	defaultMaxRegion   = 6.0
	defaultFFmpegPath  = "ffmpeg"
	defaultWhisperBin  = "whisper-cli"
	defaultLogFormat   = "console"
	defaultLogLevel    = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Transcode: Transcode{
			FFmpegPath: defaultFFmpegPath,
			SampleRate: defaultSampleRate,
			PadBefore:  defaultPadding,
			PadAfter:   defaultPadding,
		},
		VAD: VAD{
			FrameWidth: defaultFrameWidth,
			MinRegion:  defaultMinRegion,
			MaxRegion:  defaultMaxRegion,
		},
		Recognition: Recognition{
			Engine:   defaultEngine,
			Language: defaultLanguage,
			Retries:  defaultRetries,
			OnError:  defaultOnError,
		},
		Pipeline: Pipeline{
			Concurrency: defaultConcurrency,
			Format:      defaultFormat,
		},
		Logging: Logging{
			Format:   defaultLogFormat,
			Level:    defaultLogLevel,
			Progress: true,
		},
		Whisper: Whisper{
			Bin: defaultWhisperBin,
		},
	}
}
