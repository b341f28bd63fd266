package config

import "strings"

const (
	EnvConfig       = "AUTOSUB_CONFIG"
	EnvAppID        = "BAIDU_APP_ID"
	EnvAPIKey       = "BAIDU_API_KEY"
	EnvSecretKey    = "BAIDU_SECRET_KEY"
	EnvCUID         = "BAIDU_CUID"
	EnvAllowedHosts = "BAIDU_ALLOWED_HOSTS"
	EnvFFmpegPath   = "FFMPEG_PATH"
	EnvWhisperBin   = "WHISPER_BIN"
	EnvWhisperModel = "WHISPER_MODEL"
)

// applyEnv overrides file values with non-empty environment variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set(&c.Baidu.AppID, EnvAppID)
	set(&c.Baidu.APIKey, EnvAPIKey)
	set(&c.Baidu.SecretKey, EnvSecretKey)
	set(&c.Baidu.CUID, EnvCUID)
	set(&c.Transcode.FFmpegPath, EnvFFmpegPath)
	set(&c.Whisper.Bin, EnvWhisperBin)
	set(&c.Whisper.Model, EnvWhisperModel)

	if v, ok := lookup(EnvAllowedHosts); ok && strings.TrimSpace(v) != "" {
		c.Baidu.AllowedHosts = SplitList(v)
	}
}

// SplitList splits a comma separated value, dropping blanks.
func SplitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
