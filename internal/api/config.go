package api

import "github.com/matsunana829/waka-kana-conv/core/analyzer"

// Config holds server configuration.
type Config struct {
	Host           string
	Port           int
	MaxUploadBytes int64           // Per-request upload limit (0 = default)
	AllowedOrigins []string        // CORS allowed origins (empty = allow all)
	Analyzer       analyzer.Config // Dictionary configuration for the shared handle
}

const defaultMaxUploadBytes = 32 << 20

func (c Config) maxUploadBytes() int64 {
	if c.MaxUploadBytes > 0 {
		return c.MaxUploadBytes
	}
	return defaultMaxUploadBytes
}
