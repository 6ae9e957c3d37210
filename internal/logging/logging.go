package logging

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// JSONロガーを作る。levelは debug/info/warn/error。
func New(level string) zerolog.Logger {
	lvl := zerolog.InfoLevel

	switch strings.ToLower(level) {
	case "debug":
		lvl = zerolog.DebugLevel
	case "warn":
		lvl = zerolog.WarnLevel
	case "error":
		lvl = zerolog.ErrorLevel
	}

	return zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Logger()
}
