package client

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	session "github.com/urbanease/go-session"
)

// ZerologAdapter bridges a zerolog.Logger to the session.Logger contract.
type ZerologAdapter struct {
	log zerolog.Logger
}

var _ session.Logger = (*ZerologAdapter)(nil)

// NewLogger builds a console logger for the given environment. Production
// gets JSON output at info level; everything else gets the pretty console
// writer at debug level.
func NewLogger(environment string) *ZerologAdapter {
	var out io.Writer = os.Stderr
	level := zerolog.InfoLevel

	if !strings.EqualFold(environment, "production") {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
		level = zerolog.DebugLevel
	}

	log := zerolog.New(out).Level(level).With().
		Timestamp().
		Str("component", "session").
		Logger()

	return &ZerologAdapter{log: log}
}

// WrapLogger adapts an existing zerolog.Logger.
func WrapLogger(log zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{log: log}
}

func (z *ZerologAdapter) Debug(format string, args ...any) {
	z.log.Debug().Msg(fmt.Sprintf(format, args...))
}

func (z *ZerologAdapter) Info(format string, args ...any) {
	z.log.Info().Msg(fmt.Sprintf(format, args...))
}

func (z *ZerologAdapter) Warn(format string, args ...any) {
	z.log.Warn().Msg(fmt.Sprintf(format, args...))
}

func (z *ZerologAdapter) Error(format string, args ...any) {
	z.log.Error().Msg(fmt.Sprintf(format, args...))
}
