package main

import (
	"os"

	"github.com/rs/zerolog"
)

// zeroLogger adapts zerolog to the auth.Logger interface.
type zeroLogger struct {
	l zerolog.Logger
}

func newLogger(production bool, name string) *zeroLogger {
	var l zerolog.Logger
	if production {
		l = zerolog.New(os.Stdout).With().Timestamp().Str("component", name).Logger()
	} else {
		l = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			With().Timestamp().Str("component", name).Logger().
			Level(zerolog.DebugLevel)
	}
	return &zeroLogger{l: l}
}

func (z *zeroLogger) named(name string) *zeroLogger {
	return &zeroLogger{l: z.l.With().Str("component", name).Logger()}
}

func (z *zeroLogger) Debug(format string, args ...any) { z.l.Debug().Msgf(format, args...) }
func (z *zeroLogger) Info(format string, args ...any)  { z.l.Info().Msgf(format, args...) }
func (z *zeroLogger) Warn(format string, args ...any)  { z.l.Warn().Msgf(format, args...) }
func (z *zeroLogger) Error(format string, args ...any) { z.l.Error().Msgf(format, args...) }
