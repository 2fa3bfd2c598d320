package config

import (
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetupLogger points the global logger at w in console format and applies
// the configured level. Commands pass stderr since stdout carries protocol
// or game output.
func (c Config) SetupLogger(w io.Writer) {
	zerolog.SetGlobalLevel(c.Level())
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()
}
