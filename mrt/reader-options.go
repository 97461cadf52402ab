package mrt

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultReaderOptions are ReaderOptions that log to the global zerolog
// logger. Reader does not apply them on its own: a zero-value
// ReaderOptions disables logging.
var DefaultReaderOptions = ReaderOptions{
	Logger: &log.Logger,
}

// ReaderOptions configures Reader, following the teacher's
// plain-Options-struct convention (mrt.ReaderOptions/pipe.Options in the
// ancestor project).
type ReaderOptions struct {
	Logger *zerolog.Logger // if nil, logging is disabled
}

func (o ReaderOptions) logger() zerolog.Logger {
	if o.Logger == nil {
		return zerolog.Nop()
	}
	return *o.Logger
}
