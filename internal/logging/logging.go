package logging

import (
	"os"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

// Setup configures the global zerolog logger for a service and returns it.
// Every log line carries the service name so the two binaries can share one sink.
func Setup(service string) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zlog.Logger = zerolog.New(os.Stdout).With().Timestamp().Str("service", service).Logger()
	return zlog.Logger
}
