/*
Package logx wraps zerolog for the relay.

Setup installs the process-wide logger. Long-lived parts of the relay take a tagged child
with Component, request handlers take the request-scoped logger with Ctx, and the
package-level helpers cover one-off messages from main and the HTTP layer.
*/
package logx

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options selects where and how the relay logs.
type Options struct {
	// Level is a zerolog level name. Empty means debug on a console and info otherwise.
	Level string

	// Console switches from JSON lines to zerolog's human-readable writer.
	Console bool

	// Out defaults to stdout for JSON and stderr for the console writer.
	Out io.Writer
}

// Setup installs the global logger described by opts.
func Setup(opts Options) error {
	level := zerolog.InfoLevel
	if opts.Console {
		level = zerolog.DebugLevel
	}
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	out := opts.Out
	if opts.Console {
		if out == nil {
			out = os.Stderr
		}
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	} else if out == nil {
		out = os.Stdout
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(out).Level(level).With().Timestamp().Caller().Logger()

	return nil
}

// Logger returns the global logger.
func Logger() *zerolog.Logger {
	return &log.Logger
}

// Component returns a child of the global logger tagged with the given component name.
func Component(name string) zerolog.Logger {
	return Logger().With().Str("component", name).Logger()
}

// Ctx returns the logger RequestLogger stored in ctx, or the global logger outside a request.
func Ctx(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	return Logger()
}

// fieldMap turns alternating key/value arguments into a field map.
// A trailing key without a value is kept under "extra" rather than dropped.
func fieldMap(kv []any) map[string]any {
	if len(kv) == 0 {
		return nil
	}

	fields := make(map[string]any, len(kv)/2+1)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		fields[key] = kv[i+1]
	}
	if len(kv)%2 != 0 {
		fields["extra"] = kv[len(kv)-1]
	}

	return fields
}

func write(e *zerolog.Event, msg string, kv []any) {
	e.Fields(fieldMap(kv)).CallerSkipFrame(2).Msg(msg)
}

// Debug logs msg with key/value fields at debug level.
func Debug(msg string, kv ...any) { write(Logger().Debug(), msg, kv) }

// Info logs msg with key/value fields at info level.
func Info(msg string, kv ...any) { write(Logger().Info(), msg, kv) }

func Warn(msg string, kv ...any) { write(Logger().Warn(), msg, kv) }

func Error(err error, msg string, kv ...any) { write(Logger().Error().Err(err), msg, kv) }

// Fatal logs at fatal level and exits the process.
func Fatal(err error, msg string, kv ...any) { write(Logger().Fatal().Err(err), msg, kv) }
