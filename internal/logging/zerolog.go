package logging

import (
	"fmt"

	"github.com/arloliu/subwire/types"
	"github.com/rs/zerolog"
)

// ZerologLogger implements types.Logger on top of zerolog.
//
// Key/value pairs become zerolog fields; a trailing key without value is logged
// with the value "<missing>". Error values are attached with zerolog's error
// marshaling so they render under their key like any other field.
type ZerologLogger struct {
	logger zerolog.Logger
}

// Compile-time assertion that ZerologLogger implements Logger.
var _ types.Logger = (*ZerologLogger)(nil)

// NewZerolog wraps a zerolog.Logger.
//
// Example:
//
//	logger := NewZerolog(zerolog.New(os.Stderr).With().Timestamp().Logger())
func NewZerolog(logger zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{logger: logger}
}

// Debug logs at debug level.
func (l *ZerologLogger) Debug(msg string, keysAndValues ...any) {
	withFields(l.logger.Debug(), keysAndValues).Msg(msg)
}

// Info logs at info level.
func (l *ZerologLogger) Info(msg string, keysAndValues ...any) {
	withFields(l.logger.Info(), keysAndValues).Msg(msg)
}

// Warn logs at warn level.
func (l *ZerologLogger) Warn(msg string, keysAndValues ...any) {
	withFields(l.logger.Warn(), keysAndValues).Msg(msg)
}

// Error logs at error level.
func (l *ZerologLogger) Error(msg string, keysAndValues ...any) {
	withFields(l.logger.Error(), keysAndValues).Msg(msg)
}

// Fatal logs at fatal level; zerolog exits the process after writing.
func (l *ZerologLogger) Fatal(msg string, keysAndValues ...any) {
	withFields(l.logger.Fatal(), keysAndValues).Msg(msg)
}

func withFields(ev *zerolog.Event, keysAndValues []any) *zerolog.Event {
	// Disabled levels return a nil event; zerolog methods are nil-safe but
	// skipping the loop avoids formatting keys for nothing.
	if ev == nil {
		return ev
	}

	for i := 0; i < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}

		if i+1 >= len(keysAndValues) {
			ev = ev.Str(key, "<missing>")
			break
		}

		switch v := keysAndValues[i+1].(type) {
		case error:
			ev = ev.AnErr(key, v)
		case fmt.Stringer:
			ev = ev.Stringer(key, v)
		default:
			ev = ev.Interface(key, v)
		}
	}

	return ev
}
