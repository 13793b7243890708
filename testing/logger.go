package testing

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/arloliu/subwire/types"
)

// sessionKey is the log field carrying the id of a Listen invocation.
const sessionKey = "session"

// NewTestLogger creates a logger writing through t.Logf.
//
// Lines read "LEVEL [session] message key=value ...". The session column holds the
// first eight characters of the "session" field, so interleaved Listen invocations
// can be told apart, and "-" for lines outside an invocation. Output stops once the
// test's cleanups ran, so late background logging never trips the testing package.
//
// Example:
//
//	l, err := subwire.NewListener(&cfg, dialer, subwire.WithLogger(subtest.NewTestLogger(t)))
func NewTestLogger(t testing.TB) types.Logger {
	l := &testLogger{t: t}
	t.Cleanup(func() { l.done.Store(true) })

	return l
}

type testLogger struct {
	t    testing.TB
	done atomic.Bool
}

var _ types.Logger = (*testLogger)(nil)

func (l *testLogger) Debug(msg string, keysAndValues ...any) {
	l.log("DEBUG", msg, keysAndValues)
}

func (l *testLogger) Info(msg string, keysAndValues ...any) {
	l.log("INFO", msg, keysAndValues)
}

func (l *testLogger) Warn(msg string, keysAndValues ...any) {
	l.log("WARN", msg, keysAndValues)
}

func (l *testLogger) Error(msg string, keysAndValues ...any) {
	l.log("ERROR", msg, keysAndValues)
}

func (l *testLogger) Fatal(msg string, keysAndValues ...any) {
	session, fields := formatKeyValues(keysAndValues)
	l.t.Fatalf("FATAL [%s] %s %s", session, msg, fields)
}

func (l *testLogger) log(level, msg string, keysAndValues []any) {
	if l.done.Load() {
		return
	}

	session, fields := formatKeyValues(keysAndValues)
	l.t.Logf("%s [%s] %s %s", level, session, msg, fields)
}

// formatKeyValues splits out the session column and renders the other pairs.
func formatKeyValues(keysAndValues []any) (string, string) {
	session := "-"
	parts := make([]string, 0, (len(keysAndValues)+1)/2)

	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 >= len(keysAndValues) {
			parts = append(parts, fmt.Sprintf("%v=<missing>", keysAndValues[i]))
			break
		}

		if keysAndValues[i] == sessionKey {
			session = shortSession(fmt.Sprint(keysAndValues[i+1]))
			continue
		}
		parts = append(parts, fmt.Sprintf("%v=%v", keysAndValues[i], keysAndValues[i+1]))
	}

	return session, strings.Join(parts, " ")
}

func shortSession(id string) string {
	if len(id) > 8 {
		return id[:8]
	}

	return id
}
