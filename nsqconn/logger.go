package nsqconn

import (
	"errors"
	"strings"

	"github.com/arloliu/subwire/types"
)

// logBridge adapts types.Logger to go-nsq's Output based logger.
//
// go-nsq prefixes every line with its level ("DBG", "INF", "WRN", "ERR").
type logBridge struct {
	logger  types.Logger
	onFault func(error)
}

// Output implements go-nsq's logger interface.
func (b *logBridge) Output(_ int, line string) error {
	level, msg, _ := strings.Cut(line, " ")
	msg = strings.TrimSpace(msg)

	switch level {
	case "DBG":
		b.logger.Debug(msg, "component", "go-nsq")
	case "INF":
		b.logger.Info(msg, "component", "go-nsq")
	case "WRN":
		b.logger.Warn(msg, "component", "go-nsq")
	default:
		b.logger.Error(msg, "component", "go-nsq")
		if b.onFault != nil && isConnectionFault(msg) {
			b.onFault(errors.New(msg))
		}
	}

	return nil
}

func isConnectionFault(msg string) bool {
	return strings.Contains(msg, "IO error") || strings.Contains(msg, "protocol error")
}
