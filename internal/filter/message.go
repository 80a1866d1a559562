package filter

import (
	"fmt"
	"time"

	"github.com/roach88/nxcore/internal/parallel"
)

// Severity classifies a Message.
type Severity uint8

const (
	SeverityInfo Severity = iota
	SeverityProgress
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityProgress:
		return "progress"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "info"
	}
}

// Message is a status update from a running filter.
type Message struct {
	Severity Severity
	Text     string
	// Progress is a percentage for SeverityProgress messages.
	Progress int
}

// MessageHandler receives messages. Filters must not depend on it being
// called; a nil handler drops everything.
type MessageHandler func(Message)

// Send delivers m if h is not nil.
func (h MessageHandler) Send(m Message) {
	if h != nil {
		h(m)
	}
}

// Infof sends an info message.
func (h MessageHandler) Infof(format string, args ...any) {
	h.Send(Message{Severity: SeverityInfo, Text: fmt.Sprintf(format, args...)})
}

// Progress returns a reporter that forwards throttled progress messages
// prefixed with what.
func (h MessageHandler) Progress(what string, total uint64, interval time.Duration) *parallel.ProgressReporter {
	if h == nil {
		return parallel.NewProgressReporter(total, interval, nil)
	}
	return parallel.NewProgressReporter(total, interval, func(p parallel.Progress) {
		h(Message{
			Severity: SeverityProgress,
			Text:     fmt.Sprintf("%s: %d/%d", what, p.Done, p.Total),
			Progress: p.Percent(),
		})
	})
}
