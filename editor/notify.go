package editor

import (
	"github.com/sirupsen/logrus"
)

// Alert is a user-visible notification.
type Alert struct {
	Level   logrus.Level
	Message string
}

type Notifier interface {
	Notify(Alert)
}

// LogNotifier writes alerts to the standard logger.
type LogNotifier struct{}

func (LogNotifier) Notify(a Alert) {
	logrus.StandardLogger().Log(a.Level, a.Message)
}

// ChanNotifier delivers alerts on a channel without blocking; alerts that do
// not fit in the buffer are logged and dropped.
type ChanNotifier chan Alert

func NewChanNotifier(size int) ChanNotifier {
	return make(ChanNotifier, size)
}

func (c ChanNotifier) Notify(a Alert) {
	select {
	case c <- a:
	default:
		logrus.Warnf("alert dropped: %s", a.Message)
	}
}
