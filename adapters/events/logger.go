package events

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/sirupsen/logrus"
)

// LogrusAdapter routes watermill's internal logging into logrus
type LogrusAdapter struct {
	entry *logrus.Entry
}

// NewLogrusAdapter wraps a logrus entry as a watermill logger
func NewLogrusAdapter(entry *logrus.Entry) *LogrusAdapter {
	return &LogrusAdapter{entry: entry}
}

func (a *LogrusAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.with(fields).WithError(err).Error(msg)
}

func (a *LogrusAdapter) Info(msg string, fields watermill.LogFields) {
	a.with(fields).Info(msg)
}

func (a *LogrusAdapter) Debug(msg string, fields watermill.LogFields) {
	a.with(fields).Debug(msg)
}

func (a *LogrusAdapter) Trace(msg string, fields watermill.LogFields) {
	a.with(fields).Trace(msg)
}

func (a *LogrusAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &LogrusAdapter{entry: a.with(fields)}
}

func (a *LogrusAdapter) with(fields watermill.LogFields) *logrus.Entry {
	if len(fields) == 0 {
		return a.entry
	}
	return a.entry.WithFields(logrus.Fields(fields))
}

var _ watermill.LoggerAdapter = (*LogrusAdapter)(nil)
