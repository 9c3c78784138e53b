// Package observe routes model dispatch failures into structured logs.
//
// Listener panics and queued-mutation errors have no caller to return
// to; the model hands them to an error observer instead. LogObserver is
// the standard one, logging through logrus with the event key and scope
// path as fields. Install wires it in process-wide.
package observe

import (
	"github.com/sirupsen/logrus"

	"github.com/wdm-protocol/wdm-go/pkg/model"
)

// LogObserver reports model dispatch failures through a logrus logger.
type LogObserver struct {
	log *logrus.Logger
}

// NewLogObserver creates an observer writing to the given logger. A nil
// logger falls back to the logrus standard logger.
func NewLogObserver(log *logrus.Logger) *LogObserver {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &LogObserver{log: log}
}

// ListenerFailed logs a panic recovered from a listener callback.
func (o *LogObserver) ListenerFailed(key model.EventKey, path string, err error) {
	o.log.WithFields(logrus.Fields{
		"event": string(key),
		"path":  path,
	}).WithError(err).Error("change listener failed")
}

// MutationFailed logs an error from a queued re-entrant mutation.
func (o *LogObserver) MutationFailed(err error) {
	o.log.WithError(err).Error("queued mutation failed")
}

// Install makes a LogObserver the process-wide error observer and
// returns it.
func Install(log *logrus.Logger) *LogObserver {
	o := NewLogObserver(log)
	model.SetDefaultErrorObserver(o)
	return o
}
