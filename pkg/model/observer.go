package model

import (
	"log"
	"sync"
)

// ErrorObserver receives failures that cannot be returned to a caller:
// listener panics during dispatch and errors from mutations that were
// queued by a listener (whose original caller has already returned).
type ErrorObserver interface {
	// ListenerFailed reports a panic recovered from a listener callback.
	// key and path identify the scope the listener was registered on.
	ListenerFailed(key EventKey, path string, err error)

	// MutationFailed reports an error from a queued re-entrant mutation.
	MutationFailed(err error)
}

var (
	observerMu      sync.Mutex
	processObserver ErrorObserver = stdLogObserver{}
)

// SetDefaultErrorObserver replaces the process-wide error observer used by
// trees without their own. Passing nil restores the built-in observer,
// which writes to the standard logger.
func SetDefaultErrorObserver(o ErrorObserver) {
	observerMu.Lock()
	defer observerMu.Unlock()
	if o == nil {
		o = stdLogObserver{}
	}
	processObserver = o
}

func defaultErrorObserver() ErrorObserver {
	observerMu.Lock()
	defer observerMu.Unlock()
	return processObserver
}

// stdLogObserver is the fallback observer. Failures are never silently
// swallowed.
type stdLogObserver struct{}

func (stdLogObserver) ListenerFailed(key EventKey, path string, err error) {
	log.Printf("wdm: listener for %q at %q failed: %v", key, path, err)
}

func (stdLogObserver) MutationFailed(err error) {
	log.Printf("wdm: queued mutation failed: %v", err)
}
