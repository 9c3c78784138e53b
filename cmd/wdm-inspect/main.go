// Command wdm-inspect is an interactive shell around a device state
// tree: read and write attribute paths, watch change scopes, and apply
// snapshot files.
//
// Usage:
//
//	go run ./cmd/wdm-inspect [-state wdm-state.json]
package main

import (
	"flag"
	"log"

	"github.com/wdm-protocol/wdm-go/pkg/device"
	"github.com/wdm-protocol/wdm-go/pkg/observe"
	"github.com/wdm-protocol/wdm-go/pkg/persistence"
	"github.com/wdm-protocol/wdm-go/pkg/subscription"
)

func main() {
	statePath := flag.String("state", "wdm-state.json", "snapshot persistence file")
	flag.Parse()

	log.SetFlags(log.Ltime | log.Lmicroseconds)
	observe.Install(nil)

	dev := device.New()
	store := persistence.NewSnapshotStore(*statePath)

	// Rebuild state from the last persisted snapshot, if any.
	if snapshot, err := store.Load(); err != nil {
		log.Printf("Loading %s: %v", *statePath, err)
	} else if snapshot != nil {
		if err := dev.Replace(snapshot); err != nil {
			log.Printf("Applying persisted snapshot: %v", err)
		} else {
			log.Printf("Restored state from %s", *statePath)
		}
	}

	sh, err := newShell(dev, subscription.NewManager(dev.Tree().Root()), store)
	if err != nil {
		log.Fatalf("Failed to create shell: %v", err)
	}
	sh.run()
}
