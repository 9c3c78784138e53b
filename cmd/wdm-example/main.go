// Command wdm-example demonstrates the reactive device state model.
//
// This example shows how to:
//   - Build the standard device tree
//   - Subscribe at several scopes, from one feature entry to the root
//   - Apply registration snapshots in a single coalesced pass
//   - Mutate individual features and watch the cascade
//
// Usage:
//
//	go run ./cmd/wdm-example
package main

import (
	"log"

	"github.com/wdm-protocol/wdm-go/pkg/device"
	"github.com/wdm-protocol/wdm-go/pkg/model"
	"github.com/wdm-protocol/wdm-go/pkg/observe"
	"github.com/wdm-protocol/wdm-go/pkg/subscription"
	"github.com/wdm-protocol/wdm-go/pkg/wire"
)

func main() {
	log.SetFlags(log.Ltime | log.Lmicroseconds)
	log.Println("WDM Device State Example")
	log.Println("========================")

	observe.Install(nil)

	dev := device.New()
	subs := subscription.NewManager(dev.Tree().Root())

	// Subscribe from the narrowest scope to the widest.
	for _, path := range []string{
		"device.features.developer.remoteLog",
		"device.features.developer",
		"device.features",
		"device",
	} {
		p := path
		if _, err := subs.Subscribe(p, func(ch model.Change) {
			if ch.Key != "" {
				log.Printf("  [%s] %s %s = %v", p, ch.Op, ch.Path, ch.Value)
				return
			}
			log.Printf("  [%s] %s under %s", p, ch.Op, ch.Path)
		}); err != nil {
			log.Fatalf("Subscribe %s: %v", p, err)
		}
	}
	if _, err := subs.Subscribe("", func(ch model.Change) {
		log.Printf("  [root] change (source %s)", ch.Source.Path())
	}); err != nil {
		log.Fatalf("Subscribe root: %v", err)
	}
	log.Printf("Registered %d subscriptions", subs.Count())

	log.Println("--- initial registration snapshot ---")
	if err := dev.Replace(registration("true")); err != nil {
		log.Fatalf("Replace: %v", err)
	}

	log.Println("--- identical snapshot (silent no-op) ---")
	if err := dev.Replace(registration("true")); err != nil {
		log.Fatalf("Replace: %v", err)
	}
	log.Println("  (no events)")

	log.Println("--- snapshot flipping one feature ---")
	if err := dev.Replace(registration("false")); err != nil {
		log.Fatalf("Replace: %v", err)
	}

	log.Println("--- single feature write ---")
	if err := dev.Developer().Set("logLevel", "warn"); err != nil {
		log.Fatalf("Set: %v", err)
	}

	level, _ := dev.Developer().Value("logLevel")
	log.Printf("Final state: url=%s remoteLog=%v logLevel=%v",
		dev.URL(), dev.Developer().Enabled("remoteLog"), level)
}

func registration(remoteLog string) wire.Snapshot {
	return wire.Snapshot{
		"url":          "wss://example.invalid/device/abc",
		"webSocketUrl": "wss://example.invalid/stream/abc",
		"features": map[string]any{
			"developer": []any{
				map[string]any{"key": "remoteLog", "val": remoteLog, "mutable": true, "type": "boolean"},
				map[string]any{"key": "logLevel", "val": "debug", "mutable": true, "type": "string"},
			},
			"entitlement": []any{
				map[string]any{"key": "maxDevices", "val": "8", "mutable": false, "type": "number"},
			},
			"user": []any{
				map[string]any{"key": "newSystemMessages", "val": "true", "mutable": true, "type": "boolean"},
			},
		},
	}
}
