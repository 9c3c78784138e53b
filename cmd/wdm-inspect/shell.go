package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/uuid"

	"github.com/wdm-protocol/wdm-go/pkg/device"
	"github.com/wdm-protocol/wdm-go/pkg/model"
	"github.com/wdm-protocol/wdm-go/pkg/persistence"
	"github.com/wdm-protocol/wdm-go/pkg/subscription"
	"github.com/wdm-protocol/wdm-go/pkg/wire"
)

// shell drives the interactive session.
type shell struct {
	dev   *device.Device
	subs  *subscription.Manager
	store *persistence.SnapshotStore
	rl    *readline.Instance

	// Active watches by path.
	watches map[string]uuid.UUID
}

func newShell(dev *device.Device, subs *subscription.Manager, store *persistence.SnapshotStore) (*shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "wdm> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &shell{
		dev:     dev,
		subs:    subs,
		store:   store,
		rl:      rl,
		watches: make(map[string]uuid.UUID),
	}, nil
}

func (s *shell) run() {
	defer s.rl.Close()

	s.printHelp()

	for {
		line, err := s.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			s.printHelp()

		case "show":
			s.cmdShow()

		case "get", "g":
			s.cmdGet(args)

		case "set", "s":
			s.cmdSet(args)

		case "features", "f":
			s.cmdFeatures(args)

		case "feature":
			s.cmdFeature(args)

		case "watch", "w":
			s.cmdWatch(args)

		case "unwatch":
			s.cmdUnwatch(args)

		case "replace":
			s.cmdReplace(args)

		case "save":
			s.cmdSave()

		case "quit", "exit", "q":
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			return

		default:
			fmt.Fprintf(s.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (s *shell) printHelp() {
	fmt.Fprintln(s.rl.Stdout(), `
WDM Inspector Commands:
  State:
    show                       - Print the current snapshot
    get <path>                 - Read an attribute (e.g. device.url)
    set <path> <value>         - Write an attribute
    features [set]             - List feature records (developer/entitlement/user)
    feature <set> <key> <val>  - Write a mutable feature value

  Events:
    watch <path>               - Subscribe to a scope ('' paths watch everything)
    unwatch <path>             - Drop a watch

  Snapshots:
    replace <file>             - Apply a snapshot JSON file in one pass
    save                       - Persist the current state

  General:
    help                       - Show this help
    quit                       - Exit`)
}

func (s *shell) cmdShow() {
	data, err := json.MarshalIndent(s.dev.Snapshot(), "", "  ")
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintln(s.rl.Stdout(), string(data))
}

func (s *shell) cmdGet(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: get <path>")
		return
	}
	node, key, err := s.resolve(args[0])
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}
	value, ok := node.Attributes().Get(key)
	if !ok {
		fmt.Fprintf(s.rl.Stdout(), "%s: (absent)\n", args[0])
		return
	}
	fmt.Fprintf(s.rl.Stdout(), "%s = %v\n", args[0], value)
}

func (s *shell) cmdSet(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: set <path> <value>")
		return
	}
	node, key, err := s.resolve(args[0])
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}
	if err := node.Attributes().Set(key, parseScalar(strings.Join(args[1:], " "))); err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
	}
}

func (s *shell) cmdFeatures(args []string) {
	names := []string{device.SetDeveloper, device.SetEntitlement, device.SetUser}
	if len(args) == 1 {
		names = []string{args[0]}
	}
	for _, name := range names {
		set, err := s.dev.FeatureSet(name)
		if err != nil {
			fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
			return
		}
		fmt.Fprintf(s.rl.Stdout(), "%s (%d):\n", name, set.Len())
		for _, key := range set.Keys() {
			f, err := set.Get(key)
			if err != nil {
				continue
			}
			mutable := "ro"
			if f.Mutable {
				mutable = "rw"
			}
			fmt.Fprintf(s.rl.Stdout(), "  %-24s = %-12v [%s %s]\n", f.Key, f.Value, mutable, f.Type)
		}
	}
}

func (s *shell) cmdFeature(args []string) {
	if len(args) < 3 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: feature <set> <key> <value>")
		return
	}
	set, err := s.dev.FeatureSet(args[0])
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}
	if err := set.Set(args[1], parseScalar(strings.Join(args[2:], " "))); err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
	}
}

func (s *shell) cmdWatch(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: watch <path>")
		return
	}
	path := args[0]
	if _, active := s.watches[path]; active {
		fmt.Fprintf(s.rl.Stdout(), "Already watching %s\n", path)
		return
	}
	id, err := s.subs.Subscribe(path, func(ch model.Change) {
		if ch.Key != "" {
			fmt.Fprintf(s.rl.Stdout(), "[%s] %s %s = %v\n", path, ch.Op, ch.Path, ch.Value)
			return
		}
		fmt.Fprintf(s.rl.Stdout(), "[%s] %s under %s\n", path, ch.Op, ch.Path)
	})
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}
	s.watches[path] = id
	fmt.Fprintf(s.rl.Stdout(), "Watching %s (%d active)\n", path, s.subs.Count())
}

func (s *shell) cmdUnwatch(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: unwatch <path>")
		return
	}
	id, active := s.watches[args[0]]
	if !active {
		fmt.Fprintf(s.rl.Stdout(), "Not watching %s\n", args[0])
		return
	}
	if err := s.subs.Unsubscribe(id); err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}
	delete(s.watches, args[0])
}

func (s *shell) cmdReplace(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: replace <file>")
		return
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}
	snapshot, err := wire.DecodeJSON(data)
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}
	if err := s.dev.Replace(snapshot); err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Replace finished with errors: %v\n", err)
	}
}

func (s *shell) cmdSave() {
	if err := s.store.Save(s.dev.Snapshot()); err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintln(s.rl.Stdout(), "Saved")
}

// resolve splits a dotted attribute path into its owning node and
// terminal key. The first segment must be "device".
func (s *shell) resolve(path string) (*model.Node, string, error) {
	segments := strings.Split(path, ".")
	if len(segments) < 2 || segments[0] != "device" {
		return nil, "", fmt.Errorf("path must look like device[.child...].<attribute>")
	}
	node := s.dev.Node()
	for _, seg := range segments[1 : len(segments)-1] {
		child, err := node.Child(seg)
		if err != nil {
			return nil, "", err
		}
		node = child
	}
	return node, segments[len(segments)-1], nil
}

// parseScalar mirrors feature value parsing: booleans, then numbers,
// then the raw string.
func parseScalar(raw string) any {
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return n
	}
	return raw
}
