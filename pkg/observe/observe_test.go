package observe

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wdm-protocol/wdm-go/pkg/model"
)

func newCapturedLogger() (*logrus.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return log, &buf
}

func TestListenerFailed(t *testing.T) {
	log, buf := newCapturedLogger()
	o := NewLogObserver(log)

	o.ListenerFailed(model.ChangeKey("device", "url"), "device", errors.New("boom"))

	out := buf.String()
	assert.Contains(t, out, "change listener failed")
	assert.Contains(t, out, "change:device.url")
	assert.Contains(t, out, "path=device")
	assert.Contains(t, out, "boom")
}

func TestMutationFailed(t *testing.T) {
	log, buf := newCapturedLogger()
	o := NewLogObserver(log)

	o.MutationFailed(errors.New("rejected"))

	assert.Contains(t, buf.String(), "queued mutation failed")
	assert.Contains(t, buf.String(), "rejected")
}

func TestInstall(t *testing.T) {
	log, buf := newCapturedLogger()
	Install(log)
	defer model.SetDefaultErrorObserver(nil)

	// A tree without its own observer reports through the installed one.
	tree := model.NewTree()
	node, err := tree.Root().AddChild("device")
	require.NoError(t, err)
	node.On(model.ChangeKey("url"), func(model.Change) { panic("listener boom") })

	require.NoError(t, node.Attributes().Set("url", "wss://host"))

	out := buf.String()
	assert.True(t, strings.Contains(out, "change listener failed"), "got log: %s", out)
	assert.Contains(t, out, "listener boom")
}
