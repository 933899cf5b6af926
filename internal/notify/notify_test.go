package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitepub/internal/config"
)

func TestNew_DisabledWhenUnconfigured(t *testing.T) {
	n, err := New(config.NotifyConfig{})
	require.NoError(t, err)
	require.Nil(t, n)
}

func TestNilNotifierIsSafe(t *testing.T) {
	var n *Notifier
	require.NoError(t, n.Publish(CycleEvent{CycleID: "c1", Outcome: "success", FinishedAt: time.Now()}))
	n.Close()
}
