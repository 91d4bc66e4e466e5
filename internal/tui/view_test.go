package tui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFormatRelative(t *testing.T) {
	now := time.Now()

	require.Equal(t, "now", formatRelative(now))
	require.Equal(t, "5m ago", formatRelative(now.Add(-5*time.Minute)))
	require.Equal(t, "2h ago", formatRelative(now.Add(-2*time.Hour)))
	require.Equal(t, "3d ago", formatRelative(now.Add(-73*time.Hour)))
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "short", truncate("short", 20))
	require.Equal(t, "a very lo…", truncate("a very long conversation title", 10))
}
