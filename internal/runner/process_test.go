package runner

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRunOnceCapturesExitCodeAndOutput(t *testing.T) {
	code, result := runOnce("echo out; echo err 1>&2; exit 3", time.Second, nil)
	require.Equal(t, 3, code)
	require.Equal(t, procExited, result.status)
	require.Contains(t, result.output, "out")
	require.Contains(t, result.output, "err")
}

func TestRunOnceSuccess(t *testing.T) {
	code, result := runOnce("true", time.Second, nil)
	require.Equal(t, 0, code)
	require.Equal(t, procExited, result.status)
}

func TestRunOnceTimeout(t *testing.T) {
	code, result := runOnce("sleep 5", 300*time.Millisecond, nil)
	require.Equal(t, -1, code)
	require.Equal(t, procTimeout, result.status)
}

func TestRunOnceCancellation(t *testing.T) {
	var cancelled atomic.Bool
	go func() {
		time.Sleep(150 * time.Millisecond)
		cancelled.Store(true)
	}()
	code, result := runOnce("sleep 5", 10*time.Second, &cancelled)
	require.Equal(t, -1, code)
	require.Equal(t, procCancelled, result.status)
}

func TestRunBaselineMeasuresDuration(t *testing.T) {
	code, output, duration := runBaseline(context.Background(), "echo hi; exit 1")
	require.Equal(t, 1, code)
	require.Contains(t, output, "hi")
	require.Less(t, duration, 2*time.Second)
}
