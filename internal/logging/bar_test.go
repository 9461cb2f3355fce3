package logging_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trailofbits/muton/internal/logging"
)

func TestBarRendersProgress(t *testing.T) {
	var buf bytes.Buffer
	bar := logging.NewBar(&buf, 4, "starting")
	bar.Start()
	bar.Inc("one")
	bar.Inc("two")
	bar.Finish()

	out := buf.String()
	require.Contains(t, out, "2/4")
	require.Contains(t, out, "two")
}

func TestBarAwareWriterPassesThroughWithoutActiveBar(t *testing.T) {
	var buf bytes.Buffer
	w := logging.NewBarAwareWriter(&buf)

	n, err := w.Write([]byte("hello\n"))
	require.NoError(t, err)
	require.Equal(t, 6, n)
	require.Equal(t, "hello\n", buf.String())
}

func TestBarAwareWriterBuffersPartialLines(t *testing.T) {
	var buf bytes.Buffer
	w := logging.NewBarAwareWriter(&buf)

	_, err := w.Write([]byte("partial"))
	require.NoError(t, err)
	require.Empty(t, buf.String())

	_, err = w.Write([]byte(" line\n"))
	require.NoError(t, err)
	require.Equal(t, "partial line\n", buf.String())
}

func TestBarAwareWriterPrintsAroundActiveBar(t *testing.T) {
	var barBuf, logBuf bytes.Buffer
	bar := logging.NewBar(&barBuf, 2, "running")
	bar.Start()
	defer bar.Finish()

	w := logging.NewBarAwareWriter(&logBuf)
	_, err := w.Write([]byte("a log line\n"))
	require.NoError(t, err)

	require.True(t, strings.Contains(barBuf.String(), "a log line"))
}
