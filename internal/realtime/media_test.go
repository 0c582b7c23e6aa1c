package realtime

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"voice-faq-be/internal/pkg/logger"

	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSilenceInputOpensIndependentStreams(t *testing.T) {
	in := NewSilenceInput()
	track, first, err := in.Open(context.Background())
	require.NoError(t, err)
	assert.Equal(t, webrtc.RTPCodecTypeAudio, track.Kind())

	_, second, err := in.Open(context.Background())
	require.NoError(t, err)

	// closing one stream leaves the other running
	require.NoError(t, first.Close())
	assert.NoError(t, first.Close())

	select {
	case <-second.(*stream).done:
		t.Fatal("second stream stopped with the first")
	default:
	}
	require.NoError(t, second.Close())
}

func TestOggFileInputRejectsMissingAndInvalidFiles(t *testing.T) {
	_, _, err := NewOggFileInput(filepath.Join(t.TempDir(), "missing.ogg"), logger.NewNopLogger()).Open(context.Background())
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "not.ogg")
	require.NoError(t, os.WriteFile(path, []byte("RIFF....WAVE"), 0o600))
	_, _, err = NewOggFileInput(path, logger.NewNopLogger()).Open(context.Background())
	assert.Error(t, err)
}

func TestOggRecorderClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ogg")
	r, err := NewOggRecorder(path, logger.NewNopLogger())
	require.NoError(t, err)

	require.NoError(t, r.Close())
	assert.NoError(t, r.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}
