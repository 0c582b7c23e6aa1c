package realtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"voice-faq-be/internal/pkg/logger"

	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/pion/webrtc/v4/pkg/media/oggreader"
	"github.com/pion/webrtc/v4/pkg/media/oggwriter"
)

const (
	opusSampleRate = 48000
	opusFrame      = 20 * time.Millisecond
)

// opusSilence is a single 20ms Opus frame of silence.
var opusSilence = []byte{0xf8, 0xff, 0xfe}

func newOpusTrack() (*webrtc.TrackLocalStaticSample, error) {
	return webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: opusSampleRate, Channels: 2},
		"audio", "voice-faq",
	)
}

// stream is the stop handle of one opened track. Close returns after the
// writer goroutine has exited.
type stream struct {
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newStream() *stream {
	return &stream{stop: make(chan struct{}), done: make(chan struct{})}
}

func (s *stream) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
	return nil
}

// OggFileInput streams an Ogg/Opus file as the microphone, paced in real
// time. Every Open starts an independent stream that ends at the end of the
// file or when its handle is closed.
type OggFileInput struct {
	path   string
	logger logger.ILogger
}

func NewOggFileInput(path string, log logger.ILogger) *OggFileInput {
	return &OggFileInput{path: path, logger: log}
}

func (in *OggFileInput) Open(ctx context.Context) (webrtc.TrackLocal, io.Closer, error) {
	file, err := os.Open(in.path)
	if err != nil {
		return nil, nil, err
	}
	reader, _, err := oggreader.NewWith(file)
	if err != nil {
		file.Close()
		return nil, nil, fmt.Errorf("%s is not an Ogg/Opus file: %w", in.path, err)
	}
	track, err := newOpusTrack()
	if err != nil {
		file.Close()
		return nil, nil, err
	}

	st := newStream()
	go in.stream(st, file, reader, track)
	return track, st, nil
}

func (in *OggFileInput) stream(st *stream, file *os.File, reader *oggreader.OggReader, track *webrtc.TrackLocalStaticSample) {
	defer close(st.done)
	defer file.Close()

	var lastGranule uint64
	for {
		pageData, pageHeader, err := reader.ParseNextPage()
		if errors.Is(err, io.EOF) {
			in.logger.Info("OggFileInput", "Finished streaming microphone file", map[string]interface{}{"path": in.path})
			return
		}
		if err != nil {
			in.logger.Error("OggFileInput", "Failed to read Ogg page", map[string]interface{}{"error": err.Error()})
			return
		}

		// granule position counts 48kHz samples
		sampleCount := float64(pageHeader.GranulePosition - lastGranule)
		lastGranule = pageHeader.GranulePosition
		duration := time.Duration((sampleCount/opusSampleRate)*1000) * time.Millisecond

		if err := track.WriteSample(media.Sample{Data: pageData, Duration: duration}); err != nil {
			in.logger.Warn("OggFileInput", "Failed to write sample", map[string]interface{}{"error": err.Error()})
		}

		select {
		case <-st.stop:
			return
		case <-time.After(duration):
		}
	}
}

// SilenceInput sends Opus silence, for running without a microphone file.
type SilenceInput struct{}

func NewSilenceInput() *SilenceInput {
	return &SilenceInput{}
}

func (in *SilenceInput) Open(ctx context.Context) (webrtc.TrackLocal, io.Closer, error) {
	track, err := newOpusTrack()
	if err != nil {
		return nil, nil, err
	}
	st := newStream()
	go func() {
		defer close(st.done)
		ticker := time.NewTicker(opusFrame)
		defer ticker.Stop()
		for {
			select {
			case <-st.stop:
				return
			case <-ticker.C:
				_ = track.WriteSample(media.Sample{Data: opusSilence, Duration: opusFrame})
			}
		}
	}()
	return track, st, nil
}

// OggRecorder is the playback sink of the headless client: it writes the
// model's voice to an Ogg/Opus file.
type OggRecorder struct {
	logger logger.ILogger

	mu     sync.Mutex
	writer *oggwriter.OggWriter
	closed bool
}

func NewOggRecorder(path string, log logger.ILogger) (*OggRecorder, error) {
	writer, err := oggwriter.New(path, opusSampleRate, 2)
	if err != nil {
		return nil, err
	}
	return &OggRecorder{writer: writer, logger: log}, nil
}

func (r *OggRecorder) Attach(track *webrtc.TrackRemote) {
	go func() {
		for {
			packet, _, err := track.ReadRTP()
			if err != nil {
				if !errors.Is(err, io.EOF) {
					r.logger.Warn("OggRecorder", "Remote track ended", map[string]interface{}{"error": err.Error()})
				}
				return
			}

			r.mu.Lock()
			if r.closed {
				r.mu.Unlock()
				return
			}
			err = r.writer.WriteRTP(packet)
			r.mu.Unlock()
			if err != nil {
				r.logger.Warn("OggRecorder", "Failed to write RTP packet", map[string]interface{}{"error": err.Error()})
			}
		}
	}()
}

func (r *OggRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	return r.writer.Close()
}
