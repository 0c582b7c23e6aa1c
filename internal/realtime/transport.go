package realtime

import (
	"context"
	"io"

	"github.com/pion/webrtc/v4"
)

// ControlEventsLabel is the data channel the provider expects events on.
const ControlEventsLabel = "oai-events"

// ControlChannel carries JSON control events in both directions. Messages is
// closed when the channel closes.
type ControlChannel interface {
	Send(data []byte) error
	Messages() <-chan []byte
	Close() error
}

// PeerConnection is the slice of a WebRTC peer the negotiator drives.
type PeerConnection interface {
	AddTrack(track webrtc.TrackLocal) error
	OnRemoteTrack(handler func(track *webrtc.TrackRemote))
	CreateControlChannel(label string) (ControlChannel, error)
	// CreateOffer creates the offer, applies it locally and returns the SDP
	// once candidate gathering is complete.
	CreateOffer(ctx context.Context) (string, error)
	SetAnswer(sdp string) error
	Close() error
}

// AudioInput supplies the single outbound audio track. Each Open starts a
// new stream; closing the returned handle stops it.
type AudioInput interface {
	Open(ctx context.Context) (webrtc.TrackLocal, io.Closer, error)
}

// AudioSink plays (or records) the remote audio.
type AudioSink interface {
	Attach(track *webrtc.TrackRemote)
	Close() error
}

// CredentialSource yields a single-use ephemeral credential.
type CredentialSource interface {
	FetchCredential(ctx context.Context) (string, error)
}

// SDPExchanger posts the local offer to the provider and returns its answer.
type SDPExchanger interface {
	Exchange(ctx context.Context, credential, offer string) (string, error)
}

// FunctionDispatcher resolves a function call on the trusted backend.
type FunctionDispatcher interface {
	Dispatch(ctx context.Context, req FunctionCallRequest) (*FunctionCallResult, error)
}
