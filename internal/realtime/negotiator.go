package realtime

import (
	"context"
	"errors"
	"time"

	"voice-faq-be/internal/pkg/logger"

	"github.com/pion/webrtc/v4"
)

type NegotiatorConfig struct {
	Credentials CredentialSource
	Audio       AudioInput
	SDP         SDPExchanger
	NewPeer     func() (PeerConnection, error)
	NewSink     func() (AudioSink, error)
	// Timeout bounds the whole handshake; zero means 15s.
	Timeout time.Duration
	Logger  logger.ILogger
}

// Negotiator establishes the audio transport and the control channel of a
// Session. It never retries.
type Negotiator struct {
	cfg NegotiatorConfig
}

func NewNegotiator(cfg NegotiatorConfig) *Negotiator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNopLogger()
	}
	return &Negotiator{cfg: cfg}
}

// Establish negotiates a fresh Session. On failure the returned Session is
// still usable for EstablishOn.
func (n *Negotiator) Establish(ctx context.Context) (*Session, error) {
	s := NewSession()
	return s, n.EstablishOn(ctx, s)
}

// EstablishOn runs one negotiation attempt on s. The playback sink created by
// an earlier attempt is reused. A failure leaves s in StateNegotiating.
func (n *Negotiator) EstablishOn(ctx context.Context, s *Session) error {
	if err := s.beginNegotiation(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, n.cfg.Timeout)
	defer cancel()

	log := n.cfg.Logger
	log.Info("Negotiator", "Negotiation started", map[string]interface{}{"session_id": s.ID})

	// 1. Ephemeral credential
	credential, err := n.cfg.Credentials.FetchCredential(ctx)
	if err != nil {
		var cerr *CredentialError
		if !errors.As(err, &cerr) {
			err = &CredentialError{Err: err}
		}
		log.Error("Negotiator", "Credential request failed", map[string]interface{}{"session_id": s.ID, "error": err.Error()})
		return err
	}
	s.setCredential(credential)

	peer, err := n.cfg.NewPeer()
	if err != nil {
		return n.fail(s, &NegotiationError{Stage: "peer", Err: err})
	}

	// 2. Single outbound audio track
	track, audio, err := n.cfg.Audio.Open(ctx)
	if err != nil {
		_ = peer.Close()
		err = &MediaAccessError{Err: err}
		log.Error("Negotiator", "Audio input unavailable", map[string]interface{}{"session_id": s.ID, "error": err.Error()})
		return err
	}
	// abandon releases this attempt's transport until the session owns it
	abandon := func() {
		_ = audio.Close()
		_ = peer.Close()
	}
	if err := peer.AddTrack(track); err != nil {
		abandon()
		return n.fail(s, &NegotiationError{Stage: "add-track", Err: err})
	}

	// 3. One playback sink per Session
	sink, err := s.EnsureSink(n.cfg.NewSink)
	if err != nil {
		abandon()
		return n.fail(s, &NegotiationError{Stage: "sink", Err: err})
	}
	peer.OnRemoteTrack(func(remote *webrtc.TrackRemote) {
		log.Info("Negotiator", "Receiving remote audio", map[string]interface{}{"session_id": s.ID, "codec": remote.Codec().MimeType})
		sink.Attach(remote)
	})

	// 4. Control channel must be part of the offer
	control, err := peer.CreateControlChannel(ControlEventsLabel)
	if err != nil {
		abandon()
		return n.fail(s, &NegotiationError{Stage: "control-channel", Err: err})
	}
	s.attachTransport(peer, control, audio)

	// 5. Offer/answer
	offer, err := peer.CreateOffer(ctx)
	if err != nil {
		return n.fail(s, &NegotiationError{Stage: "offer", Err: err})
	}
	s.setLocalDescription(offer)

	answer, err := n.cfg.SDP.Exchange(ctx, credential, offer)
	if err != nil {
		return n.fail(s, &NegotiationError{Stage: "sdp-exchange", Err: err})
	}
	if err := peer.SetAnswer(answer); err != nil {
		return n.fail(s, &NegotiationError{Stage: "remote-description", Err: err})
	}

	// 6. Connected only after the remote description is applied
	if err := s.markConnected(answer); err != nil {
		return n.fail(s, &NegotiationError{Stage: "state", Err: err})
	}
	log.Info("Negotiator", "Session connected", map[string]interface{}{"session_id": s.ID})
	return nil
}

// fail stops the attempt's outbound audio; the peer and control channel stay
// on the session until the next attempt replaces them or Close.
func (n *Negotiator) fail(s *Session, err *NegotiationError) error {
	s.stopAudio()
	n.cfg.Logger.Error("Negotiator", "Negotiation failed", map[string]interface{}{
		"session_id": s.ID,
		"stage":      err.Stage,
		"error":      err.Err.Error(),
	})
	return err
}
