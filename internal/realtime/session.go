package realtime

import (
	"errors"
	"io"
	"sync"

	"github.com/google/uuid"
)

type State string

const (
	StateNew         State = "new"
	StateNegotiating State = "negotiating"
	StateConnected   State = "connected"
	StateClosed      State = "closed"
)

// Session owns everything one voice conversation holds: the ephemeral
// credential, both descriptions, the single peer, its control channel and the
// single playback sink. Handlers receive the Session explicitly.
type Session struct {
	ID uuid.UUID

	mu         sync.Mutex
	state      State
	credential string
	localSDP   string
	remoteSDP  string
	peer       PeerConnection
	control    ControlChannel
	audio      io.Closer
	sink       AudioSink
}

func NewSession() *Session {
	return &Session{ID: uuid.New(), state: StateNew}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Credential() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credential
}

func (s *Session) LocalDescription() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.localSDP
}

func (s *Session) RemoteDescription() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remoteSDP
}

// Control returns the active control channel, nil before negotiation.
func (s *Session) Control() ControlChannel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.control
}

// Sink returns the playback sink, nil before EnsureSink.
func (s *Session) Sink() AudioSink {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sink
}

// EnsureSink creates the playback sink on first use and returns the same sink
// on every later call, across negotiation attempts.
func (s *Session) EnsureSink(create func() (AudioSink, error)) (AudioSink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return nil, ErrSessionClosed
	}
	if s.sink != nil {
		return s.sink, nil
	}
	sink, err := create()
	if err != nil {
		return nil, err
	}
	s.sink = sink
	return sink, nil
}

// beginNegotiation moves new (or a failed negotiating attempt) to negotiating.
func (s *Session) beginNegotiation() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateClosed:
		return ErrSessionClosed
	case StateConnected:
		return ErrAlreadyConnected
	}
	s.state = StateNegotiating
	return nil
}

func (s *Session) setCredential(credential string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credential = credential
}

// attachTransport installs the peer, control channel and audio stream of
// this attempt, closing whatever an earlier failed attempt left behind.
func (s *Session) attachTransport(peer PeerConnection, control ControlChannel, audio io.Closer) {
	s.mu.Lock()
	oldPeer, oldControl, oldAudio := s.peer, s.control, s.audio
	s.peer, s.control, s.audio = peer, control, audio
	s.mu.Unlock()

	if oldAudio != nil {
		_ = oldAudio.Close()
	}
	if oldControl != nil && oldControl != control {
		_ = oldControl.Close()
	}
	if oldPeer != nil && oldPeer != peer {
		_ = oldPeer.Close()
	}
}

// stopAudio ends the outbound audio stream, if any.
func (s *Session) stopAudio() {
	s.mu.Lock()
	audio := s.audio
	s.audio = nil
	s.mu.Unlock()

	if audio != nil {
		_ = audio.Close()
	}
}

func (s *Session) setLocalDescription(sdp string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.localSDP = sdp
}

// markConnected is only reached once the remote answer has been applied.
func (s *Session) markConnected(remoteSDP string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateNegotiating {
		return errors.New("session left negotiating during handshake")
	}
	s.remoteSDP = remoteSDP
	s.state = StateConnected
	return nil
}

// Close tears down the transport and the sink. Safe to call repeatedly.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return nil
	}
	s.state = StateClosed
	peer, control, audio, sink := s.peer, s.control, s.audio, s.sink
	s.peer, s.control, s.audio = nil, nil, nil
	s.mu.Unlock()

	var errs []error
	if audio != nil {
		errs = append(errs, audio.Close())
	}
	if control != nil {
		errs = append(errs, control.Close())
	}
	if peer != nil {
		errs = append(errs, peer.Close())
	}
	if sink != nil {
		errs = append(errs, sink.Close())
	}
	return errors.Join(errs...)
}
