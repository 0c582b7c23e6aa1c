package realtime

import (
	"context"
	"errors"
	"sync"

	"github.com/pion/webrtc/v4"
)

// PionPeer adapts a pion PeerConnection to the negotiator.
type PionPeer struct {
	pc *webrtc.PeerConnection
}

func NewPionPeer(iceServers []string) (PeerConnection, error) {
	cfg := webrtc.Configuration{}
	if len(iceServers) > 0 {
		cfg.ICEServers = []webrtc.ICEServer{{URLs: iceServers}}
	}
	pc, err := webrtc.NewPeerConnection(cfg)
	if err != nil {
		return nil, err
	}
	return &PionPeer{pc: pc}, nil
}

func (p *PionPeer) AddTrack(track webrtc.TrackLocal) error {
	sender, err := p.pc.AddTrack(track)
	if err != nil {
		return err
	}
	// RTCP must be drained for interceptors (NACK, reports) to run
	go func() {
		buf := make([]byte, 1500)
		for {
			if _, _, err := sender.Read(buf); err != nil {
				return
			}
		}
	}()
	return nil
}

func (p *PionPeer) OnRemoteTrack(handler func(track *webrtc.TrackRemote)) {
	p.pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		if track.Kind() == webrtc.RTPCodecTypeAudio {
			handler(track)
		}
	})
}

func (p *PionPeer) CreateControlChannel(label string) (ControlChannel, error) {
	dc, err := p.pc.CreateDataChannel(label, nil)
	if err != nil {
		return nil, err
	}
	return newDataChannel(dc), nil
}

func (p *PionPeer) CreateOffer(ctx context.Context) (string, error) {
	offer, err := p.pc.CreateOffer(nil)
	if err != nil {
		return "", err
	}

	gatherComplete := webrtc.GatheringCompletePromise(p.pc)
	if err := p.pc.SetLocalDescription(offer); err != nil {
		return "", err
	}

	select {
	case <-gatherComplete:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	local := p.pc.LocalDescription()
	if local == nil {
		return "", errors.New("local description missing after gathering")
	}
	return local.SDP, nil
}

func (p *PionPeer) SetAnswer(sdp string) error {
	return p.pc.SetRemoteDescription(webrtc.SessionDescription{
		Type: webrtc.SDPTypeAnswer,
		SDP:  sdp,
	})
}

func (p *PionPeer) Close() error {
	return p.pc.Close()
}

// dataChannel exposes a pion DataChannel as a ControlChannel.
type dataChannel struct {
	dc       *webrtc.DataChannel
	messages chan []byte
	done     chan struct{}

	mu     sync.RWMutex
	closed bool
	once   sync.Once
}

func newDataChannel(dc *webrtc.DataChannel) *dataChannel {
	c := &dataChannel{
		dc:       dc,
		messages: make(chan []byte, 64),
		done:     make(chan struct{}),
	}
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		c.deliver(msg.Data)
	})
	dc.OnClose(c.finish)
	return c
}

// deliver blocks while the buffer is full, until the channel closes.
func (c *dataChannel) deliver(data []byte) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.messages <- append([]byte(nil), data...):
	case <-c.done:
	}
}

func (c *dataChannel) finish() {
	c.once.Do(func() {
		close(c.done)
		c.mu.Lock()
		c.closed = true
		close(c.messages)
		c.mu.Unlock()
	})
}

func (c *dataChannel) Send(data []byte) error {
	return c.dc.SendText(string(data))
}

func (c *dataChannel) Messages() <-chan []byte {
	return c.messages
}

func (c *dataChannel) Close() error {
	err := c.dc.Close()
	c.finish()
	return err
}
