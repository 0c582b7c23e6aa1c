package realtime

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/pion/webrtc/v4"
)

type fakeControl struct {
	mu       sync.Mutex
	sent     [][]byte
	messages chan []byte
	closed   int
	sendErr  error
}

func newFakeControl() *fakeControl {
	return &fakeControl{messages: make(chan []byte, 16)}
}

func (c *fakeControl) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, append([]byte(nil), data...))
	return nil
}

func (c *fakeControl) Messages() <-chan []byte { return c.messages }

func (c *fakeControl) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
	return nil
}

func (c *fakeControl) Sent() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.sent...)
}

type fakePeer struct {
	mu        sync.Mutex
	calls     []string
	control   *fakeControl
	offerErr  error
	answerErr error
	answer    string
	closed    int
	onTrack   func(*webrtc.TrackRemote)
}

func newFakePeer() *fakePeer {
	return &fakePeer{control: newFakeControl()}
}

func (p *fakePeer) record(call string) {
	p.mu.Lock()
	p.calls = append(p.calls, call)
	p.mu.Unlock()
}

func (p *fakePeer) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func (p *fakePeer) AddTrack(track webrtc.TrackLocal) error {
	p.record("add-track")
	return nil
}

func (p *fakePeer) OnRemoteTrack(handler func(track *webrtc.TrackRemote)) {
	p.record("on-track")
	p.onTrack = handler
}

func (p *fakePeer) CreateControlChannel(label string) (ControlChannel, error) {
	p.record("control:" + label)
	return p.control, nil
}

func (p *fakePeer) CreateOffer(ctx context.Context) (string, error) {
	p.record("offer")
	if p.offerErr != nil {
		return "", p.offerErr
	}
	return "v=0 offer", nil
}

func (p *fakePeer) SetAnswer(sdp string) error {
	p.record("answer")
	if p.answerErr != nil {
		return p.answerErr
	}
	p.answer = sdp
	return nil
}

func (p *fakePeer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed++
	return nil
}

type fakeCredentials struct {
	value string
	err   error
}

func (f fakeCredentials) FetchCredential(ctx context.Context) (string, error) {
	return f.value, f.err
}

type fakeAudio struct {
	err error

	mu     sync.Mutex
	opened int
	closed int
}

func (f *fakeAudio) Open(ctx context.Context) (webrtc.TrackLocal, io.Closer, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	track, err := newOpusTrack()
	if err != nil {
		return nil, nil, err
	}
	f.mu.Lock()
	f.opened++
	f.mu.Unlock()
	return track, &fakeStream{audio: f}, nil
}

// Live is the number of opened streams not yet closed.
func (f *fakeAudio) Live() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opened - f.closed
}

type fakeStream struct {
	audio *fakeAudio
	once  sync.Once
}

func (s *fakeStream) Close() error {
	s.once.Do(func() {
		s.audio.mu.Lock()
		s.audio.closed++
		s.audio.mu.Unlock()
	})
	return nil
}

type fakeSDP struct {
	answer string
	err    error

	mu         sync.Mutex
	credential string
	offer      string
}

func (f *fakeSDP) Exchange(ctx context.Context, credential, offer string) (string, error) {
	f.mu.Lock()
	f.credential, f.offer = credential, offer
	f.mu.Unlock()
	return f.answer, f.err
}

type fakeSink struct {
	mu       sync.Mutex
	attached int
	closed   int
}

func (s *fakeSink) Attach(track *webrtc.TrackRemote) {
	s.mu.Lock()
	s.attached++
	s.mu.Unlock()
}

func (s *fakeSink) Close() error {
	s.mu.Lock()
	s.closed++
	s.mu.Unlock()
	return nil
}

type fakeDispatcher struct {
	mu       sync.Mutex
	received []FunctionCallRequest
	answer   string
	echoID   *string
	err      error
	block    chan struct{}
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, req FunctionCallRequest) (*FunctionCallResult, error) {
	d.mu.Lock()
	d.received = append(d.received, req)
	d.mu.Unlock()

	if d.block != nil {
		select {
		case <-d.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if d.err != nil {
		return nil, d.err
	}

	var res FunctionCallResult
	res.Type = "conversation.item.create"
	res.Item.Type = "function_call_output"
	res.Item.CallID = req.CallID
	if d.echoID != nil {
		res.Item.CallID = *d.echoID
	}
	res.Item.Output = `{"respuesta":"` + d.answer + `"}`
	return &res, nil
}

func (d *fakeDispatcher) Received() []FunctionCallRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]FunctionCallRequest(nil), d.received...)
}

var errBoom = errors.New("boom")
