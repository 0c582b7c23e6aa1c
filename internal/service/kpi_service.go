package service

import (
	"context"
	"sync"

	"voice-faq-be/internal/dto"
	"voice-faq-be/internal/pkg/logger"
	"voice-faq-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

// EventSubscriber is the read side of the in-process event bus.
type EventSubscriber interface {
	Subscribe(ctx context.Context, eventType string) (<-chan *message.Message, error)
}

// EventListener receives every decoded dispatch event after it is counted.
type EventListener func(evt events.BaseEvent)

type IKPIService interface {
	Consume(ctx context.Context) error
	Snapshot() dto.KPISnapshot
}

type kpiService struct {
	subscriber EventSubscriber
	listeners  []EventListener
	logger     logger.ILogger

	mu             sync.RWMutex
	snapshot       dto.KPISnapshot
	totalLatencyMs float64
}

func NewKPIService(subscriber EventSubscriber, log logger.ILogger, listeners ...EventListener) IKPIService {
	return &kpiService{
		subscriber: subscriber,
		listeners:  listeners,
		logger:     log,
		snapshot:   dto.KPISnapshot{ByStrategy: make(map[string]int64)},
	}
}

func (s *kpiService) Consume(ctx context.Context) error {
	messages, err := s.subscriber.Subscribe(ctx, events.FunctionCallDispatched)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			s.processMessage(msg)
		}
	}()

	return nil
}

func (s *kpiService) processMessage(msg *message.Message) {
	evt, err := events.Decode(msg.Payload)
	if err != nil {
		s.logger.Warn("KPIService", "Dropping undecodable event", map[string]interface{}{"error": err.Error()})
		msg.Ack() // never redeliver a message we cannot read
		return
	}

	s.record(evt)
	for _, l := range s.listeners {
		l(evt)
	}
	msg.Ack()
}

func (s *kpiService) record(evt events.BaseEvent) {
	data := evt.Payload()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.TotalCalls++
	switch {
	case boolField(data, "rejected"):
		s.snapshot.Rejected++
	case boolField(data, "failed"):
		s.snapshot.Failures++
	case boolField(data, "found"):
		s.snapshot.Answered++
	default:
		s.snapshot.Fallbacks++
	}

	if strategy, ok := data["strategy"].(string); ok && strategy != "" {
		s.snapshot.ByStrategy[strategy]++
	}
	if latency, ok := data["latency_ms"].(float64); ok {
		s.totalLatencyMs += latency
		s.snapshot.AverageLatencyMs = s.totalLatencyMs / float64(s.snapshot.TotalCalls)
	}

	at := evt.Timestamp()
	s.snapshot.LastCallAt = &at
}

func (s *kpiService) Snapshot() dto.KPISnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.snapshot
	out.ByStrategy = make(map[string]int64, len(s.snapshot.ByStrategy))
	for k, v := range s.snapshot.ByStrategy {
		out.ByStrategy[k] = v
	}
	if s.snapshot.LastCallAt != nil {
		at := *s.snapshot.LastCallAt
		out.LastCallAt = &at
	}
	return out
}

func boolField(data map[string]interface{}, key string) bool {
	v, _ := data[key].(bool)
	return v
}
