package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

type stubStream struct {
	streams   []jetstream.StreamConfig
	streamErr error
	msgs      []*nats.Msg
	ack       jetstream.PubAck
	pubErr    error
}

func (s *stubStream) CreateOrUpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error) {
	s.streams = append(s.streams, cfg)
	return nil, s.streamErr
}

func (s *stubStream) PublishMsg(ctx context.Context, msg *nats.Msg, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	s.msgs = append(s.msgs, msg)
	if s.pubErr != nil {
		return nil, s.pubErr
	}
	ack := s.ack
	return &ack, nil
}

func TestJetStreamStreamCoversOrderSubjects(t *testing.T) {
	js := &stubStream{}
	if _, err := newJetStreamPublisher(context.Background(), js, DefaultJetStreamConfig()); err != nil {
		t.Fatal(err)
	}
	if len(js.streams) != 1 {
		t.Fatalf("stream set up %d times", len(js.streams))
	}
	sc := js.streams[0]
	if sc.Name != "BUFFET_EVENTS" || len(sc.Subjects) != 1 || sc.Subjects[0] != "buffet.events.>" {
		t.Errorf("stream config = %+v", sc)
	}
	if sc.Duplicates != 2*time.Minute || sc.MaxMsgsPerSubject != 1000 {
		t.Errorf("limits = dup %v per-subject %d", sc.Duplicates, sc.MaxMsgsPerSubject)
	}

	js.streamErr = errors.New("jetstream not enabled")
	if _, err := newJetStreamPublisher(context.Background(), js, DefaultJetStreamConfig()); err == nil {
		t.Error("expected stream setup error")
	}
}

func TestJetStreamSubjectFor(t *testing.T) {
	p := &JetStreamPublisher{config: DefaultJetStreamConfig()}
	tests := []struct {
		orderID string
		want    string
	}{
		{"42", "buffet.events.ItemAdded.42"},
		{"a.b", "buffet.events.ItemAdded.a_b"},
		{"x*>", "buffet.events.ItemAdded.x__"},
		{"", "buffet.events.ItemAdded._"},
	}
	for _, tt := range tests {
		if got := p.SubjectFor(Event{Type: EventTypeItemAdded, OrderID: tt.orderID}); got != tt.want {
			t.Errorf("SubjectFor(%q) = %q, want %q", tt.orderID, got, tt.want)
		}
	}
}

func TestJetStreamPublishHeaders(t *testing.T) {
	js := &stubStream{ack: jetstream.PubAck{Stream: "BUFFET_EVENTS", Sequence: 7}}
	p, err := newJetStreamPublisher(context.Background(), js, DefaultJetStreamConfig())
	if err != nil {
		t.Fatal(err)
	}

	table := "5"
	ev, err := New(EventTypeOrderCheckedOut, "42", &table, time.Now(), OrderCheckedOutPayload{TotalAmount: 120, ItemCount: 2})
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Publish(context.Background(), ev); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	msg := js.msgs[0]
	if msg.Subject != "buffet.events.OrderCheckedOut.42" {
		t.Errorf("subject = %q", msg.Subject)
	}
	if msg.Header.Get("Order-ID") != "42" || msg.Header.Get("Table-Number") != "5" || msg.Header.Get("Event-Type") != string(EventTypeOrderCheckedOut) {
		t.Errorf("headers = %v", msg.Header)
	}
	var got Event
	if err := json.Unmarshal(msg.Data, &got); err != nil || got.ID != ev.ID {
		t.Errorf("payload = %s (%v)", msg.Data, err)
	}

	js.pubErr = errors.New("no responders")
	if err := p.Publish(context.Background(), ev); err == nil {
		t.Error("expected publish error")
	}
}
