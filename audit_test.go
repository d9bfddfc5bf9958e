package goCooldown

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestAuditDispatcherDeliversToSink(t *testing.T) {
	sink := NewChannelSink(8)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 8}, sink)
	defer d.Close()

	d.Emit(context.Background(), AuditEvent{EventType: auditEventDispatch, Success: true})

	select {
	case event := <-sink.Events():
		if event.EventType != auditEventDispatch || !event.Success {
			t.Fatalf("unexpected event: %+v", event)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event never delivered")
	}
}

func TestAuditDispatcherDisabledReturnsNil(t *testing.T) {
	if d := newAuditDispatcher(AuditConfig{Enabled: false}, NewChannelSink(1)); d != nil {
		t.Fatal("expected nil dispatcher when audit disabled")
	}

	// Nil dispatcher methods are safe no-ops.
	var d *auditDispatcher
	d.Emit(context.Background(), AuditEvent{})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher must report zero drops")
	}
}

type slowSink struct {
	release chan struct{}
}

func (s *slowSink) Emit(_ context.Context, _ AuditEvent) {
	<-s.release
}

func TestAuditDispatcherDropsWhenFull(t *testing.T) {
	sink := &slowSink{release: make(chan struct{})}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	// First event occupies the run loop, second fills the buffer, the
	// rest must drop without blocking.
	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: auditEventProbe})
	}

	deadline := time.Now().Add(2 * time.Second)
	for d.Dropped() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if d.Dropped() == 0 {
		t.Fatal("expected dropped events under backpressure")
	}

	close(sink.release)
	d.Close()
}

func TestAuditDispatcherDrainsOnClose(t *testing.T) {
	sink := NewChannelSink(16)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 16}, sink)

	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: auditEventElapsed})
	}
	d.Close()

	received := 0
	for {
		select {
		case <-sink.Events():
			received++
		default:
			if received != 5 {
				t.Fatalf("expected all 5 events drained, got %d", received)
			}
			return
		}
	}
}

func TestJSONWriterSinkWritesLineDelimitedJSON(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), AuditEvent{
		EventType: auditEventDismiss,
		SubjectID: "u1",
		Success:   true,
	})
	sink.Emit(context.Background(), AuditEvent{
		EventType: auditEventRestore,
		Success:   true,
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	var event AuditEvent
	if err := json.Unmarshal([]byte(lines[0]), &event); err != nil {
		t.Fatalf("first line does not parse: %v", err)
	}
	if event.EventType != auditEventDismiss || event.SubjectID != "u1" {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestGovernorEmitsAuditWithContextIdentity(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	sink := NewChannelSink(16)
	cfg := testConfig()
	cfg.Audit.Enabled = true

	g := newTestGovernor(t, cfg, NewMemoryStore(), clock, &scriptedDispatcher{
		script: []dispatchOutcome{{result: DispatchResult{OK: true}}},
	}, func(b *Builder) {
		b.WithAuditSink(sink)
	})
	defer g.Close()

	ctx := WithSubjectID(context.Background(), "u1")
	ctx = WithClientIP(ctx, "203.0.113.7")

	if _, err := g.Activate(ctx); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	if _, err := g.Trigger(ctx); err != nil {
		t.Fatalf("Trigger failed: %v", err)
	}
	g.Close()

	var dispatch *AuditEvent
	for {
		select {
		case event := <-sink.Events():
			if event.EventType == auditEventDispatch {
				e := event
				dispatch = &e
			}
			continue
		default:
		}
		break
	}

	if dispatch == nil {
		t.Fatal("no dispatch audit event observed")
	}
	if dispatch.SubjectID != "u1" || dispatch.IP != "203.0.113.7" {
		t.Fatalf("expected context identity on event, got %+v", dispatch)
	}
	if dispatch.AttemptID == "" {
		t.Fatal("expected attempt id on dispatch event")
	}
	if !dispatch.Success {
		t.Fatal("expected success flag")
	}
}
