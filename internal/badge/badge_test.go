package badge

import (
	"context"
	"testing"
	"time"

	"github.com/matheus3301/streamtabs/internal/bus"
	"go.uber.org/zap"
)

func TestText(t *testing.T) {
	tests := []struct {
		enabled bool
		count   int
		want    string
	}{
		{true, 0, ""},
		{true, 3, "3"},
		{false, 3, ""},
	}
	for _, tt := range tests {
		if got := Text(tt.enabled, tt.count); got != tt.want {
			t.Errorf("Text(%v, %d) = %q, want %q", tt.enabled, tt.count, got, tt.want)
		}
	}
}

func TestBadgeLifecycle(t *testing.T) {
	ctx := context.Background()
	b := New(nil, nil, zap.NewNop())

	if s := b.State(); !s.Enabled || s.Text != "" {
		t.Fatalf("initial state = %+v", s)
	}
	_ = b.SetBadgeCount(ctx, 4)
	if s := b.State(); s.Text != "4" {
		t.Errorf("text = %q, want 4", s.Text)
	}

	_ = b.SetBadgeText(ctx, false)
	if s := b.State(); s.Enabled || s.Text != "" || s.Count != 0 {
		t.Errorf("cleared state = %+v", s)
	}

	_ = b.SetBadgeCount(ctx, 9)
	if s := b.State(); s.Count != 0 {
		t.Errorf("disabled badge took count %d", s.Count)
	}

	_ = b.SetBadgeText(ctx, true)
	_ = b.SetBadgeCount(ctx, 2)
	if s := b.State(); s.Text != "2" {
		t.Errorf("re-enabled text = %q, want 2", s.Text)
	}
}

func TestNegativeCountRejected(t *testing.T) {
	b := New(nil, nil, zap.NewNop())
	if err := b.SetBadgeCount(context.Background(), -1); err == nil {
		t.Error("SetBadgeCount(-1) should fail")
	}
}

func TestChangesPublishOnce(t *testing.T) {
	eb := bus.New()
	ch, unsub := eb.Subscribe("badge.", 10)
	defer unsub()

	b := New(eb, nil, zap.NewNop())
	ctx := context.Background()
	_ = b.SetBadgeCount(ctx, 3)
	_ = b.SetBadgeCount(ctx, 3)
	_ = b.SetBadgeText(ctx, true)

	select {
	case evt := <-ch:
		if s, ok := evt.Payload.(State); !ok || s.Text != "3" {
			t.Errorf("payload = %#v", evt.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for badge event")
	}
	select {
	case evt := <-ch:
		t.Errorf("unexpected event for unchanged badge: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}
