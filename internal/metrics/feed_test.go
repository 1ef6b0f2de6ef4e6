package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/avrhamo/releases-sub000/internal/core"
)

func TestFeed_EmitsSnapshots(t *testing.T) {
	a := NewAggregator()
	a.Record(core.OutcomeRecord{Success: true, Latency: time.Millisecond})

	f := NewFeed(a, 10*time.Millisecond, true)
	f.Start()
	defer f.Stop()

	select {
	case s := <-f.Snapshots():
		if s.Total != 1 {
			t.Errorf("expected snapshot with 1 outcome, got %d", s.Total)
		}
	case <-time.After(time.Second):
		t.Fatal("no snapshot emitted within 1s")
	}
}

func TestFeed_StopClosesChannel(t *testing.T) {
	f := NewFeed(NewAggregator(), 10*time.Millisecond, true)
	f.Start()
	f.Stop()
	// Stop is idempotent.
	f.Stop()

	for range f.Snapshots() {
	}
}

func TestFeed_PrintsProgressLine(t *testing.T) {
	a := NewAggregator()
	a.Record(core.OutcomeRecord{Success: true, Latency: time.Millisecond})
	a.Record(core.OutcomeRecord{Success: false, Latency: time.Millisecond})

	w := &core.MockWriter{}
	f := NewFeed(a, 10*time.Millisecond, false)
	f.SetOutput(w)
	f.Start()
	time.Sleep(50 * time.Millisecond)
	f.Stop()

	out := w.String()
	if !strings.Contains(out, "Dispatched: 2") {
		t.Errorf("expected dispatch count in progress output, got %q", out)
	}
	if !strings.Contains(out, "Errors: 1") {
		t.Errorf("expected error count in progress output, got %q", out)
	}
}

func TestFeed_QuietSuppressesOutput(t *testing.T) {
	w := &core.MockWriter{}
	f := NewFeed(NewAggregator(), 10*time.Millisecond, true)
	f.SetOutput(w)
	f.Start()
	time.Sleep(30 * time.Millisecond)
	f.Stop()

	if w.String() != "" {
		t.Errorf("quiet feed must not print, got %q", w.String())
	}
}
