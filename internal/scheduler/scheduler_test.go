package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeWarmer struct {
	calls chan time.Duration
	err   error
}

func (f *fakeWarmer) Warm(ctx context.Context, siteIDs []string, span time.Duration) error {
	select {
	case f.calls <- span:
	default:
	}
	return f.err
}

func TestSchedulerWarmsOnStart(t *testing.T) {
	w := &fakeWarmer{calls: make(chan time.Duration, 1)}
	s := New([]string{"alpental"}, 48*time.Hour, time.Minute, w)
	if err := s.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Stop()

	select {
	case span := <-w.calls:
		if span != 48*time.Hour {
			t.Fatalf("expected configured span, got %v", span)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("warm job did not run")
	}
}

func TestSchedulerWithoutSites(t *testing.T) {
	w := &fakeWarmer{calls: make(chan time.Duration, 1)}
	s := New(nil, time.Hour, time.Minute, w)
	if err := s.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Stop()

	select {
	case <-w.calls:
		t.Fatal("expected no warm job without sites")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSchedulerRunSurvivesFailure(t *testing.T) {
	w := &fakeWarmer{calls: make(chan time.Duration, 1), err: errors.New("upstream down")}
	s := New([]string{"alpental"}, time.Hour, time.Minute, w)

	s.run()
	if len(w.calls) != 1 {
		t.Fatalf("expected one warm attempt, got %d", len(w.calls))
	}
}
