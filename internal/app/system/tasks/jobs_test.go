package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/cohorthub/internal/app/store/audit"
	"github.com/dalemusser/cohorthub/internal/app/system/auditlog"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeCloser struct {
	count int64
	err   error
	calls int
}

func (f *fakeCloser) CloseEndedCohorts(context.Context) (int64, error) {
	f.calls++
	return f.count, f.err
}

type sliceSink struct{ events []audit.Event }

func (s *sliceSink) Log(_ context.Context, e audit.Event) error {
	s.events = append(s.events, e)
	return nil
}

func TestCloseEndedCohortsJob(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	closer := &fakeCloser{count: 3}
	sink := &sliceSink{}
	trail := auditlog.New(sink, zap.NewNop(), auditlog.Config{Lifecycle: auditlog.ModeDB})

	job := CloseEndedCohortsJob(closer, trail, zap.New(core), time.Hour, time.Minute)
	if job.Name != "close-ended-cohorts" {
		t.Errorf("Name = %q", job.Name)
	}
	if job.Interval != time.Hour || job.Timeout != time.Minute {
		t.Errorf("Interval/Timeout = %v/%v", job.Interval, job.Timeout)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if closer.calls != 1 {
		t.Errorf("calls = %d, want 1", closer.calls)
	}
	if logs.FilterMessage("closed ended cohorts").Len() != 1 {
		t.Error("expected a log entry for closed cohorts")
	}
	if len(sink.events) != 1 || sink.events[0].EventType != audit.EventCohortsClosed {
		t.Errorf("audit events = %+v, want one cohorts_closed", sink.events)
	}
	if got := sink.events[0].Details["count"]; got != "3" {
		t.Errorf("count detail = %q, want 3", got)
	}
}

func TestCloseEndedCohortsJob_QuietWhenNothingClosed(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	job := CloseEndedCohortsJob(&fakeCloser{}, nil, zap.New(core), time.Hour, 0)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if logs.Len() != 0 {
		t.Errorf("expected no logs, got %d", logs.Len())
	}
}

func TestCloseEndedCohortsJob_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	job := CloseEndedCohortsJob(&fakeCloser{err: boom}, nil, zap.NewNop(), time.Hour, 0)

	if err := job.Run(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Run error = %v, want %v", err, boom)
	}
}
