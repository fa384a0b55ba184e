package service

import (
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
)

func TestBuildDailySpec(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"09:30", "0 30 9 * * *", false},
		{" 00:00 ", "0 0 0 * * *", false},
		{"23:59", "0 59 23 * * *", false},
		{"24:00", "", true},
		{"12:60", "", true},
		{"noon", "", true},
		{"1:2:3", "", true},
	}
	for _, tt := range tests {
		got, err := buildDailySpec(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("buildDailySpec(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("buildDailySpec(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSchedulerRunsIntervalJob(t *testing.T) {
	logger, _ := test.NewNullLogger()
	s := NewSchedulerService(time.UTC, logger)

	if _, err := s.ScheduleInterval(0, func() {}); err == nil {
		t.Errorf("expected error for non-positive interval")
	}
	if _, err := s.ScheduleDaily("07:00", func() {}); err != nil {
		t.Fatalf("ScheduleDaily failed: %v", err)
	}

	ran := make(chan struct{}, 1)
	if _, err := s.ScheduleInterval(time.Second, func() {
		select {
		case ran <- struct{}{}:
		default:
		}
	}); err != nil {
		t.Fatalf("ScheduleInterval failed: %v", err)
	}
	if s.Entries() != 2 {
		t.Errorf("expected 2 entries, got %d", s.Entries())
	}

	s.Start()
	defer s.Stop()

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("interval job did not run")
	}
}

func TestSchedulerRecoversPanics(t *testing.T) {
	logger, hook := test.NewNullLogger()
	s := NewSchedulerService(time.UTC, logger)

	done := make(chan struct{})
	var once sync.Once
	s.ScheduleInterval(time.Second, func() {
		defer once.Do(func() { close(done) })
		panic("boom")
	})
	s.Start()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}
	s.Stop()

	if len(hook.AllEntries()) == 0 {
		t.Errorf("expected the recovered panic to be logged")
	}
}
