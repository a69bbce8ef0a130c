package maintenance

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tinysqlio/memvfs/vfs"
)

func TestScheduler_IntervalRunsSweep(t *testing.T) {
	root := vfs.NewRoot(nil)
	var ticks int32

	s, err := New(root, "", 20*time.Millisecond, func(ctx context.Context, r *vfs.Root) error {
		atomic.AddInt32(&ticks, 1)
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	s.Start()
	time.Sleep(90 * time.Millisecond)
	s.Stop()

	if atomic.LoadInt32(&ticks) == 0 {
		t.Fatal("expected at least one sweep tick")
	}
}

func TestScheduler_RejectsInvalidCron(t *testing.T) {
	root := vfs.NewRoot(nil)
	if _, err := New(root, "not a cron expr", 0, StatsSweep(nil), nil); err == nil {
		t.Fatal("expected invalid cron expression to be rejected")
	}
}

func TestScheduler_StartTwicePanics(t *testing.T) {
	root := vfs.NewRoot(nil)
	s, err := New(root, "", time.Hour, StatsSweep(nil), nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	s.Start()
	defer s.Stop()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on second Start")
		}
	}()
	s.Start()
}
