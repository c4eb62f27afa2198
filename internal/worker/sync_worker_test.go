package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/GTDGit/pdv_api/internal/service"
	"github.com/GTDGit/pdv_api/internal/utils"
)

type countingSyncer struct {
	calls int
	err   error
}

func (s *countingSyncer) SyncOrders(context.Context, service.SyncOptions) (*service.SyncResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &service.SyncResult{Success: true}, nil
}

type fixedSchedule service.SyncSchedule

func (f *fixedSchedule) SyncSchedule() service.SyncSchedule { return service.SyncSchedule(*f) }

func TestSyncWorker_RunIfDue(t *testing.T) {
	syncer := &countingSyncer{}
	schedule := &fixedSchedule{Active: false, Interval: 10 * time.Minute}
	w := NewSyncWorker(syncer, schedule, time.Minute)
	clock := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return clock }
	ctx := context.Background()

	assert.False(t, w.runIfDue(ctx))
	assert.Zero(t, syncer.calls)

	schedule.Active = true
	assert.True(t, w.runIfDue(ctx))
	assert.Equal(t, 1, syncer.calls)

	clock = clock.Add(5 * time.Minute)
	assert.False(t, w.runIfDue(ctx))

	clock = clock.Add(5 * time.Minute)
	assert.True(t, w.runIfDue(ctx))
	assert.Equal(t, 2, syncer.calls)
}

func TestSyncWorker_SkipsWhenSyncRunning(t *testing.T) {
	syncer := &countingSyncer{err: utils.ErrSyncInProgress}
	w := NewSyncWorker(syncer, &fixedSchedule{Active: true, Interval: time.Minute}, 0)

	assert.True(t, w.runIfDue(context.Background()))
	assert.Equal(t, 1, syncer.calls)
	assert.Equal(t, time.Minute, w.tick)
}

func TestSyncWorker_StopsOnCancel(t *testing.T) {
	w := NewSyncWorker(&countingSyncer{}, &fixedSchedule{}, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
