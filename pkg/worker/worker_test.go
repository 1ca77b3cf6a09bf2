package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/petrijr/workloop/pkg/api"
)

// recorder is a ProcessFunc target that remembers what it saw.
type recorder struct {
	mu    sync.Mutex
	items []int
}

func (r *recorder) process(ctx context.Context, item int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, item)
	return nil
}

func (r *recorder) seen() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, len(r.items))
	copy(out, r.items)
	return out
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTestLoop(t *testing.T, process ProcessFunc[int], cfg Config[int]) *Loop[int] {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = quietLogger()
	}
	l := NewWithConfig(process, cfg)
	t.Cleanup(l.Close)
	return l
}

func TestLoop_ProcessesItemsInOrder(t *testing.T) {
	rec := &recorder{}
	l := newTestLoop(t, rec.process, Config[int]{})

	require.True(t, l.Start())
	require.Equal(t, api.StateRunning, l.State())

	for i := 1; i <= 100; i++ {
		l.Submit(i)
	}

	require.Eventually(t, func() bool { return rec.count() == 100 }, 2*time.Second, 5*time.Millisecond)

	want := make([]int, 100)
	for i := range want {
		want[i] = i + 1
	}
	require.Equal(t, want, rec.seen())

	l.Stop()
	require.Equal(t, api.StateStopped, l.State())
}

func TestLoop_SubmitWhileStoppedWaitsForStart(t *testing.T) {
	rec := &recorder{}
	l := newTestLoop(t, rec.process, Config[int]{})

	require.Equal(t, 1, l.Submit(1))
	require.Equal(t, 2, l.Submit(2))

	time.Sleep(20 * time.Millisecond)
	require.Zero(t, rec.count(), "nothing should run before Start")
	require.Equal(t, 2, l.Len())

	l.Start()
	require.Eventually(t, func() bool { return rec.count() == 2 }, time.Second, 5*time.Millisecond)
	require.Equal(t, []int{1, 2}, rec.seen())
}

func TestLoop_StartIsIdempotent(t *testing.T) {
	metrics := &api.BasicMetrics{}
	rec := &recorder{}
	l := newTestLoop(t, rec.process, Config[int]{Observer: metrics})

	require.True(t, l.Start())
	require.True(t, l.Start())
	require.Equal(t, api.StateRunning, l.State())
	require.Equal(t, int64(1), metrics.Snapshot().LoopsStarted, "only one consumer goroutine may be spawned")

	l.Stop()
	l.Stop()
	require.Equal(t, api.StateStopped, l.State())
	require.Equal(t, int64(1), metrics.Snapshot().LoopsStopped)
}

func TestLoop_StopBeforeStartIsNoop(t *testing.T) {
	rec := &recorder{}
	l := newTestLoop(t, rec.process, Config[int]{Policy: api.ShutdownPeaceful})

	l.Submit(1)
	l.Stop()

	require.Equal(t, api.StateStopped, l.State())
	require.Equal(t, 1, l.Len(), "Stop on a stopped loop must not drain")
	require.Zero(t, rec.count())
}

func TestLoop_RestartAfterStop(t *testing.T) {
	rec := &recorder{}
	l := newTestLoop(t, rec.process, Config[int]{})

	l.Start()
	l.Submit(1)
	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
	l.Stop()

	require.True(t, l.Start())
	l.Submit(2)
	require.Eventually(t, func() bool { return rec.count() == 2 }, time.Second, 5*time.Millisecond)
	require.Equal(t, []int{1, 2}, rec.seen())
}

func TestLoop_StopDoesNotWaitOutPollInterval(t *testing.T) {
	rec := &recorder{}
	l := newTestLoop(t, rec.process, Config[int]{PollInterval: time.Hour})

	l.Start()
	time.Sleep(10 * time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		l.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatalf("Stop blocked on the poll interval")
	}
}

func TestLoop_ProcessingFailuresDoNotStopTheLoop(t *testing.T) {
	var (
		mu     sync.Mutex
		ok     []int
		failed []error
	)

	obs := &failureObserver{onFail: func(err error) {
		mu.Lock()
		defer mu.Unlock()
		failed = append(failed, err)
	}}

	l := newTestLoop(t, func(ctx context.Context, item int) error {
		switch item {
		case 2:
			return errors.New("bad item")
		case 3:
			panic("boom")
		}
		mu.Lock()
		defer mu.Unlock()
		ok = append(ok, item)
		return nil
	}, Config[int]{Observer: obs})

	l.Start()
	for i := 1; i <= 4; i++ {
		l.Submit(i)
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(ok) == 2 && len(failed) == 2
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []int{1, 4}, ok)
	require.EqualError(t, failed[0], "bad item")

	var pe *PanicError
	require.ErrorAs(t, failed[1], &pe)
	require.Equal(t, "boom", pe.Value)
	require.NotEmpty(t, pe.Stack)
	require.Equal(t, api.StateRunning, l.State())
}

func TestLoop_ConcurrentProducersNoLoss(t *testing.T) {
	const (
		producers = 8
		perProd   = 250
		total     = producers * perProd
	)

	var (
		mu   sync.Mutex
		seen = make(map[int]int, total)
	)
	l := newTestLoop(t, func(ctx context.Context, item int) error {
		mu.Lock()
		defer mu.Unlock()
		seen[item]++
		return nil
	}, Config[int]{})

	l.Start()

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProd; i++ {
				l.Submit(p*perProd + i)
			}
		}(p)
	}
	wg.Wait()

	l.SetPeaceful(true)
	l.Stop()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, total)
	for item, n := range seen {
		require.Equal(t, 1, n, "item %d processed %d times", item, n)
	}
}

func TestLoop_LogsLifecycleAndFailures(t *testing.T) {
	h := &recordingHandler{}
	l := newTestLoop(t, func(ctx context.Context, item int) error {
		return fmt.Errorf("item %d rejected", item)
	}, Config[int]{Logger: slog.New(h)})

	l.Start()
	l.Submit(7)
	require.Eventually(t, func() bool { return h.has("item_failed") }, time.Second, 5*time.Millisecond)
	l.Stop()

	for _, msg := range []string{"loop_started", "item_failed", "loop_stopping", "loop_stopped"} {
		require.True(t, h.has(msg), "missing log record %q", msg)
	}
	for _, r := range h.snapshot() {
		require.Equal(t, l.ID(), attrValue(r, "loop_id"), "record %q lacks loop_id", r.Message)
	}
}

// failureObserver forwards OnItemFailed to a callback.
type failureObserver struct {
	api.NoopObserver
	onFail func(err error)
}

func (o *failureObserver) OnItemFailed(ctx context.Context, loopID string, err error, d time.Duration) {
	o.onFail(err)
}

// recordingHandler is a minimal slog.Handler that just records log records.
type recordingHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordingHandler) Enabled(ctx context.Context, level slog.Level) bool { return true }

func (h *recordingHandler) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r.Clone())
	return nil
}

func (h *recordingHandler) WithAttrs(attrs []slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(name string) slog.Handler       { return h }

func (h *recordingHandler) snapshot() []slog.Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]slog.Record, len(h.records))
	copy(out, h.records)
	return out
}

func (h *recordingHandler) has(msg string) bool {
	for _, r := range h.snapshot() {
		if r.Message == msg {
			return true
		}
	}
	return false
}

func attrValue(r slog.Record, key string) any {
	var v any
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == key {
			v = a.Value.Any()
			return false
		}
		return true
	})
	return v
}
