package enginepool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeWorker struct {
	id       int
	resets   int
	closed   bool
	resetErr error
}

func (w *fakeWorker) Reset() error {
	w.resets++
	return w.resetErr
}

func (w *fakeWorker) Close() { w.closed = true }

func newFakePool(cfg Config) (*Pool[*fakeWorker], *atomic.Int32) {
	var n atomic.Int32
	p := New(cfg, func() (*fakeWorker, error) {
		return &fakeWorker{id: int(n.Add(1))}, nil
	})
	return p, &n
}

func TestPool_CreatesLazily(t *testing.T) {
	p, n := newFakePool(Config{Max: 3, Reuse: true})
	if got := n.Load(); got != 0 {
		t.Fatalf("workers created before first acquire: %d", got)
	}

	l, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if got := n.Load(); got != 1 {
		t.Errorf("created = %d, want 1", got)
	}
	l.Release()

	st := p.Stats()
	if st.Live != 1 || st.Idle != 1 || st.InUse != 0 {
		t.Errorf("stats after release = %+v", st)
	}
}

func TestPool_ReusesIdleWorker(t *testing.T) {
	p, n := newFakePool(Config{Max: 2, Reuse: true})

	l1, _ := p.Acquire(context.Background())
	first := l1.Worker()
	l1.Release()

	l2, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer l2.Release()

	if l2.Worker() != first {
		t.Errorf("expected the idle worker to be reused")
	}
	if first.resets != 1 {
		t.Errorf("resets = %d, want 1", first.resets)
	}
	if got := n.Load(); got != 1 {
		t.Errorf("created = %d, want 1", got)
	}
}

func TestPool_NoReuseDestroysOnRelease(t *testing.T) {
	p, n := newFakePool(Config{Max: 2, Reuse: false})

	l1, _ := p.Acquire(context.Background())
	w := l1.Worker()
	l1.Release()
	if !w.closed {
		t.Error("worker should be closed when reuse is disabled")
	}

	l2, _ := p.Acquire(context.Background())
	l2.Release()
	if got := n.Load(); got != 2 {
		t.Errorf("created = %d, want 2", got)
	}
	if st := p.Stats(); st.Live != 0 || st.Destroyed != 2 {
		t.Errorf("stats = %+v", st)
	}
}

func TestPool_MaxUsagesRecycles(t *testing.T) {
	p, n := newFakePool(Config{Max: 1, Reuse: true, MaxUsages: 2})

	for i := 0; i < 4; i++ {
		l, err := p.Acquire(context.Background())
		if err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
		l.Release()
	}
	if got := n.Load(); got != 2 {
		t.Errorf("created = %d, want 2 (recycled after 2 uses)", got)
	}
}

func TestPool_ResetFailureDestroys(t *testing.T) {
	p, _ := newFakePool(Config{Max: 1, Reuse: true})

	l, _ := p.Acquire(context.Background())
	w := l.Worker()
	w.resetErr = errors.New("boom")
	l.Release()

	if !w.closed {
		t.Error("worker with failing reset should be destroyed")
	}
	if st := p.Stats(); st.Live != 0 {
		t.Errorf("live = %d, want 0", st.Live)
	}
}

func TestPool_ReleaseIsIdempotent(t *testing.T) {
	p, _ := newFakePool(Config{Max: 1, Reuse: true})

	l, _ := p.Acquire(context.Background())
	l.Release()
	l.Release()
	l.Discard()

	if st := p.Stats(); st.Live != 1 || st.Idle != 1 {
		t.Errorf("stats = %+v, want one idle worker", st)
	}
}

func TestPool_ExhaustedWhenContextDone(t *testing.T) {
	p, _ := newFakePool(Config{Max: 1, Reuse: true})

	held, _ := p.Acquire(context.Background())
	defer held.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.Acquire(ctx)
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("err = %v, want ErrExhausted", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, should wrap the context error", err)
	}
}

func TestPool_WaiterGetsReleasedWorker(t *testing.T) {
	p, _ := newFakePool(Config{Max: 1, Reuse: true})

	held, _ := p.Acquire(context.Background())
	got := make(chan *fakeWorker, 1)
	go func() {
		l, err := p.Acquire(context.Background())
		if err != nil {
			got <- nil
			return
		}
		got <- l.Worker()
		l.Release()
	}()

	time.Sleep(10 * time.Millisecond)
	want := held.Worker()
	held.Release()

	select {
	case w := <-got:
		if w != want {
			t.Errorf("waiter received %v, want the released worker", w)
		}
	case <-time.After(time.Second):
		t.Fatal("waiter never received a worker")
	}
}

func TestPool_BoundHoldsUnderConcurrency(t *testing.T) {
	const max = 3
	p, n := newFakePool(Config{Max: max, Reuse: true})

	var inUse, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l, err := p.Acquire(context.Background())
			if err != nil {
				t.Errorf("Acquire: %v", err)
				return
			}
			cur := inUse.Add(1)
			for {
				old := peak.Load()
				if cur <= old || peak.CompareAndSwap(old, cur) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inUse.Add(-1)
			l.Release()
		}()
	}
	wg.Wait()

	if peak.Load() > max {
		t.Errorf("peak concurrent leases = %d, want <= %d", peak.Load(), max)
	}
	if n.Load() > max {
		t.Errorf("created = %d, want <= %d", n.Load(), max)
	}
}

func TestPool_CreateErrorFreesSlot(t *testing.T) {
	fail := true
	p := New(Config{Max: 1, Reuse: true}, func() (*fakeWorker, error) {
		if fail {
			return nil, errors.New("engine init failed")
		}
		return &fakeWorker{}, nil
	})

	if _, err := p.Acquire(context.Background()); err == nil {
		t.Fatal("expected creation error")
	}
	fail = false
	l, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("slot was not freed after failed create: %v", err)
	}
	l.Release()
}

func TestPool_Prewarm(t *testing.T) {
	p, n := newFakePool(Config{Max: 2, Reuse: true})
	if err := p.Prewarm(5); err != nil {
		t.Fatalf("Prewarm: %v", err)
	}
	if got := n.Load(); got != 2 {
		t.Errorf("created = %d, want 2 (capped at Max)", got)
	}
	if st := p.Stats(); st.Idle != 2 {
		t.Errorf("idle = %d, want 2", st.Idle)
	}
}

func TestPool_Close(t *testing.T) {
	p, _ := newFakePool(Config{Max: 2, Reuse: true})

	idle, _ := p.Acquire(context.Background())
	idleWorker := idle.Worker()
	idle.Release()

	held, _ := p.Acquire(context.Background())
	heldWorker := held.Worker()
	if heldWorker != idleWorker {
		t.Fatal("expected the idle worker to be leased again")
	}

	p.Close()
	if _, err := p.Acquire(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Acquire after Close err = %v, want ErrClosed", err)
	}

	held.Release()
	if !heldWorker.closed {
		t.Error("worker released after Close should be destroyed")
	}
	if st := p.Stats(); st.Live != 0 {
		t.Errorf("live = %d after close, want 0", st.Live)
	}
}
