package bus

import (
	"context"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docfoundry/docfoundry/core"
	"github.com/docfoundry/docfoundry/internal/testutil"
)

func event(conversationID string, seq int) core.ProgressEvent {
	return testutil.Event(conversationID, seq)
}

func collect(t *testing.T, ch <-chan core.ProgressEvent, n int) []core.ProgressEvent {
	t.Helper()
	out := make([]core.ProgressEvent, 0, n)
	timeout := time.After(2 * time.Second)
	for len(out) < n {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatalf("timed out after %d of %d events", len(out), n)
		}
	}
	return out
}

func TestBus_DeliversInPublishOrder(t *testing.T) {
	b := New()
	ch := b.Subscribe(context.Background(), "c1")

	for i := 1; i <= 10; i++ {
		b.Publish(event("c1", i))
	}
	b.Close("c1")

	events := collect(t, ch, 10)
	require.Len(t, events, 10)
	for i, ev := range events {
		assert.Equal(t, i+1, ev.Seq, "sequence must be gap-free from 1")
	}

	_, open := <-ch
	assert.False(t, open, "channel should close after terminal drain")
}

func TestBus_LateSubscriberReplaysFullHistory(t *testing.T) {
	b := New()
	for i := 1; i <= 5; i++ {
		b.Publish(event("c2", i))
	}
	b.Close("c2")

	ch := b.Subscribe(context.Background(), "c2")
	events := collect(t, ch, 5)

	require.Len(t, events, 5)
	for i, ev := range events {
		assert.Equal(t, i+1, ev.Seq)
	}
}

func TestBus_ReplayThenLiveFeed(t *testing.T) {
	b := New()
	b.Publish(event("c3", 1))
	b.Publish(event("c3", 2))

	ch := b.Subscribe(context.Background(), "c3")
	replay := collect(t, ch, 2)
	assert.Equal(t, 1, replay[0].Seq)
	assert.Equal(t, 2, replay[1].Seq)

	b.Publish(event("c3", 3))
	live := collect(t, ch, 1)
	assert.Equal(t, 3, live[0].Seq)

	b.Close("c3")
	_, open := <-ch
	assert.False(t, open)
}

func TestBus_MultipleSubscribersSeeSameOrder(t *testing.T) {
	b := New()
	const subs, events = 4, 20

	channels := make([]<-chan core.ProgressEvent, subs)
	for i := range channels {
		channels[i] = b.Subscribe(context.Background(), "c4")
	}

	var wg sync.WaitGroup
	results := make([][]core.ProgressEvent, subs)
	for i, ch := range channels {
		wg.Add(1)
		go func(i int, ch <-chan core.ProgressEvent) {
			defer wg.Done()
			for ev := range ch {
				results[i] = append(results[i], ev)
			}
		}(i, ch)
	}

	for i := 1; i <= events; i++ {
		b.Publish(event("c4", i))
	}
	b.Close("c4")
	wg.Wait()

	for i := range results {
		require.Len(t, results[i], events)
		for j, ev := range results[i] {
			assert.Equal(t, j+1, ev.Seq)
		}
	}
}

func TestBus_SubscribeCancellation(t *testing.T) {
	b := New()
	ctx, cancel := context.WithCancel(context.Background())
	ch := b.Subscribe(ctx, "c5")

	b.Publish(event("c5", 1))
	collect(t, ch, 1)

	cancel()
	select {
	case _, open := <-ch:
		assert.False(t, open, "channel should close on cancellation")
	case <-time.After(2 * time.Second):
		t.Fatal("channel did not close after cancellation")
	}
}

func TestBus_DrainedSubscriptionReleasesWatcher(t *testing.T) {
	b := New()
	b.Publish(event("c7", 1))
	b.Close("c7")

	before := runtime.NumGoroutine()
	// background ctx is never cancelled; each drained subscription must
	// still release its watcher goroutine
	for i := 0; i < 50; i++ {
		ch := b.Subscribe(context.Background(), "c7")
		for range ch {
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if runtime.NumGoroutine() <= before+5 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("goroutines grew from %d to %d, subscription watchers leaked",
		before, runtime.NumGoroutine())
}

func TestBus_PublishAfterCloseIsDropped(t *testing.T) {
	b := New()
	b.Publish(event("c6", 1))
	b.Close("c6")
	b.Publish(event("c6", 2))

	assert.Len(t, b.History("c6"), 1)
}
