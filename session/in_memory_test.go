package session

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/docfoundry/docfoundry/core"
)

func TestInMemoryStoreCreateAndGet(t *testing.T) {
	store := NewInMemoryStore()

	conv, err := store.Create("conv-1", "design a sorting service")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if conv.Stage != core.StageCreated {
		t.Errorf("expected stage created, got %s", conv.Stage)
	}

	got, err := store.Get("conv-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Query != "design a sorting service" {
		t.Errorf("unexpected query %q", got.Query)
	}
}

func TestInMemoryStoreDuplicateCreate(t *testing.T) {
	store := NewInMemoryStore()
	if _, err := store.Create("conv-1", "q"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.Create("conv-1", "q"); !errors.Is(err, core.ErrConversationExists) {
		t.Errorf("expected ErrConversationExists, got %v", err)
	}
}

func TestInMemoryStoreUnknownConversation(t *testing.T) {
	store := NewInMemoryStore()
	if _, err := store.Get("missing"); !errors.Is(err, core.ErrUnknownConversation) {
		t.Errorf("Get: expected ErrUnknownConversation, got %v", err)
	}
	err := store.Advance("missing", func(*core.Conversation) error { return nil })
	if !errors.Is(err, core.ErrUnknownConversation) {
		t.Errorf("Advance: expected ErrUnknownConversation, got %v", err)
	}
}

func TestInMemoryStoreGetReturnsClone(t *testing.T) {
	store := NewInMemoryStore()
	if _, err := store.Create("conv-1", "q"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, _ := store.Get("conv-1")
	got.Stage = core.StageFailed
	got.Events = append(got.Events, core.ProgressEvent{Seq: 99})

	fresh, _ := store.Get("conv-1")
	if fresh.Stage != core.StageCreated {
		t.Errorf("mutating a Get result leaked into the store")
	}
	if len(fresh.Events) != 0 {
		t.Errorf("expected no events, got %d", len(fresh.Events))
	}
}

func TestInMemoryStoreAdvanceSerializesMutation(t *testing.T) {
	store := NewInMemoryStore()
	if _, err := store.Create("conv-1", "q"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	const workers = 8
	const perWorker = 25
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				err := store.Advance("conv-1", func(c *core.Conversation) error {
					c.NextEvent(core.StepPipeline, "", core.StatusStarted, fmt.Sprintf("w%d", w))
					return nil
				})
				if err != nil {
					t.Errorf("Advance failed: %v", err)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	conv, _ := store.Get("conv-1")
	if len(conv.Events) != workers*perWorker {
		t.Fatalf("expected %d events, got %d", workers*perWorker, len(conv.Events))
	}
	for i, ev := range conv.Events {
		if ev.Seq != i+1 {
			t.Fatalf("event %d has seq %d, sequence must be gap-free", i, ev.Seq)
		}
	}
}

func TestInMemoryStoreAdvanceErrorDoesNotSwallow(t *testing.T) {
	store := NewInMemoryStore()
	if _, err := store.Create("conv-1", "q"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	sentinel := errors.New("boom")
	if err := store.Advance("conv-1", func(*core.Conversation) error { return sentinel }); !errors.Is(err, sentinel) {
		t.Errorf("expected callback error surfaced, got %v", err)
	}
}
