// README: Concurrency tests for the snapshot store (run with -race).
package order

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"statusbot/internal/modules/vocab"
	"statusbot/internal/types"
)

// Two concurrent applies against disjoint ids must both persist. Without
// the store lock each handler would load its own copy of the file and the
// slower save would silently drop the faster one's write.
func TestConcurrentApplyDisjointIDs(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	start := make(chan struct{})
	var wg sync.WaitGroup
	errs := make(chan error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		<-start
		_, err := svc.Apply(ctx, ApplyCommand{IDs: []types.ID{"1001"}, Status: vocab.StatusOut, Actor: alice})
		errs <- err
	}()
	go func() {
		defer wg.Done()
		<-start
		_, err := svc.Apply(ctx, ApplyCommand{IDs: []types.ID{"2002"}, Status: vocab.StatusOnTheWay, Actor: bob})
		errs <- err
	}()

	close(start)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("apply: %v", err)
		}
	}

	for id, want := range map[types.ID]vocab.Status{"1001": vocab.StatusOut, "2002": vocab.StatusOnTheWay} {
		rec, err := svc.Lookup(ctx, id)
		if err != nil {
			t.Fatalf("lookup %s: %v (update lost)", id, err)
		}
		if rec.Status != want {
			t.Fatalf("order %s status = %q, want %q", id, rec.Status, want)
		}
	}
}

func TestConcurrentApplySameID(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	const workers = 8
	start := make(chan struct{})
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		actor := types.Actor{ID: fmt.Sprintf("a%d", i), Name: fmt.Sprintf("Agent%d", i)}
		wg.Add(1)
		go func(a types.Actor) {
			defer wg.Done()
			<-start
			_, err := svc.Apply(ctx, ApplyCommand{IDs: []types.ID{"1001"}, Status: vocab.StatusOut, Actor: a})
			errs <- err
		}(actor)
	}

	close(start)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("apply: %v", err)
		}
	}

	rec, err := svc.Lookup(ctx, "1001")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	// Every accepted update must have appended exactly one entry.
	if len(rec.History) != workers {
		t.Fatalf("history length = %d, want %d", len(rec.History), workers)
	}
}

func TestConcurrentBulkDoneAndApply(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Apply(ctx, ApplyCommand{IDs: []types.ID{"1", "2", "3"}, Status: vocab.StatusOut, Actor: alice}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		<-start
		_, _ = svc.BulkDone(ctx, BulkDoneCommand{Actor: alice})
	}()
	go func() {
		defer wg.Done()
		<-start
		_, _ = svc.Apply(ctx, ApplyCommand{IDs: []types.ID{"9"}, Status: vocab.StatusOut, Actor: bob})
	}()

	close(start)
	wg.Wait()

	// Both the bulk close and the unrelated single update must survive.
	for _, id := range []types.ID{"1", "2", "3", "9"} {
		if _, err := svc.Lookup(ctx, id); err != nil {
			t.Fatalf("lookup %s: %v", id, err)
		}
	}
	rec, err := svc.Lookup(ctx, "9")
	if err != nil {
		t.Fatalf("lookup 9: %v", err)
	}
	if rec.Status != vocab.StatusOut {
		t.Fatalf("order 9 status = %q", rec.Status)
	}
}
