package realtime

import (
	"testing"

	"github.com/ozkantan/lokma/pkg/logging"
)

type fakeSource struct {
	opened []string
	closed []string
}

func (f *fakeSource) Open(table string, signal func()) (func(), error) {
	f.opened = append(f.opened, table)
	return func() { f.closed = append(f.closed, table) }, nil
}

func TestSubscribeRejectsUnknownTable(t *testing.T) {
	bus := NewBus(logging.Discard(), nil)
	if _, _, err := bus.Subscribe("payments"); err != ErrUnknownTable {
		t.Fatalf("expected ErrUnknownTable, got %v", err)
	}
}

func TestSourceOpensOnceAndClosesOnLastUnsubscribe(t *testing.T) {
	src := &fakeSource{}
	bus := NewBus(logging.Discard(), src)

	_, cancel1, err := bus.Subscribe(TableOrders)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	_, cancel2, err := bus.Subscribe(TableOrders)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if len(src.opened) != 1 {
		t.Fatalf("expected one source open for two subscribers, got %d", len(src.opened))
	}
	if got := bus.SubscriberCount(TableOrders); got != 2 {
		t.Fatalf("expected 2 subscribers, got %d", got)
	}

	cancel1()
	if len(src.closed) != 0 {
		t.Fatal("source closed while a subscriber remains")
	}
	cancel2()
	if len(src.closed) != 1 {
		t.Fatalf("expected source closed after last unsubscribe, got %d closes", len(src.closed))
	}

	// Re-subscribing reopens the feed.
	_, cancel3, err := bus.Subscribe(TableOrders)
	if err != nil {
		t.Fatalf("resubscribe: %v", err)
	}
	defer cancel3()
	if len(src.opened) != 2 {
		t.Fatalf("expected source reopened, got %d opens", len(src.opened))
	}
}

func TestPublishCoalesces(t *testing.T) {
	bus := NewBus(logging.Discard(), nil)
	ch, cancel, err := bus.Subscribe(TableMenuItems)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	bus.Publish(TableMenuItems)
	bus.Publish(TableMenuItems)
	bus.Publish(TableMenuItems)

	<-ch
	select {
	case <-ch:
		t.Fatal("expected undrained signals to coalesce into one")
	default:
	}

	// A publish after draining signals again.
	bus.Publish(TableMenuItems)
	select {
	case <-ch:
	default:
		t.Fatal("expected a fresh signal after draining")
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	bus := NewBus(logging.Discard(), nil)
	_, cancel, err := bus.Subscribe(TableOrderItems)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	cancel()
	cancel() // must not panic or close twice
	if got := bus.SubscriberCount(TableOrderItems); got != 0 {
		t.Fatalf("expected 0 subscribers, got %d", got)
	}
}
