// Package realtime carries table-scoped "something changed" signals from the
// write path to whoever renders derived views. Signals are coalesced: a
// subscriber that has not drained its channel sees at most one pending signal
// no matter how many changes happened in between.
package realtime

import (
	"errors"
	"log/slog"
	"sync"
)

// Tables that can be subscribed to.
const (
	TableMenuItems      = "menu_items"
	TableMenuCategories = "menu_categories"
	TableOrders         = "orders"
	TableOrderItems     = "order_items"
)

var ErrUnknownTable = errors.New("unknown table")

var knownTables = map[string]bool{
	TableMenuItems:      true,
	TableMenuCategories: true,
	TableOrders:         true,
	TableOrderItems:     true,
}

// Source is an optional external change feed. Open is called when a table
// gains its first subscriber; the returned close func when it loses its last.
type Source interface {
	Open(table string, signal func()) (func(), error)
}

type topic struct {
	subs        map[chan struct{}]struct{}
	closeSource func()
}

type Bus struct {
	log *slog.Logger
	src Source

	mu     sync.Mutex
	topics map[string]*topic
}

// NewBus creates a bus. src may be nil when changes are published in-process.
func NewBus(log *slog.Logger, src Source) *Bus {
	return &Bus{log: log, src: src, topics: make(map[string]*topic)}
}

// Subscribe registers interest in a table. The returned channel receives a
// coalesced signal per batch of changes; the cancel func must be called when
// the subscriber goes away.
func (b *Bus) Subscribe(table string) (<-chan struct{}, func(), error) {
	if !knownTables[table] {
		return nil, nil, ErrUnknownTable
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	tp, ok := b.topics[table]
	if !ok {
		tp = &topic{subs: make(map[chan struct{}]struct{})}
		if b.src != nil {
			closeFn, err := b.src.Open(table, func() { b.Publish(table) })
			if err != nil {
				return nil, nil, err
			}
			tp.closeSource = closeFn
		}
		b.topics[table] = tp
		b.log.Info("change feed opened", "table", table)
	}

	ch := make(chan struct{}, 1)
	tp.subs[ch] = struct{}{}

	cancel := func() { b.unsubscribe(table, ch) }
	return ch, cancel, nil
}

func (b *Bus) unsubscribe(table string, ch chan struct{}) {
	b.mu.Lock()
	defer b.mu.Unlock()

	tp, ok := b.topics[table]
	if !ok {
		return
	}
	if _, ok := tp.subs[ch]; !ok {
		return
	}
	delete(tp.subs, ch)
	close(ch)

	if len(tp.subs) == 0 {
		if tp.closeSource != nil {
			tp.closeSource()
		}
		delete(b.topics, table)
		b.log.Info("change feed closed", "table", table)
	}
}

// Publish signals every subscriber of the table. Non-blocking; a subscriber
// with a pending signal is not signalled again.
func (b *Bus) Publish(table string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	tp, ok := b.topics[table]
	if !ok {
		return
	}
	for ch := range tp.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// SubscriberCount reports current subscribers of a table.
func (b *Bus) SubscriberCount(table string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if tp, ok := b.topics[table]; ok {
		return len(tp.subs)
	}
	return 0
}
