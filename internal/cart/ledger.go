package cart

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/avelis/shopfront/internal/domain"
)

// Ledger owns the line items for one session. Every mutation recomputes the
// totals, writes the item list through to the store, and publishes the new
// totals to subscribers. Storage problems never block shopping: a failed or
// corrupted load starts an empty cart, a failed save is logged and the
// in-memory state stays authoritative.
type Ledger struct {
	mu        sync.Mutex
	store     Store
	sessionID string
	log       *zap.Logger

	items  []domain.LineItem
	totals domain.CartTotals

	subs    map[int]chan domain.CartTotals
	nextSub int
}

func NewLedger(store Store, sessionID string, log *zap.Logger) *Ledger {
	return &Ledger{
		store:     store,
		sessionID: sessionID,
		log:       log,
		subs:      make(map[int]chan domain.CartTotals),
	}
}

// Load reads the persisted item list and recomputes totals from it. Missing
// or malformed state yields an empty ledger.
func (l *Ledger) Load(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	items, err := l.store.Load(ctx, l.sessionID)
	if err != nil {
		if err != ErrNoCart {
			l.log.Warn("cart load failed, starting empty",
				zap.String("session_id", l.sessionID), zap.Error(err))
		}
		l.items = nil
	} else {
		l.items = items
	}
	l.recompute()
	l.publish()
}

// AddItem merges into an existing line item by product ID or appends a new
// one. A non-positive quantity adds a single unit.
func (l *Ledger) AddItem(ctx context.Context, item domain.LineItem) {
	if item.Quantity <= 0 {
		item.Quantity = 1
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	merged := false
	for i := range l.items {
		if l.items[i].ProductID == item.ProductID {
			l.items[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		l.items = append(l.items, item)
	}
	l.commit(ctx)
}

// DecrementQuantity lowers the item's quantity by one, removing the item when
// it reaches zero. Unknown product IDs are a no-op.
func (l *Ledger) DecrementQuantity(ctx context.Context, productID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.items {
		if l.items[i].ProductID != productID {
			continue
		}
		l.items[i].Quantity--
		if l.items[i].Quantity == 0 {
			l.items = append(l.items[:i], l.items[i+1:]...)
		}
		l.commit(ctx)
		return
	}
}

// RemoveItem drops the item regardless of quantity. Unknown product IDs are a
// no-op.
func (l *Ledger) RemoveItem(ctx context.Context, productID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.items {
		if l.items[i].ProductID == productID {
			l.items = append(l.items[:i], l.items[i+1:]...)
			l.commit(ctx)
			return
		}
	}
}

// Reset clears all items and persists the empty state. Called only after a
// confirmed order.
func (l *Ledger) Reset(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.items = nil
	l.commit(ctx)
}

func (l *Ledger) Snapshot() domain.CartSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	items := make([]domain.LineItem, len(l.items))
	copy(items, l.items)
	return domain.CartSnapshot{
		Items:         items,
		TotalPrice:    l.totals.TotalPrice,
		TotalQuantity: l.totals.TotalQuantity,
	}
}

func (l *Ledger) Totals() domain.CartTotals {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totals
}

// Subscribe returns a channel that receives the latest totals after every
// mutation. Slow readers only ever miss intermediate values, never the most
// recent one. The returned func cancels the subscription.
func (l *Ledger) Subscribe() (<-chan domain.CartTotals, func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.nextSub
	l.nextSub++
	ch := make(chan domain.CartTotals, 1)
	l.subs[id] = ch

	return ch, func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.subs, id)
	}
}

// commit recomputes totals, persists write-through, and publishes. Callers
// hold the mutex.
func (l *Ledger) commit(ctx context.Context) {
	l.recompute()
	if err := l.store.Save(ctx, l.sessionID, l.items); err != nil {
		l.log.Error("cart save failed",
			zap.String("session_id", l.sessionID), zap.Error(err))
	}
	l.publish()
}

func (l *Ledger) recompute() {
	totalPrice := decimal.Zero
	totalQuantity := 0
	for _, item := range l.items {
		totalPrice = totalPrice.Add(item.Subtotal())
		totalQuantity += item.Quantity
	}
	l.totals = domain.CartTotals{TotalPrice: totalPrice, TotalQuantity: totalQuantity}
}

func (l *Ledger) publish() {
	for _, ch := range l.subs {
		select {
		case <-ch: // drop the stale value
		default:
		}
		select {
		case ch <- l.totals:
		default:
		}
	}
}
