package cart

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var alice = Identity{ID: "user-alice", DisplayName: "Alice"}

func newTestStore(t *testing.T, docs *memDocuments) *Store {
	t.Helper()
	store, err := NewStore(StoreParams{Documents: docs, SaveTimeout: time.Second, LoadTimeout: time.Second})
	require.NoError(t, err)
	return store
}

func loadedStore(t *testing.T, docs *memDocuments, items ...LineItem) *Store {
	t.Helper()
	if len(items) > 0 {
		docs.put(alice.ID, items...)
	}
	store := newTestStore(t, docs)
	identity := alice
	store.SetIdentity(context.Background(), &identity)
	require.True(t, store.Loaded())
	return store
}

func flush(t *testing.T, store *Store) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, store.Flush(ctx))
}

func TestNewStoreRequiresDocuments(t *testing.T) {
	_, err := NewStore(StoreParams{})
	require.Error(t, err)
}

func TestSetIdentityAdoptsRemoteItems(t *testing.T) {
	docs := newMemDocuments()
	remote := []LineItem{
		{ID: "a", Name: "Lamp", Price: 100, Quantity: 1},
		{ID: "b", Name: "Mug", Price: 25.5, Quantity: 2},
	}
	store := loadedStore(t, docs, remote...)

	assert.Equal(t, remote, store.Items())
	assert.Equal(t, 3, store.TotalItems())
	reads, creates, overwrites := docs.stats()
	assert.Equal(t, 1, reads)
	assert.Zero(t, creates)
	assert.Zero(t, overwrites)
}

func TestSetIdentityCreatesMissingDocument(t *testing.T) {
	docs := newMemDocuments()
	store := loadedStore(t, docs)

	assert.Empty(t, store.Items())
	_, creates, _ := docs.stats()
	assert.Equal(t, 1, creates)
	doc, ok := docs.stored(alice.ID)
	require.True(t, ok)
	assert.Empty(t, doc.Items)
}

func TestSetIdentityFallsBackOnReadFault(t *testing.T) {
	docs := newMemDocuments()
	docs.readErr = errors.New("connection reset")
	store := loadedStore(t, docs)

	assert.Empty(t, store.Items())
	assert.True(t, store.Loaded())
	_, creates, _ := docs.stats()
	assert.Zero(t, creates)
}

func TestSetIdentityFallsBackOnCreateFault(t *testing.T) {
	docs := newMemDocuments()
	docs.createErr = errors.New("write concern failed")
	store := loadedStore(t, docs)

	assert.Empty(t, store.Items())
	assert.True(t, store.Loaded())
}

func TestSetIdentitySameIdentityIsNoop(t *testing.T) {
	docs := newMemDocuments()
	store := loadedStore(t, docs, LineItem{ID: "a", Price: 10, Quantity: 1})

	identity := alice
	store.SetIdentity(context.Background(), &identity)
	store.SetIdentity(context.Background(), &identity)

	reads, _, _ := docs.stats()
	assert.Equal(t, 1, reads)
	assert.Len(t, store.Items(), 1)
}

func TestSetIdentityNilResetsWithoutRemoteAccess(t *testing.T) {
	docs := newMemDocuments()
	store := loadedStore(t, docs, LineItem{ID: "a", Price: 10, Quantity: 1})

	store.SetIdentity(context.Background(), nil)

	assert.Empty(t, store.Items())
	assert.False(t, store.Loaded())
	assert.Nil(t, store.Identity())
	reads, creates, overwrites := docs.stats()
	assert.Equal(t, 1, reads)
	assert.Zero(t, creates)
	assert.Zero(t, overwrites)
}

func TestSetIdentitySwitchesCarts(t *testing.T) {
	docs := newMemDocuments()
	docs.put("user-bob", LineItem{ID: "z", Price: 5, Quantity: 4})
	store := loadedStore(t, docs, LineItem{ID: "a", Price: 10, Quantity: 1})

	bob := Identity{ID: "user-bob"}
	store.SetIdentity(context.Background(), &bob)

	require.True(t, store.Loaded())
	assert.Equal(t, []LineItem{{ID: "z", Price: 5, Quantity: 4}}, store.Items())
	assert.Equal(t, "user-bob", store.Identity().ID)
}

func TestMutationsDuringLoadAreNotSaved(t *testing.T) {
	docs := newMemDocuments()
	docs.put(alice.ID, LineItem{ID: "remote", Price: 1, Quantity: 1})
	docs.readGate = make(chan struct{})
	docs.readStarted = make(chan struct{}, 1)
	store := newTestStore(t, docs)

	done := make(chan struct{})
	go func() {
		defer close(done)
		identity := alice
		store.SetIdentity(context.Background(), &identity)
	}()

	<-docs.readStarted
	assert.False(t, store.Loaded())
	store.Add(LineItem{ID: "early", Price: 3, Quantity: 1})
	close(docs.readGate)
	<-done

	flush(t, store)
	assert.True(t, store.Loaded())
	assert.Equal(t, []LineItem{{ID: "remote", Price: 1, Quantity: 1}}, store.Items())
	_, _, overwrites := docs.stats()
	assert.Zero(t, overwrites)
}

func TestAnonymousStoreIgnoresMutations(t *testing.T) {
	docs := newMemDocuments()
	store := newTestStore(t, docs)

	store.Add(LineItem{ID: "a", Price: 10, Quantity: 1})
	store.Clear()

	assert.Empty(t, store.Items())
	reads, _, overwrites := docs.stats()
	assert.Zero(t, reads)
	assert.Zero(t, overwrites)
}

func TestAddMergesExistingItemKeepingStoredPrice(t *testing.T) {
	docs := newMemDocuments()
	store := loadedStore(t, docs, LineItem{ID: "a", Name: "Lamp", Price: 100, ImageURL: "lamp.png", Quantity: 1})

	store.Add(LineItem{ID: "a", Name: "Renamed", Price: 999, ImageURL: "other.png", Quantity: 2})
	flush(t, store)

	assert.Equal(t, []LineItem{{ID: "a", Name: "Lamp", Price: 100, ImageURL: "lamp.png", Quantity: 3}}, store.Items())
	doc, ok := docs.stored(alice.ID)
	require.True(t, ok)
	assert.Equal(t, store.Items(), doc.Items)
}

func TestAddAppendsNewItem(t *testing.T) {
	docs := newMemDocuments()
	store := loadedStore(t, docs, LineItem{ID: "a", Price: 100, Quantity: 1})

	store.Add(LineItem{ID: "b", Price: 50, Quantity: 2})
	flush(t, store)

	items := store.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].ID)
	assert.Equal(t, "b", items[1].ID)
	assert.Equal(t, 200.0, store.Total())
}

func TestAddRejectsInvalidItems(t *testing.T) {
	docs := newMemDocuments()
	store := loadedStore(t, docs, LineItem{ID: "a", Price: 100, Quantity: 1})

	store.Add(LineItem{ID: "", Price: 10, Quantity: 1})
	store.Add(LineItem{ID: "b", Price: 10, Quantity: 0})
	store.Add(LineItem{ID: "a", Price: 10, Quantity: -3})
	flush(t, store)

	assert.Equal(t, []LineItem{{ID: "a", Price: 100, Quantity: 1}}, store.Items())
	_, _, overwrites := docs.stats()
	assert.Zero(t, overwrites)
}

func TestAddIgnoresMergeThatWouldOverflow(t *testing.T) {
	docs := newMemDocuments()
	store := loadedStore(t, docs)

	store.Add(LineItem{ID: "a", Price: 1, Quantity: math.MaxInt})
	store.Add(LineItem{ID: "a", Price: 1, Quantity: 1})
	flush(t, store)

	items := store.Items()
	require.Len(t, items, 1)
	assert.Equal(t, math.MaxInt, items[0].Quantity)
	assert.Equal(t, math.MaxInt, store.TotalItems())
	assert.Positive(t, store.Total())
	doc, ok := docs.stored(alice.ID)
	require.True(t, ok)
	assert.Equal(t, math.MaxInt, doc.Items[0].Quantity)
}

func TestUpdateQuantity(t *testing.T) {
	docs := newMemDocuments()
	store := loadedStore(t, docs,
		LineItem{ID: "a", Price: 10, Quantity: 1},
		LineItem{ID: "b", Price: 20, Quantity: 1},
	)

	store.UpdateQuantity("b", 5)
	flush(t, store)

	assert.Equal(t, []LineItem{
		{ID: "a", Price: 10, Quantity: 1},
		{ID: "b", Price: 20, Quantity: 5},
	}, store.Items())
	assert.Equal(t, 6, store.TotalItems())
}

func TestUpdateQuantityBelowOneIsNoop(t *testing.T) {
	docs := newMemDocuments()
	store := loadedStore(t, docs, LineItem{ID: "a", Price: 10, Quantity: 2})

	store.UpdateQuantity("a", 0)
	store.UpdateQuantity("a", -1)
	flush(t, store)

	assert.Equal(t, 2, store.TotalItems())
	_, _, overwrites := docs.stats()
	assert.Zero(t, overwrites)
}

func TestUpdateQuantityUnknownIDLeavesItems(t *testing.T) {
	docs := newMemDocuments()
	store := loadedStore(t, docs, LineItem{ID: "a", Price: 10, Quantity: 2})

	store.UpdateQuantity("missing", 4)
	flush(t, store)

	assert.Equal(t, []LineItem{{ID: "a", Price: 10, Quantity: 2}}, store.Items())
}

func TestRemove(t *testing.T) {
	docs := newMemDocuments()
	store := loadedStore(t, docs,
		LineItem{ID: "a", Price: 10, Quantity: 1},
		LineItem{ID: "b", Price: 20, Quantity: 1},
	)

	store.Remove("missing")
	assert.Len(t, store.Items(), 2)

	store.Remove("a")
	flush(t, store)

	assert.Equal(t, []LineItem{{ID: "b", Price: 20, Quantity: 1}}, store.Items())
	doc, _ := docs.stored(alice.ID)
	assert.Equal(t, store.Items(), doc.Items)
}

func TestClear(t *testing.T) {
	docs := newMemDocuments()
	store := loadedStore(t, docs, LineItem{ID: "a", Price: 10, Quantity: 1})

	store.Clear()
	flush(t, store)

	assert.Empty(t, store.Items())
	assert.Zero(t, store.TotalItems())
	assert.Zero(t, store.Total())
	doc, _ := docs.stored(alice.ID)
	assert.Empty(t, doc.Items)
}

func TestTotalRoundsToCents(t *testing.T) {
	docs := newMemDocuments()
	store := loadedStore(t, docs,
		LineItem{ID: "a", Price: 19.99, Quantity: 3},
		LineItem{ID: "b", Price: 0.1, Quantity: 3},
	)

	assert.Equal(t, 60.27, store.Total())
}

func TestItemsReturnsCopy(t *testing.T) {
	docs := newMemDocuments()
	store := loadedStore(t, docs, LineItem{ID: "a", Price: 10, Quantity: 1})

	items := store.Items()
	items[0].Quantity = 99

	assert.Equal(t, 1, store.TotalItems())
}

func TestSaveFailureIsSwallowedAndNotRetried(t *testing.T) {
	docs := newMemDocuments()
	docs.overwriteErr = errors.New("network down")
	store := loadedStore(t, docs)

	store.Add(LineItem{ID: "a", Price: 10, Quantity: 1})
	flush(t, store)

	assert.Equal(t, []LineItem{{ID: "a", Price: 10, Quantity: 1}}, store.Items())
	_, _, overwrites := docs.stats()
	assert.Equal(t, 1, overwrites)
}

func TestPendingSavesCoalesceToLatestSnapshot(t *testing.T) {
	docs := newMemDocuments()
	store := loadedStore(t, docs)
	docs.mu.Lock()
	docs.overwriteGate = make(chan struct{})
	docs.mu.Unlock()

	store.Add(LineItem{ID: "a", Price: 1, Quantity: 1})
	store.Add(LineItem{ID: "b", Price: 2, Quantity: 1})
	store.Add(LineItem{ID: "c", Price: 3, Quantity: 1})
	store.UpdateQuantity("a", 4)
	close(docs.overwriteGate)
	flush(t, store)

	saved := docs.saved()
	require.Len(t, saved, 2)
	assert.Equal(t, []LineItem{{ID: "a", Price: 1, Quantity: 1}}, saved[0].Items)
	assert.Equal(t, store.Items(), saved[1].Items)
	doc, _ := docs.stored(alice.ID)
	assert.Equal(t, store.Items(), doc.Items)
}

func TestFlushHonoursContext(t *testing.T) {
	docs := newMemDocuments()
	store := loadedStore(t, docs)
	docs.mu.Lock()
	docs.overwriteGate = make(chan struct{})
	docs.mu.Unlock()
	defer close(docs.overwriteGate)

	store.Add(LineItem{ID: "a", Price: 1, Quantity: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, store.Flush(ctx), context.DeadlineExceeded)
}

func TestTotalsTrackRandomMutationSequences(t *testing.T) {
	prices := []float64{0.1, 0.99, 3.33, 19.99, 100, 1498.34}

	for _, seed := range []uint64{1, 7, 42, 2026} {
		t.Run("seed "+strconv.FormatUint(seed, 10), func(t *testing.T) {
			rng := rand.New(rand.NewPCG(seed, seed*31))
			docs := newMemDocuments()
			store := loadedStore(t, docs)
			var want []LineItem

			for step := 0; step < 300; step++ {
				id := "p-" + strconv.Itoa(rng.IntN(6))
				quantity := rng.IntN(7) - 1

				switch op := rng.IntN(20); {
				case op < 9:
					item := LineItem{ID: id, Price: prices[rng.IntN(len(prices))], Quantity: quantity}
					store.Add(item)
					want = modelAdd(want, item)
				case op < 14:
					store.UpdateQuantity(id, quantity)
					want = modelUpdate(want, id, quantity)
				case op < 19:
					store.Remove(id)
					want = modelRemove(want, id)
				default:
					store.Clear()
					want = nil
				}

				got := store.Items()
				require.Len(t, got, len(want), "step %d", step)
				if len(want) > 0 {
					require.Equal(t, want, got, "step %d", step)
				}
				totalItems, total := modelTotals(want)
				require.Equal(t, totalItems, store.TotalItems(), "step %d", step)
				require.Equal(t, total, store.Total(), "step %d", step)
				for _, item := range got {
					require.GreaterOrEqual(t, item.Quantity, 1, "step %d", step)
				}
			}

			flush(t, store)
			doc, ok := docs.stored(alice.ID)
			require.True(t, ok)
			assert.ElementsMatch(t, store.Items(), doc.Items)
		})
	}
}

func modelAdd(items []LineItem, item LineItem) []LineItem {
	if item.Quantity < 1 {
		return items
	}
	for i := range items {
		if items[i].ID == item.ID {
			items[i].Quantity += item.Quantity
			return items
		}
	}
	return append(items, item)
}

func modelUpdate(items []LineItem, id string, quantity int) []LineItem {
	if quantity < 1 {
		return items
	}
	for i := range items {
		if items[i].ID == id {
			items[i].Quantity = quantity
		}
	}
	return items
}

func modelRemove(items []LineItem, id string) []LineItem {
	var out []LineItem
	for _, item := range items {
		if item.ID != id {
			out = append(out, item)
		}
	}
	return out
}

func modelTotals(items []LineItem) (int, float64) {
	count := 0
	sum := decimal.Zero
	for _, item := range items {
		count += item.Quantity
		sum = sum.Add(decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return count, sum.Round(2).InexactFloat64()
}
