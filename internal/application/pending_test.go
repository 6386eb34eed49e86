package application

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velmik/intake/internal/domain"
)

func TestPendingStoreUpsertMergesAcrossMessages(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	store := NewPendingStore(DefaultPendingTTL, clock, nil)

	phone := "+79991234567"
	amount := int64(500)
	bank := domain.BankSber

	store.Upsert("sender", domain.PartialFields{Phone: &phone})
	clock.Advance(time.Minute)
	store.Upsert("sender", domain.PartialFields{Amount: &amount})
	clock.Advance(time.Minute)
	record := store.Upsert("sender", domain.PartialFields{Bank: &bank})

	assert.Equal(t, phone, record.Phone)
	assert.Equal(t, amount, record.Amount)
	assert.Equal(t, bank, record.Bank)
	assert.Equal(t, clock.Now(), record.LastTouched)

	got, ok := store.Get("sender")
	require.True(t, ok)
	assert.Equal(t, record, got)
}

func TestPendingStoreGetPurgesExpiredRecord(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	store := NewPendingStore(10*time.Minute, clock, nil)

	phone := "+79991234567"
	store.Upsert("sender", domain.PartialFields{Phone: &phone})

	clock.Advance(10*time.Minute + time.Second)

	_, ok := store.Get("sender")
	assert.False(t, ok)
}

func TestPendingStoreUpsertStartsFreshAfterExpiry(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	store := NewPendingStore(10*time.Minute, clock, nil)

	phone := "+79991234567"
	amount := int64(500)
	store.Upsert("sender", domain.PartialFields{Phone: &phone})

	clock.Advance(11 * time.Minute)
	record := store.Upsert("sender", domain.PartialFields{Amount: &amount})

	assert.Empty(t, record.Phone, "expired phone must not leak into the fresh record")
	assert.Equal(t, amount, record.Amount)
}

func TestPendingStoreEvictExpiredSweepsOnlyStaleRecords(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	store := NewPendingStore(10*time.Minute, clock, nil)

	phone := "+79991234567"
	store.Upsert("stale", domain.PartialFields{Phone: &phone})
	clock.Advance(9 * time.Minute)
	store.Upsert("fresh", domain.PartialFields{Phone: &phone})
	clock.Advance(2 * time.Minute)

	evicted := store.EvictExpired()

	assert.Equal(t, []domain.Identity{"stale"}, evicted)
	_, ok := store.Get("fresh")
	assert.True(t, ok)
}

func TestPendingStoreClearConsumesRecord(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	store := NewPendingStore(DefaultPendingTTL, clock, nil)

	phone := "+79991234567"
	store.Upsert("sender", domain.PartialFields{Phone: &phone})
	store.Clear("sender")

	_, ok := store.Get("sender")
	assert.False(t, ok)
}
