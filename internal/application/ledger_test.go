package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velmik/intake/internal/adapters/repo/memory"
	"github.com/velmik/intake/internal/domain"
)

func newTestLedger(t *testing.T) (*LedgerService, *fakeClock) {
	t.Helper()

	clock := newFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	ledger := NewLedgerService(memory.NewTransactionRepository(), memory.NewSessionRepository(), clock, nil)
	return ledger, clock
}

func completeRecord(amount int64) domain.PendingRecord {
	return domain.PendingRecord{
		Phone:  "+79991234567",
		Amount: amount,
		Bank:   domain.BankSber,
		Email:  "sir+999@outluk.ru",
	}
}

func TestStartSessionRejectsNonPositiveTarget(t *testing.T) {
	t.Parallel()

	ledger, _ := newTestLedger(t)

	_, err := ledger.StartSession(context.Background(), 0)
	require.ErrorIs(t, err, domain.ErrInvalidTarget)

	_, err = ledger.StartSession(context.Background(), -100)
	require.ErrorIs(t, err, domain.ErrInvalidTarget)
}

func TestStartSessionDeactivatesPreviousSession(t *testing.T) {
	t.Parallel()

	ledger, clock := newTestLedger(t)
	ctx := context.Background()

	first, err := ledger.StartSession(ctx, 1000)
	require.NoError(t, err)

	clock.Advance(time.Hour)
	second, err := ledger.StartSession(ctx, 2000)
	require.NoError(t, err)
	assert.Equal(t, first.ID+1, second.ID)

	active, ok := ledger.ActiveSession()
	require.True(t, ok)
	assert.Equal(t, second.ID, active.ID)
}

func TestStopSessionWithoutActiveFails(t *testing.T) {
	t.Parallel()

	ledger, _ := newTestLedger(t)

	_, err := ledger.StopSession(context.Background())
	require.ErrorIs(t, err, domain.ErrNoActiveSession)
}

func TestRecordTransactionAccumulatesIntoActiveSession(t *testing.T) {
	t.Parallel()

	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := ledger.StartSession(ctx, 1000)
	require.NoError(t, err)

	first, err := ledger.RecordTransaction(ctx, completeRecord(300), "worker")
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionID(1), first.ID)
	assert.Equal(t, domain.ReceiptPending, first.Receipt)

	second, err := ledger.RecordTransaction(ctx, completeRecord(500), "worker")
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionID(2), second.ID)

	session, ok := ledger.ActiveSession()
	require.True(t, ok)
	assert.Equal(t, int64(800), session.Current)
	assert.Equal(t, 80, ledger.Progress())
}

func TestRecordTransactionOutsideSessionDoesNotAccumulate(t *testing.T) {
	t.Parallel()

	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := ledger.RecordTransaction(ctx, completeRecord(300), "worker")
	require.NoError(t, err)

	assert.Equal(t, 0, ledger.Progress())

	_, err = ledger.StartSession(ctx, 1000)
	require.NoError(t, err)
	assert.Equal(t, 0, ledger.Progress(), "pre-session transactions must not count toward the new session")
}

func TestProgressIsMonotonicAndCapped(t *testing.T) {
	t.Parallel()

	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := ledger.StartSession(ctx, 1000)
	require.NoError(t, err)

	previous := 0
	for _, amount := range []int64{100, 400, 300, 900} {
		_, err := ledger.RecordTransaction(ctx, completeRecord(amount), "worker")
		require.NoError(t, err)

		progress := ledger.Progress()
		assert.GreaterOrEqual(t, progress, previous)
		assert.LessOrEqual(t, progress, 100)
		previous = progress
	}
	assert.Equal(t, 100, previous)
}

func TestOperatorAggregatesTrackTotalsInFinalizationOrder(t *testing.T) {
	t.Parallel()

	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := ledger.RecordTransaction(ctx, completeRecord(300), "worker-a")
	require.NoError(t, err)
	_, err = ledger.RecordTransaction(ctx, completeRecord(500), "worker-b")
	require.NoError(t, err)
	_, err = ledger.RecordTransaction(ctx, completeRecord(200), "worker-a")
	require.NoError(t, err)

	aggregate, ok := ledger.OperatorReport("worker-a")
	require.True(t, ok)
	assert.Equal(t, int64(500), aggregate.TotalAmount)
	assert.Equal(t, []domain.TransactionID{1, 3}, aggregate.Transactions)

	report := ledger.Report(10)
	assert.Equal(t, int64(1000), report.Total)
	require.Len(t, report.Operators, 2)
	assert.Equal(t, domain.Identity("worker-a"), report.Operators[0].Operator)
	assert.Equal(t, domain.Identity("worker-b"), report.Operators[1].Operator)
}

func TestRecentTransactionsReturnsLastNInOrder(t *testing.T) {
	t.Parallel()

	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	for i := int64(1); i <= 5; i++ {
		_, err := ledger.RecordTransaction(ctx, completeRecord(i*100), "worker")
		require.NoError(t, err)
	}

	recent := ledger.RecentTransactions(3)
	require.Len(t, recent, 3)
	assert.Equal(t, domain.TransactionID(3), recent[0].ID)
	assert.Equal(t, domain.TransactionID(5), recent[2].ID)

	assert.Nil(t, ledger.RecentTransactions(0))
}

func TestLedgerRestoreRebuildsStateFromRepositories(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	transactions := memory.NewTransactionRepository()
	sessions := memory.NewSessionRepository()
	ctx := context.Background()

	ledger := NewLedgerService(transactions, sessions, clock, nil)
	_, err := ledger.StartSession(ctx, 1000)
	require.NoError(t, err)
	_, err = ledger.RecordTransaction(ctx, completeRecord(400), "worker")
	require.NoError(t, err)

	restored := NewLedgerService(transactions, sessions, clock, nil)
	require.NoError(t, restored.Restore(ctx))

	session, ok := restored.ActiveSession()
	require.True(t, ok)
	assert.Equal(t, int64(400), session.Current)
	assert.Equal(t, 40, restored.Progress())

	tx, err := restored.RecordTransaction(ctx, completeRecord(100), "worker")
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionID(2), tx.ID, "ids must stay monotonic across restore")
}

func TestRecordTransactionSurfacesPersistenceFailure(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	repoErr := assert.AnError
	ledger := NewLedgerService(&failingTransactionRepo{err: repoErr}, memory.NewSessionRepository(), clock, nil)

	tx, err := ledger.RecordTransaction(context.Background(), completeRecord(300), "worker")
	require.ErrorIs(t, err, repoErr)

	// The commit is durable in the ledger even when the sink fails.
	recent := ledger.RecentTransactions(1)
	require.Len(t, recent, 1)
	assert.Equal(t, tx.ID, recent[0].ID)
}

func TestReportSnapshotIsConsistentUnderConcurrentRecords(t *testing.T) {
	t.Parallel()

	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := ledger.StartSession(ctx, 1_000_000)
	require.NoError(t, err)

	const writers = 4
	const perWriter = 50

	var wg sync.WaitGroup
	start := make(chan struct{})
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for i := 0; i < perWriter; i++ {
				_, err := ledger.RecordTransaction(ctx, completeRecord(1), "worker")
				assert.NoError(t, err)
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	// Every transaction accumulates into the session that predates it, so
	// an atomic snapshot always shows the same number in both places.
	close(start)
	for {
		report := ledger.Report(5)
		if report.Session != nil {
			assert.Equal(t, report.Total, report.Session.Current)
		}

		select {
		case <-done:
			report := ledger.Report(5)
			require.NotNil(t, report.Session)
			assert.Equal(t, int64(writers*perWriter), report.Total)
			assert.Equal(t, report.Total, report.Session.Current)
			return
		default:
		}
	}
}
