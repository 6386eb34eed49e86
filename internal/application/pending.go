package application

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/velmik/intake/internal/domain"
	"github.com/velmik/intake/internal/ports"
)

// DefaultPendingTTL is how long a partially collected record survives without
// a new field before it is discarded. Losing an abandoned partial record is
// accepted data loss, not an error.
const DefaultPendingTTL = 10 * time.Minute

// PendingStore accumulates partial records per sender. All operations on a
// sender's record are linearized behind the store mutex; expiry is checked
// lazily on every access and can additionally be driven by a periodic sweep.
type PendingStore struct {
	mu      sync.Mutex
	records map[domain.Identity]*domain.PendingRecord
	ttl     time.Duration
	clock   ports.Clock
	logger  *zap.Logger
}

func NewPendingStore(ttl time.Duration, clock ports.Clock, logger *zap.Logger) *PendingStore {
	if ttl <= 0 {
		ttl = DefaultPendingTTL
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &PendingStore{
		records: make(map[domain.Identity]*domain.PendingRecord),
		ttl:     ttl,
		clock:   clock,
		logger:  logger,
	}
}

// Upsert merges the non-absent fields of partial into the sender's record,
// creating a fresh record when none exists or the previous one has expired,
// and refreshes the record's last-touched timestamp. It returns a copy of
// the merged record.
func (s *PendingStore) Upsert(sender domain.Identity, partial domain.PartialFields) domain.PendingRecord {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[sender]
	if ok && record.Expired(now, s.ttl) {
		s.logger.Info("pending record expired on access",
			zap.String("sender", string(sender)),
			zap.Time("last_touched", record.LastTouched))
		ok = false
	}
	if !ok {
		record = &domain.PendingRecord{Sender: sender}
		s.records[sender] = record
	}

	record.Merge(partial)
	record.LastTouched = now

	return *record
}

// Get returns a copy of the sender's pending record. An expired record is
// purged and reported as absent.
func (s *PendingStore) Get(sender domain.Identity) (domain.PendingRecord, bool) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[sender]
	if !ok {
		return domain.PendingRecord{}, false
	}
	if record.Expired(now, s.ttl) {
		delete(s.records, sender)
		s.logger.Info("pending record expired on access",
			zap.String("sender", string(sender)),
			zap.Time("last_touched", record.LastTouched))
		return domain.PendingRecord{}, false
	}

	return *record, true
}

// Clear removes the sender's record. Finalization consumes the record
// through Clear; the next recognized field starts a fresh one.
func (s *PendingStore) Clear(sender domain.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, sender)
}

// EvictExpired sweeps all records and returns the senders whose records were
// purged.
func (s *PendingStore) EvictExpired() []domain.Identity {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	var evicted []domain.Identity
	for sender, record := range s.records {
		if record.Expired(now, s.ttl) {
			delete(s.records, sender)
			evicted = append(evicted, sender)
		}
	}

	if len(evicted) > 0 {
		s.logger.Info("pending records evicted by sweep", zap.Int("count", len(evicted)))
	}

	return evicted
}
