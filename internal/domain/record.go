package domain

import "time"

type FieldKind string

const (
	FieldPhone  FieldKind = "phone"
	FieldAmount FieldKind = "amount"
	FieldBank   FieldKind = "bank"
	FieldEmail  FieldKind = "email"
)

// PartialFields holds the fields recognized in a single message. Every field
// is independently optional; a nil pointer means the message did not carry
// that field.
type PartialFields struct {
	Phone  *string
	Amount *int64
	Bank   *BankTag
	Email  *string
}

func (p PartialFields) Empty() bool {
	return p.Phone == nil && p.Amount == nil && p.Bank == nil && p.Email == nil
}

// PendingRecord accumulates fields for one sender until the record is
// finalized or expires. Zero values mean the field has not been captured yet.
type PendingRecord struct {
	Sender      Identity
	Phone       string
	Amount      int64
	Bank        BankTag
	Email       string
	LastTouched time.Time
}

// Merge overlays the non-absent fields of partial onto the record. A captured
// field is never reverted to absent; a later value overrides an earlier one.
func (r *PendingRecord) Merge(partial PartialFields) {
	if partial.Phone != nil {
		r.Phone = *partial.Phone
	}
	if partial.Amount != nil {
		r.Amount = *partial.Amount
	}
	if partial.Bank != nil {
		r.Bank = *partial.Bank
	}
	if partial.Email != nil {
		r.Email = *partial.Email
	}
}

// MissingFields lists the required fields still absent. Email is excluded:
// it is the completion signal, so completion is only checked once an email
// has been captured.
func (r PendingRecord) MissingFields() []FieldKind {
	missing := make([]FieldKind, 0, 3)
	if r.Phone == "" {
		missing = append(missing, FieldPhone)
	}
	if r.Amount == 0 {
		missing = append(missing, FieldAmount)
	}
	if r.Bank == "" {
		missing = append(missing, FieldBank)
	}
	return missing
}

func (r PendingRecord) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(r.LastTouched) > ttl
}
