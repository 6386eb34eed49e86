package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/velmik/intake/internal/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeDirectory struct {
	operators []domain.Identity
	admins    []domain.Identity
	roles     map[domain.Identity]domain.Role
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{roles: make(map[domain.Identity]domain.Role)}
}

func (d *fakeDirectory) addOperator(id domain.Identity) {
	d.operators = append(d.operators, id)
	if d.roles[id] != domain.RoleAdministrator {
		d.roles[id] = domain.RoleOperator
	}
}

func (d *fakeDirectory) addAdmin(id domain.Identity) {
	d.admins = append(d.admins, id)
	d.roles[id] = domain.RoleAdministrator
}

func (d *fakeDirectory) RoleOf(_ context.Context, id domain.Identity) (domain.Role, error) {
	if role, ok := d.roles[id]; ok {
		return role, nil
	}
	return domain.RoleUnprivileged, nil
}

func (d *fakeDirectory) Operators(_ context.Context) ([]domain.Identity, error) {
	return append([]domain.Identity(nil), d.operators...), nil
}

func (d *fakeDirectory) Admins(_ context.Context) ([]domain.Identity, error) {
	return append([]domain.Identity(nil), d.admins...), nil
}

func (d *fakeDirectory) AddOperator(_ context.Context, id domain.Identity) error {
	d.addOperator(id)
	return nil
}

func (d *fakeDirectory) RemoveOperator(_ context.Context, id domain.Identity) error {
	kept := d.operators[:0]
	for _, op := range d.operators {
		if op != id {
			kept = append(kept, op)
		}
	}
	d.operators = kept
	delete(d.roles, id)
	return nil
}

func (d *fakeDirectory) AddAdmin(_ context.Context, id domain.Identity) error {
	d.addAdmin(id)
	return nil
}

type sentReply struct {
	Conversation domain.ConversationID
	Text         string
}

type sentPrompt struct {
	Operator    domain.Identity
	Transaction domain.Transaction
}

type fakeMessenger struct {
	mu         sync.Mutex
	replies    []sentReply
	prompts    []sentPrompt
	adminNotes []string
	replyErr   error
	notifyErr  error
	adminsErr  error
}

func (m *fakeMessenger) Reply(_ context.Context, conversation domain.ConversationID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.replyErr != nil {
		return m.replyErr
	}
	m.replies = append(m.replies, sentReply{Conversation: conversation, Text: text})
	return nil
}

func (m *fakeMessenger) NotifyOperator(_ context.Context, operator domain.Identity, tx domain.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.notifyErr != nil {
		return m.notifyErr
	}
	m.prompts = append(m.prompts, sentPrompt{Operator: operator, Transaction: tx})
	return nil
}

func (m *fakeMessenger) NotifyAdmins(_ context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.adminsErr != nil {
		return m.adminsErr
	}
	m.adminNotes = append(m.adminNotes, text)
	return nil
}

func (m *fakeMessenger) lastReply() (sentReply, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.replies) == 0 {
		return sentReply{}, false
	}
	return m.replies[len(m.replies)-1], true
}

type failingTransactionRepo struct {
	err error
}

func (r *failingTransactionRepo) Save(context.Context, domain.Transaction) error {
	return r.err
}

func (r *failingTransactionRepo) List(context.Context) ([]domain.Transaction, error) {
	return nil, fmt.Errorf("not implemented")
}
