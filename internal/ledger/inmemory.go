package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/congo-pay/wallet_orders/internal/money"
)

type inMemoryLedger struct {
	mu       sync.RWMutex
	accounts map[string]Account
	entries  []Entry
	now      func() time.Time
}

// NewInMemory creates a concurrency-safe in-memory ledger useful for unit tests
// and for running the service without Postgres in development.
func NewInMemory() Ledger {
	return &inMemoryLedger{
		accounts: make(map[string]Account),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (l *inMemoryLedger) EnsureAccount(_ context.Context, clientID string) (Account, error) {
	if clientID == "" {
		return Account{}, ErrClientIDRequired
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ensureLocked(clientID), nil
}

func (l *inMemoryLedger) ensureLocked(clientID string) Account {
	if acct, exists := l.accounts[clientID]; exists {
		return acct
	}
	now := l.now()
	acct := Account{ID: uuid.NewString(), ClientID: clientID, CreatedAt: now, UpdatedAt: now}
	l.accounts[clientID] = acct
	return acct
}

func (l *inMemoryLedger) Account(_ context.Context, clientID string) (Account, error) {
	if clientID == "" {
		return Account{}, ErrClientIDRequired
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	acct, exists := l.accounts[clientID]
	if !exists {
		return Account{}, ErrAccountNotFound
	}
	return acct, nil
}

func (l *inMemoryLedger) Post(_ context.Context, p Posting) (Entry, error) {
	if err := validatePosting(p); err != nil {
		return Entry{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	acct, exists := l.accounts[p.ClientID]
	if !exists {
		if !p.Kind.Increases() || !p.Provision {
			return Entry{}, ErrAccountNotFound
		}
		acct = l.ensureLocked(p.ClientID)
	}

	before := acct.Balance
	var after = before.Add(p.Amount)
	if p.Kind.Increases() && after.GreaterThan(money.Max) {
		return Entry{}, ErrBalanceLimit
	}
	if !p.Kind.Increases() {
		if before.LessThan(p.Amount) {
			return Entry{}, ErrInsufficientFunds
		}
		after = before.Sub(p.Amount)
	}

	now := l.now()
	acct.Balance = after
	acct.UpdatedAt = now
	l.accounts[p.ClientID] = acct

	entry := Entry{
		ID:            uuid.NewString(),
		AccountID:     acct.ID,
		ClientID:      p.ClientID,
		Kind:          p.Kind,
		Amount:        p.Amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		ReferenceID:   p.ReferenceID,
		Description:   p.Description,
		CreatedAt:     now,
	}
	l.entries = append(l.entries, entry)
	return entry, nil
}

func (l *inMemoryLedger) Entries(_ context.Context, clientID string, limit int) ([]Entry, error) {
	limit = normalizeLimit(limit)
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, 0, limit)
	for i := len(l.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if l.entries[i].ClientID == clientID {
			out = append(out, l.entries[i])
		}
	}
	return out, nil
}

func (l *inMemoryLedger) EntriesByReference(_ context.Context, referenceID string) ([]Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Entry
	for _, e := range l.entries {
		if e.ReferenceID != "" && e.ReferenceID == referenceID {
			out = append(out, e)
		}
	}
	return out, nil
}
