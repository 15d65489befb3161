package mocks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

// ErrTxDone is returned when a finished MockTransaction is committed again.
var ErrTxDone = errors.New("transaction already finished")

// MockTransactionManager is a mock implementation of TransactionManager.
// Transactions it hands out undo their writes on rollback and release their
// row locks when they end.
type MockTransactionManager struct {
	mu         sync.Mutex
	begun      int
	committed  int
	rolledBack int

	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
	// CommitFunc, when set, is installed on every transaction handed out.
	CommitFunc func(ctx context.Context) error
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.begun++
	m.mu.Unlock()
	return &MockTransaction{manager: m, CommitFunc: m.CommitFunc}, nil
}

// Stats returns how many transactions were begun, committed and rolled back.
func (m *MockTransactionManager) Stats() (begun, committed, rolledBack int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.begun, m.committed, m.rolledBack
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	mu        sync.Mutex
	manager   *MockTransactionManager
	undo      []func()
	release   []func()
	held      map[string]bool
	done      bool
	committed bool

	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		if err := m.CommitFunc(ctx); err != nil {
			return err
		}
	}

	m.mu.Lock()
	if m.done {
		m.mu.Unlock()
		return ErrTxDone
	}
	m.done, m.committed = true, true
	release := m.release
	m.undo, m.release = nil, nil
	m.mu.Unlock()

	for _, r := range release {
		r()
	}
	if m.manager != nil {
		m.manager.mu.Lock()
		m.manager.committed++
		m.manager.mu.Unlock()
	}
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		if err := m.RollbackFunc(ctx); err != nil {
			return err
		}
	}

	m.mu.Lock()
	if m.done {
		m.mu.Unlock()
		return nil
	}
	m.done = true
	undo, release := m.undo, m.release
	m.undo, m.release = nil, nil
	m.mu.Unlock()

	for i := len(undo) - 1; i >= 0; i-- {
		undo[i]()
	}
	for _, r := range release {
		r()
	}
	if m.manager != nil {
		m.manager.mu.Lock()
		m.manager.rolledBack++
		m.manager.mu.Unlock()
	}
	return nil
}

// Committed reports whether Commit succeeded.
func (m *MockTransaction) Committed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.committed
}

func (m *MockTransaction) onRollback(f func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.undo = append(m.undo, f)
}

func (m *MockTransaction) holds(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.held[key]
}

func (m *MockTransaction) hold(key string, release func()) {
	m.mu.Lock()
	if m.done {
		m.mu.Unlock()
		release()
		return
	}
	if m.held == nil {
		m.held = make(map[string]bool)
	}
	m.held[key] = true
	m.release = append(m.release, release)
	m.mu.Unlock()
}

// track registers undo on tx when tx is a MockTransaction. Writes made with
// any other Transaction are permanent.
func track(tx usecase.Transaction, undo func()) {
	if mtx, ok := tx.(*MockTransaction); ok {
		mtx.onRollback(undo)
	}
}

// RowLocks emulates SELECT ... FOR UPDATE: a row is held by one
// MockTransaction until it commits or rolls back.
type RowLocks struct {
	mu    sync.Mutex
	locks map[string]chan struct{}

	// Timeout bounds the wait, like lock_timeout. Zero waits for ctx only.
	Timeout time.Duration
}

func NewRowLocks() *RowLocks {
	return &RowLocks{locks: make(map[string]chan struct{}), Timeout: 5 * time.Second}
}

// Acquire blocks until key is free, ctx ends or Timeout elapses.
func (l *RowLocks) Acquire(ctx context.Context, tx usecase.Transaction, key string) error {
	mtx, ok := tx.(*MockTransaction)
	if !ok || mtx.holds(key) {
		return nil
	}

	l.mu.Lock()
	ch, ok := l.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[key] = ch
	}
	l.mu.Unlock()

	var timeout <-chan time.Time
	if l.Timeout > 0 {
		timer := time.NewTimer(l.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return domain.ErrLockTimeout
		}
		return ctx.Err()
	case <-timeout:
		return domain.ErrLockTimeout
	}

	mtx.hold(key, func() { <-ch })
	return nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func cloneWallet(w *domain.Wallet) *domain.Wallet {
	c := *w
	return &c
}

func cloneEntry(e *domain.LedgerEntry) *domain.LedgerEntry {
	c := *e
	return &c
}

// MockWalletRepository is a mock implementation of WalletRepository.
type MockWalletRepository struct {
	mu      sync.RWMutex
	wallets map[string]*domain.Wallet
	byUser  map[string]string

	Locks *RowLocks

	CreateFunc               func(ctx context.Context, tx usecase.Transaction, wallet *domain.Wallet) error
	GetByUserIDFunc          func(ctx context.Context, userID string) (*domain.Wallet, error)
	GetByUserIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, userID string) (*domain.Wallet, error)
	UpdateBalanceFunc        func(ctx context.Context, tx usecase.Transaction, id string, balance domain.Money, version int64, updatedAt time.Time) error
	SetActiveFunc            func(ctx context.Context, tx usecase.Transaction, id string, active bool, updatedAt time.Time) error
}

func NewMockWalletRepository() *MockWalletRepository {
	return &MockWalletRepository{
		wallets: make(map[string]*domain.Wallet),
		byUser:  make(map[string]string),
		Locks:   NewRowLocks(),
	}
}

// Seed stores a wallet outside any transaction.
func (m *MockWalletRepository) Seed(wallet *domain.Wallet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wallets[wallet.ID] = cloneWallet(wallet)
	m.byUser[wallet.UserID] = wallet.ID
}

func (m *MockWalletRepository) Create(ctx context.Context, tx usecase.Transaction, wallet *domain.Wallet) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, wallet)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byUser[wallet.UserID]; ok {
		return domain.ErrWalletAlreadyExists
	}
	m.wallets[wallet.ID] = cloneWallet(wallet)
	m.byUser[wallet.UserID] = wallet.ID
	track(tx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.wallets, wallet.ID)
		delete(m.byUser, wallet.UserID)
	})
	return nil
}

func (m *MockWalletRepository) GetByID(ctx context.Context, id string) (*domain.Wallet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if w, ok := m.wallets[id]; ok {
		return cloneWallet(w), nil
	}
	return nil, domain.ErrWalletNotFound
}

func (m *MockWalletRepository) GetByUserID(ctx context.Context, userID string) (*domain.Wallet, error) {
	if m.GetByUserIDFunc != nil {
		return m.GetByUserIDFunc(ctx, userID)
	}
	m.mu.RLock()
	id, ok := m.byUser[userID]
	m.mu.RUnlock()
	if !ok {
		return nil, domain.ErrWalletNotFound
	}
	return m.GetByID(ctx, id)
}

func (m *MockWalletRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Wallet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	wallets := make([]*domain.Wallet, 0, len(ids))
	for _, id := range ids {
		if w, ok := m.wallets[id]; ok {
			wallets = append(wallets, cloneWallet(w))
		}
	}
	return wallets, nil
}

func (m *MockWalletRepository) List(ctx context.Context, limit, offset int) ([]*domain.Wallet, error) {
	m.mu.RLock()
	wallets := make([]*domain.Wallet, 0, len(m.wallets))
	for _, w := range m.wallets {
		wallets = append(wallets, cloneWallet(w))
	}
	m.mu.RUnlock()
	sort.Slice(wallets, func(i, j int) bool { return wallets[i].ID < wallets[j].ID })
	return paginate(wallets, limit, offset), nil
}

func (m *MockWalletRepository) GetByUserIDForUpdate(ctx context.Context, tx usecase.Transaction, userID string) (*domain.Wallet, error) {
	if m.GetByUserIDForUpdateFunc != nil {
		return m.GetByUserIDForUpdateFunc(ctx, tx, userID)
	}
	m.mu.RLock()
	id, ok := m.byUser[userID]
	m.mu.RUnlock()
	if !ok {
		return nil, domain.ErrWalletNotFound
	}
	return m.GetByIDForUpdate(ctx, tx, id)
}

func (m *MockWalletRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Wallet, error) {
	if _, err := m.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if err := m.Locks.Acquire(ctx, tx, "wallet:"+id); err != nil {
		return nil, err
	}
	// Re-read after the lock, as FOR UPDATE does.
	return m.GetByID(ctx, id)
}

func (m *MockWalletRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance domain.Money, version int64, updatedAt time.Time) error {
	if m.UpdateBalanceFunc != nil {
		return m.UpdateBalanceFunc(ctx, tx, id, balance, version, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wallets[id]
	if !ok {
		return domain.ErrWalletNotFound
	}
	prev := cloneWallet(w)
	w.Balance = balance
	w.Version = version
	w.UpdatedAt = updatedAt
	track(tx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.wallets[id] = prev
	})
	return nil
}

func (m *MockWalletRepository) SetActive(ctx context.Context, tx usecase.Transaction, id string, active bool, updatedAt time.Time) error {
	if m.SetActiveFunc != nil {
		return m.SetActiveFunc(ctx, tx, id, active, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wallets[id]
	if !ok {
		return domain.ErrWalletNotFound
	}
	prev := cloneWallet(w)
	w.IsActive = active
	w.UpdatedAt = updatedAt
	track(tx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.wallets[id] = prev
	})
	return nil
}

// MockEntryRepository is a mock implementation of EntryRepository.
type MockEntryRepository struct {
	mu      sync.RWMutex
	entries map[string]*domain.LedgerEntry

	Locks *RowLocks

	CreateFunc       func(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error
	UpdateStatusFunc func(ctx context.Context, tx usecase.Transaction, id string, status domain.EntryStatus, description string, updatedAt time.Time) error
	ListByWalletFunc func(ctx context.Context, walletID string, kind domain.EntryKind, limit, offset int) ([]*domain.LedgerEntry, error)
}

func NewMockEntryRepository() *MockEntryRepository {
	return &MockEntryRepository{
		entries: make(map[string]*domain.LedgerEntry),
		Locks:   NewRowLocks(),
	}
}

// Seed stores an entry outside any transaction.
func (m *MockEntryRepository) Seed(entry *domain.LedgerEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.ID] = cloneEntry(entry)
}

// All returns every stored entry, oldest first.
func (m *MockEntryRepository) All() []*domain.LedgerEntry {
	entries := m.filter(func(*domain.LedgerEntry) bool { return true })
	sortAsc(entries)
	return entries
}

func (m *MockEntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[entry.ID]; ok {
		return fmt.Errorf("duplicate ledger entry id %s", entry.ID)
	}
	if entry.Sequence > 0 {
		for _, e := range m.entries {
			if e.WalletID == entry.WalletID && e.Sequence == entry.Sequence {
				return fmt.Errorf("duplicate sequence %d for wallet %s", entry.Sequence, entry.WalletID)
			}
		}
	}
	m.entries[entry.ID] = cloneEntry(entry)
	track(tx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.entries, entry.ID)
	})
	return nil
}

func (m *MockEntryRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.EntryStatus, description string, updatedAt time.Time) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, tx, id, status, description, updatedAt)
	}
	return m.update(tx, id, func(e *domain.LedgerEntry) {
		e.Status = status
		e.Description = description
		e.UpdatedAt = updatedAt
	})
}

func (m *MockEntryRepository) MarkUnapplied(ctx context.Context, tx usecase.Transaction, id string, updatedAt time.Time) error {
	return m.update(tx, id, func(e *domain.LedgerEntry) {
		e.Status = domain.EntryStatusFailed
		e.Sequence = 0
		e.UpdatedAt = updatedAt
	})
}

func (m *MockEntryRepository) update(tx usecase.Transaction, id string, apply func(*domain.LedgerEntry)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return domain.ErrEntryNotFound
	}
	if e.Status != domain.EntryStatusPending {
		return &domain.InvalidStateError{EntryID: e.ID, Kind: e.Kind, Status: e.Status}
	}
	prev := cloneEntry(e)
	apply(e)
	track(tx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.entries[id] = prev
	})
	return nil
}

func (m *MockEntryRepository) GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.entries[id]; ok {
		return cloneEntry(e), nil
	}
	return nil, domain.ErrEntryNotFound
}

func (m *MockEntryRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.LedgerEntry, error) {
	if _, err := m.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if err := m.Locks.Acquire(ctx, tx, "entry:"+id); err != nil {
		return nil, err
	}
	return m.GetByID(ctx, id)
}

func (m *MockEntryRepository) GetCompletedDepositByReference(ctx context.Context, referenceID string) (*domain.LedgerEntry, error) {
	entries := m.filter(func(e *domain.LedgerEntry) bool {
		return e.ReferenceID == referenceID && e.Kind == domain.EntryKindDeposit && e.Status == domain.EntryStatusCompleted
	})
	if len(entries) == 0 {
		return nil, domain.ErrEntryNotFound
	}
	sortAsc(entries)
	return entries[0], nil
}

func (m *MockEntryRepository) ListByWallet(ctx context.Context, walletID string, kind domain.EntryKind, limit, offset int) ([]*domain.LedgerEntry, error) {
	if m.ListByWalletFunc != nil {
		return m.ListByWalletFunc(ctx, walletID, kind, limit, offset)
	}
	entries := m.filter(func(e *domain.LedgerEntry) bool {
		return e.WalletID == walletID && (kind == "" || e.Kind == kind)
	})
	sortDesc(entries)
	return paginate(entries, limit, offset), nil
}

func (m *MockEntryRepository) CountByWallet(ctx context.Context, walletID string, kind domain.EntryKind) (int64, error) {
	entries := m.filter(func(e *domain.LedgerEntry) bool {
		return e.WalletID == walletID && (kind == "" || e.Kind == kind)
	})
	return int64(len(entries)), nil
}

func (m *MockEntryRepository) ListAll(ctx context.Context, kind domain.EntryKind, limit, offset int) ([]*domain.LedgerEntry, error) {
	entries := m.filter(func(e *domain.LedgerEntry) bool { return kind == "" || e.Kind == kind })
	sortDesc(entries)
	return paginate(entries, limit, offset), nil
}

func (m *MockEntryRepository) CountAll(ctx context.Context, kind domain.EntryKind) (int64, error) {
	entries := m.filter(func(e *domain.LedgerEntry) bool { return kind == "" || e.Kind == kind })
	return int64(len(entries)), nil
}

func (m *MockEntryRepository) ListPendingWithdrawals(ctx context.Context, limit, offset int) ([]*domain.LedgerEntry, error) {
	entries := m.filter((*domain.LedgerEntry).IsPendingWithdrawal)
	sortAsc(entries)
	return paginate(entries, limit, offset), nil
}

func (m *MockEntryRepository) CountPendingWithdrawals(ctx context.Context) (int64, error) {
	return int64(len(m.filter((*domain.LedgerEntry).IsPendingWithdrawal))), nil
}

func (m *MockEntryRepository) ListSequenced(ctx context.Context, walletID string) ([]*domain.LedgerEntry, error) {
	entries := m.filter(func(e *domain.LedgerEntry) bool { return e.WalletID == walletID && e.Sequence > 0 })
	sort.Slice(entries, func(i, j int) bool { return entries[i].Sequence < entries[j].Sequence })
	return entries, nil
}

func (m *MockEntryRepository) ListStalePending(ctx context.Context, kind domain.EntryKind, createdBefore time.Time, limit int) ([]*domain.LedgerEntry, error) {
	entries := m.filter(func(e *domain.LedgerEntry) bool {
		return e.Status == domain.EntryStatusPending && e.Kind == kind && e.CreatedAt.Before(createdBefore)
	})
	sortAsc(entries)
	return paginate(entries, limit, 0), nil
}

func (m *MockEntryRepository) filter(keep func(*domain.LedgerEntry) bool) []*domain.LedgerEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var entries []*domain.LedgerEntry
	for _, e := range m.entries {
		if keep(e) {
			entries = append(entries, cloneEntry(e))
		}
	}
	return entries
}

func sortDesc(entries []*domain.LedgerEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.After(entries[j].CreatedAt)
		}
		return entries[i].ID > entries[j].ID
	})
}

func sortAsc(entries []*domain.LedgerEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.Before(entries[j].CreatedAt)
		}
		return entries[i].ID < entries[j].ID
	})
}

// MockOutboxRepository is a mock implementation of OutboxRepository.
type MockOutboxRepository struct {
	mu     sync.RWMutex
	events []*domain.OutboxEvent

	CreateFunc        func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
	MarkPublishedFunc func(ctx context.Context, id string, publishedAt time.Time) error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	track(tx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, e := range m.events {
			if e.ID == event.ID {
				m.events = append(m.events[:i], m.events[i+1:]...)
				return
			}
		}
	})
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var events []*domain.OutboxEvent
	for _, e := range m.events {
		if !e.Published {
			events = append(events, e)
		}
	}
	return paginate(events, limit, 0), nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	if m.MarkPublishedFunc != nil {
		return m.MarkPublishedFunc(ctx, id, publishedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			e.Published = true
			at := publishedAt
			e.PublishedAt = &at
		}
	}
	return nil
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.events[:0]
	for _, e := range m.events {
		if e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before) {
			continue
		}
		kept = append(kept, e)
	}
	m.events = kept
	return nil
}

// Events returns the stored events in insertion order.
func (m *MockOutboxRepository) Events() []*domain.OutboxEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.OutboxEvent(nil), m.events...)
}

// EventTypes returns the stored event types in insertion order.
func (m *MockOutboxRepository) EventTypes() []string {
	events := m.Events()
	types := make([]string, len(events))
	for i, e := range events {
		types[i] = e.EventType
	}
	return types
}

// MockAuditRepository is a mock implementation of AuditRepository.
type MockAuditRepository struct {
	mu   sync.RWMutex
	logs []*domain.AuditLog

	CreateTxFunc func(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error
}

func NewMockAuditRepository() *MockAuditRepository {
	return &MockAuditRepository{}
}

func (m *MockAuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	if m.CreateTxFunc != nil {
		return m.CreateTxFunc(ctx, tx, log)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, log)
	track(tx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, l := range m.logs {
			if l.ID == log.ID {
				m.logs = append(m.logs[:i], m.logs[i+1:]...)
				return
			}
		}
	})
	return nil
}

func (m *MockAuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var logs []*domain.AuditLog
	for _, l := range m.logs {
		if filter.ActorID != "" && l.ActorID != filter.ActorID {
			continue
		}
		if filter.Action != "" && l.Action != filter.Action {
			continue
		}
		if filter.ResourceType != "" && l.ResourceType != filter.ResourceType {
			continue
		}
		if filter.ResourceID != "" && l.ResourceID != filter.ResourceID {
			continue
		}
		logs = append(logs, l)
	}
	return paginate(logs, filter.Limit, filter.Offset), nil
}

// MockLoanRepository is a mock implementation of LoanRepository.
type MockLoanRepository struct {
	mu    sync.RWMutex
	loans map[string]*domain.Loan

	TransitionStatusFunc func(ctx context.Context, id string, from, to domain.LoanStatus, entryID string, updatedAt time.Time) error
}

func NewMockLoanRepository() *MockLoanRepository {
	return &MockLoanRepository{loans: make(map[string]*domain.Loan)}
}

func (m *MockLoanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *loan
	m.loans[loan.ID] = &c
	return nil
}

func (m *MockLoanRepository) GetByID(ctx context.Context, id string) (*domain.Loan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if l, ok := m.loans[id]; ok {
		c := *l
		return &c, nil
	}
	return nil, domain.ErrLoanNotFound
}

func (m *MockLoanRepository) TransitionStatus(ctx context.Context, id string, from, to domain.LoanStatus, entryID string, updatedAt time.Time) error {
	if m.TransitionStatusFunc != nil {
		return m.TransitionStatusFunc(ctx, id, from, to, entryID, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.loans[id]
	if !ok {
		return domain.ErrLoanNotFound
	}
	if l.Status != from {
		return domain.ErrLoanNotPending
	}
	l.Status = to
	if entryID != "" {
		l.EntryID = entryID
	}
	l.UpdatedAt = updatedAt
	return nil
}

// MockBalanceCache is a mock implementation of BalanceCache.
type MockBalanceCache struct {
	mu            sync.Mutex
	balances      map[string]domain.Money
	invalidations int

	GetFunc func(ctx context.Context, userID string) (domain.Money, bool, error)
}

func NewMockBalanceCache() *MockBalanceCache {
	return &MockBalanceCache{balances: make(map[string]domain.Money)}
}

func (m *MockBalanceCache) Get(ctx context.Context, userID string) (domain.Money, bool, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.balances[userID]
	return b, ok, nil
}

func (m *MockBalanceCache) Set(ctx context.Context, userID string, balance domain.Money, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[userID] = balance
	return nil
}

func (m *MockBalanceCache) Invalidate(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.balances, userID)
	m.invalidations++
	return nil
}

func (m *MockBalanceCache) Invalidations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.invalidations
}

// MockIDGenerator is a mock implementation of IDGenerator. IDs sort in
// generation order.
type MockIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("mock-id-%06d", m.counter)
}

// MockRetrier retries up to Attempts times while RetryOn accepts the error.
type MockRetrier struct {
	Attempts int
	RetryOn  func(error) bool

	mu    sync.Mutex
	calls int
}

func (m *MockRetrier) Retry(ctx context.Context, operation func() error) error {
	var err error
	for i := 0; i < m.Attempts; i++ {
		m.mu.Lock()
		m.calls++
		m.mu.Unlock()
		if err = operation(); err == nil || m.RetryOn == nil || !m.RetryOn(err) {
			return err
		}
	}
	return err
}

func (m *MockRetrier) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockIdempotencyStore is a mock implementation of IdempotencyStore.
type MockIdempotencyStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.data[key] = response
	} else {
		m.data[key] = []byte("processing")
	}
	return false, nil, nil
}

func (m *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
