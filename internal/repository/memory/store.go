// Package memory is a process-local implementation of every repository and
// of database.TxManager, used by service and handler tests.
package memory

import (
	"context"
	"maps"
	"sort"
	"sync"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/audit"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/cashbook"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/company"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/correction"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/notification"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/salary"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
)

// Store holds all tables. Transactions are serialized by txMu and rolled
// back by restoring a snapshot taken when they began. Writes made outside a
// transaction also take txMu so they never interleave with one.
type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex

	attendances   map[string]attendance.Attendance
	salaries      map[string]salary.Salary
	ledger        map[string]salary.LedgerEntry
	cashbook      map[string]cashbook.Entry
	corrections   map[string]correction.Request
	settings      map[string]company.Settings
	employees     map[string]employee.Employee
	notifications map[string]notification.Notification
	audits        []audit.Log
}

func NewStore() *Store {
	return &Store{
		attendances:   make(map[string]attendance.Attendance),
		salaries:      make(map[string]salary.Salary),
		ledger:        make(map[string]salary.LedgerEntry),
		cashbook:      make(map[string]cashbook.Entry),
		corrections:   make(map[string]correction.Request),
		settings:      make(map[string]company.Settings),
		employees:     make(map[string]employee.Employee),
		notifications: make(map[string]notification.Notification),
	}
}

type snapshot struct {
	attendances   map[string]attendance.Attendance
	salaries      map[string]salary.Salary
	ledger        map[string]salary.LedgerEntry
	cashbook      map[string]cashbook.Entry
	corrections   map[string]correction.Request
	settings      map[string]company.Settings
	employees     map[string]employee.Employee
	notifications map[string]notification.Notification
	audits        []audit.Log
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot{
		attendances:   maps.Clone(s.attendances),
		salaries:      maps.Clone(s.salaries),
		ledger:        maps.Clone(s.ledger),
		cashbook:      maps.Clone(s.cashbook),
		corrections:   maps.Clone(s.corrections),
		settings:      maps.Clone(s.settings),
		employees:     maps.Clone(s.employees),
		notifications: maps.Clone(s.notifications),
		audits:        append([]audit.Log(nil), s.audits...),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attendances = snap.attendances
	s.salaries = snap.salaries
	s.ledger = snap.ledger
	s.cashbook = snap.cashbook
	s.corrections = snap.corrections
	s.settings = snap.settings
	s.employees = snap.employees
	s.notifications = snap.notifications
	s.audits = snap.audits
}

type txKey struct{}

func inTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(bool)
	return ok
}

type txManager struct {
	store *Store
}

func NewTxManager(store *Store) database.TxManager {
	return &txManager{store: store}
}

// WithinTransaction implements database.TxManager. Nested calls reuse the
// outer transaction.
func (m *txManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if inTx(ctx) {
		return fn(ctx)
	}

	m.store.txMu.Lock()
	defer m.store.txMu.Unlock()

	snap := m.store.snapshot()
	defer func() {
		if p := recover(); p != nil {
			m.store.restore(snap)
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}

// read runs fn under the data lock.
func (s *Store) read(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

// write runs fn under the data lock, and under the transaction lock when ctx
// is not already inside a transaction.
func (s *Store) write(ctx context.Context, fn func() error) error {
	if !inTx(ctx) {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

// paginate returns the 1-based page of items.
func paginate[T any](items []T, page, limit int) []T {
	if limit <= 0 {
		return items
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func sortedValues[T any](m map[string]T, less func(a, b T) bool) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}
