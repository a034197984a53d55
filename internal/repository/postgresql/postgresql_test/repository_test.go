package postgresql_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/cashbook"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/company"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/correction"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/notification"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/salary"
	"github.com/cmlabs-hris/payroll-engine/internal/fixtures"
	"github.com/cmlabs-hris/payroll-engine/internal/repository/postgresql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestEmployee(t *testing.T, ctx context.Context, setup *TestDatabaseSetup, companyID string) employee.Employee {
	t.Helper()
	e, err := postgresql.NewEmployeeRepository(setup.DB).Create(ctx, employee.Employee{
		CompanyID:  companyID,
		UserID:     uuid.NewString(),
		FullName:   "Test Employee",
		SalaryType: employee.SalaryTypeDaily,
		DailyRate:  decimal.NewFromInt(1000),
		IsActive:   true,
	})
	require.NoError(t, err)
	return e
}

func TestAttendanceRepository_Constraints(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	companyID := uuid.NewString()
	emp := createTestEmployee(t, ctx, setup, companyID)
	repo := postgresql.NewAttendanceRepository(setup.DB)

	day := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	punchIn := day.Add(9 * time.Hour)

	t.Run("one record per day", func(t *testing.T) {
		_, err := repo.Create(ctx, attendance.Attendance{
			EmployeeID: emp.ID, CompanyID: companyID, Date: day, PunchIn: &punchIn, Status: attendance.StatusPending,
		})
		require.NoError(t, err)

		_, err = repo.Create(ctx, attendance.Attendance{
			EmployeeID: emp.ID, CompanyID: companyID, Date: day, Status: attendance.StatusPending,
		})
		assert.ErrorIs(t, err, attendance.ErrDuplicateAttendance)
	})

	t.Run("one open session", func(t *testing.T) {
		next := day.AddDate(0, 0, 1)
		nextIn := next.Add(9 * time.Hour)
		_, err := repo.Create(ctx, attendance.Attendance{
			EmployeeID: emp.ID, CompanyID: companyID, Date: next, PunchIn: &nextIn, Status: attendance.StatusPending,
		})
		assert.ErrorIs(t, err, attendance.ErrAlreadyOpenSession)
	})

	t.Run("open session lookup", func(t *testing.T) {
		open, err := repo.GetOpenSession(ctx, emp.ID, companyID)
		require.NoError(t, err)
		assert.True(t, open.PunchIn.Equal(punchIn))

		out := punchIn.Add(9 * time.Hour)
		open.PunchOut = &out
		open.WorkingHours = 9
		require.NoError(t, repo.Update(ctx, open))

		_, err = repo.GetOpenSession(ctx, emp.ID, companyID)
		assert.ErrorIs(t, err, attendance.ErrNoOpenSession)
	})

	t.Run("company scoping", func(t *testing.T) {
		_, err := repo.GetByEmployeeAndDate(ctx, emp.ID, day, uuid.NewString())
		assert.ErrorIs(t, err, attendance.ErrAttendanceNotFound)
	})
}

func TestSalaryRepository_LockGuard(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	companyID := uuid.NewString()
	emp := createTestEmployee(t, ctx, setup, companyID)
	repo := postgresql.NewSalaryRepository(setup.DB)

	s, err := repo.Create(ctx, salary.Salary{
		EmployeeID: emp.ID, CompanyID: companyID, Month: 1, Year: 2025,
		SalaryType: employee.SalaryTypeDaily, BaseRate: decimal.NewFromInt(1000),
		GrossAmount: decimal.NewFromInt(20000), DeductionAmount: decimal.Zero, NetAmount: decimal.NewFromInt(20000),
		Status: salary.StatusPending,
	})
	require.NoError(t, err)

	_, err = repo.Create(ctx, salary.Salary{EmployeeID: emp.ID, CompanyID: companyID, Month: 1, Year: 2025, Status: salary.StatusPending})
	assert.ErrorIs(t, err, salary.ErrSalaryAlreadyExists)

	err = repo.MarkPaid(ctx, s.ID, companyID, time.Now())
	assert.ErrorIs(t, err, salary.ErrNotApprovedOrAlreadyPaid, "pending salaries cannot be paid")

	s.Status = salary.StatusApproved
	require.NoError(t, repo.Update(ctx, s))
	require.NoError(t, repo.MarkPaid(ctx, s.ID, companyID, time.Now()))

	paid, err := repo.GetByID(ctx, s.ID, companyID)
	require.NoError(t, err)
	assert.True(t, paid.IsLocked())
	assert.True(t, paid.NetAmount.Equal(decimal.NewFromInt(20000)))

	paid.NetAmount = decimal.NewFromInt(1)
	assert.ErrorIs(t, repo.Update(ctx, paid), salary.ErrSalaryLocked)

	missing := paid
	missing.ID = uuid.NewString()
	assert.ErrorIs(t, repo.Update(ctx, missing), salary.ErrSalaryNotFound)
}

func TestLedgerAndCashbook_Linkage(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	companyID := uuid.NewString()
	emp := createTestEmployee(t, ctx, setup, companyID)

	salaries := postgresql.NewSalaryRepository(setup.DB)
	ledger := postgresql.NewLedgerRepository(setup.DB)
	book := postgresql.NewCashbookRepository(setup.DB)

	s, err := salaries.Create(ctx, salary.Salary{
		EmployeeID: emp.ID, CompanyID: companyID, Month: 2, Year: 2025, Status: salary.StatusApproved,
	})
	require.NoError(t, err)

	entry, err := book.Create(ctx, cashbook.Entry{
		CompanyID: companyID, EmployeeID: &emp.ID, TransactionType: cashbook.TypeSalaryPayment,
		Direction: cashbook.DirectionDebit, Amount: decimal.NewFromInt(5000), PaymentMode: cashbook.ModeCash,
		Reference: &s.ID, TransactionDate: time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC), CreatedBy: "u1",
	})
	require.NoError(t, err)

	le, err := ledger.Create(ctx, salary.LedgerEntry{
		SalaryID: s.ID, Type: salary.EntryPayment, Amount: decimal.NewFromInt(5000),
		CashbookEntryID: &entry.ID, CreatedBy: "u1",
	})
	require.NoError(t, err)

	got, err := ledger.GetByCashbookEntryID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, le.ID, got.ID)

	unlinked, err := ledger.ListUnlinkedBySalary(ctx, s.ID)
	require.NoError(t, err)
	assert.Empty(t, unlinked)

	_, err = ledger.Create(ctx, salary.LedgerEntry{SalaryID: uuid.NewString(), Type: salary.EntryPayment, Amount: decimal.NewFromInt(1), CreatedBy: "u1"})
	assert.ErrorIs(t, err, salary.ErrSalaryNotFound)

	balance, err := book.Totals(ctx, companyID, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.True(t, balance.Balance.Equal(decimal.NewFromInt(-5000)))
}

func TestCorrectionRepository_ActiveIndex(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	companyID := uuid.NewString()
	emp := createTestEmployee(t, ctx, setup, companyID)
	repo := postgresql.NewCorrectionRepository(setup.DB)

	day := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	req := correction.Request{
		EmployeeID: emp.ID, CompanyID: companyID, Type: correction.TypeAttendanceMiss,
		Date: day, Reason: "forgot", Status: correction.StatusPending,
	}
	first, err := repo.Create(ctx, req)
	require.NoError(t, err)

	_, err = repo.Create(ctx, req)
	assert.ErrorIs(t, err, correction.ErrDuplicateCorrectionRequest)

	exists, err := repo.ExistsActive(ctx, emp.ID, companyID, day, correction.TypeAttendanceMiss)
	require.NoError(t, err)
	assert.True(t, exists)

	first.Status = correction.StatusRejected
	require.NoError(t, repo.Update(ctx, first))

	_, err = repo.Create(ctx, req)
	assert.NoError(t, err, "a rejected request frees the slot")
}

func TestSettingsRepository_Upsert(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewSettingsRepository(setup.DB)
	companyID := uuid.NewString()

	_, err := repo.GetSettings(ctx, companyID)
	assert.ErrorIs(t, err, company.ErrSettingsNotFound)

	s := fixtures.DefaultSettings(companyID)
	s.WeeklyOffDays = []time.Weekday{time.Saturday, time.Sunday}
	_, err = repo.UpsertSettings(ctx, s)
	require.NoError(t, err)

	s.GracePeriodMinutes = 15
	_, err = repo.UpsertSettings(ctx, s)
	require.NoError(t, err)

	got, err := repo.GetSettings(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, 15, got.GracePeriodMinutes)
	assert.Equal(t, []time.Weekday{time.Saturday, time.Sunday}, got.WeeklyOffDays)
}

func TestNotificationRepository_MarkAsRead(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewNotificationRepository(setup.DB)
	companyID, recipient := uuid.NewString(), uuid.NewString()

	ids := []string{uuid.NewString(), uuid.NewString()}
	err := repo.CreateBatch(ctx, []notification.Notification{
		{ID: ids[0], CompanyID: companyID, RecipientID: recipient, Type: notification.TypeSalaryPaid, Title: "a", Message: "a", Data: map[string]interface{}{"salary_id": "s1"}},
		{ID: ids[1], CompanyID: companyID, RecipientID: recipient, Type: notification.TypeSalaryPaid, Title: "b", Message: "b"},
	})
	require.NoError(t, err)

	changed, err := repo.MarkAsRead(ctx, companyID, uuid.NewString(), ids)
	require.NoError(t, err)
	assert.Zero(t, changed)

	changed, err = repo.MarkAsRead(ctx, companyID, recipient, ids[:1])
	require.NoError(t, err)
	assert.EqualValues(t, 1, changed)

	items, total, err := repo.ListByRecipient(ctx, companyID, recipient, 1, 20, true)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, ids[1], items[0].ID)
}

func TestTxManager_RollsBack(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	companyID := uuid.NewString()
	emp := createTestEmployee(t, ctx, setup, companyID)

	tx := postgresql.NewTxManager(setup.DB)
	repo := postgresql.NewAttendanceRepository(setup.DB)
	day := time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC)
	boom := errors.New("boom")

	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := repo.Create(ctx, attendance.Attendance{
			EmployeeID: emp.ID, CompanyID: companyID, Date: day, Status: attendance.StatusPending,
		}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = repo.GetByEmployeeAndDate(ctx, emp.ID, day, companyID)
	assert.ErrorIs(t, err, attendance.ErrAttendanceNotFound)
}
