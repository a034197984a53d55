package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/cashbook"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/notification"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/salary"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/user"
	ledgerService "github.com/cmlabs-hris/payroll-engine/internal/service/ledger"
	"github.com/cmlabs-hris/payroll-engine/internal/service/servicetest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, time.February, 3, 10, 0, 0, 0, time.UTC)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func intPtr(i int) *int { return &i }

// approvedJanuary generates and approves a January salary worth 20 x 1000.
func approvedJanuary(t *testing.T, h *servicetest.Harness) (employee.Employee, salary.Salary) {
	t.Helper()
	emp := h.AddDailyEmployee(t, "Asha", 1000)
	h.SeedApprovedDays(t, emp, 2025, time.January, 20, 9)
	sal, err := h.SalaryEngine.Generate(context.Background(), h.CompanyID, emp.ID, 1, 2025)
	require.NoError(t, err)
	_, err = h.SalaryEngine.ApproveSalary(h.AsOwner(), sal.ID)
	require.NoError(t, err)
	return emp, sal
}

func payment(salaryID string, amount int64) salary.MoneyMovementRequest {
	return salary.MoneyMovementRequest{
		SalaryID:    &salaryID,
		Amount:      dec(amount),
		PaymentMode: cashbook.ModeBankTransfer,
		Date:        "2025-02-01",
		Reason:      "advance",
	}
}

func TestLedgerService_PartialPaymentLeavesBalance(t *testing.T) {
	// Arrange
	h := servicetest.New(t, now)
	_, sal := approvedJanuary(t, h)

	// Act
	entry, err := h.LedgerService.RecordPayment(h.AsOwner(), payment(sal.ID, 15000))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, salary.EntryPayment, entry.Type)
	assert.True(t, dec(15000).Equal(entry.Amount))

	detail, err := h.SalaryEngine.GetSalary(h.AsOwner(), sal.ID)
	require.NoError(t, err)
	assert.True(t, dec(20000).Equal(detail.Balance.NetAmount))
	assert.True(t, dec(5000).Equal(detail.Balance.Remaining), "remaining %s", detail.Balance.Remaining)
	assert.False(t, detail.Balance.IsSettled)
}

func TestLedgerService_PaymentIsLinkedToCashbook(t *testing.T) {
	h := servicetest.New(t, now)
	emp, sal := approvedJanuary(t, h)

	entry, err := h.LedgerService.RecordPayment(h.AsOwner(), payment(sal.ID, 15000))
	require.NoError(t, err)
	require.NotNil(t, entry.CashbookEntryID)

	cb, err := h.Cashbook.GetByID(context.Background(), *entry.CashbookEntryID, h.CompanyID)
	require.NoError(t, err)
	assert.Equal(t, cashbook.TypeSalaryPayment, cb.TransactionType)
	assert.Equal(t, cashbook.DirectionDebit, cb.Direction)
	assert.True(t, dec(15000).Equal(cb.Amount))
	require.NotNil(t, cb.EmployeeID)
	assert.Equal(t, emp.ID, *cb.EmployeeID)
	require.NotNil(t, cb.Reference)
	assert.Equal(t, sal.ID, *cb.Reference)

	back, err := h.Ledger.GetByCashbookEntryID(context.Background(), cb.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, back.ID)
	assert.Equal(t, "2025-02-01", back.CreatedAt.Format("2006-01-02"))
}

func TestLedgerService_RecoveryAndDeductionAreNegative(t *testing.T) {
	h := servicetest.New(t, now)
	_, sal := approvedJanuary(t, h)
	ctx := h.AsOwner()

	_, err := h.LedgerService.RecordPayment(ctx, payment(sal.ID, 20000))
	require.NoError(t, err)
	recovery, err := h.LedgerService.RecordRecovery(ctx, payment(sal.ID, 1500))
	require.NoError(t, err)
	deduction, err := h.LedgerService.RecordDeduction(ctx, payment(sal.ID, 500))
	require.NoError(t, err)

	assert.True(t, dec(-1500).Equal(recovery.Amount))
	assert.True(t, dec(-500).Equal(deduction.Amount))

	cb, err := h.Cashbook.GetByID(context.Background(), *recovery.CashbookEntryID, h.CompanyID)
	require.NoError(t, err)
	assert.Equal(t, cashbook.DirectionCredit, cb.Direction)
	assert.Equal(t, cashbook.TypeRecovery, cb.TransactionType)

	detail, err := h.SalaryEngine.GetSalary(ctx, sal.ID)
	require.NoError(t, err)
	assert.True(t, dec(2000).Equal(detail.Balance.Remaining), "money taken back is owed again")
}

func TestLedgerService_RecordByPeriodCreatesSalary(t *testing.T) {
	h := servicetest.New(t, now)
	emp := h.AddDailyEmployee(t, "Asha", 1000)
	h.SeedApprovedDays(t, emp, 2025, time.February, 2, 9)

	entry, err := h.LedgerService.RecordPayment(h.AsOwner(), salary.MoneyMovementRequest{
		EmployeeID:  &emp.ID,
		Month:       intPtr(2),
		Year:        intPtr(2025),
		Amount:      dec(500),
		PaymentMode: cashbook.ModeCash,
		Date:        "2025-02-03",
	})
	require.NoError(t, err)

	sal, err := h.SalaryEngine.FindByPeriod(context.Background(), h.CompanyID, emp.ID, 2, 2025)
	require.NoError(t, err)
	assert.Equal(t, entry.SalaryID, sal.ID)
	assert.Equal(t, salary.StatusPending, sal.Status)
	assert.Equal(t, 24, sal.TotalDays)
	assert.Equal(t, 2, sal.ApprovedDays)
	assert.True(t, dec(2000).Equal(sal.NetAmount), "net %s", sal.NetAmount)
}

func TestLedgerService_PeriodSalaryPaysOnlyApprovedDays(t *testing.T) {
	// Arrange
	h := servicetest.New(t, now)
	emp := h.AddDailyEmployee(t, "Asha", 1000)
	h.SeedApprovedDays(t, emp, 2025, time.January, 2, 9)
	ctx := h.AsOwner()

	entry, err := h.LedgerService.RecordPayment(ctx, salary.MoneyMovementRequest{
		EmployeeID:  &emp.ID,
		Month:       intPtr(1),
		Year:        intPtr(2025),
		Amount:      dec(500),
		PaymentMode: cashbook.ModeCash,
		Date:        "2025-01-31",
	})
	require.NoError(t, err)
	_, err = h.SalaryEngine.ApproveSalary(ctx, entry.SalaryID)
	require.NoError(t, err)

	// Act
	detail, err := h.LedgerService.MarkSalaryPaid(ctx, salary.MarkPaidRequest{
		SalaryID: entry.SalaryID, PaymentDate: "2025-02-03", Method: cashbook.ModeCash,
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, detail.Salary.ApprovedDays)
	assert.True(t, dec(2000).Equal(detail.Balance.TotalPaid), "paid %s", detail.Balance.TotalPaid)
	assert.True(t, detail.Balance.Remaining.IsZero())
}

// racingEngine loses the period's unique key on the first lookup, the way a
// concurrent salary generation would.
type racingEngine struct {
	salary.Engine
	calls int
}

func (e *racingEngine) EnsureForPeriod(ctx context.Context, companyID, employeeID string, month, year int) (salary.Salary, error) {
	e.calls++
	if e.calls == 1 {
		return salary.Salary{}, salary.ErrSalaryAlreadyExists
	}
	return e.Engine.EnsureForPeriod(ctx, companyID, employeeID, month, year)
}

func TestLedgerService_RecordByPeriodRetriesLostCreate(t *testing.T) {
	h := servicetest.New(t, now)
	emp := h.AddDailyEmployee(t, "Asha", 1000)
	h.SeedApprovedDays(t, emp, 2025, time.February, 2, 9)
	engine := &racingEngine{Engine: h.SalaryEngine}
	svc := ledgerService.NewLedgerService(h.Tx, h.Salaries, h.Ledger, h.Cashbook,
		engine, h.Notifier, h.Audit, h.Clock)

	entry, err := svc.RecordPayment(h.AsOwner(), salary.MoneyMovementRequest{
		EmployeeID:  &emp.ID,
		Month:       intPtr(2),
		Year:        intPtr(2025),
		Amount:      dec(500),
		PaymentMode: cashbook.ModeCash,
		Date:        "2025-02-03",
	})

	require.NoError(t, err)
	assert.Equal(t, 2, engine.calls)
	sal, err := h.SalaryEngine.FindByPeriod(context.Background(), h.CompanyID, emp.ID, 2, 2025)
	require.NoError(t, err)
	assert.Equal(t, sal.ID, entry.SalaryID)

	entries, err := h.Ledger.ListBySalary(context.Background(), sal.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "the lost attempt leaves nothing behind")
}

func TestLedgerService_RecordRequiresOwner(t *testing.T) {
	h := servicetest.New(t, now)
	_, sal := approvedJanuary(t, h)

	_, err := h.LedgerService.RecordPayment(h.AsManager(), payment(sal.ID, 100))
	assert.ErrorIs(t, err, user.ErrOwnerAccessRequired)
}

func TestLedgerService_RejectedSalaryRefusesMoney(t *testing.T) {
	h := servicetest.New(t, now)
	_, sal := approvedJanuary(t, h)
	_, err := h.SalaryEngine.RejectSalary(h.AsOwner(), salary.RejectRequest{ID: sal.ID, Reason: "redo"})
	require.NoError(t, err)

	_, err = h.LedgerService.RecordPayment(h.AsOwner(), payment(sal.ID, 100))
	assert.ErrorIs(t, err, salary.ErrInvalidSalaryStatus)
}

func TestLedgerService_MarkSalaryPaid(t *testing.T) {
	// Arrange
	h := servicetest.New(t, now)
	emp, sal := approvedJanuary(t, h)
	ctx := h.AsOwner()
	_, err := h.LedgerService.RecordPayment(ctx, payment(sal.ID, 15000))
	require.NoError(t, err)

	// Act
	detail, err := h.LedgerService.MarkSalaryPaid(ctx, salary.MarkPaidRequest{
		SalaryID: sal.ID, PaymentDate: "2025-02-03", Method: cashbook.ModeBankTransfer, Notify: true,
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, salary.StatusPaid, detail.Salary.Status)
	assert.True(t, detail.Salary.IsLocked)
	assert.True(t, detail.Balance.Remaining.IsZero())
	assert.True(t, detail.Balance.IsSettled)
	require.Len(t, detail.Entries, 2)
	assert.True(t, dec(5000).Equal(detail.Entries[1].Amount), "pays exactly the remainder")

	msgs := h.Notifier.OfType(notification.TypeSalaryPaid)
	require.Len(t, msgs, 1)
	assert.Equal(t, emp.ID, msgs[0].RecipientID)

	_, err = h.LedgerService.MarkSalaryPaid(ctx, salary.MarkPaidRequest{
		SalaryID: sal.ID, PaymentDate: "2025-02-03", Method: cashbook.ModeBankTransfer,
	})
	assert.ErrorIs(t, err, salary.ErrNotApprovedOrAlreadyPaid)
}

func TestLedgerService_MarkSalaryPaid_RequiresApproval(t *testing.T) {
	h := servicetest.New(t, now)
	emp := h.AddDailyEmployee(t, "Asha", 1000)
	sal, err := h.SalaryEngine.Generate(context.Background(), h.CompanyID, emp.ID, 1, 2025)
	require.NoError(t, err)

	_, err = h.LedgerService.MarkSalaryPaid(h.AsOwner(), salary.MarkPaidRequest{
		SalaryID: sal.ID, PaymentDate: "2025-02-03", Method: cashbook.ModeCash,
	})
	assert.ErrorIs(t, err, salary.ErrNotApprovedOrAlreadyPaid)
}

func TestLedgerService_MarkSalaryPaid_AlreadySettled(t *testing.T) {
	h := servicetest.New(t, now)
	_, sal := approvedJanuary(t, h)
	ctx := h.AsOwner()
	_, err := h.LedgerService.RecordPayment(ctx, payment(sal.ID, 20000))
	require.NoError(t, err)

	_, err = h.LedgerService.MarkSalaryPaid(ctx, salary.MarkPaidRequest{
		SalaryID: sal.ID, PaymentDate: "2025-02-03", Method: cashbook.ModeCash,
	})
	assert.ErrorIs(t, err, salary.ErrAlreadySettled)

	got, err := h.Salaries.GetByID(context.Background(), sal.ID, h.CompanyID)
	require.NoError(t, err)
	assert.Equal(t, salary.StatusApproved, got.Status, "a refused mark-paid changes nothing")
}

func TestLedgerService_PaidSalaryIsImmutable(t *testing.T) {
	h := servicetest.New(t, now)
	emp, sal := approvedJanuary(t, h)
	ctx := h.AsOwner()
	_, err := h.LedgerService.MarkSalaryPaid(ctx, salary.MarkPaidRequest{
		SalaryID: sal.ID, PaymentDate: "2025-02-03", Method: cashbook.ModeCash,
	})
	require.NoError(t, err)

	_, err = h.LedgerService.RecordPayment(ctx, payment(sal.ID, 100))
	assert.ErrorIs(t, err, salary.ErrSalaryLocked)

	_, err = h.SalaryEngine.RecalculateSalary(ctx, sal.ID)
	assert.ErrorIs(t, err, salary.ErrSalaryLocked)

	_, err = h.SalaryEngine.RejectSalary(ctx, salary.RejectRequest{ID: sal.ID, Reason: "late change"})
	assert.ErrorIs(t, err, salary.ErrSalaryLocked)

	// attendance-driven refreshes are silent no-ops on a paid salary
	require.NoError(t, h.Trigger.Refresh(context.Background(), h.CompanyID, emp.ID, 1, 2025))
	got, err := h.Salaries.GetByID(context.Background(), sal.ID, h.CompanyID)
	require.NoError(t, err)
	assert.Equal(t, salary.StatusPaid, got.Status)
	assert.True(t, dec(20000).Equal(got.NetAmount))
}

func TestLedgerService_FailedRecordRollsBack(t *testing.T) {
	h := servicetest.New(t, now)
	_, sal := approvedJanuary(t, h)
	missing := "00000000-0000-4000-8000-000000000000"

	_, err := h.LedgerService.RecordPayment(h.AsOwner(), payment(missing, 100))
	assert.ErrorIs(t, err, salary.ErrSalaryNotFound)

	entries, total, err := h.Cashbook.List(context.Background(), cashbook.ListFilter{Page: 1, Limit: 20}, h.CompanyID)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, entries)

	ledger, err := h.Ledger.ListBySalary(context.Background(), sal.ID)
	require.NoError(t, err)
	assert.Empty(t, ledger)
}
