package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/audit"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/cashbook"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/notification"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/salary"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/user"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/clock"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = telemetry.Tracer("service/ledger")

type LedgerServiceImpl struct {
	tx       database.TxManager
	salaries salary.Repository
	ledger   salary.LedgerRepository
	cashbook cashbook.Repository
	engine   salary.Engine
	notifier notification.Notifier
	audit    audit.Recorder
	clock    clock.Clock
}

func NewLedgerService(
	tx database.TxManager,
	salaryRepo salary.Repository,
	ledgerRepo salary.LedgerRepository,
	cashbookRepo cashbook.Repository,
	engine salary.Engine,
	notifier notification.Notifier,
	recorder audit.Recorder,
	clk clock.Clock,
) salary.LedgerService {
	return &LedgerServiceImpl{
		tx:       tx,
		salaries: salaryRepo,
		ledger:   ledgerRepo,
		cashbook: cashbookRepo,
		engine:   engine,
		notifier: notifier,
		audit:    recorder,
		clock:    clk,
	}
}

func requireMoneyManager(ctx context.Context) (user.Actor, error) {
	actor, err := user.ActorFromContext(ctx)
	if err != nil {
		return user.Actor{}, err
	}
	if !user.HasPermission(actor.Role, user.PermissionSalaryManage) {
		return user.Actor{}, user.ErrOwnerAccessRequired
	}
	return actor, nil
}

// backdate places an entry on the transaction date while keeping the wall
// clock of the write, so entries of one day keep their order.
func backdate(date, now time.Time) time.Time {
	now = now.UTC()
	return time.Date(date.Year(), date.Month(), date.Day(), now.Hour(), now.Minute(), now.Second(), now.Nanosecond(), time.UTC)
}

func describe(t salary.EntryType, s salary.Salary, reason string) string {
	desc := fmt.Sprintf("Salary %s %04d-%02d", t, s.Year, s.Month)
	if reason != "" {
		desc += ": " + reason
	}
	return desc
}

// RecordPayment implements salary.LedgerService.
func (l *LedgerServiceImpl) RecordPayment(ctx context.Context, req salary.MoneyMovementRequest) (salary.LedgerEntryResponse, error) {
	return l.record(ctx, salary.EntryPayment, req)
}

// RecordRecovery implements salary.LedgerService.
func (l *LedgerServiceImpl) RecordRecovery(ctx context.Context, req salary.MoneyMovementRequest) (salary.LedgerEntryResponse, error) {
	return l.record(ctx, salary.EntryRecovery, req)
}

// RecordDeduction implements salary.LedgerService.
func (l *LedgerServiceImpl) RecordDeduction(ctx context.Context, req salary.MoneyMovementRequest) (salary.LedgerEntryResponse, error) {
	return l.record(ctx, salary.EntryDeduction, req)
}

// record writes the cashbook row and its ledger entry in one transaction.
func (l *LedgerServiceImpl) record(ctx context.Context, entryType salary.EntryType, req salary.MoneyMovementRequest) (salary.LedgerEntryResponse, error) {
	actor, err := requireMoneyManager(ctx)
	if err != nil {
		return salary.LedgerEntryResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return salary.LedgerEntryResponse{}, err
	}

	ctx, span := tracer.Start(ctx, "ledger.Record")
	defer span.End()
	span.SetAttributes(attribute.String("entry_type", string(entryType)))

	amount := req.Amount.Abs().Round(2)
	date := req.ParsedDate()

	var created salary.LedgerEntry
	var sal salary.Salary
	write := func(ctx context.Context) error {
		var err error
		if req.SalaryID != nil {
			sal, err = l.salaries.GetByIDForUpdate(ctx, *req.SalaryID, actor.CompanyID)
		} else {
			sal, err = l.engine.EnsureForPeriod(ctx, actor.CompanyID, *req.EmployeeID, *req.Month, *req.Year)
		}
		if err != nil {
			return err
		}
		if sal.IsLocked() {
			return salary.ErrSalaryLocked
		}
		if sal.Status == salary.StatusRejected {
			return salary.ErrInvalidSalaryStatus
		}

		txType, direction := salary.CashbookMovement(entryType)
		employeeID := sal.EmployeeID
		salaryID := sal.ID
		cb, err := l.cashbook.Create(ctx, cashbook.Entry{
			CompanyID:        actor.CompanyID,
			EmployeeID:       &employeeID,
			TransactionType:  txType,
			Direction:        direction,
			Amount:           amount,
			PaymentMode:      req.PaymentMode,
			Reference:        &salaryID,
			PaymentReference: req.PaymentReference,
			Description:      describe(entryType, sal, req.Reason),
			TransactionDate:  date,
			CreatedBy:        actor.UserID,
		})
		if err != nil {
			return fmt.Errorf("failed to create cashbook entry: %w", err)
		}

		created, err = l.ledger.Create(ctx, salary.LedgerEntry{
			SalaryID:        sal.ID,
			Type:            entryType,
			Amount:          entryType.Signed(amount),
			Reason:          req.Reason,
			CashbookEntryID: &cb.ID,
			CreatedBy:       actor.UserID,
			CreatedAt:       backdate(date, l.clock.Now()),
		})
		if err != nil {
			return fmt.Errorf("failed to create ledger entry: %w", err)
		}
		return nil
	}
	err = l.tx.WithinTransaction(ctx, write)
	// A concurrent generation can win the period's unique key. Its row is
	// visible once our transaction has rolled back, so one retry suffices.
	if errors.Is(err, salary.ErrSalaryAlreadyExists) && req.SalaryID == nil {
		err = l.tx.WithinTransaction(ctx, write)
	}
	if err != nil {
		span.RecordError(err)
		return salary.LedgerEntryResponse{}, err
	}

	l.audit.Record(ctx, audit.Log{
		Action:     audit.ActionLedgerRecord,
		EntityType: "salary_ledger",
		EntityID:   created.ID,
		Metadata: map[string]interface{}{
			"salary_id":         sal.ID,
			"type":              string(entryType),
			"amount":            created.Amount.String(),
			"cashbook_entry_id": *created.CashbookEntryID,
		},
	})
	return salary.NewLedgerEntryResponse(created), nil
}

// MarkSalaryPaid implements salary.LedgerService. The remaining balance is
// paid out and the salary is locked in the same transaction.
func (l *LedgerServiceImpl) MarkSalaryPaid(ctx context.Context, req salary.MarkPaidRequest) (salary.DetailResponse, error) {
	actor, err := requireMoneyManager(ctx)
	if err != nil {
		return salary.DetailResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return salary.DetailResponse{}, err
	}

	ctx, span := tracer.Start(ctx, "ledger.MarkSalaryPaid")
	defer span.End()
	span.SetAttributes(attribute.String("salary_id", req.SalaryID))

	date := req.ParsedDate()
	now := l.clock.Now()

	var (
		paid    salary.Salary
		entries []salary.LedgerEntry
		payout  salary.LedgerEntry
	)
	err = l.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		sal, err := l.salaries.GetByIDForUpdate(ctx, req.SalaryID, actor.CompanyID)
		if err != nil {
			return err
		}
		if sal.Status != salary.StatusApproved || sal.IsLocked() {
			return salary.ErrNotApprovedOrAlreadyPaid
		}

		existing, err := l.ledger.ListBySalary(ctx, sal.ID)
		if err != nil {
			return fmt.Errorf("failed to list ledger entries: %w", err)
		}
		balance := salary.CalculateSalaryBalance(sal, existing)
		if !balance.Remaining.IsPositive() {
			return salary.ErrAlreadySettled
		}

		txType, direction := salary.CashbookMovement(salary.EntryPayment)
		employeeID := sal.EmployeeID
		salaryID := sal.ID
		cb, err := l.cashbook.Create(ctx, cashbook.Entry{
			CompanyID:        actor.CompanyID,
			EmployeeID:       &employeeID,
			TransactionType:  txType,
			Direction:        direction,
			Amount:           balance.Remaining,
			PaymentMode:      req.Method,
			Reference:        &salaryID,
			PaymentReference: req.Reference,
			Description:      describe(salary.EntryPayment, sal, "final settlement"),
			TransactionDate:  date,
			CreatedBy:        actor.UserID,
		})
		if err != nil {
			return fmt.Errorf("failed to create cashbook entry: %w", err)
		}

		payout, err = l.ledger.Create(ctx, salary.LedgerEntry{
			SalaryID:        sal.ID,
			Type:            salary.EntryPayment,
			Amount:          balance.Remaining,
			Reason:          "final settlement",
			CashbookEntryID: &cb.ID,
			CreatedBy:       actor.UserID,
			CreatedAt:       backdate(date, now),
		})
		if err != nil {
			return fmt.Errorf("failed to create ledger entry: %w", err)
		}

		if err := l.salaries.MarkPaid(ctx, sal.ID, actor.CompanyID, backdate(date, now)); err != nil {
			return err
		}

		if paid, err = l.salaries.GetByID(ctx, sal.ID, actor.CompanyID); err != nil {
			return err
		}
		entries = append(existing, payout)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return salary.DetailResponse{}, err
	}

	l.audit.Record(ctx, audit.Log{
		Action:     audit.ActionSalaryMarkPaid,
		EntityType: "salary",
		EntityID:   paid.ID,
		Metadata:   map[string]interface{}{"amount": payout.Amount.String(), "method": string(req.Method)},
	})
	if req.Notify {
		l.notifier.Notify(ctx, notification.Message{
			CompanyID:   paid.CompanyID,
			RecipientID: paid.EmployeeID,
			SenderID:    &actor.UserID,
			Type:        notification.TypeSalaryPaid,
			Title:       "Salary paid",
			Message:     fmt.Sprintf("Your salary for %04d-%02d has been paid", paid.Year, paid.Month),
			Data: map[string]interface{}{
				"salary_id": paid.ID,
				"amount":    payout.Amount.String(),
			},
		})
	}
	return salary.NewDetailResponse(paid, entries), nil
}
