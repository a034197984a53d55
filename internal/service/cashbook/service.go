package cashbook

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/audit"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/cashbook"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/salary"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/user"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/clock"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/utils"
)

type CashbookServiceImpl struct {
	tx database.TxManager
	cashbook.Repository
	salaries salary.Repository
	ledger   salary.LedgerRepository
	audit    audit.Recorder
	clock    clock.Clock
}

func NewCashbookService(
	tx database.TxManager,
	cashbookRepo cashbook.Repository,
	salaryRepo salary.Repository,
	ledgerRepo salary.LedgerRepository,
	recorder audit.Recorder,
	clk clock.Clock,
) cashbook.Service {
	return &CashbookServiceImpl{
		tx:         tx,
		Repository: cashbookRepo,
		salaries:   salaryRepo,
		ledger:     ledgerRepo,
		audit:      recorder,
		clock:      clk,
	}
}

func requireCashbookManager(ctx context.Context) (user.Actor, error) {
	actor, err := user.ActorFromContext(ctx)
	if err != nil {
		return user.Actor{}, err
	}
	if !user.HasPermission(actor.Role, user.PermissionCashbookManage) {
		return user.Actor{}, user.ErrOwnerAccessRequired
	}
	return actor, nil
}

// CreateEntry implements cashbook.Service.
func (s *CashbookServiceImpl) CreateEntry(ctx context.Context, req cashbook.CreateEntryRequest) (cashbook.EntryResponse, error) {
	actor, err := requireCashbookManager(ctx)
	if err != nil {
		return cashbook.EntryResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return cashbook.EntryResponse{}, err
	}
	date, _ := time.Parse(utils.DateLayout, req.TransactionDate)

	created, err := s.Repository.Create(ctx, cashbook.Entry{
		CompanyID:        actor.CompanyID,
		EmployeeID:       req.EmployeeID,
		TransactionType:  req.TransactionType,
		Direction:        req.Direction,
		Amount:           req.Amount.Abs().Round(2),
		PaymentMode:      req.PaymentMode,
		PaymentReference: req.PaymentReference,
		Description:      req.Description,
		TransactionDate:  date,
		CreatedBy:        actor.UserID,
	})
	if err != nil {
		return cashbook.EntryResponse{}, fmt.Errorf("failed to create cashbook entry: %w", err)
	}

	s.audit.Record(ctx, audit.Log{
		Action:     audit.ActionCashbookCreate,
		EntityType: "cashbook_entry",
		EntityID:   created.ID,
		Metadata:   map[string]interface{}{"amount": created.Amount.String(), "direction": string(created.Direction)},
	})
	return cashbook.NewEntryResponse(created), nil
}

// EditEntry implements cashbook.Service. Edits of salary-linked entries are
// mirrored on the ledger entry in the same transaction.
func (s *CashbookServiceImpl) EditEntry(ctx context.Context, req cashbook.EditEntryRequest) (cashbook.EntryResponse, error) {
	actor, err := requireCashbookManager(ctx)
	if err != nil {
		return cashbook.EntryResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return cashbook.EntryResponse{}, err
	}

	var (
		updated    cashbook.Entry
		linked     bool
		backfilled bool
	)
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		e, err := s.Repository.GetByIDForUpdate(ctx, req.ID, actor.CompanyID)
		if err != nil {
			return err
		}
		if e.IsReversed {
			return cashbook.ErrAlreadyReversed
		}

		link, err := s.resolveLink(ctx, e)
		if err != nil {
			return err
		}
		if link != nil {
			if req.EmployeeID != nil && *req.EmployeeID != link.salary.EmployeeID {
				return cashbook.ErrCannotReassignLinkedTransaction
			}
			if link.salary.IsLocked() {
				return salary.ErrSalaryLocked
			}
		}

		if req.Amount != nil {
			e.Amount = req.Amount.Abs().Round(2)
		}
		if req.Direction != nil {
			e.Direction = *req.Direction
		}
		if req.PaymentMode != nil {
			e.PaymentMode = *req.PaymentMode
		}
		if req.Description != nil {
			e.Description = *req.Description
		}
		if req.TransactionDate != nil {
			e.TransactionDate, _ = time.Parse(utils.DateLayout, *req.TransactionDate)
		}
		if req.EmployeeID != nil {
			e.EmployeeID = req.EmployeeID
		}

		if link != nil {
			le := link.entry
			le.Type = salary.EntryTypeForDirection(le.Type, e.Direction)
			le.Amount = le.Type.Signed(e.Amount)
			e.TransactionType, _ = salary.CashbookMovement(le.Type)
			if req.TransactionDate != nil {
				le.CreatedAt = time.Date(e.TransactionDate.Year(), e.TransactionDate.Month(), e.TransactionDate.Day(),
					le.CreatedAt.Hour(), le.CreatedAt.Minute(), le.CreatedAt.Second(), le.CreatedAt.Nanosecond(), time.UTC)
			}
			if link.legacy {
				le.CashbookEntryID = &e.ID
				backfilled = true
			}
			if err := s.ledger.Update(ctx, le); err != nil {
				return fmt.Errorf("failed to update linked ledger entry: %w", err)
			}
			linked = true
		}

		if err := s.Repository.Update(ctx, e); err != nil {
			return fmt.Errorf("failed to update cashbook entry: %w", err)
		}
		updated = e
		return nil
	})
	if err != nil {
		return cashbook.EntryResponse{}, err
	}

	s.audit.Record(ctx, audit.Log{
		Action:     audit.ActionCashbookEdit,
		EntityType: "cashbook_entry",
		EntityID:   updated.ID,
		Metadata: map[string]interface{}{
			"amount":            updated.Amount.String(),
			"direction":         string(updated.Direction),
			"linked":            linked,
			"legacy_backfilled": backfilled,
		},
	})
	return cashbook.NewEntryResponse(updated), nil
}

// DeleteEntry implements cashbook.Service. Only company owners may delete,
// and the linked ledger entry goes with the cashbook row.
func (s *CashbookServiceImpl) DeleteEntry(ctx context.Context, id string) error {
	actor, err := user.ActorFromContext(ctx)
	if err != nil {
		return err
	}
	if !actor.CanManageMoney() || !user.HasPermission(actor.Role, user.PermissionCashbookDelete) {
		return user.ErrOwnerAccessRequired
	}

	var ledgerEntryID string
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		e, err := s.Repository.GetByIDForUpdate(ctx, id, actor.CompanyID)
		if err != nil {
			return err
		}
		link, err := s.resolveLink(ctx, e)
		if err != nil {
			return err
		}
		// A legacy row resolves to at most one unlinked ledger entry, so
		// identical twins on the same salary survive its deletion.
		if link != nil {
			if link.salary.IsLocked() {
				return salary.ErrSalaryLocked
			}
			if err := s.ledger.Delete(ctx, link.entry.ID); err != nil {
				return fmt.Errorf("failed to delete linked ledger entry: %w", err)
			}
			ledgerEntryID = link.entry.ID
		}
		return s.Repository.Delete(ctx, id, actor.CompanyID)
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, audit.Log{
		Action:     audit.ActionCashbookDelete,
		EntityType: "cashbook_entry",
		EntityID:   id,
		Metadata:   map[string]interface{}{"ledger_entry_id": ledgerEntryID},
	})
	return nil
}

// ReverseEntry implements cashbook.Service.
func (s *CashbookServiceImpl) ReverseEntry(ctx context.Context, id string) (cashbook.EntryResponse, error) {
	actor, err := requireCashbookManager(ctx)
	if err != nil {
		return cashbook.EntryResponse{}, err
	}

	var reversed cashbook.Entry
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		e, err := s.Repository.GetByIDForUpdate(ctx, id, actor.CompanyID)
		if err != nil {
			return err
		}
		if e.IsReversed {
			return cashbook.ErrAlreadyReversed
		}
		link, err := s.resolveLink(ctx, e)
		if err != nil {
			return err
		}
		if link != nil {
			return cashbook.ErrLinkedEntryReversal
		}

		now := s.clock.Now()
		e.IsReversed = true
		e.ReversedAt = &now
		if err := s.Repository.Update(ctx, e); err != nil {
			return err
		}
		reversed = e
		return nil
	})
	if err != nil {
		return cashbook.EntryResponse{}, err
	}

	s.audit.Record(ctx, audit.Log{
		Action:     audit.ActionCashbookReverse,
		EntityType: "cashbook_entry",
		EntityID:   id,
	})
	return cashbook.NewEntryResponse(reversed), nil
}

// GetEntry implements cashbook.Service.
func (s *CashbookServiceImpl) GetEntry(ctx context.Context, id string) (cashbook.EntryResponse, error) {
	actor, err := requireCashbookManager(ctx)
	if err != nil {
		return cashbook.EntryResponse{}, err
	}
	e, err := s.Repository.GetByID(ctx, id, actor.CompanyID)
	if err != nil {
		return cashbook.EntryResponse{}, err
	}
	return cashbook.NewEntryResponse(e), nil
}

// ListEntries implements cashbook.Service.
func (s *CashbookServiceImpl) ListEntries(ctx context.Context, filter cashbook.ListFilter) (cashbook.ListResponse, error) {
	actor, err := requireCashbookManager(ctx)
	if err != nil {
		return cashbook.ListResponse{}, err
	}
	if err := filter.Validate(); err != nil {
		return cashbook.ListResponse{}, err
	}

	items, total, err := s.Repository.List(ctx, filter, actor.CompanyID)
	if err != nil {
		return cashbook.ListResponse{}, err
	}
	resp := cashbook.ListResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		Entries:    make([]cashbook.EntryResponse, 0, len(items)),
	}
	for _, e := range items {
		resp.Entries = append(resp.Entries, cashbook.NewEntryResponse(e))
	}
	return resp, nil
}

// GetBalance implements cashbook.Service.
func (s *CashbookServiceImpl) GetBalance(ctx context.Context, req cashbook.BalanceRequest) (cashbook.Balance, error) {
	actor, err := requireCashbookManager(ctx)
	if err != nil {
		return cashbook.Balance{}, err
	}
	from, to, err := req.Range()
	if err != nil {
		return cashbook.Balance{}, err
	}
	return s.Repository.Totals(ctx, actor.CompanyID, from, to)
}
