package salary

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/audit"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/company"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/salary"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/user"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/clock"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/telemetry"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/utils"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// generateConcurrency bounds GeneratePeriod fan-out.
const generateConcurrency = 4

var tracer = telemetry.Tracer("service/salary")

type SalaryServiceImpl struct {
	tx database.TxManager
	salary.Repository
	ledger         salary.LedgerRepository
	employees      employee.EmployeeRepository
	attendances    attendance.AttendanceRepository
	companyService company.CompanyService
	policy         salary.DeductionPolicy
	audit          audit.Recorder
	clock          clock.Clock
}

func NewSalaryService(
	tx database.TxManager,
	salaryRepo salary.Repository,
	ledgerRepo salary.LedgerRepository,
	employeeRepo employee.EmployeeRepository,
	attendanceRepo attendance.AttendanceRepository,
	companyService company.CompanyService,
	policy salary.DeductionPolicy,
	recorder audit.Recorder,
	clk clock.Clock,
) *SalaryServiceImpl {
	if policy == nil {
		policy = salary.NoDeductions
	}
	return &SalaryServiceImpl{
		tx:             tx,
		Repository:     salaryRepo,
		ledger:         ledgerRepo,
		employees:      employeeRepo,
		attendances:    attendanceRepo,
		companyService: companyService,
		policy:         policy,
		audit:          recorder,
		clock:          clk,
	}
}

var (
	_ salary.SalaryService = (*SalaryServiceImpl)(nil)
	_ salary.Engine        = (*SalaryServiceImpl)(nil)
)

// ========== COMPUTATION ==========

// compute fills the computed fields of s from the employee's approved
// attendance in the salary period.
func (s *SalaryServiceImpl) compute(ctx context.Context, emp employee.Employee, sal *salary.Salary) error {
	settings, err := s.companyService.ResolveSettings(ctx, emp.CompanyID)
	if err != nil {
		return err
	}

	month := time.Month(sal.Month)
	from := time.Date(sal.Year, month, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(sal.Year, month, utils.DaysInMonth(sal.Year, month), 0, 0, 0, 0, time.UTC)

	records, err := s.attendances.ListByEmployeeBetween(ctx, emp.ID, emp.CompanyID, from, to)
	if err != nil {
		return fmt.Errorf("failed to list attendance for salary: %w", err)
	}

	in := salary.Inputs{TotalDays: salary.WorkingDaysInMonth(sal.Year, month, settings.IsWorkingDay)}
	for _, a := range records {
		if a.Status != attendance.StatusApproved {
			continue
		}
		in.ApprovedDays++
		in.ApprovedHours += a.WorkingHours
	}
	in.ApprovedHours = utils.RoundHours(in.ApprovedHours)

	c, err := salary.Compute(emp, in, s.policy)
	if err != nil {
		return err
	}

	sal.SalaryType = emp.SalaryType
	sal.BaseRate = c.BaseRate
	sal.TotalDays = in.TotalDays
	sal.ApprovedDays = in.ApprovedDays
	sal.ApprovedHours = in.ApprovedHours
	sal.GrossAmount = c.GrossAmount
	sal.DeductionAmount = c.DeductionAmount
	sal.NetAmount = c.NetAmount
	return nil
}

// ========== ENGINE ==========

// Generate implements salary.Engine.
func (s *SalaryServiceImpl) Generate(ctx context.Context, companyID, employeeID string, month, year int) (salary.Salary, error) {
	ctx, span := tracer.Start(ctx, "salary.Generate")
	defer span.End()
	span.SetAttributes(attribute.String("employee_id", employeeID), attribute.Int("month", month), attribute.Int("year", year))

	var created salary.Salary
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		emp, err := s.employees.GetByID(ctx, employeeID, companyID)
		if err != nil {
			return err
		}
		if _, err := s.Repository.GetByPeriod(ctx, employeeID, companyID, month, year); err == nil {
			return salary.ErrSalaryAlreadyExists
		} else if !errors.Is(err, salary.ErrSalaryNotFound) {
			return fmt.Errorf("failed to check existing salary: %w", err)
		}

		sal := salary.Salary{
			EmployeeID: employeeID,
			CompanyID:  companyID,
			Month:      month,
			Year:       year,
			Status:     salary.StatusPending,
		}
		if err := s.compute(ctx, emp, &sal); err != nil {
			return err
		}
		created, err = s.Repository.Create(ctx, sal)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return salary.Salary{}, err
	}

	s.audit.Record(ctx, audit.Log{
		CompanyID:  companyID,
		Action:     audit.ActionSalaryGenerate,
		EntityType: "salary",
		EntityID:   created.ID,
		Metadata:   map[string]interface{}{"month": month, "year": year, "net_amount": created.NetAmount.String()},
	})
	return created, nil
}

// Recalculate implements salary.Engine.
func (s *SalaryServiceImpl) Recalculate(ctx context.Context, companyID, salaryID string) (salary.RecalculationResult, error) {
	ctx, span := tracer.Start(ctx, "salary.Recalculate")
	defer span.End()
	span.SetAttributes(attribute.String("salary_id", salaryID))

	var result salary.RecalculationResult
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		sal, err := s.Repository.GetByIDForUpdate(ctx, salaryID, companyID)
		if err != nil {
			return err
		}
		if sal.IsLocked() {
			return salary.ErrSalaryLocked
		}
		emp, err := s.employees.GetByID(ctx, sal.EmployeeID, companyID)
		if err != nil {
			return err
		}

		result.SalaryID = sal.ID
		result.PreviousGross = sal.GrossAmount
		result.PreviousNet = sal.NetAmount

		if err := s.compute(ctx, emp, &sal); err != nil {
			return err
		}
		if err := s.Repository.Update(ctx, sal); err != nil {
			return err
		}

		result.Success = true
		result.NewGross = sal.GrossAmount
		result.NewNet = sal.NetAmount
		result.ApprovedDays = sal.ApprovedDays
		result.ApprovedHours = sal.ApprovedHours
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return salary.RecalculationResult{}, err
	}

	s.audit.Record(ctx, audit.Log{
		CompanyID:  companyID,
		Action:     audit.ActionSalaryRecalculate,
		EntityType: "salary",
		EntityID:   salaryID,
		Metadata: map[string]interface{}{
			"previous_net": result.PreviousNet.String(),
			"new_net":      result.NewNet.String(),
		},
	})
	return result, nil
}

// FindByPeriod implements salary.Engine.
func (s *SalaryServiceImpl) FindByPeriod(ctx context.Context, companyID, employeeID string, month, year int) (salary.Salary, error) {
	return s.Repository.GetByPeriod(ctx, employeeID, companyID, month, year)
}

// EnsureForPeriod implements salary.Engine.
func (s *SalaryServiceImpl) EnsureForPeriod(ctx context.Context, companyID, employeeID string, month, year int) (salary.Salary, error) {
	existing, err := s.Repository.GetByPeriodForUpdate(ctx, employeeID, companyID, month, year)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, salary.ErrSalaryNotFound) {
		return salary.Salary{}, fmt.Errorf("failed to get salary by period: %w", err)
	}

	emp, err := s.employees.GetByID(ctx, employeeID, companyID)
	if err != nil {
		return salary.Salary{}, err
	}

	sal := salary.Salary{
		EmployeeID: employeeID,
		CompanyID:  companyID,
		Month:      month,
		Year:       year,
		Status:     salary.StatusPending,
	}
	if err := s.compute(ctx, emp, &sal); err != nil {
		return salary.Salary{}, err
	}
	return s.Repository.Create(ctx, sal)
}

// ========== SALARY SERVICE ==========

func requireSalaryManager(ctx context.Context) (user.Actor, error) {
	actor, err := user.ActorFromContext(ctx)
	if err != nil {
		return user.Actor{}, err
	}
	if !user.HasPermission(actor.Role, user.PermissionSalaryManage) {
		return user.Actor{}, user.ErrOwnerAccessRequired
	}
	return actor, nil
}

// GenerateSalary implements salary.SalaryService.
func (s *SalaryServiceImpl) GenerateSalary(ctx context.Context, req salary.GenerateRequest) (salary.Response, error) {
	actor, err := requireSalaryManager(ctx)
	if err != nil {
		return salary.Response{}, err
	}
	if err := req.Validate(); err != nil {
		return salary.Response{}, err
	}
	created, err := s.Generate(ctx, actor.CompanyID, req.EmployeeID, req.Month, req.Year)
	if err != nil {
		return salary.Response{}, err
	}
	return salary.NewResponse(created), nil
}

// GetOrCreateSalary implements salary.SalaryService.
func (s *SalaryServiceImpl) GetOrCreateSalary(ctx context.Context, req salary.GenerateRequest) (salary.Response, error) {
	actor, err := requireSalaryManager(ctx)
	if err != nil {
		return salary.Response{}, err
	}
	if err := req.Validate(); err != nil {
		return salary.Response{}, err
	}

	existing, err := s.FindByPeriod(ctx, actor.CompanyID, req.EmployeeID, req.Month, req.Year)
	if err == nil {
		return salary.NewResponse(existing), nil
	}
	if !errors.Is(err, salary.ErrSalaryNotFound) {
		return salary.Response{}, err
	}

	created, err := s.Generate(ctx, actor.CompanyID, req.EmployeeID, req.Month, req.Year)
	if errors.Is(err, salary.ErrSalaryAlreadyExists) {
		// lost a race with a concurrent generate
		created, err = s.FindByPeriod(ctx, actor.CompanyID, req.EmployeeID, req.Month, req.Year)
	}
	if err != nil {
		return salary.Response{}, err
	}
	return salary.NewResponse(created), nil
}

// RecalculateSalary implements salary.SalaryService.
func (s *SalaryServiceImpl) RecalculateSalary(ctx context.Context, salaryID string) (salary.RecalculationResult, error) {
	actor, err := requireSalaryManager(ctx)
	if err != nil {
		return salary.RecalculationResult{}, err
	}
	return s.Recalculate(ctx, actor.CompanyID, salaryID)
}

// GeneratePeriod implements salary.SalaryService.
func (s *SalaryServiceImpl) GeneratePeriod(ctx context.Context, req salary.GeneratePeriodRequest) (salary.GeneratePeriodResult, error) {
	actor, err := requireSalaryManager(ctx)
	if err != nil {
		return salary.GeneratePeriodResult{}, err
	}
	if err := req.Validate(); err != nil {
		return salary.GeneratePeriodResult{}, err
	}

	employees, err := s.employees.ListActive(ctx, actor.CompanyID)
	if err != nil {
		return salary.GeneratePeriodResult{}, fmt.Errorf("failed to list active employees: %w", err)
	}

	result := salary.GeneratePeriodResult{Month: req.Month, Year: req.Year}
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(generateConcurrency)
	for _, emp := range employees {
		g.Go(func() error {
			_, err := s.Generate(ctx, actor.CompanyID, emp.ID, req.Month, req.Year)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				result.Generated++
			case errors.Is(err, salary.ErrSalaryAlreadyExists):
				result.Skipped++
			default:
				result.Failed = append(result.Failed, salary.GeneratePeriodFailure{EmployeeID: emp.ID, Error: err.Error()})
			}
			// one employee failing never cancels the others
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(result.Failed, func(i, j int) bool {
		return result.Failed[i].EmployeeID < result.Failed[j].EmployeeID
	})
	return result, nil
}

// ApproveSalary implements salary.SalaryService.
func (s *SalaryServiceImpl) ApproveSalary(ctx context.Context, salaryID string) (salary.Response, error) {
	actor, err := requireSalaryManager(ctx)
	if err != nil {
		return salary.Response{}, err
	}

	var updated salary.Salary
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		sal, err := s.Repository.GetByIDForUpdate(ctx, salaryID, actor.CompanyID)
		if err != nil {
			return err
		}
		if sal.IsLocked() {
			return salary.ErrSalaryLocked
		}
		if sal.Status != salary.StatusPending {
			return salary.ErrInvalidSalaryStatus
		}
		now := s.clock.Now()
		sal.Status = salary.StatusApproved
		sal.ApprovedBy = &actor.UserID
		sal.ApprovedAt = &now
		if err := s.Repository.Update(ctx, sal); err != nil {
			return err
		}
		updated = sal
		return nil
	})
	if err != nil {
		return salary.Response{}, err
	}

	s.audit.Record(ctx, audit.Log{
		Action:     audit.ActionSalaryApprove,
		EntityType: "salary",
		EntityID:   salaryID,
		Metadata:   map[string]interface{}{"net_amount": updated.NetAmount.String()},
	})
	return salary.NewResponse(updated), nil
}

// RejectSalary implements salary.SalaryService.
func (s *SalaryServiceImpl) RejectSalary(ctx context.Context, req salary.RejectRequest) (salary.Response, error) {
	actor, err := requireSalaryManager(ctx)
	if err != nil {
		return salary.Response{}, err
	}
	if err := req.Validate(); err != nil {
		return salary.Response{}, err
	}

	var updated salary.Salary
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		sal, err := s.Repository.GetByIDForUpdate(ctx, req.ID, actor.CompanyID)
		if err != nil {
			return err
		}
		if sal.IsLocked() {
			return salary.ErrSalaryLocked
		}
		if sal.Status != salary.StatusPending && sal.Status != salary.StatusApproved {
			return salary.ErrInvalidSalaryStatus
		}
		sal.Status = salary.StatusRejected
		sal.ApprovedBy = nil
		sal.ApprovedAt = nil
		if err := s.Repository.Update(ctx, sal); err != nil {
			return err
		}
		updated = sal
		return nil
	})
	if err != nil {
		return salary.Response{}, err
	}

	s.audit.Record(ctx, audit.Log{
		Action:     audit.ActionSalaryReject,
		EntityType: "salary",
		EntityID:   req.ID,
		Metadata:   map[string]interface{}{"reason": req.Reason},
	})
	return salary.NewResponse(updated), nil
}

// GetSalary implements salary.SalaryService. Staff can only read their own.
func (s *SalaryServiceImpl) GetSalary(ctx context.Context, salaryID string) (salary.DetailResponse, error) {
	actor, err := user.ActorFromContext(ctx)
	if err != nil {
		return salary.DetailResponse{}, err
	}

	sal, err := s.Repository.GetByID(ctx, salaryID, actor.CompanyID)
	if err != nil {
		return salary.DetailResponse{}, err
	}
	if !user.HasPermission(actor.Role, user.PermissionSalaryView) && sal.EmployeeID != actor.EmployeeID {
		return salary.DetailResponse{}, salary.ErrSalaryNotFound
	}

	entries, err := s.ledger.ListBySalary(ctx, sal.ID)
	if err != nil {
		return salary.DetailResponse{}, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	return salary.NewDetailResponse(sal, entries), nil
}

// ListSalaries implements salary.SalaryService.
func (s *SalaryServiceImpl) ListSalaries(ctx context.Context, filter salary.ListFilter) (salary.ListResponse, error) {
	actor, err := user.ActorFromContext(ctx)
	if err != nil {
		return salary.ListResponse{}, err
	}
	if err := filter.Validate(); err != nil {
		return salary.ListResponse{}, err
	}
	if !user.HasPermission(actor.Role, user.PermissionSalaryView) {
		if actor.EmployeeID == "" {
			return salary.ListResponse{}, user.ErrEmployeeIDRequired
		}
		filter.EmployeeID = &actor.EmployeeID
	}

	items, total, err := s.Repository.List(ctx, filter, actor.CompanyID)
	if err != nil {
		return salary.ListResponse{}, err
	}
	resp := salary.ListResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		Salaries:   make([]salary.Response, 0, len(items)),
	}
	for _, sal := range items {
		resp.Salaries = append(resp.Salaries, salary.NewResponse(sal))
	}
	return resp, nil
}
