package salary_test

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/salary"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/user"
	"github.com/cmlabs-hris/payroll-engine/internal/service/servicetest"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, time.February, 3, 10, 0, 0, 0, time.UTC)

func TestSalaryService_GenerateSalary(t *testing.T) {
	// Arrange
	h := servicetest.New(t, now)
	emp := h.AddDailyEmployee(t, "Asha", 1000)
	h.SeedApprovedDays(t, emp, 2025, time.January, 20, 9)

	// Act
	resp, err := h.SalaryEngine.GenerateSalary(h.AsOwner(), salary.GenerateRequest{EmployeeID: emp.ID, Month: 1, Year: 2025})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, salary.StatusPending, resp.Status)
	assert.Equal(t, 27, resp.TotalDays, "January 2025 has four Sundays")
	assert.Equal(t, 20, resp.ApprovedDays)
	assert.Equal(t, 180.0, resp.ApprovedHours)
	assert.True(t, decimal.NewFromInt(20000).Equal(resp.NetAmount))

	_, err = h.SalaryEngine.GenerateSalary(h.AsOwner(), salary.GenerateRequest{EmployeeID: emp.ID, Month: 1, Year: 2025})
	assert.ErrorIs(t, err, salary.ErrSalaryAlreadyExists)
}

func TestSalaryService_GenerateSalary_IgnoresUnapprovedDays(t *testing.T) {
	h := servicetest.New(t, now)
	emp := h.AddDailyEmployee(t, "Asha", 1000)
	h.SeedApprovedDays(t, emp, 2025, time.January, 3, 9)
	for i, status := range []attendance.Status{attendance.StatusPending, attendance.StatusRejected, attendance.StatusLeave} {
		d := time.Date(2025, time.January, 20+i, 0, 0, 0, 0, time.UTC)
		_, err := h.Attendances.Create(context.Background(), attendance.Attendance{
			EmployeeID: emp.ID, CompanyID: h.CompanyID, Date: d, Status: status, WorkingHours: 9,
		})
		require.NoError(t, err)
	}

	resp, err := h.SalaryEngine.GenerateSalary(h.AsOwner(), salary.GenerateRequest{EmployeeID: emp.ID, Month: 1, Year: 2025})

	require.NoError(t, err)
	assert.Equal(t, 3, resp.ApprovedDays)
	assert.True(t, decimal.NewFromInt(3000).Equal(resp.NetAmount))
}

func TestSalaryService_GenerateSalary_Monthly(t *testing.T) {
	h := servicetest.New(t, now)
	emp, err := h.Employees.Create(context.Background(), employee.Employee{
		ID: uuid.NewString(), CompanyID: h.CompanyID, FullName: "Meera",
		SalaryType: employee.SalaryTypeMonthly, BaseSalary: decimal.NewFromInt(27000), IsActive: true,
	})
	require.NoError(t, err)
	h.SeedApprovedDays(t, emp, 2025, time.January, 10, 9)

	resp, err := h.SalaryEngine.GenerateSalary(h.AsOwner(), salary.GenerateRequest{EmployeeID: emp.ID, Month: 1, Year: 2025})

	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(10000).Equal(resp.GrossAmount), "27000 / 27 days * 10 approved")
}

func TestSalaryService_GenerateSalary_RequiresOwner(t *testing.T) {
	h := servicetest.New(t, now)
	emp := h.AddDailyEmployee(t, "Asha", 1000)

	_, err := h.SalaryEngine.GenerateSalary(h.AsManager(), salary.GenerateRequest{EmployeeID: emp.ID, Month: 1, Year: 2025})
	assert.ErrorIs(t, err, user.ErrOwnerAccessRequired)

	_, err = h.SalaryEngine.GenerateSalary(h.AsOwner(), salary.GenerateRequest{EmployeeID: uuid.NewString(), Month: 1, Year: 2025})
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestSalaryService_GetOrCreateSalary(t *testing.T) {
	h := servicetest.New(t, now)
	emp := h.AddDailyEmployee(t, "Asha", 1000)
	req := salary.GenerateRequest{EmployeeID: emp.ID, Month: 1, Year: 2025}

	first, err := h.SalaryEngine.GetOrCreateSalary(h.AsOwner(), req)
	require.NoError(t, err)
	second, err := h.SalaryEngine.GetOrCreateSalary(h.AsOwner(), req)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
}

func TestSalaryService_GeneratePeriod(t *testing.T) {
	h := servicetest.New(t, now)
	asha := h.AddDailyEmployee(t, "Asha", 1000)
	h.AddDailyEmployee(t, "Ravi", 800)
	h.AddDailyEmployee(t, "Kiran", 900)
	_, err := h.SalaryEngine.Generate(context.Background(), h.CompanyID, asha.ID, 1, 2025)
	require.NoError(t, err)

	result, err := h.SalaryEngine.GeneratePeriod(h.AsOwner(), salary.GeneratePeriodRequest{Month: 1, Year: 2025})

	require.NoError(t, err)
	assert.Equal(t, 2, result.Generated)
	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, result.Failed)

	list, err := h.SalaryEngine.ListSalaries(h.AsOwner(), salary.ListFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, list.TotalCount)
}

func TestSalaryService_Recalculate(t *testing.T) {
	h := servicetest.New(t, now)
	emp := h.AddDailyEmployee(t, "Asha", 1000)
	h.SeedApprovedDays(t, emp, 2025, time.January, 5, 9)
	sal, err := h.SalaryEngine.Generate(context.Background(), h.CompanyID, emp.ID, 1, 2025)
	require.NoError(t, err)

	h.SeedApprovedDays(t, emp, 2025, time.February, 2, 9)
	_, err = h.Attendances.Create(context.Background(), attendance.Attendance{
		EmployeeID: emp.ID, CompanyID: h.CompanyID, Date: time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC),
		Status: attendance.StatusApproved, WorkingHours: 9,
	})
	require.NoError(t, err)

	result, err := h.SalaryEngine.RecalculateSalary(h.AsOwner(), sal.ID)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.True(t, decimal.NewFromInt(5000).Equal(result.PreviousNet))
	assert.True(t, decimal.NewFromInt(6000).Equal(result.NewNet), "only January days count")
	assert.Equal(t, 6, result.ApprovedDays)
}

func TestSalaryService_ApproveAndReject(t *testing.T) {
	h := servicetest.New(t, now)
	emp := h.AddDailyEmployee(t, "Asha", 1000)
	sal, err := h.SalaryEngine.Generate(context.Background(), h.CompanyID, emp.ID, 1, 2025)
	require.NoError(t, err)

	approved, err := h.SalaryEngine.ApproveSalary(h.AsOwner(), sal.ID)
	require.NoError(t, err)
	assert.Equal(t, salary.StatusApproved, approved.Status)

	_, err = h.SalaryEngine.ApproveSalary(h.AsOwner(), sal.ID)
	assert.ErrorIs(t, err, salary.ErrInvalidSalaryStatus)

	rejected, err := h.SalaryEngine.RejectSalary(h.AsOwner(), salary.RejectRequest{ID: sal.ID, Reason: "rates changed"})
	require.NoError(t, err)
	assert.Equal(t, salary.StatusRejected, rejected.Status)

	_, err = h.SalaryEngine.RejectSalary(h.AsOwner(), salary.RejectRequest{ID: sal.ID, Reason: "again"})
	assert.ErrorIs(t, err, salary.ErrInvalidSalaryStatus)
}

func TestSalaryService_GetSalary_StaffSeesOwnOnly(t *testing.T) {
	h := servicetest.New(t, now)
	asha := h.AddDailyEmployee(t, "Asha", 1000)
	ravi := h.AddDailyEmployee(t, "Ravi", 1000)
	sal, err := h.SalaryEngine.Generate(context.Background(), h.CompanyID, asha.ID, 1, 2025)
	require.NoError(t, err)

	got, err := h.SalaryEngine.GetSalary(h.AsStaff(asha), sal.ID)
	require.NoError(t, err)
	assert.Equal(t, sal.ID, got.Salary.ID)

	_, err = h.SalaryEngine.GetSalary(h.AsStaff(ravi), sal.ID)
	assert.ErrorIs(t, err, salary.ErrSalaryNotFound)

	list, err := h.SalaryEngine.ListSalaries(h.AsStaff(ravi), salary.ListFilter{})
	require.NoError(t, err)
	assert.Zero(t, list.TotalCount)
}

func TestTrigger_Refresh(t *testing.T) {
	ctx := context.Background()

	t.Run("generates a missing salary", func(t *testing.T) {
		h := servicetest.New(t, now)
		emp := h.AddDailyEmployee(t, "Asha", 1000)
		h.SeedApprovedDays(t, emp, 2025, time.January, 2, 9)

		h.Trigger.Schedule(h.CompanyID, emp.ID, time.Date(2025, time.January, 2, 0, 0, 0, 0, time.UTC))

		sal, err := h.SalaryEngine.FindByPeriod(ctx, h.CompanyID, emp.ID, 1, 2025)
		require.NoError(t, err)
		assert.Equal(t, 2, sal.ApprovedDays)
	})

	t.Run("recalculates a pending salary", func(t *testing.T) {
		h := servicetest.New(t, now)
		emp := h.AddDailyEmployee(t, "Asha", 1000)
		_, err := h.SalaryEngine.Generate(ctx, h.CompanyID, emp.ID, 1, 2025)
		require.NoError(t, err)
		h.SeedApprovedDays(t, emp, 2025, time.January, 4, 9)

		require.NoError(t, h.Trigger.Refresh(ctx, h.CompanyID, emp.ID, 1, 2025))

		sal, err := h.SalaryEngine.FindByPeriod(ctx, h.CompanyID, emp.ID, 1, 2025)
		require.NoError(t, err)
		assert.Equal(t, 4, sal.ApprovedDays)
	})

	t.Run("leaves an approved salary alone", func(t *testing.T) {
		h := servicetest.New(t, now)
		emp := h.AddDailyEmployee(t, "Asha", 1000)
		created, err := h.SalaryEngine.Generate(ctx, h.CompanyID, emp.ID, 1, 2025)
		require.NoError(t, err)
		_, err = h.SalaryEngine.ApproveSalary(h.AsOwner(), created.ID)
		require.NoError(t, err)
		h.SeedApprovedDays(t, emp, 2025, time.January, 4, 9)

		require.NoError(t, h.Trigger.Refresh(ctx, h.CompanyID, emp.ID, 1, 2025))

		sal, err := h.SalaryEngine.FindByPeriod(ctx, h.CompanyID, emp.ID, 1, 2025)
		require.NoError(t, err)
		assert.Zero(t, sal.ApprovedDays)
		assert.Equal(t, salary.StatusApproved, sal.Status)
	})
}
