package salary

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/cashbook"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clock(h, m int) time.Time {
	return time.Date(2025, 1, 6, h, m, 0, 0, time.UTC)
}

func TestGetShiftHoursForSalary(t *testing.T) {
	assert.Equal(t, 9.0, GetShiftHoursForSalary(clock(9, 0), clock(18, 0), 12))
	assert.Equal(t, 8.0, GetShiftHoursForSalary(clock(9, 0), clock(18, 0), 8))
	assert.Equal(t, 8.0, GetShiftHoursForSalary(clock(22, 0), clock(6, 0), 12))
	assert.Equal(t, 7.5, GetShiftHoursForSalary(clock(9, 30), clock(17, 0), 0))
}

func TestWorkingDaysInMonth(t *testing.T) {
	noSunday := func(d time.Weekday) bool { return d != time.Sunday }
	// June 2025 has 30 days and 5 Sundays.
	assert.Equal(t, 25, WorkingDaysInMonth(2025, time.June, noSunday))
	all := func(time.Weekday) bool { return true }
	assert.Equal(t, 28, WorkingDaysInMonth(2026, time.February, all))
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name  string
		emp   employee.Employee
		in    Inputs
		gross string
	}{
		{"monthly prorated", employee.Employee{SalaryType: employee.SalaryTypeMonthly, BaseSalary: d("30000")}, Inputs{TotalDays: 30, ApprovedDays: 20}, "20000"},
		{"monthly rounds", employee.Employee{SalaryType: employee.SalaryTypeMonthly, BaseSalary: d("10000")}, Inputs{TotalDays: 26, ApprovedDays: 1}, "384.62"},
		{"monthly no days", employee.Employee{SalaryType: employee.SalaryTypeMonthly, BaseSalary: d("10000")}, Inputs{TotalDays: 0}, "0"},
		{"daily", employee.Employee{SalaryType: employee.SalaryTypeDaily, DailyRate: d("800")}, Inputs{ApprovedDays: 12}, "9600"},
		{"hourly", employee.Employee{SalaryType: employee.SalaryTypeHourly, HourlyRate: d("150")}, Inputs{ApprovedHours: 40.5}, "6075"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Compute(tt.emp, tt.in, nil)
			require.NoError(t, err)
			assert.True(t, c.GrossAmount.Equal(d(tt.gross)), "gross = %s", c.GrossAmount)
			assert.True(t, c.NetAmount.Equal(c.GrossAmount))
			assert.True(t, c.DeductionAmount.IsZero())
		})
	}
}

func TestCompute_InvalidType(t *testing.T) {
	_, err := Compute(employee.Employee{SalaryType: "WEEKLY"}, Inputs{}, nil)
	assert.ErrorIs(t, err, employee.ErrInvalidSalaryType)
}

func TestPercentDeduction(t *testing.T) {
	policy := PercentDeduction(decimal.NewFromInt(12))
	enrolled := employee.Employee{SalaryType: employee.SalaryTypeDaily, DailyRate: d("1000"), PFESIEnabled: true}
	c, err := Compute(enrolled, Inputs{ApprovedDays: 10}, policy)
	require.NoError(t, err)
	assert.True(t, c.DeductionAmount.Equal(d("1200")))
	assert.True(t, c.NetAmount.Equal(d("8800")))

	notEnrolled := enrolled
	notEnrolled.PFESIEnabled = false
	c, err = Compute(notEnrolled, Inputs{ApprovedDays: 10}, policy)
	require.NoError(t, err)
	assert.True(t, c.NetAmount.Equal(d("10000")))
}

func TestPeriod(t *testing.T) {
	m, y := Period(time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 3, m)
	assert.Equal(t, 2025, y)
}

func TestEntryTypeForDirection(t *testing.T) {
	assert.Equal(t, EntryRecovery, EntryTypeForDirection(EntryPayment, cashbook.DirectionCredit))
	assert.Equal(t, EntryDeduction, EntryTypeForDirection(EntryDeduction, cashbook.DirectionCredit))
	assert.Equal(t, EntryPayment, EntryTypeForDirection(EntryRecovery, cashbook.DirectionDebit))

	txType, dir := CashbookMovement(EntryDeduction)
	assert.Equal(t, cashbook.TypeDeduction, txType)
	assert.Equal(t, cashbook.DirectionCredit, dir)
}
