package employee

import (
	"time"

	"github.com/shopspring/decimal"
)

type SalaryType string

const (
	SalaryTypeMonthly SalaryType = "MONTHLY"
	SalaryTypeDaily   SalaryType = "DAILY"
	SalaryTypeHourly  SalaryType = "HOURLY"
)

func (t SalaryType) Valid() bool {
	return t == SalaryTypeMonthly || t == SalaryTypeDaily || t == SalaryTypeHourly
}

// Employee is the payroll subject. Only the salary configuration is owned
// here; identity and profile live with the provisioning system.
type Employee struct {
	ID           string
	CompanyID    string
	UserID       string
	FullName     string
	SalaryType   SalaryType
	BaseSalary   decimal.Decimal // monthly amount for MONTHLY
	DailyRate    decimal.Decimal
	HourlyRate   decimal.Decimal
	PFESIEnabled bool
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
