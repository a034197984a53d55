package cashbook

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateBalance(t *testing.T) {
	entries := []Entry{
		{Direction: DirectionCredit, Amount: decimal.NewFromInt(10000)},
		{Direction: DirectionDebit, Amount: decimal.NewFromInt(2500)},
		{Direction: DirectionDebit, Amount: decimal.NewFromInt(700), IsReversed: true},
		{Direction: DirectionCredit, Amount: decimal.NewFromInt(300)},
	}
	b := CalculateBalance(entries)
	assert.True(t, b.TotalCredit.Equal(decimal.NewFromInt(10300)))
	assert.True(t, b.TotalDebit.Equal(decimal.NewFromInt(2500)))
	assert.True(t, b.Balance.Equal(decimal.NewFromInt(7800)))
}

func TestSigned(t *testing.T) {
	assert.True(t, Entry{Direction: DirectionDebit, Amount: decimal.NewFromInt(5)}.Signed().Equal(decimal.NewFromInt(-5)))
	assert.True(t, Entry{Direction: DirectionCredit, Amount: decimal.NewFromInt(5)}.Signed().Equal(decimal.NewFromInt(5)))
}

func TestCreateEntryRequest_Validate(t *testing.T) {
	req := CreateEntryRequest{
		TransactionType: TypeExpense,
		Direction:       DirectionDebit,
		Amount:          decimal.NewFromInt(120),
		PaymentMode:     ModeCash,
		Description:     "office supplies",
		TransactionDate: "2025-01-06",
	}
	require.NoError(t, req.Validate())

	req.TransactionType = TypeSalaryPayment
	assert.ErrorContains(t, req.Validate(), "salary ledger")

	bad := CreateEntryRequest{TransactionType: "GIFT", Direction: "UP", Amount: decimal.Zero, PaymentMode: "CARD"}
	err := bad.Validate()
	for _, field := range []string{"transaction_type", "direction", "amount", "payment_mode", "description", "transaction_date"} {
		assert.ErrorContains(t, err, field)
	}
}
