package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/familybudget/internal/models"
)

// ratio is a frequency multiplier kept as a fraction so that amounts are
// multiplied before dividing (100 weekly = 100*52/12, not 100*4.33).
type ratio struct {
	num, den int64
}

// multipliers maps each frequency to its monthly equivalent.
// One-time income counts in full for the month of the scenario.
var multipliers = map[models.Frequency]ratio{
	models.FrequencyWeekly:      {52, 12},
	models.FrequencyBiweekly:    {26, 12},
	models.FrequencySemimonthly: {2, 1},
	models.FrequencyMonthly:     {1, 1},
	models.FrequencyYearly:      {1, 12},
	models.FrequencyOneTime:     {1, 1},
}

// Multiplier returns the monthly multiplier for a frequency.
func Multiplier(f models.Frequency) (decimal.Decimal, error) {
	r, ok := multipliers[f]
	if !ok {
		return decimal.Zero, fmt.Errorf("unknown frequency %q", f)
	}
	return decimal.NewFromInt(r.num).Div(decimal.NewFromInt(r.den)), nil
}

// MonthlyAmount normalizes amount received once per f to a monthly figure,
// rounded to cents.
func MonthlyAmount(amount decimal.Decimal, f models.Frequency) (decimal.Decimal, error) {
	r, ok := multipliers[f]
	if !ok {
		return decimal.Zero, fmt.Errorf("unknown frequency %q", f)
	}
	return amount.Mul(decimal.NewFromInt(r.num)).Div(decimal.NewFromInt(r.den)).Round(2), nil
}
