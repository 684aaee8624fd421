package tools

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/mmynk/familybudget/internal/models"
)

var printer = message.NewPrinter(language.AmericanEnglish)

// Currency formats an amount as dollars with thousands separators, e.g.
// "$1,234.56" or "-$12.00".
func Currency(d decimal.Decimal) string {
	rounded := d.Round(2)
	whole, frac, _ := strings.Cut(rounded.Abs().StringFixed(2), ".")

	var s string
	if n, err := strconv.ParseInt(whole, 10, 64); err == nil {
		s = printer.Sprintf("$%d.%s", n, frac)
	} else {
		s = "$" + whole + "." + frac
	}
	if rounded.IsNegative() {
		return "-" + s
	}
	return s
}

// Percent formats a percentage with at most two decimals, e.g. "33.33%".
func Percent(d decimal.Decimal) string {
	return d.Round(2).String() + "%"
}

type overviewView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	IsActive   bool   `json:"isActive"`
	IsArchived bool   `json:"isArchived"`
	CreatedAt  string `json:"createdAt"`
}

func viewOverview(o *models.MonthlyOverview) *overviewView {
	if o == nil {
		return nil
	}
	return &overviewView{
		ID:         o.ID,
		Name:       o.Name,
		IsActive:   o.IsActive,
		IsArchived: o.IsArchived,
		CreatedAt:  o.CreatedAt.Format(time.DateOnly),
	}
}

type incomeView struct {
	ID            string  `json:"id"`
	OverviewID    string  `json:"overviewId"`
	UserID        *string `json:"userId"`
	Name          string  `json:"name"`
	Type          string  `json:"type"`
	Amount        string  `json:"amount"`
	Frequency     string  `json:"frequency"`
	MonthlyAmount string  `json:"monthlyAmount"`
	Notes         string  `json:"notes,omitempty"`
}

func viewIncome(inc *models.Income) incomeView {
	return incomeView{
		ID:            inc.ID,
		OverviewID:    inc.OverviewID,
		UserID:        inc.UserID,
		Name:          inc.Name,
		Type:          string(inc.Type),
		Amount:        Currency(inc.Amount),
		Frequency:     string(inc.Frequency),
		MonthlyAmount: Currency(inc.MonthlyAmount),
		Notes:         inc.Notes,
	}
}

type expenseView struct {
	ID         string `json:"id"`
	OverviewID string `json:"overviewId"`
	UserID     string `json:"userId"`
	CategoryID string `json:"categoryId"`
	Name       string `json:"name"`
	Amount     string `json:"amount"`
	IsShared   bool   `json:"isShared"`
	// SharePercentage is only set for shared expenses.
	SharePercentage string `json:"sharePercentage,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

func viewExpense(exp *models.Expense) expenseView {
	v := expenseView{
		ID:         exp.ID,
		OverviewID: exp.OverviewID,
		UserID:     exp.UserID,
		CategoryID: exp.CategoryID,
		Name:       exp.Name,
		Amount:     Currency(exp.Amount),
		IsShared:   exp.IsShared,
		Notes:      exp.Notes,
	}
	if exp.IsShared {
		v.SharePercentage = Percent(exp.SharePercentage)
	}
	return v
}
