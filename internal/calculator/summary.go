package calculator

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/familybudget/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Summary is the read-side aggregate of one overview. Nothing here is persisted.
type Summary struct {
	TotalIncome   decimal.Decimal `json:"totalIncome"`
	TotalExpenses decimal.Decimal `json:"totalExpenses"`
	NetSavings    decimal.Decimal `json:"netSavings"`
	// SavingsRate is a percentage. Zero when there is no income.
	SavingsRate decimal.Decimal `json:"savingsRate"`

	// UnassignedIncome is income not attributed to any member.
	UnassignedIncome decimal.Decimal `json:"unassignedIncome"`

	Members    []MemberSummary `json:"members"`
	Categories []CategoryTotal `json:"categories"`
}

// MemberSummary is what one member brings in and is responsible for.
type MemberSummary struct {
	UserID   string          `json:"userId"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
}

// CategoryTotal is the monthly spend in one category.
type CategoryTotal struct {
	CategoryID string          `json:"categoryId"`
	Total      decimal.Decimal `json:"total"`
	Count      int             `json:"count"`
}

// SavingsRate returns net/income*100 rounded to two places, or zero when
// income is not positive.
func SavingsRate(income, expenses decimal.Decimal) decimal.Decimal {
	if !income.IsPositive() {
		return decimal.Zero
	}
	return income.Sub(expenses).Div(income).Mul(hundred).Round(2)
}

// Summarize aggregates the rows of one overview.
//
// Member responsibility:
//   - unshared expense: carried fully by its user
//   - shared expense: its user carries SharePercentage, the rest is split
//     evenly across the other members (or stays with the user if alone)
//
// memberIDs fixes the order of Members; users found only on rows are appended.
func Summarize(incomes []models.Income, expenses []models.Expense, memberIDs []string) Summary {
	s := Summary{
		TotalIncome:      decimal.Zero,
		TotalExpenses:    decimal.Zero,
		UnassignedIncome: decimal.Zero,
	}

	order := append([]string(nil), memberIDs...)
	members := make(map[string]*MemberSummary, len(memberIDs))
	member := func(id string) *MemberSummary {
		m, ok := members[id]
		if !ok {
			m = &MemberSummary{UserID: id, Income: decimal.Zero, Expenses: decimal.Zero}
			members[id] = m
			if !contains(order, id) {
				order = append(order, id)
			}
		}
		return m
	}
	for _, id := range memberIDs {
		member(id)
	}

	for _, inc := range incomes {
		s.TotalIncome = s.TotalIncome.Add(inc.MonthlyAmount)
		if inc.UserID == nil || *inc.UserID == "" {
			s.UnassignedIncome = s.UnassignedIncome.Add(inc.MonthlyAmount)
			continue
		}
		m := member(*inc.UserID)
		m.Income = m.Income.Add(inc.MonthlyAmount)
	}

	categories := make(map[string]*CategoryTotal)
	for _, exp := range expenses {
		s.TotalExpenses = s.TotalExpenses.Add(exp.Amount)

		ct, ok := categories[exp.CategoryID]
		if !ok {
			ct = &CategoryTotal{CategoryID: exp.CategoryID, Total: decimal.Zero}
			categories[exp.CategoryID] = ct
		}
		ct.Total = ct.Total.Add(exp.Amount)
		ct.Count++

		owner := member(exp.UserID)
		others := otherMembers(memberIDs, exp.UserID)
		if !exp.IsShared || len(others) == 0 {
			owner.Expenses = owner.Expenses.Add(exp.Amount)
			continue
		}

		ownShare := exp.Amount.Mul(exp.SharePercentage).Div(hundred)
		owner.Expenses = owner.Expenses.Add(ownShare)
		each := exp.Amount.Sub(ownShare).Div(decimal.NewFromInt(int64(len(others))))
		for _, id := range others {
			m := member(id)
			m.Expenses = m.Expenses.Add(each)
		}
	}

	s.NetSavings = s.TotalIncome.Sub(s.TotalExpenses)
	s.SavingsRate = SavingsRate(s.TotalIncome, s.TotalExpenses)

	s.Members = make([]MemberSummary, 0, len(order))
	for _, id := range order {
		m := members[id]
		m.Income = m.Income.Round(2)
		m.Expenses = m.Expenses.Round(2)
		s.Members = append(s.Members, *m)
	}

	s.Categories = make([]CategoryTotal, 0, len(categories))
	for _, ct := range categories {
		s.Categories = append(s.Categories, *ct)
	}
	sort.Slice(s.Categories, func(i, j int) bool {
		if !s.Categories[i].Total.Equal(s.Categories[j].Total) {
			return s.Categories[i].Total.GreaterThan(s.Categories[j].Total)
		}
		return s.Categories[i].CategoryID < s.Categories[j].CategoryID
	})

	return s
}

func otherMembers(memberIDs []string, userID string) []string {
	var others []string
	for _, id := range memberIDs {
		if id != userID {
			others = append(others, id)
		}
	}
	return others
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
