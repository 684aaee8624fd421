// Package models defines the core domain models for the family budget.
//
// # Ownership
//
// Every row is scoped to a family:
//   - Family owns Users, Categories, MonthlyOverviews and one FamilyOnboarding
//   - MonthlyOverview owns Income and Expense rows (deleted with it)
//   - Expense references a Category and a User of the same family
//   - Income optionally references a User of the same family
//
// # Design Principles
//
//  1. **IDs, not pointers**: relationships are expressed with ID strings
//  2. **Money is decimal**: amounts use decimal.Decimal rounded to cents
//  3. **Derived values are stored**: Income.MonthlyAmount is written together
//     with Amount and Frequency and never recomputed on read
//  4. **One active overview**: at most one MonthlyOverview per family has
//     IsActive set, enforced by storage
package models
