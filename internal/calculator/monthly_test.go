package calculator

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/familybudget/internal/models"
)

func TestMonthlyAmount(t *testing.T) {
	tests := []struct {
		name      string
		amount    string
		frequency models.Frequency
		want      string
		wantErr   bool
	}{
		{name: "weekly", amount: "100", frequency: models.FrequencyWeekly, want: "433.33"},
		{name: "biweekly", amount: "2000", frequency: models.FrequencyBiweekly, want: "4333.33"},
		{name: "semimonthly", amount: "1500", frequency: models.FrequencySemimonthly, want: "3000"},
		{name: "monthly", amount: "5000", frequency: models.FrequencyMonthly, want: "5000"},
		{name: "yearly", amount: "60000", frequency: models.FrequencyYearly, want: "5000"},
		{name: "yearly with cents", amount: "1000", frequency: models.FrequencyYearly, want: "83.33"},
		{name: "one-time is not amortized", amount: "1200", frequency: models.FrequencyOneTime, want: "1200"},
		{name: "zero stays zero", amount: "0", frequency: models.FrequencyWeekly, want: "0"},
		{name: "unknown frequency", amount: "100", frequency: models.Frequency("daily"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MonthlyAmount(decimal.RequireFromString(tt.amount), tt.frequency)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("MonthlyAmount(%s, %s) = %s, want %s", tt.amount, tt.frequency, got, tt.want)
			}
		})
	}
}

func TestMultiplierCoversEveryFrequency(t *testing.T) {
	for _, f := range []models.Frequency{
		models.FrequencyWeekly, models.FrequencyBiweekly, models.FrequencySemimonthly,
		models.FrequencyMonthly, models.FrequencyYearly, models.FrequencyOneTime,
	} {
		if !f.Valid() {
			t.Errorf("%s: expected valid frequency", f)
		}
		if _, err := Multiplier(f); err != nil {
			t.Errorf("%s: unexpected error: %v", f, err)
		}
	}
}
