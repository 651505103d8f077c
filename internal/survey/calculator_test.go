package survey

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"kaizen/internal/models"
)

func TestCompute_KnownValues(t *testing.T) {
	calc := NewCalculator(DefaultHourlyRate)

	tests := []struct {
		name      string
		in        Input
		hours     string
		financial string
	}{
		{"single monthly hour", Input{1, models.FrequencyMonth, 1, 60}, "1.00", "60.00"},
		{"daily occurrences", Input{5, models.FrequencyDay, 2, 30}, "110.00", "6600.00"},
		{"weekly occurrences", Input{3, models.FrequencyWeek, 4, 15}, "12.00", "720.00"},
		{"zero people", Input{10, models.FrequencyDay, 0, 30}, "0.00", "0.00"},
		{"one minute rounds half up", Input{1, models.FrequencyMonth, 1, 1}, "0.02", "1.20"},
		{"unknown unit counts once", Input{2, models.FrequencyUnit("YEAR"), 1, 30}, "1.00", "60.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.Compute(tt.in)
			assert.Equal(t, tt.hours, got.HoursSaved.StringFixed(2))
			assert.Equal(t, tt.financial, got.FinancialSavings.StringFixed(2))
		})
	}
}

func TestCompute_RoundsHalfUpAtThirdPlace(t *testing.T) {
	calc := NewCalculator(DefaultHourlyRate)

	// 3 minutes = 0.05 hours exactly, 9 minutes = 0.15 hours exactly
	assert.Equal(t, "0.05", calc.Compute(Input{1, models.FrequencyMonth, 1, 3}).HoursSaved.StringFixed(2))
	assert.Equal(t, "0.15", calc.Compute(Input{1, models.FrequencyMonth, 1, 9}).HoursSaved.StringFixed(2))
	// 7 minutes = 0.11666.. hours
	assert.Equal(t, "0.12", calc.Compute(Input{1, models.FrequencyMonth, 1, 7}).HoursSaved.StringFixed(2))
	// 0.12 * 60 = 7.20, money is priced from rounded hours
	assert.Equal(t, "7.20", calc.Compute(Input{1, models.FrequencyMonth, 1, 7}).FinancialSavings.StringFixed(2))
}

func TestCompute_CustomRate(t *testing.T) {
	calc := NewCalculator(decimal.RequireFromString("45.50"))

	got := calc.Compute(Input{1, models.FrequencyMonth, 1, 90})
	assert.Equal(t, "1.50", got.HoursSaved.StringFixed(2))
	assert.Equal(t, "68.25", got.FinancialSavings.StringFixed(2))
}

func TestNewCalculator_FallsBackOnNonPositiveRate(t *testing.T) {
	assert.True(t, NewCalculator(decimal.Zero).HourlyRate.Equal(DefaultHourlyRate))
	assert.True(t, NewCalculator(decimal.NewFromInt(-5)).HourlyRate.Equal(DefaultHourlyRate))
}

func TestCompute_IsDeterministic(t *testing.T) {
	calc := NewCalculator(DefaultHourlyRate)
	in := Input{7, models.FrequencyWeek, 13, 11}

	first := calc.Compute(in)
	for i := 0; i < 10; i++ {
		again := calc.Compute(in)
		assert.True(t, first.HoursSaved.Equal(again.HoursSaved))
		assert.True(t, first.FinancialSavings.Equal(again.FinancialSavings))
	}
}
