// Package survey computes the savings estimates stored with a post survey.
package survey

import (
	"github.com/shopspring/decimal"

	"kaizen/internal/models"
)

// DefaultHourlyRate is the labour cost used to price saved hours.
var DefaultHourlyRate = decimal.RequireFromString("60.00")

var minutesPerHour = decimal.NewFromInt(60)

// Input holds the author supplied survey answers. Values are expected to be
// non-negative; callers validate before computing.
type Input struct {
	FrequencyValue  int
	FrequencyUnit   models.FrequencyUnit
	AffectedPeople  int
	TimeLostMinutes int
}

// Result holds the derived estimates, both rounded to two places.
type Result struct {
	HoursSaved       decimal.Decimal
	FinancialSavings decimal.Decimal
}

// Calculator prices a survey at a fixed hourly rate.
type Calculator struct {
	HourlyRate decimal.Decimal
}

// NewCalculator returns a Calculator using rate, or DefaultHourlyRate when
// rate is not positive.
func NewCalculator(rate decimal.Decimal) *Calculator {
	if !rate.IsPositive() {
		rate = DefaultHourlyRate
	}
	return &Calculator{HourlyRate: rate}
}

// Multiplier normalizes a frequency unit to occurrences per month.
// Unknown units count once.
func Multiplier(unit models.FrequencyUnit) int64 {
	switch unit {
	case models.FrequencyDay:
		return 22
	case models.FrequencyWeek:
		return 4
	default:
		return 1
	}
}

// TotalMinutes is the monthly time lost across all affected people.
func TotalMinutes(in Input) decimal.Decimal {
	return decimal.NewFromInt(int64(in.FrequencyValue)).
		Mul(decimal.NewFromInt(int64(in.AffectedPeople))).
		Mul(decimal.NewFromInt(int64(in.TimeLostMinutes))).
		Mul(decimal.NewFromInt(Multiplier(in.FrequencyUnit)))
}

// Compute derives hours and money saved per month.
func (c *Calculator) Compute(in Input) Result {
	rate := c.HourlyRate
	if !rate.IsPositive() {
		rate = DefaultHourlyRate
	}

	// DivRound and Round round half away from zero, which is half-up for
	// the non-negative values handled here.
	hours := TotalMinutes(in).DivRound(minutesPerHour, 2)
	financial := hours.Mul(rate).Round(2)

	return Result{HoursSaved: hours, FinancialSavings: financial}
}
