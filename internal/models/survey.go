package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FrequencyUnit is the period a survey's frequency value is expressed in.
type FrequencyUnit string

const (
	FrequencyDay   FrequencyUnit = "DAY"
	FrequencyWeek  FrequencyUnit = "WEEK"
	FrequencyMonth FrequencyUnit = "MONTH"
)

// Valid reports whether u is a supported unit.
func (u FrequencyUnit) Valid() bool {
	switch u {
	case FrequencyDay, FrequencyWeek, FrequencyMonth:
		return true
	}
	return false
}

// Survey is the cost/benefit questionnaire attached to a post. The
// estimated fields are computed when the survey is written and stored as is.
type Survey struct {
	ID                        uint            `gorm:"primaryKey" json:"id"`
	PostID                    uint            `gorm:"not null;uniqueIndex" json:"post"`
	Post                      *Post           `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	FrequencyValue            int             `gorm:"not null" json:"frequency_value"`
	FrequencyUnit             FrequencyUnit   `gorm:"size:10;not null" json:"frequency_unit"`
	AffectedPeople            int             `gorm:"not null" json:"affected_people"`
	TimeLostMinutes           int             `gorm:"not null" json:"time_lost_minutes"`
	EstimatedTimeSavingsHours decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"estimated_time_savings_hours"`
	EstimatedFinancialSavings decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"estimated_financial_savings"`
	CreatedAt                 time.Time       `json:"created_at"`
	UpdatedAt                 time.Time       `json:"updated_at"`
}
