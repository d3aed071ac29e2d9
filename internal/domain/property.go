package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PropertyStatus string

const (
	PropertyStatusAvailable PropertyStatus = "available"
	PropertyStatusReserved  PropertyStatus = "reserved"
	PropertyStatusLeased    PropertyStatus = "leased"
)

type Purpose string

const (
	PurposeRent Purpose = "rent"
	PurposeSale Purpose = "sale"
)

type RentalType string

const (
	RentalTypeDaily   RentalType = "daily"
	RentalTypeMonthly RentalType = "monthly"
	RentalTypeYearly  RentalType = "yearly"
)

type Property struct {
	ID          string          `json:"id"`
	BuildingID  string          `json:"building_id,omitempty"`
	Title       string          `json:"title"`
	Status      PropertyStatus  `json:"status"`
	Published   bool            `json:"published"`
	Purpose     Purpose         `json:"purpose"`
	RentalType  RentalType      `json:"rental_type,omitempty"`
	DailyRate   decimal.Decimal `json:"daily_rate"`
	MonthlyRate decimal.Decimal `json:"monthly_rate"`
	YearlyRate  decimal.Decimal `json:"yearly_rate"`
	SalePrice   decimal.Decimal `json:"sale_price"`
	OwnerName   string          `json:"owner_name"`
	OwnerEmail  string          `json:"owner_email"`
}

type Unit struct {
	ID         string `json:"id"`
	BuildingID string `json:"building_id"`
	PropertyID string `json:"property_id"`
}

type ReservationStatus string

const (
	ReservationStatusPending  ReservationStatus = "pending"
	ReservationStatusAccepted ReservationStatus = "accepted"
	ReservationStatusCanceled ReservationStatus = "canceled"
)

type Reservation struct {
	ID          string            `json:"id"`
	PropertyID  string            `json:"property_id"`
	UnitID      *string           `json:"unit_id,omitempty"`
	TenantName  string            `json:"tenant_name"`
	TenantEmail string            `json:"tenant_email"`
	Purpose     Purpose           `json:"purpose"`
	RentalType  RentalType        `json:"rental_type,omitempty"`
	StartDate   time.Time         `json:"start_date"`
	EndDate     time.Time         `json:"end_date"`
	Status      ReservationStatus `json:"status"`
}

type Coupon struct {
	Code      string          `json:"code"`
	Percent   decimal.Decimal `json:"percent"`
	Active    bool            `json:"active"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
}

// Usable reports whether the coupon can be applied at the given time.
func (c *Coupon) Usable(now time.Time) bool {
	if c == nil || !c.Active {
		return false
	}
	if c.ExpiresAt != nil && !now.Before(*c.ExpiresAt) {
		return false
	}
	return !c.Percent.IsNegative()
}
