package utils

import (
	"fmt"
	"strings"
	"time"

	"rental-contracts-backend/internal/domain"

	"github.com/shopspring/decimal"
)

// Date represents a calendar date
type Date struct {
	Year  int
	Month int
	Day   int
}

// DateDifference represents the difference between two dates
type DateDifference struct {
	Months int
	Days   int
}

// DateOf returns the calendar date of t in UTC.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{Year: y, Month: int(m), Day: d}
}

func (d Date) Time() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

// DaysInMonth returns the number of days in a given month
func DaysInMonth(year, month int) int {
	if month == 2 {
		if (year%4 == 0 && year%100 != 0) || (year%400 == 0) {
			return 29
		}
		return 28
	}

	// April, June, September, November
	if month == 4 || month == 6 || month == 9 || month == 11 {
		return 30
	}

	return 31
}

func before(a, b Date) bool {
	return a.Time().Before(b.Time())
}

// CalculateDateDifference computes the difference between two dates as
// (months, days) with the end date exclusive: Jan 15 to Mar 15 is two months.
func CalculateDateDifference(startDate, endDate Date) (DateDifference, error) {
	if before(endDate, startDate) {
		return DateDifference{}, fmt.Errorf("%w: end date must be >= start date", domain.ErrInvalidInput)
	}

	years := endDate.Year - startDate.Year
	months := endDate.Month - startDate.Month
	days := endDate.Day - startDate.Day

	// If days < 0, borrow from months
	if days < 0 {
		months -= 1
		prevMonth := endDate.Month - 1
		prevYear := endDate.Year
		if prevMonth < 1 {
			prevMonth = 12
			prevYear -= 1
		}
		days = DaysInMonth(prevYear, prevMonth) + days
	}

	// If months are negative, borrow from years
	if months < 0 {
		years -= 1
		months += 12
	}

	months += 12 * years

	return DateDifference{Months: months, Days: days}, nil
}

// InclusiveDays counts calendar days from start to end, both included.
func InclusiveDays(startDate, endDate Date) (int, error) {
	if before(endDate, startDate) {
		return 0, fmt.Errorf("%w: end date must be >= start date", domain.ErrInvalidInput)
	}
	return int(endDate.Time().Sub(startDate.Time()).Hours()/24) + 1, nil
}

// BilledMonths rounds a partial trailing month up and bills at least one month.
func BilledMonths(diff DateDifference) int {
	months := diff.Months
	if diff.Days > 0 {
		months++
	}
	if months < 1 {
		months = 1
	}
	return months
}

type PricingInput struct {
	Purpose            domain.Purpose
	RentalType         domain.RentalType
	DailyRate          decimal.Decimal
	MonthlyRate        decimal.Decimal
	YearlyRate         decimal.Decimal
	SalePrice          decimal.Decimal
	SaleDepositPercent decimal.Decimal
	Start              time.Time
	End                time.Time
}

// PricingFor builds a PricingInput from a property and the reservation made against it.
func PricingFor(p *domain.Property, r *domain.Reservation, saleDepositPercent decimal.Decimal) PricingInput {
	purpose := r.Purpose
	if purpose == "" {
		purpose = p.Purpose
	}
	rentalType := r.RentalType
	if rentalType == "" {
		rentalType = p.RentalType
	}
	return PricingInput{
		Purpose:            purpose,
		RentalType:         rentalType,
		DailyRate:          p.DailyRate,
		MonthlyRate:        p.MonthlyRate,
		YearlyRate:         p.YearlyRate,
		SalePrice:          p.SalePrice,
		SaleDepositPercent: saleDepositPercent,
		Start:              r.StartDate,
		End:                r.EndDate,
	}
}

// BaseSubtotal prices a reservation keyed on purpose and rental type. It
// returns the invoice lines and their rounded sum.
func BaseSubtotal(in PricingInput) ([]domain.InvoiceItem, decimal.Decimal, error) {
	var item domain.InvoiceItem

	switch in.Purpose {
	case domain.PurposeSale:
		if !in.SalePrice.IsPositive() {
			return nil, decimal.Zero, fmt.Errorf("%w: property has no sale price", domain.ErrInvalidInput)
		}
		deposit := PercentOf(in.SalePrice, in.SaleDepositPercent)
		item = domain.InvoiceItem{
			Title:     fmt.Sprintf("Sale deposit (%s%%)", in.SaleDepositPercent.String()),
			Qty:       1,
			UnitPrice: deposit,
			LineTotal: deposit,
		}

	case domain.PurposeRent, "":
		start, end := DateOf(in.Start), DateOf(in.End)
		switch in.RentalType {
		case domain.RentalTypeDaily:
			days, err := InclusiveDays(start, end)
			if err != nil {
				return nil, decimal.Zero, err
			}
			item, err = line("Daily rent", days, in.DailyRate)
			if err != nil {
				return nil, decimal.Zero, err
			}
		case domain.RentalTypeMonthly:
			diff, err := CalculateDateDifference(start, end)
			if err != nil {
				return nil, decimal.Zero, err
			}
			item, err = line("Monthly rent", BilledMonths(diff), in.MonthlyRate)
			if err != nil {
				return nil, decimal.Zero, err
			}
		case domain.RentalTypeYearly:
			if before(end, start) {
				return nil, decimal.Zero, fmt.Errorf("%w: end date must be >= start date", domain.ErrInvalidInput)
			}
			var err error
			item, err = line("Yearly rent", 1, in.YearlyRate)
			if err != nil {
				return nil, decimal.Zero, err
			}
		default:
			return nil, decimal.Zero, fmt.Errorf("%w: unknown rental type %q", domain.ErrInvalidInput, in.RentalType)
		}

	default:
		return nil, decimal.Zero, fmt.Errorf("%w: unknown purpose %q", domain.ErrInvalidInput, in.Purpose)
	}

	return []domain.InvoiceItem{item}, item.LineTotal, nil
}

func line(title string, qty int, rate decimal.Decimal) (domain.InvoiceItem, error) {
	if !rate.IsPositive() {
		return domain.InvoiceItem{}, fmt.Errorf("%w: %s rate is not set", domain.ErrInvalidInput, strings.ToLower(title))
	}
	rate = Round3(rate)
	return domain.InvoiceItem{
		Title:     title,
		Qty:       int64(qty),
		UnitPrice: rate,
		LineTotal: Round3(rate.Mul(decimal.NewFromInt(int64(qty)))),
	}, nil
}
