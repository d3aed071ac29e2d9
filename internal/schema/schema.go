// Package schema declares the relational tables behind the postgres store
// and migrates them with gorm.
package schema

import (
	"fmt"
	"time"

	"rental-contracts-backend/internal/logger"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Contract struct {
	ID                  string  `gorm:"primaryKey;size:64"`
	PropertyID          string  `gorm:"size:64;not null;index"`
	UnitID              *string `gorm:"size:64"`
	State               string  `gorm:"size:32;not null;index"`
	TenantName          string  `gorm:"not null"`
	TenantEmail         string  `gorm:"not null"`
	CreatedBy           string  `gorm:"not null"`
	CreatedAt           time.Time
	SentForSignaturesAt *time.Time
	SentForSignaturesBy *string
	ActivatedAt         *time.Time
	RejectedAt          *time.Time
	RejectedBy          *string
	RejectionReason     *string
	TemplateID          *string `gorm:"size:64"`
	RenderedHash        *string `gorm:"size:64"`
	Serial              *string `gorm:"size:32;uniqueIndex"`
	Version             int64   `gorm:"not null;default:1"`
	UpdatedAt           time.Time
	Signatures          []ContractSignature `gorm:"foreignKey:ContractID;constraint:OnDelete:CASCADE"`
}

// ContractSignature allows one row per role per contract.
type ContractSignature struct {
	ID            uint   `gorm:"primaryKey"`
	ContractID    string `gorm:"size:64;not null;uniqueIndex:idx_contract_signatures_role"`
	Role          string `gorm:"size:16;not null;uniqueIndex:idx_contract_signatures_role"`
	SignerName    string `gorm:"not null"`
	SignerEmail   *string
	SignedAt      time.Time `gorm:"not null"`
	OriginAddress string
	ClientContext string
}

type Invoice struct {
	ID                string    `gorm:"primaryKey;size:64"`
	Serial            string    `gorm:"size:32;not null;uniqueIndex"`
	ReservationID     string    `gorm:"size:64;not null;index"`
	PropertyID        string    `gorm:"size:64;not null"`
	UnitID            *string   `gorm:"size:64"`
	Items             []byte    `gorm:"type:jsonb;not null"`
	Subtotal          string    `gorm:"type:numeric(14,3);not null"`
	Discount          string    `gorm:"type:numeric(14,3);not null"`
	CouponCode        *string   `gorm:"size:32"`
	ServiceFeePercent string    `gorm:"type:numeric(6,3);not null"`
	ServiceFee        string    `gorm:"type:numeric(14,3);not null"`
	Amount            string    `gorm:"type:numeric(14,3);not null"`
	Status            string    `gorm:"size:16;not null;index"`
	IssuedAt          time.Time `gorm:"not null"`
	DueAt             *time.Time
	PaidAt            *time.Time
	ReceiptRef        *string
	IdempotencyKey    *string `gorm:"size:128;uniqueIndex"`
	CanceledAt        *time.Time
	CancelReason      *string
	UpdatedAt         time.Time
}

type SequenceCounter struct {
	Namespace string `gorm:"primaryKey;size:32"`
	Prefix    string `gorm:"size:16;not null"`
	Width     int    `gorm:"not null"`
	Value     int64  `gorm:"not null;default:0"`
	UpdatedAt time.Time
}

type SequenceReset struct {
	ID        string `gorm:"primaryKey;size:64"`
	Namespace string `gorm:"size:32;not null;index"`
	OldValue  int64  `gorm:"not null"`
	NewValue  int64  `gorm:"not null"`
	Actor     string `gorm:"not null"`
	Reason    string `gorm:"not null"`
	ResetAt   time.Time
}

type ContractTemplate struct {
	ID            string  `gorm:"primaryKey;size:64"`
	Scope         string  `gorm:"size:16;not null"`
	BodyPrimary   string  `gorm:"type:text;not null"`
	BodySecondary *string `gorm:"type:text"`
	Fields        []byte  `gorm:"type:jsonb;not null"`
	UpdatedAt     time.Time
}

// TemplateAssignment keeps history; only one active row per level and ref.
type TemplateAssignment struct {
	ID             uint   `gorm:"primaryKey"`
	Level          string `gorm:"size:16;not null;index:idx_template_assignments_active,unique,where:active"`
	RefID          string `gorm:"size:64;not null;index:idx_template_assignments_active,unique,where:active"`
	TemplateID     string `gorm:"size:64;not null"`
	FieldOverrides []byte `gorm:"type:jsonb"`
	Active         bool   `gorm:"not null"`
	CreatedAt      time.Time
}

type Property struct {
	ID          string  `gorm:"primaryKey;size:64"`
	BuildingID  *string `gorm:"size:64;index"`
	Title       string  `gorm:"not null"`
	Status      string  `gorm:"size:16;not null"`
	Published   bool    `gorm:"not null"`
	Purpose     string  `gorm:"size:8;not null"`
	RentalType  *string `gorm:"size:16"`
	DailyRate   string  `gorm:"type:numeric(14,3);not null;default:0"`
	MonthlyRate string  `gorm:"type:numeric(14,3);not null;default:0"`
	YearlyRate  string  `gorm:"type:numeric(14,3);not null;default:0"`
	SalePrice   string  `gorm:"type:numeric(14,3);not null;default:0"`
	OwnerName   string  `gorm:"not null"`
	OwnerEmail  string  `gorm:"not null"`
}

type Unit struct {
	ID         string  `gorm:"primaryKey;size:64"`
	BuildingID string  `gorm:"size:64;not null;index"`
	PropertyID *string `gorm:"size:64"`
}

type Reservation struct {
	ID          string    `gorm:"primaryKey;size:64"`
	PropertyID  string    `gorm:"size:64;not null;index"`
	UnitID      *string   `gorm:"size:64"`
	TenantName  string    `gorm:"not null"`
	TenantEmail string    `gorm:"not null"`
	Purpose     string    `gorm:"size:8;not null"`
	RentalType  *string   `gorm:"size:16"`
	StartDate   time.Time `gorm:"not null"`
	EndDate     time.Time `gorm:"not null"`
	Status      string    `gorm:"size:16;not null"`
}

type Coupon struct {
	Code      string `gorm:"primaryKey;size:32"`
	Percent   string `gorm:"type:numeric(6,3);not null"`
	Active    bool   `gorm:"not null"`
	ExpiresAt *time.Time
}

type OutboxEvent struct {
	ID            string    `gorm:"primaryKey;size:64"`
	Type          string    `gorm:"size:32;not null"`
	AggregateID   string    `gorm:"size:64;not null"`
	Payload       []byte    `gorm:"type:jsonb;not null"`
	Attempts      int       `gorm:"not null;default:0"`
	Status        string    `gorm:"size:16;not null;index:idx_outbox_events_due,priority:1"`
	NextAttemptAt time.Time `gorm:"not null;index:idx_outbox_events_due,priority:2"`
	LastError     *string
	CreatedAt     time.Time
	DeliveredAt   *time.Time
}

type FeeSetting struct {
	Key       string `gorm:"primaryKey;size:64"`
	Value     string `gorm:"type:numeric(6,3);not null"`
	UpdatedBy string `gorm:"not null"`
	UpdatedAt time.Time
}

// Models lists every table in creation order.
func Models() []any {
	return []any{
		&Property{},
		&Unit{},
		&Reservation{},
		&Coupon{},
		&Contract{},
		&ContractSignature{},
		&ContractTemplate{},
		&TemplateAssignment{},
		&SequenceCounter{},
		&SequenceReset{},
		&Invoice{},
		&OutboxEvent{},
		&FeeSetting{},
	}
}

// OpenPostgres opens dsn with gorm's postgres driver. SQL logging stays off;
// migration progress is reported through the application logger.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// Migrate creates or alters every table to match the models.
func Migrate(db *gorm.DB) error {
	logger.EnterMethod("schema.Migrate")
	for _, m := range Models() {
		if err := db.AutoMigrate(m); err != nil {
			err = fmt.Errorf("failed to migrate %T: %w", m, err)
			logger.ExitMethodWithError("schema.Migrate", err)
			return err
		}
	}
	logger.ExitMethod("schema.Migrate", "tables", len(Models()))
	return nil
}
