package service_test

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"rental-contracts-backend/internal/config"
	"rental-contracts-backend/internal/domain"
	"rental-contracts-backend/internal/repository"
	"rental-contracts-backend/internal/repository/boltstore"
	"rental-contracts-backend/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testConfig(t testing.TB) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Server:  config.ServerConfig{Port: 8080},
		Storage: config.StorageConfig{Driver: "bolt"},
		JWT:     config.JWTConfig{Secret: strings.Repeat("k", 32)},
		Notify:  config.NotifyConfig{AdminEmail: "huda@example.com", AdminName: "Huda"},
	}
	require.NoError(t, cfg.Validate())
	cfg.Sequences.RetryBackoffMs = 1
	return cfg
}

func newBoltRepos(t *testing.T) *repository.Repositories {
	t.Helper()
	s, err := boltstore.Open(filepath.Join(t.TempDir(), "engine.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s.Repositories()
}

// engine wires every service against one store the way cmd/server does.
type engine struct {
	repos      *repository.Repositories
	dispatcher *recordingDispatcher
	sequences  service.SequenceService
	templates  service.TemplateService
	signatures service.SignatureService
	invoices   service.InvoiceService
	outbox     service.OutboxService
	fees       service.FeeConfigService
}

func newEngine(t *testing.T, repos *repository.Repositories, cfg *config.Config, renderer service.DocumentRenderer) *engine {
	t.Helper()
	d := &recordingDispatcher{}
	sequences := service.NewSequenceService(repos.Sequences, cfg.Sequences)
	templates := service.NewTemplateService(repos.Templates, repos.Properties, cfg.Templates.DefaultTemplateID)
	fees := service.NewFeeConfigService(repos.FeeSettings, cfg.DefaultServicePercent())
	invoices := service.NewInvoiceService(repos, sequences, fees, d, cfg)
	return &engine{
		repos:      repos,
		dispatcher: d,
		sequences:  sequences,
		templates:  templates,
		signatures: service.NewSignatureService(repos, sequences, templates, service.NewPropertyStatusSync(repos.Properties), d, cfg),
		invoices:   invoices,
		outbox:     service.NewOutboxService(repos, invoices, d, renderer, cfg.Outbox),
		fees:       fees,
	}
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []domain.Event
	fail   error
}

func (d *recordingDispatcher) Send(ctx context.Context, ev domain.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail != nil {
		return d.fail
	}
	d.events = append(d.events, ev)
	return nil
}

func (d *recordingDispatcher) setFail(err error) {
	d.mu.Lock()
	d.fail = err
	d.mu.Unlock()
}

func (d *recordingDispatcher) types() []domain.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]domain.EventType, 0, len(d.events))
	for _, ev := range d.events {
		out = append(out, ev.Type)
	}
	return out
}

type staticRenderer struct {
	ref string
	err error
}

func (r staticRenderer) RenderReceipt(ctx context.Context, inv *domain.Invoice) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return r.ref + inv.Serial, nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// seedContract stores a published property in building b-1, the default
// template and a draft contract for Ali.
func seedContract(t *testing.T, repos *repository.Repositories, contractID string) {
	t.Helper()
	ctx := context.Background()

	if _, err := repos.Properties.GetByID(ctx, "p-1"); err != nil {
		require.NoError(t, repos.Properties.Create(ctx, &domain.Property{
			ID:          "p-1",
			BuildingID:  "b-1",
			Title:       "Flat 4, Corniche Tower",
			Status:      domain.PropertyStatusReserved,
			Published:   true,
			Purpose:     domain.PurposeRent,
			RentalType:  domain.RentalTypeMonthly,
			MonthlyRate: dec("1200"),
			OwnerName:   "Salim",
			OwnerEmail:  "salim@example.com",
		}))
		require.NoError(t, repos.Templates.SaveTemplate(ctx, &domain.ContractTemplate{
			ID:          "default",
			Scope:       domain.TemplateScopeUnified,
			BodyPrimary: "Lease between {{owner}} and {{tenant}}.",
			Fields: []domain.TemplateField{
				{Key: "owner", Label: "Owner", Default: "the owner"},
				{Key: "tenant", Label: "Tenant", Default: "the tenant"},
			},
		}))
	}

	require.NoError(t, repos.Contracts.Create(ctx, &domain.Contract{
		ID:          contractID,
		PropertyID:  "p-1",
		State:       domain.ContractStateDraft,
		TenantName:  "Ali",
		TenantEmail: "ali@example.com",
		CreatedBy:   "agent-1",
		CreatedAt:   time.Now().UTC(),
	}))
}

type MockSequenceRepo struct {
	mock.Mock
}

func (m *MockSequenceRepo) Next(ctx context.Context, namespace string, defaults domain.SequenceCounter) (*domain.SequenceCounter, error) {
	args := m.Called(ctx, namespace, defaults)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SequenceCounter), args.Error(1)
}

func (m *MockSequenceRepo) Get(ctx context.Context, namespace string) (*domain.SequenceCounter, error) {
	args := m.Called(ctx, namespace)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SequenceCounter), args.Error(1)
}

func (m *MockSequenceRepo) Reset(ctx context.Context, reset *domain.SequenceReset) error {
	args := m.Called(ctx, reset)
	return args.Error(0)
}

type MockFeeSettingRepo struct {
	mock.Mock
}

func (m *MockFeeSettingRepo) GetServicePercent(ctx context.Context) (decimal.Decimal, error) {
	args := m.Called(ctx)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockFeeSettingRepo) SetServicePercent(ctx context.Context, percent decimal.Decimal, actor string) error {
	args := m.Called(ctx, percent, actor)
	return args.Error(0)
}

type MockPropertyRepo struct {
	mock.Mock
}

func (m *MockPropertyRepo) Create(ctx context.Context, p *domain.Property) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPropertyRepo) GetByID(ctx context.Context, id string) (*domain.Property, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Property), args.Error(1)
}

func (m *MockPropertyRepo) SetStatus(ctx context.Context, propertyID string, status domain.PropertyStatus, published bool) error {
	args := m.Called(ctx, propertyID, status, published)
	return args.Error(0)
}

func (m *MockPropertyRepo) CreateUnit(ctx context.Context, u *domain.Unit) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockPropertyRepo) GetUnit(ctx context.Context, id string) (*domain.Unit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Unit), args.Error(1)
}
