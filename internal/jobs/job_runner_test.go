package jobs

import (
	"context"
	"errors"
	"testing"

	"rental-contracts-backend/internal/config"
	"rental-contracts-backend/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockOutboxService struct {
	mock.Mock
}

func (m *MockOutboxService) Dispatch(ctx context.Context) (*service.DispatchResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DispatchResult), args.Error(1)
}

func (m *MockOutboxService) RequestReceipts(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockFeeConfigService struct {
	mock.Mock
}

func (m *MockFeeConfigService) DefaultPercent() decimal.Decimal {
	return m.Called().Get(0).(decimal.Decimal)
}

func (m *MockFeeConfigService) Refresh(ctx context.Context) (decimal.Decimal, error) {
	args := m.Called(ctx)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockFeeConfigService) Set(ctx context.Context, percent decimal.Decimal, actor string) error {
	return m.Called(ctx, percent, actor).Error(0)
}

func newRunner() (*JobRunner, *MockOutboxService, *MockFeeConfigService) {
	outbox := new(MockOutboxService)
	fees := new(MockFeeConfigService)
	return NewJobRunner(&Services{Outbox: outbox, Fees: fees}, &config.Config{}), outbox, fees
}

func TestJobRunner_RunAll(t *testing.T) {
	jr, outbox, fees := newRunner()
	fees.On("Refresh", mock.Anything).Return(decimal.NewFromInt(5), nil)
	outbox.On("Dispatch", mock.Anything).Return(&service.DispatchResult{Delivered: 2}, nil)
	outbox.On("RequestReceipts", mock.Anything).Return(1, nil)

	jr.RunAll()

	fees.AssertExpectations(t)
	outbox.AssertExpectations(t)
}

func TestJobRunner_Errors(t *testing.T) {
	jr, outbox, fees := newRunner()
	fees.On("Refresh", mock.Anything).Return(decimal.Zero, errors.New("db down"))
	outbox.On("Dispatch", mock.Anything).Return(nil, errors.New("db down"))
	outbox.On("RequestReceipts", mock.Anything).Return(0, errors.New("db down"))

	assert.NotPanics(t, jr.RunAll)
	outbox.AssertNumberOfCalls(t, "Dispatch", 1)
}

func TestJobRunner_RecoversFromPanic(t *testing.T) {
	jr, outbox, _ := newRunner()
	outbox.On("Dispatch", mock.Anything).Run(func(args mock.Arguments) {
		panic("boom")
	}).Return(nil, nil)

	assert.NotPanics(t, jr.DispatchOutbox)
}

func TestJobRunner_DeadlineIsSet(t *testing.T) {
	jr, outbox, _ := newRunner()
	outbox.On("RequestReceipts", mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	})).Return(0, nil)

	jr.RequestReceipts()
	outbox.AssertExpectations(t)
}
