package mocks

import (
	"context"

	model "github.com/sells-group/appraisal-cli/internal/model"
	mock "github.com/stretchr/testify/mock"
)

// MockMarketDataProvider is a mock type for the MarketDataProvider interface.
type MockMarketDataProvider struct {
	mock.Mock
}

// GetRentalMarket provides a mock function with given fields: ctx, zip, bedrooms, pt
func (_m *MockMarketDataProvider) GetRentalMarket(ctx context.Context, zip string, bedrooms int, pt model.PropertyType) (*model.RentalMarketStats, error) {
	ret := _m.Called(ctx, zip, bedrooms, pt)

	if len(ret) == 0 {
		panic("no return value specified for GetRentalMarket")
	}

	var r0 *model.RentalMarketStats
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, int, model.PropertyType) (*model.RentalMarketStats, error)); ok {
		return rf(ctx, zip, bedrooms, pt)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string, int, model.PropertyType) *model.RentalMarketStats); ok {
		r0 = rf(ctx, zip, bedrooms, pt)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*model.RentalMarketStats)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string, int, model.PropertyType) error); ok {
		r1 = rf(ctx, zip, bedrooms, pt)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockMarketDataProvider creates a new instance of MockMarketDataProvider.
func NewMockMarketDataProvider(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockMarketDataProvider {
	mock := &MockMarketDataProvider{}
	mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
