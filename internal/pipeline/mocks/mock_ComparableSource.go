package mocks

import (
	"context"

	model "github.com/sells-group/appraisal-cli/internal/model"
	mock "github.com/stretchr/testify/mock"
)

// MockComparableSource is a mock type for the ComparableSource interface.
type MockComparableSource struct {
	mock.Mock
}

// RecentSales provides a mock function with given fields: ctx, subject, search
func (_m *MockComparableSource) RecentSales(ctx context.Context, subject *model.SubjectProperty, search model.CompSearch) ([]model.ComparableSale, error) {
	ret := _m.Called(ctx, subject, search)

	if len(ret) == 0 {
		panic("no return value specified for RecentSales")
	}

	var r0 []model.ComparableSale
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, *model.SubjectProperty, model.CompSearch) ([]model.ComparableSale, error)); ok {
		return rf(ctx, subject, search)
	}
	if rf, ok := ret.Get(0).(func(context.Context, *model.SubjectProperty, model.CompSearch) []model.ComparableSale); ok {
		r0 = rf(ctx, subject, search)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]model.ComparableSale)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, *model.SubjectProperty, model.CompSearch) error); ok {
		r1 = rf(ctx, subject, search)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockComparableSource creates a new instance of MockComparableSource.
func NewMockComparableSource(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockComparableSource {
	mock := &MockComparableSource{}
	mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
