// Package mocks provides test doubles for the pipeline collaborators.
package mocks

import (
	"context"

	model "github.com/sells-group/appraisal-cli/internal/model"
	mock "github.com/stretchr/testify/mock"
)

// MockPropertyProvider is a mock type for the PropertyProvider interface.
type MockPropertyProvider struct {
	mock.Mock
}

// GetProperty provides a mock function with given fields: ctx, parcelID
func (_m *MockPropertyProvider) GetProperty(ctx context.Context, parcelID string) (*model.SubjectProperty, error) {
	ret := _m.Called(ctx, parcelID)

	if len(ret) == 0 {
		panic("no return value specified for GetProperty")
	}

	var r0 *model.SubjectProperty
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) (*model.SubjectProperty, error)); ok {
		return rf(ctx, parcelID)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) *model.SubjectProperty); ok {
		r0 = rf(ctx, parcelID)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*model.SubjectProperty)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, parcelID)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// FindComparables provides a mock function with given fields: ctx, subject, search
func (_m *MockPropertyProvider) FindComparables(ctx context.Context, subject *model.SubjectProperty, search model.CompSearch) ([]model.ComparableSale, error) {
	ret := _m.Called(ctx, subject, search)

	if len(ret) == 0 {
		panic("no return value specified for FindComparables")
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

// NewMockPropertyProvider creates a new instance of MockPropertyProvider.
func NewMockPropertyProvider(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockPropertyProvider {
	mock := &MockPropertyProvider{}
	mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
