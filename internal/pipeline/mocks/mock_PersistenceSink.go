package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"
)

// MockPersistenceSink is a mock type for the PersistenceSink interface.
type MockPersistenceSink struct {
	mock.Mock
}

// CreateAnalysis provides a mock function with given fields: ctx, parcelID, address
func (_m *MockPersistenceSink) CreateAnalysis(ctx context.Context, parcelID string, address string) (string, error) {
	ret := _m.Called(ctx, parcelID, address)

	if len(ret) == 0 {
		panic("no return value specified for CreateAnalysis")
	}

	var r0 string
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, string) (string, error)); ok {
		return rf(ctx, parcelID, address)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string, string) string); ok {
		r0 = rf(ctx, parcelID, address)
	} else {
		r0 = ret.Get(0).(string)
	}

	if rf, ok := ret.Get(1).(func(context.Context, string, string) error); ok {
		r1 = rf(ctx, parcelID, address)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// StoreApproach provides a mock function with given fields: ctx, analysisID, approach, data
func (_m *MockPersistenceSink) StoreApproach(ctx context.Context, analysisID string, approach string, data interface{}) error {
	ret := _m.Called(ctx, analysisID, approach, data)

	if len(ret) == 0 {
		panic("no return value specified for StoreApproach")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, string, string, interface{}) error); ok {
		r0 = rf(ctx, analysisID, approach, data)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// NewMockPersistenceSink creates a new instance of MockPersistenceSink.
func NewMockPersistenceSink(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockPersistenceSink {
	mock := &MockPersistenceSink{}
	mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
