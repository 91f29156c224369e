// Package mocks holds testify mocks of the adapter interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/mouse-blink/gorewrite/internal/adapter"
	m "github.com/mouse-blink/gorewrite/internal/model"
)

// MockReportStore is a mock implementation of adapter.ReportStore.
type MockReportStore struct {
	mock.Mock
}

var _ adapter.ReportStore = (*MockReportStore)(nil)

// NewMockReportStore creates a MockReportStore whose expectations are
// asserted on cleanup.
func NewMockReportStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockReportStore {
	store := &MockReportStore{}
	store.Mock.Test(t)

	t.Cleanup(func() { store.AssertExpectations(t) })

	return store
}

// SaveRun provides a mock function.
func (_m *MockReportStore) SaveRun(ctx context.Context, run m.Run) error {
	ret := _m.Called(ctx, run)
	return ret.Error(0)
}

// LatestRun provides a mock function.
func (_m *MockReportStore) LatestRun(ctx context.Context) (m.Run, error) {
	ret := _m.Called(ctx)
	return ret.Get(0).(m.Run), ret.Error(1)
}

// ListRuns provides a mock function.
func (_m *MockReportStore) ListRuns(ctx context.Context, limit int) ([]m.Run, error) {
	ret := _m.Called(ctx, limit)

	var runs []m.Run
	if v := ret.Get(0); v != nil {
		runs = v.([]m.Run)
	}

	return runs, ret.Error(1)
}

// Close provides a mock function.
func (_m *MockReportStore) Close() error {
	ret := _m.Called()
	return ret.Error(0)
}
