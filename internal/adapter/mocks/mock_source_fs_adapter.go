package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/mouse-blink/gorewrite/internal/adapter"
	m "github.com/mouse-blink/gorewrite/internal/model"
)

// MockSourceFSAdapter is a mock implementation of adapter.SourceFSAdapter.
type MockSourceFSAdapter struct {
	mock.Mock
}

var _ adapter.SourceFSAdapter = (*MockSourceFSAdapter)(nil)

// NewMockSourceFSAdapter creates a MockSourceFSAdapter whose expectations
// are asserted on cleanup.
func NewMockSourceFSAdapter(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockSourceFSAdapter {
	fs := &MockSourceFSAdapter{}
	fs.Mock.Test(t)

	t.Cleanup(func() { fs.AssertExpectations(t) })

	return fs
}

// FindProjectRoot provides a mock function.
func (_m *MockSourceFSAdapter) FindProjectRoot(startPath m.Path) (m.Path, error) {
	ret := _m.Called(startPath)
	return ret.Get(0).(m.Path), ret.Error(1)
}

// WriteResults provides a mock function.
func (_m *MockSourceFSAdapter) WriteResults(ctx context.Context, root m.Path, results []m.Result) error {
	ret := _m.Called(ctx, root, results)
	return ret.Error(0)
}

// WritePatch provides a mock function.
func (_m *MockSourceFSAdapter) WritePatch(path m.Path, results []m.Result) error {
	ret := _m.Called(path, results)
	return ret.Error(0)
}
