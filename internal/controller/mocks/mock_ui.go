// Package mocks holds testify mocks of the controller interfaces.
package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/mouse-blink/gorewrite/internal/controller"
	m "github.com/mouse-blink/gorewrite/internal/model"
)

// MockUI is a mock implementation of controller.UI.
type MockUI struct {
	mock.Mock
}

var _ controller.UI = (*MockUI)(nil)

// NewMockUI creates a MockUI whose expectations are asserted on cleanup.
func NewMockUI(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockUI {
	ui := &MockUI{}
	ui.Mock.Test(t)

	t.Cleanup(func() { ui.AssertExpectations(t) })

	return ui
}

// Start provides a mock function.
func (_m *MockUI) Start(options ...controller.StartOption) error {
	ret := _m.Called(options)
	return ret.Error(0)
}

// Close provides a mock function.
func (_m *MockUI) Close() {
	_m.Called()
}

// Wait provides a mock function.
func (_m *MockUI) Wait() {
	_m.Called()
}

// DisplayRecipes provides a mock function.
func (_m *MockUI) DisplayRecipes(recipes []m.RecipeInfo) error {
	ret := _m.Called(recipes)
	return ret.Error(0)
}

// DisplayRoundResults provides a mock function.
func (_m *MockUI) DisplayRoundResults(round int, results []m.Result) {
	_m.Called(round, results)
}

// DisplayRun provides a mock function.
func (_m *MockUI) DisplayRun(run m.Run, err error) error {
	ret := _m.Called(run, err)
	return ret.Error(0)
}
