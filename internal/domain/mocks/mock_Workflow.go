// Package mocks provides testify mocks of the domain interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	domain "gooze.dev/pkg/unitmut/internal/domain"
)

// MockWorkflow is a mock of domain.Workflow.
type MockWorkflow struct {
	mock.Mock
}

var _ domain.Workflow = (*MockWorkflow)(nil)

// NewMockWorkflow creates a MockWorkflow whose expectations are asserted on
// cleanup.
func NewMockWorkflow(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockWorkflow {
	mockWorkflow := &MockWorkflow{}
	mockWorkflow.Mock.Test(t)

	t.Cleanup(func() { mockWorkflow.AssertExpectations(t) })

	return mockWorkflow
}

// MockWorkflow_Expecter records typed expectations.
type MockWorkflow_Expecter struct {
	mock *mock.Mock
}

// EXPECT returns the typed expectation builder.
func (_m *MockWorkflow) EXPECT() *MockWorkflow_Expecter {
	return &MockWorkflow_Expecter{mock: &_m.Mock}
}

func (_m *MockWorkflow) Run(ctx context.Context, args domain.RunArgs) error {
	return _m.Called(ctx, args).Error(0)
}

// Run expects a Run call.
func (_e *MockWorkflow_Expecter) Run(ctx, args any) *mock.Call {
	return _e.mock.On("Run", ctx, args)
}

func (_m *MockWorkflow) List(ctx context.Context, args domain.ListArgs) error {
	return _m.Called(ctx, args).Error(0)
}

// List expects a List call.
func (_e *MockWorkflow_Expecter) List(ctx, args any) *mock.Call {
	return _e.mock.On("List", ctx, args)
}

func (_m *MockWorkflow) Units(ctx context.Context, args domain.UnitsArgs) error {
	return _m.Called(ctx, args).Error(0)
}

// Units expects a Units call.
func (_e *MockWorkflow_Expecter) Units(ctx, args any) *mock.Call {
	return _e.mock.On("Units", ctx, args)
}

func (_m *MockWorkflow) View(ctx context.Context, args domain.ViewArgs) error {
	return _m.Called(ctx, args).Error(0)
}

// View expects a View call.
func (_e *MockWorkflow_Expecter) View(ctx, args any) *mock.Call {
	return _e.mock.On("View", ctx, args)
}
