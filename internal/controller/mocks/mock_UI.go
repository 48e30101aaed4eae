// Package mocks provides testify mocks of the controller interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	controller "gooze.dev/pkg/unitmut/internal/controller"
	m "gooze.dev/pkg/unitmut/internal/model"
)

// MockUI is a mock of controller.UI.
type MockUI struct {
	mock.Mock
}

var _ controller.UI = (*MockUI)(nil)

// NewMockUI creates a MockUI whose expectations are asserted on cleanup.
func NewMockUI(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockUI {
	mockUI := &MockUI{}
	mockUI.Mock.Test(t)

	t.Cleanup(func() { mockUI.AssertExpectations(t) })

	return mockUI
}

// MockUI_Expecter records typed expectations.
type MockUI_Expecter struct {
	mock *mock.Mock
}

// EXPECT returns the typed expectation builder.
func (_m *MockUI) EXPECT() *MockUI_Expecter {
	return &MockUI_Expecter{mock: &_m.Mock}
}

func (_m *MockUI) Start(ctx context.Context, options ...controller.StartOption) error {
	args := []any{ctx}
	for _, option := range options {
		args = append(args, option)
	}

	ret := _m.Called(args...)

	return ret.Error(0)
}

// Start expects a Start call. Options are matched positionally after ctx.
func (_e *MockUI_Expecter) Start(ctx any, options ...any) *mock.Call {
	return _e.mock.On("Start", append([]any{ctx}, options...)...)
}

func (_m *MockUI) Close(ctx context.Context) {
	_m.Called(ctx)
}

// Close expects a Close call.
func (_e *MockUI_Expecter) Close(ctx any) *mock.Call {
	return _e.mock.On("Close", ctx)
}

func (_m *MockUI) Wait(ctx context.Context) {
	_m.Called(ctx)
}

// Wait expects a Wait call.
func (_e *MockUI_Expecter) Wait(ctx any) *mock.Call {
	return _e.mock.On("Wait", ctx)
}

func (_m *MockUI) DisplayMutants(ctx context.Context, mutants []m.Mutant, err error) error {
	ret := _m.Called(ctx, mutants, err)

	return ret.Error(0)
}

// DisplayMutants expects a DisplayMutants call.
func (_e *MockUI_Expecter) DisplayMutants(ctx, mutants, err any) *mock.Call {
	return _e.mock.On("DisplayMutants", ctx, mutants, err)
}

func (_m *MockUI) DisplayUnits(ctx context.Context, units []m.TestUnit, err error) error {
	ret := _m.Called(ctx, units, err)

	return ret.Error(0)
}

// DisplayUnits expects a DisplayUnits call.
func (_e *MockUI_Expecter) DisplayUnits(ctx, units, err any) *mock.Call {
	return _e.mock.On("DisplayUnits", ctx, units, err)
}

func (_m *MockUI) DisplayBaseline(ctx context.Context, result m.TestResult) {
	_m.Called(ctx, result)
}

// DisplayBaseline expects a DisplayBaseline call.
func (_e *MockUI_Expecter) DisplayBaseline(ctx, result any) *mock.Call {
	return _e.mock.On("DisplayBaseline", ctx, result)
}

func (_m *MockUI) DisplayConcurrencyInfo(ctx context.Context, threads int, shardIndex int, shardCount int) {
	_m.Called(ctx, threads, shardIndex, shardCount)
}

// DisplayConcurrencyInfo expects a DisplayConcurrencyInfo call.
func (_e *MockUI_Expecter) DisplayConcurrencyInfo(ctx, threads, shardIndex, shardCount any) *mock.Call {
	return _e.mock.On("DisplayConcurrencyInfo", ctx, threads, shardIndex, shardCount)
}

func (_m *MockUI) DisplayUpcomingTestsInfo(ctx context.Context, count int) {
	_m.Called(ctx, count)
}

// DisplayUpcomingTestsInfo expects a DisplayUpcomingTestsInfo call.
func (_e *MockUI_Expecter) DisplayUpcomingTestsInfo(ctx, count any) *mock.Call {
	return _e.mock.On("DisplayUpcomingTestsInfo", ctx, count)
}

func (_m *MockUI) DisplayStartingTestInfo(ctx context.Context, mutant m.Mutant, threadID int) {
	_m.Called(ctx, mutant, threadID)
}

// DisplayStartingTestInfo expects a DisplayStartingTestInfo call.
func (_e *MockUI_Expecter) DisplayStartingTestInfo(ctx, mutant, threadID any) *mock.Call {
	return _e.mock.On("DisplayStartingTestInfo", ctx, mutant, threadID)
}

func (_m *MockUI) DisplayCompletedTestInfo(ctx context.Context, mutant m.Mutant, verdict m.Verdict) {
	_m.Called(ctx, mutant, verdict)
}

// DisplayCompletedTestInfo expects a DisplayCompletedTestInfo call.
func (_e *MockUI_Expecter) DisplayCompletedTestInfo(ctx, mutant, verdict any) *mock.Call {
	return _e.mock.On("DisplayCompletedTestInfo", ctx, mutant, verdict)
}

func (_m *MockUI) DisplayReport(ctx context.Context, report m.Report) error {
	ret := _m.Called(ctx, report)

	return ret.Error(0)
}

// DisplayReport expects a DisplayReport call.
func (_e *MockUI_Expecter) DisplayReport(ctx, report any) *mock.Call {
	return _e.mock.On("DisplayReport", ctx, report)
}

func (_m *MockUI) DisplayMutationScore(ctx context.Context, score float64) {
	_m.Called(ctx, score)
}

// DisplayMutationScore expects a DisplayMutationScore call.
func (_e *MockUI_Expecter) DisplayMutationScore(ctx, score any) *mock.Call {
	return _e.mock.On("DisplayMutationScore", ctx, score)
}
