// Package mocks provides testify mocks for procinfo interfaces.
package mocks

import (
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/Cognitive-Stack/mcphub/internal/procinfo"
)

// MockInspector is a mock procinfo.Inspector.
type MockInspector struct {
	mock.Mock
}

var _ procinfo.Inspector = (*MockInspector)(nil)

// NewMockInspector creates a MockInspector whose expectations are asserted
// when the test finishes.
func NewMockInspector(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockInspector {
	m := &MockInspector{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockInspector) Alive(pid int) bool {
	args := m.Called(pid)
	return args.Bool(0)
}

func (m *MockInspector) State(pid int) (procinfo.State, error) {
	args := m.Called(pid)
	return args.Get(0).(procinfo.State), args.Error(1)
}

func (m *MockInspector) CreateTime(pid int) (time.Time, error) {
	args := m.Called(pid)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *MockInspector) ListeningPorts(pid int) ([]int, error) {
	args := m.Called(pid)
	ports, _ := args.Get(0).([]int)
	return ports, args.Error(1)
}

func (m *MockInspector) Descendants(pid int) ([]int, error) {
	args := m.Called(pid)
	pids, _ := args.Get(0).([]int)
	return pids, args.Error(1)
}

func (m *MockInspector) Terminate(pid int) error {
	return m.Called(pid).Error(0)
}

func (m *MockInspector) Kill(pid int) error {
	return m.Called(pid).Error(0)
}
