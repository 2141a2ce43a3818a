// Mock of symex/pkg/memif's Bus interface, laid out the way MockGen
// writes one (not generated by it).

package memif_test

import (
	reflect "reflect"

	gomock "github.com/golang/mock/gomock"

	memif "symex/pkg/memif"
)

// MockBus is a mock of the Bus interface, hand-written in the shape
// mockgen produces — grounded on sarchlab-zeonica's api.MockPort/MockDevice
// usage in api/driver_internal_test.go, which this package has no real
// guest-ISA bus to generate one from automatically.
type MockBus struct {
	ctrl     *gomock.Controller
	recorder *MockBusMockRecorder
}

// MockBusMockRecorder is the mock recorder for MockBus.
type MockBusMockRecorder struct {
	mock *MockBus
}

// NewMockBus creates a new mock instance.
func NewMockBus(ctrl *gomock.Controller) *MockBus {
	mock := &MockBus{ctrl: ctrl}
	mock.recorder = &MockBusMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockBus) EXPECT() *MockBusMockRecorder {
	return m.recorder
}

// Transact mocks base method.
func (m *MockBus) Transact(tx *memif.Transaction) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Transact", tx)
	ret0, _ := ret[0].(error)
	return ret0
}

// Transact indicates an expected call of Transact.
func (mr *MockBusMockRecorder) Transact(tx interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Transact", reflect.TypeOf((*MockBus)(nil).Transact), tx)
}
