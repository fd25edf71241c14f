// Code style mirrors go.uber.org/mock/mockgen's -typed output (as the
// teacher generates for internal/mocks/congestion.go et al. via
// internal/mocks/mockgen.go); hand-authored here since mockgen cannot be
// run in this environment. Each mock covers the full method set of its
// interface, including ConnectionInfo.ConnectionID, which LossDetector
// never calls.
package recovery

import (
	"reflect"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/flowcore/qrecovery/internal/congestion"
	"github.com/flowcore/qrecovery/internal/protocol"
)

type congestionDescriptor = congestion.Descriptor

// MockCongestionController is a mock of the CongestionController
// interface.
type MockCongestionController struct {
	ctrl     *gomock.Controller
	recorder *MockCongestionControllerMockRecorder
}

type MockCongestionControllerMockRecorder struct{ mock *MockCongestionController }

func NewMockCongestionController(ctrl *gomock.Controller) *MockCongestionController {
	m := &MockCongestionController{ctrl: ctrl}
	m.recorder = &MockCongestionControllerMockRecorder{m}
	return m
}

func (m *MockCongestionController) EXPECT() *MockCongestionControllerMockRecorder {
	return m.recorder
}

func (m *MockCongestionController) OnPacketSent(sentBytes protocol.ByteCount) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "OnPacketSent", sentBytes)
}

func (mr *MockCongestionControllerMockRecorder) OnPacketSent(sentBytes interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "OnPacketSent", reflect.TypeOf((*MockCongestionController)(nil).OnPacketSent), sentBytes)
}

func (m *MockCongestionController) OnPacketAcked(d *congestionDescriptor) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "OnPacketAcked", d)
}

func (mr *MockCongestionControllerMockRecorder) OnPacketAcked(d interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "OnPacketAcked", reflect.TypeOf((*MockCongestionController)(nil).OnPacketAcked), d)
}

func (m *MockCongestionController) OnPacketsLost(lost map[protocol.PacketNumber]*congestionDescriptor) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "OnPacketsLost", lost)
}

func (mr *MockCongestionControllerMockRecorder) OnPacketsLost(lost interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "OnPacketsLost", reflect.TypeOf((*MockCongestionController)(nil).OnPacketsLost), lost)
}

func (m *MockCongestionController) ProcessECN(d *congestionDescriptor, ect0, ect1, ecnce uint64) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "ProcessECN", d, ect0, ect1, ecnce)
}

func (mr *MockCongestionControllerMockRecorder) ProcessECN(d, ect0, ect1, ecnce interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ProcessECN", reflect.TypeOf((*MockCongestionController)(nil).ProcessECN), d, ect0, ect1, ecnce)
}

func (m *MockCongestionController) AddExtraCredit() {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "AddExtraCredit")
}

func (mr *MockCongestionControllerMockRecorder) AddExtraCredit() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "AddExtraCredit", reflect.TypeOf((*MockCongestionController)(nil).AddExtraCredit))
}

// MockPinger is a mock of the Pinger interface.
type MockPinger struct {
	ctrl     *gomock.Controller
	recorder *MockPingerMockRecorder
}

type MockPingerMockRecorder struct{ mock *MockPinger }

func NewMockPinger(ctrl *gomock.Controller) *MockPinger {
	m := &MockPinger{ctrl: ctrl}
	m.recorder = &MockPingerMockRecorder{m}
	return m
}

func (m *MockPinger) EXPECT() *MockPingerMockRecorder { return m.recorder }

func (m *MockPinger) Request(level protocol.EncryptionLevel) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "Request", level)
}

func (mr *MockPingerMockRecorder) Request(level interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Request", reflect.TypeOf((*MockPinger)(nil).Request), level)
}

// MockPadder is a mock of the Padder interface.
type MockPadder struct {
	ctrl     *gomock.Controller
	recorder *MockPadderMockRecorder
}

type MockPadderMockRecorder struct{ mock *MockPadder }

func NewMockPadder(ctrl *gomock.Controller) *MockPadder {
	m := &MockPadder{ctrl: ctrl}
	m.recorder = &MockPadderMockRecorder{m}
	return m
}

func (m *MockPadder) EXPECT() *MockPadderMockRecorder { return m.recorder }

func (m *MockPadder) Request(level protocol.EncryptionLevel) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "Request", level)
}

func (mr *MockPadderMockRecorder) Request(level interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Request", reflect.TypeOf((*MockPadder)(nil).Request), level)
}

// MockKeyInfo is a mock of the KeyInfo interface.
type MockKeyInfo struct {
	ctrl     *gomock.Controller
	recorder *MockKeyInfoMockRecorder
}

type MockKeyInfoMockRecorder struct{ mock *MockKeyInfo }

func NewMockKeyInfo(ctrl *gomock.Controller) *MockKeyInfo {
	m := &MockKeyInfo{ctrl: ctrl}
	m.recorder = &MockKeyInfoMockRecorder{m}
	return m
}

func (m *MockKeyInfo) EXPECT() *MockKeyInfoMockRecorder { return m.recorder }

func (m *MockKeyInfo) IsEncryptionKeyAvailable(phase protocol.KeyPhase) bool {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "IsEncryptionKeyAvailable", phase)
	ret0, _ := ret[0].(bool)
	return ret0
}

func (mr *MockKeyInfoMockRecorder) IsEncryptionKeyAvailable(phase interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "IsEncryptionKeyAvailable", reflect.TypeOf((*MockKeyInfo)(nil).IsEncryptionKeyAvailable), phase)
}

func (m *MockKeyInfo) IsDecryptionKeyAvailable(phase protocol.KeyPhase) bool {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "IsDecryptionKeyAvailable", phase)
	ret0, _ := ret[0].(bool)
	return ret0
}

func (mr *MockKeyInfoMockRecorder) IsDecryptionKeyAvailable(phase interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "IsDecryptionKeyAvailable", reflect.TypeOf((*MockKeyInfo)(nil).IsDecryptionKeyAvailable), phase)
}

// MockConnectionInfo is a mock of the ConnectionInfo interface.
type MockConnectionInfo struct {
	ctrl     *gomock.Controller
	recorder *MockConnectionInfoMockRecorder
}

type MockConnectionInfoMockRecorder struct{ mock *MockConnectionInfo }

func NewMockConnectionInfo(ctrl *gomock.Controller) *MockConnectionInfo {
	m := &MockConnectionInfo{ctrl: ctrl}
	m.recorder = &MockConnectionInfoMockRecorder{m}
	return m
}

func (m *MockConnectionInfo) EXPECT() *MockConnectionInfoMockRecorder { return m.recorder }

func (m *MockConnectionInfo) Direction() Direction {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Direction")
	ret0, _ := ret[0].(Direction)
	return ret0
}

func (mr *MockConnectionInfoMockRecorder) Direction() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Direction", reflect.TypeOf((*MockConnectionInfo)(nil).Direction))
}

func (m *MockConnectionInfo) ConnectionID() string {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ConnectionID")
	ret0, _ := ret[0].(string)
	return ret0
}

func (mr *MockConnectionInfoMockRecorder) ConnectionID() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ConnectionID", reflect.TypeOf((*MockConnectionInfo)(nil).ConnectionID))
}

func (m *MockConnectionInfo) AddressValidated() bool {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "AddressValidated")
	ret0, _ := ret[0].(bool)
	return ret0
}

func (mr *MockConnectionInfoMockRecorder) AddressValidated() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "AddressValidated", reflect.TypeOf((*MockConnectionInfo)(nil).AddressValidated))
}

// MockContext is a mock of the Context interface.
type MockContext struct {
	ctrl     *gomock.Controller
	recorder *MockContextMockRecorder
}

type MockContextMockRecorder struct{ mock *MockContext }

func NewMockContext(ctrl *gomock.Controller) *MockContext {
	m := &MockContext{ctrl: ctrl}
	m.recorder = &MockContextMockRecorder{m}
	return m
}

func (m *MockContext) EXPECT() *MockContextMockRecorder { return m.recorder }

func (m *MockContext) Trigger(event Event, info *PacketInfo) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "Trigger", event, info)
}

func (mr *MockContextMockRecorder) Trigger(event, info interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Trigger", reflect.TypeOf((*MockContext)(nil).Trigger), event, info)
}

// MockScheduler is a mock of the Scheduler interface.
type MockScheduler struct {
	ctrl     *gomock.Controller
	recorder *MockSchedulerMockRecorder
}

type MockSchedulerMockRecorder struct{ mock *MockScheduler }

func NewMockScheduler(ctrl *gomock.Controller) *MockScheduler {
	m := &MockScheduler{ctrl: ctrl}
	m.recorder = &MockSchedulerMockRecorder{m}
	return m
}

func (m *MockScheduler) EXPECT() *MockSchedulerMockRecorder { return m.recorder }

func (m *MockScheduler) Start(period time.Duration, fn func(now time.Time)) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "Start", period, fn)
}

func (mr *MockSchedulerMockRecorder) Start(period, fn interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Start", reflect.TypeOf((*MockScheduler)(nil).Start), period, fn)
}

func (m *MockScheduler) Stop() {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "Stop")
}

func (mr *MockSchedulerMockRecorder) Stop() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Stop", reflect.TypeOf((*MockScheduler)(nil).Stop))
}
