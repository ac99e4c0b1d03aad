package irq

import (
	"math/bits"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/usbtap/event"
	"github.com/ardnew/usbtap/hal"
	"github.com/ardnew/usbtap/hal/sim"
	"github.com/ardnew/usbtap/trace"
	"github.com/ardnew/usbtap/usb"
)

// getDeviceDescriptor is GET_DESCRIPTOR(DEVICE, 0) for 18 bytes.
var getDeviceDescriptor = []byte{0x80, 0x06, 0x00, 0x01, 0x00, 0x00, 0x12, 0x00}

func newClassifier(t *testing.T, opts ...Option) (*sim.Board, *Classifier) {
	t.Helper()
	b := sim.NewBoard()
	return b, NewClassifier(b.Controllers(), &b.IntC, DefaultConfig(), opts...)
}

// stimulusEndpoint is the endpoint used when raising bit (role, i) in the
// priority test, chosen so every pair is distinguishable.
func stimulusEndpoint(role usb.Role, i hal.Interrupt) uint8 {
	return uint8(role)*4 + uint8(i) + 1
}

func expectedEvent(role usb.Role, i hal.Interrupt) event.InterruptEvent {
	ep := stimulusEndpoint(role, i)
	switch i {
	case hal.InterruptBusReset:
		return event.Usb(role, event.BusReset())
	case hal.InterruptEndpointControl:
		if role == usb.RoleControl {
			return event.Usb(role, event.ReceiveControl(ep))
		}
		var raw [usb.SetupPacketSize]byte
		copy(raw[:], getDeviceDescriptor)
		return event.Usb(role, event.ReceiveSetupPacket(ep, usb.SetupPacketFromArray(raw)))
	case hal.InterruptEndpointOut:
		return event.Usb(role, event.ReceivePacket(ep))
	default:
		return event.Usb(role, event.SendComplete(ep))
	}
}

func TestClassify_PriorityAllCombinations(t *testing.T) {
	const all = 1<<(usb.NumRoles*hal.NumInterrupts) - 1

	for mask := uint32(1); mask <= all; mask++ {
		b, c := newClassifier(t)
		for bit := uint(0); bit < usb.NumRoles*uint(hal.NumInterrupts); bit++ {
			if mask&(1<<bit) == 0 {
				continue
			}
			role := usb.Role(bit / uint(hal.NumInterrupts))
			i := hal.Interrupt(bit % uint(hal.NumInterrupts))
			var data []byte
			if i == hal.InterruptEndpointControl {
				data = getDeviceDescriptor
			}
			require.NoError(t, b.Controller(role).Raise(i, stimulusEndpoint(role, i), data))
		}
		require.Equal(t, mask, b.IntC.Pending())

		first := uint(bits.TrailingZeros32(mask))
		role := usb.Role(first / uint(hal.NumInterrupts))
		i := hal.Interrupt(first % uint(hal.NumInterrupts))

		got := c.Classify()
		require.Equal(t, expectedEvent(role, i), got, "mask 0x%03X", mask)
		require.Equal(t, mask&^(1<<first), b.IntC.Pending(), "mask 0x%03X: only the serviced bit may clear", mask)
	}
}

func TestClassify_DrainsInPriorityOrder(t *testing.T) {
	b, c := newClassifier(t)
	aux := b.Controller(usb.RoleAux)
	tgt := b.Controller(usb.RoleTarget)

	require.NoError(t, aux.RaiseIn(3))
	require.NoError(t, tgt.RaiseOut(1, []byte{0xAA}))
	tgt.RaiseBusReset()

	want := []event.InterruptEvent{
		event.Usb(usb.RoleTarget, event.BusReset()),
		event.Usb(usb.RoleTarget, event.ReceivePacket(1)),
		event.Usb(usb.RoleAux, event.SendComplete(3)),
		event.UnhandledInterrupt(0),
	}
	for _, w := range want {
		assert.Equal(t, w, c.Classify())
	}
}

func TestClassify_NothingPending(t *testing.T) {
	_, c := newClassifier(t)
	ev := c.Classify()
	assert.Equal(t, event.KindUnhandledInterrupt, ev.Kind)
	assert.Equal(t, uint32(0), ev.Pending)
}

func TestClassify_UnhandledCarriesSnapshot(t *testing.T) {
	// The target line is pending but no target controller is attached, so
	// nothing can service it.
	b := sim.NewBoard()
	var ctrls hal.Controllers
	ctrls[usb.RoleAux] = b.Controller(usb.RoleAux)
	require.NoError(t, b.Controller(usb.RoleTarget).RaiseIn(0))

	c := NewClassifier(ctrls, &b.IntC, DefaultConfig())
	bit := hal.Bit(usb.RoleTarget, hal.InterruptEndpointIn)
	assert.Equal(t, event.UnhandledInterrupt(bit), c.Classify())
	assert.Equal(t, bit, b.IntC.Pending(), "unhandled bits stay pending")
}

func TestClassify_EmptySetupRead(t *testing.T) {
	tests := []struct {
		role usb.Role
		want string
	}{
		{usb.RoleTarget, "ERROR USB0 received 0 bytes for setup packet"},
		{usb.RoleAux, "ERROR USB1 received 0 bytes for setup packet"},
	}
	for _, tt := range tests {
		t.Run(tt.role.String(), func(t *testing.T) {
			b, c := newClassifier(t)
			require.NoError(t, b.Controller(tt.role).RaiseSetup(0, nil))

			ev := c.Classify()
			assert.Equal(t, event.ErrorMessage(tt.want), ev)
			assert.False(t, ev.IsUsb(event.UsbReceiveSetupPacket))
			assert.Zero(t, b.IntC.Pending(), "condition must be cleared")
		})
	}
}

func TestClassify_ExtractRoleForcesRead(t *testing.T) {
	b := sim.NewBoard()
	cfg := DefaultConfig()
	cfg.Extract[usb.RoleControl] = true
	c := NewClassifier(b.Controllers(), &b.IntC, cfg)

	require.NoError(t, b.Controller(usb.RoleControl).RaiseSetup(0, nil))
	assert.Equal(t, event.ErrorMessage("ERROR USB2 received 0 bytes for setup packet"), c.Classify())
}

func TestClassify_ControlRoleDefersSetup(t *testing.T) {
	b, c := newClassifier(t)
	ctl := b.Controller(usb.RoleControl)
	require.NoError(t, ctl.RaiseSetup(2, getDeviceDescriptor))

	assert.Equal(t, event.Usb(usb.RoleControl, event.ReceiveControl(2)), c.Classify())
	assert.Equal(t, usb.SetupPacketSize, ctl.ControlLen(), "control FIFO must be left for task code")
	assert.Equal(t, 1, ctl.Cleared(hal.InterruptEndpointControl))
}

func TestClassify_ShortSetupRead(t *testing.T) {
	b, c := newClassifier(t)
	require.NoError(t, b.Controller(usb.RoleTarget).RaiseSetup(0, []byte{0x00, 0x05, 0x07}))

	ev := c.Classify()
	require.True(t, ev.IsUsb(event.UsbReceiveSetupPacket))
	assert.Equal(t, uint8(usb.RequestSetAddress), ev.Usb.Setup.Request)
	assert.Equal(t, uint16(7), ev.Usb.Setup.Value)
	assert.Zero(t, ev.Usb.Setup.Length)
}

func TestClassify_BusResetRunsSequence(t *testing.T) {
	b, c := newClassifier(t)
	tgt := b.Controller(usb.RoleTarget)
	tgt.SetAddress(9)
	require.True(t, tgt.TxAck().Arm(1))
	tgt.RaiseBusReset()

	assert.Equal(t, event.Usb(usb.RoleTarget, event.BusReset()), c.Classify())
	assert.Equal(t, 1, tgt.BusResets())
	assert.Zero(t, tgt.Address())
	assert.False(t, tgt.TxAck().Active(1))
}

// callLog wraps a controller and records FIFO and acknowledge accesses in
// the order the classifier makes them. afterClear, when set, runs after
// each ClearPending reaches the wrapped controller.
type callLog struct {
	hal.Controller
	calls      []string
	afterClear func(hal.Interrupt)
}

func (l *callLog) ClearPending(i hal.Interrupt) {
	l.calls = append(l.calls, "ClearPending("+i.String()+")")
	l.Controller.ClearPending(i)
	if l.afterClear != nil {
		l.afterClear(i)
	}
}

func (l *callLog) BusReset() {
	l.calls = append(l.calls, "BusReset")
	l.Controller.BusReset()
}

func (l *callLog) ReadControl(buf []byte) int {
	l.calls = append(l.calls, "ReadControl")
	return l.Controller.ReadControl(buf)
}

func (l *callLog) ReadPacket(buf []byte) int {
	l.calls = append(l.calls, "ReadPacket")
	return l.Controller.ReadPacket(buf)
}

func TestClassify_HardwareAccessOrder(t *testing.T) {
	tests := []struct {
		name  string
		role  usb.Role
		cfg   func(*Config)
		raise func(*sim.Controller) error
		want  []string
	}{
		{
			name:  "bus reset clears before reset",
			role:  usb.RoleTarget,
			raise: func(c *sim.Controller) error { c.RaiseBusReset(); return nil },
			want:  []string{"ClearPending(bus-reset)", "BusReset"},
		},
		{
			name:  "setup read before clear",
			role:  usb.RoleAux,
			raise: func(c *sim.Controller) error { return c.RaiseSetup(0, getDeviceDescriptor) },
			want:  []string{"ReadControl", "ClearPending(control)"},
		},
		{
			name:  "empty setup read before clear",
			role:  usb.RoleTarget,
			raise: func(c *sim.Controller) error { return c.RaiseSetup(0, nil) },
			want:  []string{"ReadControl", "ClearPending(control)"},
		},
		{
			name:  "deferred setup leaves FIFO",
			role:  usb.RoleControl,
			raise: func(c *sim.Controller) error { return c.RaiseSetup(0, getDeviceDescriptor) },
			want:  []string{"ClearPending(control)"},
		},
		{
			name:  "out without capture",
			role:  usb.RoleTarget,
			raise: func(c *sim.Controller) error { return c.RaiseOut(1, []byte{1}) },
			want:  []string{"ClearPending(out)"},
		},
		{
			name:  "captured out read before clear",
			role:  usb.RoleTarget,
			cfg:   func(c *Config) { c.Capture[usb.RoleTarget] = true },
			raise: func(c *sim.Controller) error { return c.RaiseOut(1, []byte{1}) },
			want:  []string{"ReadPacket", "ClearPending(out)"},
		},
		{
			name:  "in",
			role:  usb.RoleAux,
			raise: func(c *sim.Controller) error { return c.RaiseIn(1) },
			want:  []string{"ClearPending(in)"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := sim.NewBoard()
			ctrls := b.Controllers()
			log := &callLog{Controller: ctrls[tt.role]}
			ctrls[tt.role] = log
			cfg := DefaultConfig()
			if tt.cfg != nil {
				tt.cfg(&cfg)
			}
			c := NewClassifier(ctrls, &b.IntC, cfg)

			require.NoError(t, tt.raise(b.Controller(tt.role)))
			c.Classify()
			assert.Equal(t, tt.want, log.calls)
		})
	}
}

func TestClassify_CaptureKeepsPacketArrivingAfterClear(t *testing.T) {
	b := sim.NewBoard()
	tgt := b.Controller(usb.RoleTarget)
	ctrls := b.Controllers()
	second := false
	log := &callLog{Controller: tgt}
	log.afterClear = func(i hal.Interrupt) {
		if i == hal.InterruptEndpointOut && !second {
			second = true
			require.NoError(t, tgt.RaiseOut(2, []byte("second")))
		}
	}
	ctrls[usb.RoleTarget] = log
	cfg := DefaultConfig()
	cfg.Capture[usb.RoleTarget] = true
	c := NewClassifier(ctrls, &b.IntC, cfg)

	require.NoError(t, tgt.RaiseOut(1, []byte("first")))

	assert.Equal(t, event.Usb(usb.RoleTarget, event.ReceivePacket(1)), c.Classify())
	pkt, ok := c.Captured()
	require.True(t, ok)
	assert.Equal(t, uint8(1), pkt.Endpoint)
	assert.Equal(t, "first", string(pkt.Data()))

	assert.Equal(t, event.Usb(usb.RoleTarget, event.ReceivePacket(2)), c.Classify())
	pkt, ok = c.Captured()
	require.True(t, ok)
	assert.Equal(t, uint8(2), pkt.Endpoint)
	assert.Equal(t, "second", string(pkt.Data()))
	assert.Zero(t, b.IntC.Pending())
}

func TestClassify_CapturedOnlyForCapturingOut(t *testing.T) {
	b := sim.NewBoard()
	cfg := DefaultConfig()
	cfg.Capture[usb.RoleAux] = true
	c := NewClassifier(b.Controllers(), &b.IntC, cfg)
	aux := b.Controller(usb.RoleAux)

	_, ok := c.Captured()
	assert.False(t, ok)

	require.NoError(t, aux.RaiseOut(3, []byte{0xAA, 0xBB}))
	c.Classify()
	pkt, ok := c.Captured()
	require.True(t, ok)
	assert.Equal(t, usb.RoleAux, pkt.Role)
	assert.Equal(t, []byte{0xAA, 0xBB}, pkt.Data())
	assert.Zero(t, aux.OutLen())

	require.NoError(t, aux.RaiseIn(3))
	c.Classify()
	_, ok = c.Captured()
	assert.False(t, ok, "an IN condition captures nothing")

	require.NoError(t, b.Controller(usb.RoleTarget).RaiseOut(1, []byte{1}))
	c.Classify()
	_, ok = c.Captured()
	assert.False(t, ok, "target does not capture")
	assert.Equal(t, 1, b.Controller(usb.RoleTarget).OutLen(), "FIFO left for task code")
}

func TestService_UnknownConditionIgnored(t *testing.T) {
	b, c := newClassifier(t)
	aux := b.Controller(usb.RoleAux)
	require.True(t, aux.TxAck().Arm(0))
	log := &callLog{Controller: aux}

	ev := c.service(log, usb.RoleAux, hal.NumInterrupts)
	assert.Equal(t, event.KindUnhandledInterrupt, ev.Kind)
	assert.Empty(t, log.calls)
	assert.True(t, aux.TxAck().Active(0), "not treated as send-complete")
}

func TestClassify_SendCompleteReleasesTxAck(t *testing.T) {
	for _, role := range usb.Roles {
		t.Run(role.String(), func(t *testing.T) {
			b, c := newClassifier(t)
			ctrl := b.Controller(role)
			ack := ctrl.TxAck()

			require.True(t, ack.Arm(4))
			require.True(t, ack.Arm(5))
			assert.False(t, ack.Arm(4), "second arm must fail while in flight")

			require.NoError(t, ctrl.RaiseIn(4))
			assert.Equal(t, event.Usb(role, event.SendComplete(4)), c.Classify())
			assert.False(t, ack.Active(4))
			assert.True(t, ack.Active(5), "other endpoints are untouched")
			assert.True(t, ack.Arm(4))
		})
	}
}

func TestClassify_TracerIsObservational(t *testing.T) {
	stimulate := func(b *sim.Board) {
		tgt := b.Controller(usb.RoleTarget)
		require.NoError(t, tgt.RaiseSetup(0, getDeviceDescriptor))
		require.NoError(t, tgt.RaiseOut(1, []byte{1, 2, 3}))
		require.NoError(t, tgt.RaiseIn(2))
		tgt.RaiseBusReset()
		require.NoError(t, b.Controller(usb.RoleAux).RaiseOut(0, []byte{4}))
	}

	nopBoard, nop := newClassifier(t)
	rec := trace.NewRecorder()
	recBoard, traced := newClassifier(t, WithTracer(rec))
	stimulate(nopBoard)
	stimulate(recBoard)

	for range 6 {
		assert.Equal(t, nop.Classify(), traced.Classify())
	}

	assert.Equal(t, uint32(1), rec.Count(trace.ChannelA, trace.MarkerIRQBusReset))
	assert.Equal(t, uint32(1), rec.Count(trace.ChannelB, trace.MarkerIRQEPControl))
	assert.Equal(t, uint32(1), rec.Count(trace.ChannelB, trace.MarkerIRQEPOut))
	assert.Equal(t, uint32(1), rec.Count(trace.ChannelB, trace.MarkerIRQEPIn))
	assert.Equal(t, uint32(1), rec.Count(trace.ChannelB, trace.MarkerEPIs0))
	assert.Equal(t, uint32(1), rec.Count(trace.ChannelB, trace.MarkerEPIs1))
	// Four branches and two endpoint pulses, two edges each. The aux OUT
	// branch is not traced.
	assert.Equal(t, uint64(12), rec.Total())
}

func TestClassify_TraceOrdering(t *testing.T) {
	rec := trace.NewRecorder()
	b, c := newClassifier(t, WithTracer(rec))
	require.NoError(t, b.Controller(usb.RoleTarget).RaiseOut(0, nil))
	c.Classify()

	samples := make([]trace.Sample, 8)
	n := rec.Samples(samples)
	require.Equal(t, 4, n)
	want := []struct {
		m trace.Marker
		e trace.Edge
	}{
		{trace.MarkerIRQEPOut, trace.EdgeEnter},
		{trace.MarkerEPIs0, trace.EdgeEnter},
		{trace.MarkerEPIs0, trace.EdgeExit},
		{trace.MarkerIRQEPOut, trace.EdgeExit},
	}
	for k, w := range want {
		assert.Equal(t, trace.ChannelB, samples[k].Channel)
		assert.Equal(t, w.m, samples[k].Marker, "sample %d", k)
		assert.Equal(t, w.e, samples[k].Edge, "sample %d", k)
	}
}

func TestClassify_NilTracer(t *testing.T) {
	b, c := newClassifier(t, WithTracer(nil))
	b.Controller(usb.RoleTarget).RaiseBusReset()
	assert.Equal(t, event.Usb(usb.RoleTarget, event.BusReset()), c.Classify())
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, cfg.Extract[usb.RoleTarget])
	assert.True(t, cfg.Extract[usb.RoleAux])
	assert.False(t, cfg.Extract[usb.RoleControl])

	_, c := newClassifier(t)
	assert.Equal(t, cfg, c.Config())
}
