package irq

import (
	"github.com/ardnew/usbtap/event"
	"github.com/ardnew/usbtap/hal"
	"github.com/ardnew/usbtap/pkg"
	"github.com/ardnew/usbtap/trace"
	"github.com/ardnew/usbtap/usb"
)

// emptySetup holds the error message reported when a pending setup
// condition yields no bytes, indexed by role.
var emptySetup = [usb.NumRoles]string{
	usb.RoleTarget:  "ERROR USB0 received 0 bytes for setup packet",
	usb.RoleAux:     "ERROR USB1 received 0 bytes for setup packet",
	usb.RoleControl: "ERROR USB2 received 0 bytes for setup packet",
}

// Config selects per-role classifier behavior.
type Config struct {
	// Extract reports, per role, whether a setup condition reads the 8
	// setup bytes inside the interrupt. Roles without extraction report
	// ReceiveControl and leave the control FIFO for task code.
	Extract [usb.NumRoles]bool

	// Capture reports, per role, whether an OUT condition drains the OUT
	// FIFO inside the interrupt. The bytes are available from Captured
	// until the next call to Classify.
	Capture [usb.NumRoles]bool
}

// DefaultConfig extracts setup packets on the target and aux controllers
// and defers them on the control controller.
func DefaultConfig() Config {
	return Config{
		Extract: [usb.NumRoles]bool{
			usb.RoleTarget:  true,
			usb.RoleAux:     true,
			usb.RoleControl: false,
		},
	}
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithTracer sets the tracer that brackets target controller branches.
func WithTracer(t trace.Tracer) Option {
	return func(c *Classifier) {
		c.tracer = t
	}
}

// Classifier converts the pending interrupt state of the three USB
// controllers into one event per call. It owns the controller handles and
// must only be used from the interrupt context.
type Classifier struct {
	ctrls  hal.Controllers
	intc   hal.InterruptController
	cfg    Config
	tracer trace.Tracer

	// Scratch for captured OUT packets; only touched from interrupt context.
	packet   event.ReceivePacketExt
	captured bool
}

// NewClassifier returns a classifier over ctrls. The caller gives up its
// handles; nothing else may touch the controllers afterward. A nil entry
// in ctrls is treated as a controller with nothing pending.
func NewClassifier(ctrls hal.Controllers, intc hal.InterruptController, cfg Config, opts ...Option) *Classifier {
	c := &Classifier{
		ctrls:  ctrls,
		intc:   intc,
		cfg:    cfg,
		tracer: trace.Nop{},
	}
	for _, opt := range opts {
		opt(c)
	}
	pkg.LogDebug(pkg.ComponentIRQ, "classifier configured", "extract", cfg.Extract, "capture", cfg.Capture)
	return c
}

// Config returns the configuration the classifier was built with.
func (c *Classifier) Config() Config {
	return c.cfg
}

// Pending returns the raw pending bits of the interrupt controller.
func (c *Classifier) Pending() uint32 {
	return c.intc.Pending()
}

// Classify services the highest-priority pending condition and returns the
// event describing it. Controllers are checked target, aux, control; within
// a controller, bus reset, control, OUT, IN. Only the serviced condition is
// cleared; anything else stays pending for the next invocation.
//
// With nothing pending it returns UnhandledInterrupt carrying the pending
// mask read on entry.
func (c *Classifier) Classify() event.InterruptEvent {
	pending := c.intc.Pending()
	c.captured = false

	for _, role := range usb.Roles {
		ctrl := c.ctrls[role]
		if ctrl == nil {
			continue
		}
		for _, i := range hal.Interrupts {
			if !ctrl.IsPending(i) {
				continue
			}
			if role == usb.RoleTarget {
				return trace.Do(c.tracer, branchChannel(i), branchMarker(i), func() event.InterruptEvent {
					return c.service(ctrl, role, i)
				})
			}
			return c.service(ctrl, role, i)
		}
	}

	return event.UnhandledInterrupt(pending)
}

func (c *Classifier) service(ctrl hal.Controller, role usb.Role, i hal.Interrupt) event.InterruptEvent {
	switch i {
	case hal.InterruptBusReset:
		ctrl.ClearPending(i)
		ctrl.BusReset()
		return event.Usb(role, event.BusReset())

	case hal.InterruptEndpointControl:
		ep := c.endpoint(ctrl, role, i)
		if !c.cfg.Extract[role] {
			ctrl.ClearPending(i)
			return event.Usb(role, event.ReceiveControl(ep))
		}
		// The FIFO must be read before the condition is cleared. A short
		// read leaves the remaining fields zero.
		var buf [usb.SetupPacketSize]byte
		n := ctrl.ReadControl(buf[:])
		ctrl.ClearPending(i)
		if n == 0 {
			return event.ErrorMessage(emptySetup[role])
		}
		return event.Usb(role, event.ReceiveSetupPacket(ep, usb.SetupPacketFromArray(buf)))

	case hal.InterruptEndpointOut:
		ep := c.endpoint(ctrl, role, i)
		if c.cfg.Capture[role] {
			c.capture(ctrl, role, ep)
		}
		ctrl.ClearPending(i)
		return event.Usb(role, event.ReceivePacket(ep))

	case hal.InterruptEndpointIn:
		ep := c.endpoint(ctrl, role, i)
		ctrl.ClearPending(i)
		ctrl.TxAck().Release(ep)
		return event.Usb(role, event.SendComplete(ep))
	}
	return event.UnhandledInterrupt(c.intc.Pending())
}

// endpoint reads the endpoint number for condition i, pulsing the
// endpoint 0 and 1 markers on the target controller.
func (c *Classifier) endpoint(ctrl hal.Controller, role usb.Role, i hal.Interrupt) uint8 {
	ep := ctrl.EndpointNumber(i)
	if role == usb.RoleTarget {
		switch ep {
		case 0:
			trace.Mark(c.tracer, trace.ChannelB, trace.MarkerEPIs0)
		case 1:
			trace.Mark(c.tracer, trace.ChannelB, trace.MarkerEPIs1)
		}
	}
	return ep
}

// capture drains the OUT FIFO into the scratch packet. Bytes left over from
// a longer previous packet are zeroed.
func (c *Classifier) capture(ctrl hal.Controller, role usb.Role, ep uint8) {
	n := ctrl.ReadPacket(c.packet.Buffer[:])
	clear(c.packet.Buffer[n:])
	c.packet.Role = role
	c.packet.Endpoint = ep
	c.packet.BytesRead = n
	c.captured = true
}

// Captured returns the OUT packet read by the last call to Classify, if the
// serviced condition was an OUT on a capturing role. The packet is reused by
// the next call.
func (c *Classifier) Captured() (*event.ReceivePacketExt, bool) {
	if !c.captured {
		return nil, false
	}
	return &c.packet, true
}

func branchChannel(i hal.Interrupt) trace.Channel {
	if i == hal.InterruptBusReset {
		return trace.ChannelA
	}
	return trace.ChannelB
}

func branchMarker(i hal.Interrupt) trace.Marker {
	switch i {
	case hal.InterruptBusReset:
		return trace.MarkerIRQBusReset
	case hal.InterruptEndpointControl:
		return trace.MarkerIRQEPControl
	case hal.InterruptEndpointOut:
		return trace.MarkerIRQEPOut
	default:
		return trace.MarkerIRQEPIn
	}
}
