package sim

import (
	"fmt"

	"github.com/ardnew/usbtap/hal"
	"github.com/ardnew/usbtap/pkg"
	"github.com/ardnew/usbtap/usb"
)

// raise sets the pending bit for condition i.
func (c *Controller) raise(i hal.Interrupt) {
	c.intc.pending.Or(hal.Bit(c.role, i))
}

// RaiseBusReset marks a bus reset pending.
func (c *Controller) RaiseBusReset() {
	c.raise(hal.InterruptBusReset)
	pkg.LogDebug(pkg.ComponentHAL, "raise bus reset", "role", c.role)
}

// RaiseSetup loads data into the control FIFO, latches ep into the control
// endpoint field and marks the control condition pending. An empty data
// slice models a setup condition whose FIFO read returns nothing.
func (c *Controller) RaiseSetup(ep uint8, data []byte) error {
	if !usb.ValidEndpoint(ep) {
		return fmt.Errorf("%w: %d", pkg.ErrInvalidEndpoint, ep)
	}
	if len(data) > usb.SetupPacketSize {
		return fmt.Errorf("setup data %d bytes: %w", len(data), pkg.ErrBufferTooSmall)
	}
	c.mutex.Lock()
	c.controlLen = copy(c.control[:], data)
	c.epno[hal.InterruptEndpointControl] = ep
	c.mutex.Unlock()
	c.raise(hal.InterruptEndpointControl)
	pkg.LogDebug(pkg.ComponentHAL, "raise setup", "role", c.role, "endpoint", ep, "bytes", len(data))
	return nil
}

// RaiseOut loads data into the OUT FIFO for ep and marks OUT pending.
func (c *Controller) RaiseOut(ep uint8, data []byte) error {
	if !usb.ValidEndpoint(ep) {
		return fmt.Errorf("%w: %d", pkg.ErrInvalidEndpoint, ep)
	}
	if len(data) > usb.MaxPacketSize {
		return fmt.Errorf("out data %d bytes: %w", len(data), pkg.ErrPacketTooLarge)
	}
	c.mutex.Lock()
	c.outLen = copy(c.out[:], data)
	c.epno[hal.InterruptEndpointOut] = ep
	c.mutex.Unlock()
	c.raise(hal.InterruptEndpointOut)
	pkg.LogDebug(pkg.ComponentHAL, "raise out", "role", c.role, "endpoint", ep, "bytes", len(data))
	return nil
}

// RaiseIn marks the IN condition pending for ep, as if the host had
// acknowledged the packet in flight.
func (c *Controller) RaiseIn(ep uint8) error {
	if !usb.ValidEndpoint(ep) {
		return fmt.Errorf("%w: %d", pkg.ErrInvalidEndpoint, ep)
	}
	c.mutex.Lock()
	c.epno[hal.InterruptEndpointIn] = ep
	c.mutex.Unlock()
	c.raise(hal.InterruptEndpointIn)
	pkg.LogDebug(pkg.ComponentHAL, "raise in", "role", c.role, "endpoint", ep)
	return nil
}

// Raise dispatches to the Raise method for condition i. data is ignored for
// bus reset and IN conditions.
func (c *Controller) Raise(i hal.Interrupt, ep uint8, data []byte) error {
	switch i {
	case hal.InterruptBusReset:
		c.RaiseBusReset()
		return nil
	case hal.InterruptEndpointControl:
		return c.RaiseSetup(ep, data)
	case hal.InterruptEndpointOut:
		return c.RaiseOut(ep, data)
	case hal.InterruptEndpointIn:
		return c.RaiseIn(ep)
	default:
		return fmt.Errorf("%w: %d", pkg.ErrInvalidInterrupt, uint8(i))
	}
}

// BusResets returns how many times BusReset ran.
func (c *Controller) BusResets() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.resets
}

// Cleared returns how many times condition i was acknowledged.
func (c *Controller) Cleared(i hal.Interrupt) int {
	if !i.Valid() {
		return 0
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.cleared[i]
}

// ControlLen returns the number of bytes waiting in the control FIFO.
func (c *Controller) ControlLen() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.controlLen
}

// OutLen returns the number of bytes waiting in the OUT FIFO.
func (c *Controller) OutLen() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.outLen
}

// SetAddress sets the device address, as enumeration would.
func (c *Controller) SetAddress(addr uint8) {
	c.mutex.Lock()
	c.address = addr
	c.mutex.Unlock()
}

// Address returns the device address.
func (c *Controller) Address() uint8 {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.address
}
