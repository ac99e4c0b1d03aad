package hal

import (
	"fmt"

	"github.com/ardnew/usbtap/usb"
)

// Interrupt identifies one interrupt condition of a USB controller.
type Interrupt uint8

// Controller interrupt conditions, in classifier priority order.
const (
	InterruptBusReset        Interrupt = iota // bus reset detected
	InterruptEndpointControl                  // SETUP received on a control endpoint
	InterruptEndpointOut                      // OUT data received
	InterruptEndpointIn                       // IN packet acknowledged
	NumInterrupts
)

// Interrupts lists every condition in classifier priority order.
var Interrupts = [NumInterrupts]Interrupt{
	InterruptBusReset,
	InterruptEndpointControl,
	InterruptEndpointOut,
	InterruptEndpointIn,
}

// String returns the condition name as used in scenario files.
func (i Interrupt) String() string {
	switch i {
	case InterruptBusReset:
		return "bus-reset"
	case InterruptEndpointControl:
		return "control"
	case InterruptEndpointOut:
		return "out"
	case InterruptEndpointIn:
		return "in"
	default:
		return fmt.Sprintf("interrupt(%d)", uint8(i))
	}
}

// Valid reports whether i is a known condition.
func (i Interrupt) Valid() bool {
	return i < NumInterrupts
}

// IRQ returns the bit number of a controller condition in the global
// pending mask: four consecutive bits per role, target first.
func IRQ(role usb.Role, i Interrupt) uint {
	return uint(role)*uint(NumInterrupts) + uint(i)
}

// Bit returns the pending mask bit for a controller condition.
func Bit(role usb.Role, i Interrupt) uint32 {
	return 1 << IRQ(role, i)
}

// Controller is the register block of one USB controller. It is used only
// from interrupt context by the classifier that owns it.
//
// Register accesses cannot fail.
type Controller interface {
	// IsPending reports whether condition i awaits service.
	IsPending(i Interrupt) bool

	// ClearPending acknowledges condition i.
	ClearPending(i Interrupt)

	// BusReset runs the controller's bus-reset sequence: endpoint FIFOs
	// are flushed and the device address returns to zero.
	BusReset()

	// EndpointNumber reads the endpoint number field of the endpoint block
	// that raised condition i. Conditions without an endpoint return 0.
	EndpointNumber(i Interrupt) uint8

	// ReadControl copies up to len(buf) bytes from the control FIFO into
	// buf and returns the count.
	ReadControl(buf []byte) int

	// ReadPacket copies up to len(buf) bytes from the OUT FIFO into buf
	// and returns the count.
	ReadPacket(buf []byte) int

	// TxAck returns the controller's transmit-acknowledge flags.
	TxAck() *TxAck
}

// InterruptController exposes the platform interrupt controller.
type InterruptController interface {
	// Pending returns the raw pending bits of every interrupt line, laid
	// out as described by IRQ.
	Pending() uint32
}

// Controllers is the set of controller register blocks, indexed by role.
// Board setup builds it once and hands it to the classifier, which is then
// its only user.
type Controllers [usb.NumRoles]Controller
