package sim

import (
	"sync"
	"sync/atomic"

	"github.com/ardnew/usbtap/hal"
	"github.com/ardnew/usbtap/pkg"
	"github.com/ardnew/usbtap/usb"
)

// InterruptController implements hal.InterruptController over a single
// pending word shared by all simulated controllers.
type InterruptController struct {
	pending atomic.Uint32
}

// Pending returns the raw pending bits.
func (c *InterruptController) Pending() uint32 {
	return c.pending.Load()
}

// Controller implements hal.Controller for one simulated USB controller.
// Stimulus methods (Raise*) are called from test or simulator code; the
// hal.Controller methods are called by the classifier.
type Controller struct {
	role usb.Role
	intc *InterruptController

	mutex sync.Mutex

	// Endpoint number fields, one per condition.
	epno [hal.NumInterrupts]uint8

	// Control FIFO (SETUP bytes).
	control    [usb.SetupPacketSize]byte
	controlLen int

	// OUT FIFO.
	out    [usb.MaxPacketSize]byte
	outLen int

	address uint8
	resets  int

	// Cleared counts per condition, for ordering assertions.
	cleared [hal.NumInterrupts]int

	txack hal.TxAck
}

// Board is a simulated set of three controllers sharing one interrupt
// controller.
type Board struct {
	IntC InterruptController
	USB  [usb.NumRoles]*Controller
}

// NewBoard returns a board with all pending bits clear and empty FIFOs.
func NewBoard() *Board {
	b := &Board{}
	for _, role := range usb.Roles {
		b.USB[role] = &Controller{role: role, intc: &b.IntC}
	}
	pkg.LogDebug(pkg.ComponentHAL, "simulated board created", "controllers", len(b.USB))
	return b
}

// Controllers returns the owned handle set to pass to the classifier.
func (b *Board) Controllers() hal.Controllers {
	var c hal.Controllers
	for i, u := range b.USB {
		c[i] = u
	}
	return c
}

// Controller returns the simulated controller for role.
func (b *Board) Controller(role usb.Role) *Controller {
	return b.USB[role]
}

// Role returns the controller's role.
func (c *Controller) Role() usb.Role {
	return c.role
}

// IsPending reports whether condition i awaits service.
func (c *Controller) IsPending(i hal.Interrupt) bool {
	return c.intc.pending.Load()&hal.Bit(c.role, i) != 0
}

// ClearPending acknowledges condition i.
func (c *Controller) ClearPending(i hal.Interrupt) {
	c.intc.pending.And(^hal.Bit(c.role, i))
	if i.Valid() {
		c.mutex.Lock()
		c.cleared[i]++
		c.mutex.Unlock()
	}
}

// BusReset flushes both FIFOs, returns the address to zero and drops any
// in-flight IN packet.
func (c *Controller) BusReset() {
	c.mutex.Lock()
	c.controlLen = 0
	c.outLen = 0
	c.address = 0
	c.resets++
	c.mutex.Unlock()
	c.txack.Reset()
}

// EndpointNumber reads the endpoint field for condition i.
func (c *Controller) EndpointNumber(i hal.Interrupt) uint8 {
	if !i.Valid() {
		return 0
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.epno[i]
}

// ReadControl drains the control FIFO into buf.
func (c *Controller) ReadControl(buf []byte) int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	n := copy(buf, c.control[:c.controlLen])
	c.controlLen = 0
	return n
}

// ReadPacket drains the OUT FIFO into buf.
func (c *Controller) ReadPacket(buf []byte) int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	n := copy(buf, c.out[:c.outLen])
	c.outLen = 0
	return n
}

// TxAck returns the controller's transmit-acknowledge flags.
func (c *Controller) TxAck() *hal.TxAck {
	return &c.txack
}

// Compile-time interface checks.
var (
	_ hal.Controller          = (*Controller)(nil)
	_ hal.InterruptController = (*InterruptController)(nil)
)
