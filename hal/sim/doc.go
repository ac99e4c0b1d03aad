// Package sim implements the [hal] interfaces with in-memory register
// blocks for tests and the usbtap-sim command.
//
// A [Board] holds three [Controller] values sharing one
// [InterruptController] pending word. Stimulus methods load a FIFO, latch
// an endpoint number field and set the matching pending bit, mirroring
// what the hardware does before it raises the interrupt line:
//
//	b := sim.NewBoard()
//	_ = b.Controller(usb.RoleTarget).RaiseSetup(0, raw[:])
//	c := irq.NewClassifier(b.Controllers(), &b.IntC, irq.DefaultConfig())
//	ev := c.Classify()
//
// FIFO reads drain the FIFO. BusReset flushes both FIFOs, zeroes the
// address and clears all transmit-acknowledge flags.
package sim
