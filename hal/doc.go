// Package hal defines the hardware boundary of the interrupt core.
//
// The classifier reads three USB controller register blocks through the
// [Controller] interface and the platform interrupt controller through
// [InterruptController]. Board support code implements these for real
// hardware; [github.com/ardnew/usbtap/hal/sim] implements them in memory.
//
// # Ownership
//
// There is no global accessor for a register block. Board setup builds a
// [Controllers] value once and passes it to the classifier, so the
// classifier is the only code that can touch the registers:
//
//	ctrls := hal.Controllers{usb0, usb1, usb2}
//	c := irq.NewClassifier(ctrls, intc, irq.DefaultConfig())
//
// # Pending Mask Layout
//
// Each role owns four consecutive bits of the pending mask, one per
// [Interrupt] in priority order; see [IRQ].
//
// # Transmit Acknowledge
//
// [TxAck] is the only state shared between interrupt and task context. It
// is a set of atomic flags with a strict one-writer-per-edge contract.
package hal
