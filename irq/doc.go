// Package irq classifies USB controller interrupts into events.
//
// A [Classifier] owns the register handles of the three controllers and,
// on each call to [Classifier.Classify], services exactly one pending
// condition in fixed priority order:
//
//	target: bus reset, control, OUT, IN
//	aux:    bus reset, control, OUT, IN
//	control: bus reset, control, OUT, IN
//
// Pending bits are cleared before the event is built, so a condition
// raised again while the event is being consumed is never lost. Setup
// packets are read from the control FIFO before the condition is cleared;
// an empty read becomes an error message event rather than a zeroed packet.
// OUT packets on roles with [Config].Capture set are likewise read before
// the clear and exposed through [Classifier.Captured].
//
// A [Handler] wraps a classifier as the interrupt epilogue, routing each
// event to the matching sub-queue of a [queue.MultiEventQueue]:
//
//	c := irq.NewClassifier(board.Controllers(), &board.IntC, irq.DefaultConfig())
//	h := irq.NewHandler(c, q, irq.HandlerConfig{})
//	h.Service()
//
// Target controller branches are bracketed by the [trace] hook; see
// [WithTracer].
package irq
