// Package queue implements the multi-event queue between the interrupt
// epilogue and task code.
//
// Events differ greatly in size: an [event.InterruptEvent] is a few dozen
// bytes, while an [event.ReceivePacketExt] carries a 512-byte buffer. A single
// queue sized for the largest event would waste memory on the common small
// ones, so [MultiEventQueue] keeps three fixed-capacity sub-queues:
//
//   - interrupt events: 64 entries
//   - extended receive-control events: 16 entries
//   - extended receive-packet events: 16 entries
//
// [Submit] accepts any of the three kinds through one call and routes by
// type. Its type parameter is constrained to exactly those kinds, so the
// compiler rejects anything else:
//
//	q := queue.New()
//	if _, err := queue.Submit(q, ev); err != nil {
//	    pkg.LogError(pkg.ComponentQueue, "event dropped", "error", err)
//	}
//
// Each sub-queue drains independently with [MultiEventQueue.Dequeue],
// [MultiEventQueue.DequeueSetupPacket] and [MultiEventQueue.DequeueBuffer].
// Consumers that need causal order across sub-queues must carry their own
// sequence numbers.
package queue
