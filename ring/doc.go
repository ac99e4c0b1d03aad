// Package ring provides a fixed-capacity FIFO suitable for handing values
// from interrupt context to task code.
//
// Each [Slot] carries a sequence stamp, so producers and consumers agree on
// slot ownership through a single atomic load instead of a shared count.
// A full ring fails Push immediately and an empty ring fails Pop
// immediately; neither ever waits.
//
// Storage is supplied by the caller, typically a fixed array inside a
// longer-lived struct:
//
//	var slots [16]ring.Slot[event.ReceiveControlExt]
//	var r ring.Ring[event.ReceiveControlExt]
//	r.Init(slots[:])
package ring
