package hal

import (
	"sync/atomic"

	"github.com/ardnew/usbtap/usb"
)

// TxAck holds one transmit-acknowledge-active flag per endpoint. A set flag
// means an IN packet is in flight and the host has not yet acknowledged it.
//
// The flag has one writer per edge: task code sets it with Arm before
// priming an IN FIFO, and the interrupt handler clears it with Release when
// the send-complete condition fires. Task code never calls Release and the
// interrupt handler never calls Arm. Out-of-range endpoints are ignored.
type TxAck struct {
	active [usb.MaxEndpoints]atomic.Bool
}

// Arm marks ep as having a packet in flight. It returns false, leaving the
// flag untouched, if the previous packet has not been acknowledged.
func (t *TxAck) Arm(ep uint8) bool {
	if !usb.ValidEndpoint(ep) {
		return false
	}
	return t.active[ep].CompareAndSwap(false, true)
}

// Release clears the flag for ep after the host acknowledged the packet.
func (t *TxAck) Release(ep uint8) {
	if !usb.ValidEndpoint(ep) {
		return
	}
	t.active[ep].Store(false)
}

// Active reports whether ep has an unacknowledged packet in flight.
func (t *TxAck) Active(ep uint8) bool {
	if !usb.ValidEndpoint(ep) {
		return false
	}
	return t.active[ep].Load()
}

// Reset clears every flag. Used by bus reset handling, which also discards
// any packet queued in the IN FIFOs.
func (t *TxAck) Reset() {
	for i := range t.active {
		t.active[i].Store(false)
	}
}
