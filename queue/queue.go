package queue

import (
	"fmt"
	"sync/atomic"

	"github.com/ardnew/usbtap/event"
	"github.com/ardnew/usbtap/pkg"
	"github.com/ardnew/usbtap/ring"
)

// Sub-queue capacities. Small frequent events get the deep queue; the
// large extended events occur rarely and get shallow ones.
const (
	InterruptCapacity      = 64
	ReceiveControlCapacity = 16
	ReceivePacketCapacity  = 16
)

// QueueID names one of the three sub-queues.
type QueueID uint8

// Sub-queues.
const (
	QueueInterrupt      QueueID = iota // event.InterruptEvent
	QueueReceiveControl                // event.ReceiveControlExt
	QueueReceivePacket                 // event.ReceivePacketExt
	NumQueues
)

// String returns the sub-queue name.
func (q QueueID) String() string {
	switch q {
	case QueueInterrupt:
		return "interrupt"
	case QueueReceiveControl:
		return "receive-control"
	case QueueReceivePacket:
		return "receive-packet"
	default:
		return fmt.Sprintf("queue(%d)", uint8(q))
	}
}

// OverflowError reports that a sub-queue was full. One static value exists
// per sub-queue, so reporting an overflow never allocates.
type OverflowError struct {
	Queue QueueID
}

// Error implements error.
func (e *OverflowError) Error() string {
	return e.Queue.String() + " event queue overflow"
}

// Unwrap lets errors.Is match pkg.ErrQueueFull.
func (e *OverflowError) Unwrap() error {
	return pkg.ErrQueueFull
}

// Overflow errors returned by Submit and the Enqueue methods.
var (
	ErrInterruptOverflow      = &OverflowError{Queue: QueueInterrupt}
	ErrReceiveControlOverflow = &OverflowError{Queue: QueueReceiveControl}
	ErrReceivePacketOverflow  = &OverflowError{Queue: QueueReceivePacket}
)

// Payload is the closed set of event types the queue stores.
type Payload interface {
	event.InterruptEvent | event.ReceiveControlExt | event.ReceivePacketExt
}

// counters tracks one sub-queue.
type counters struct {
	pushes    atomic.Uint64
	drops     atomic.Uint64
	highWater atomic.Uint32
}

func (c *counters) pushed(depth int) {
	c.pushes.Add(1)
	d := uint32(depth)
	for {
		hw := c.highWater.Load()
		if d <= hw || c.highWater.CompareAndSwap(hw, d) {
			return
		}
	}
}

// MultiEventQueue holds one bounded FIFO per payload kind. The sub-queues
// never share capacity: filling one has no effect on the others. There is
// no ordering between sub-queues.
//
// All slot storage is part of the struct. Construct it once with New before
// the interrupt that feeds it is enabled, and share the pointer between the
// interrupt epilogue and the consumer.
type MultiEventQueue struct {
	interrupt      ring.Ring[event.InterruptEvent]
	receiveControl ring.Ring[event.ReceiveControlExt]
	receivePacket  ring.Ring[event.ReceivePacketExt]

	interruptSlots      [InterruptCapacity]ring.Slot[event.InterruptEvent]
	receiveControlSlots [ReceiveControlCapacity]ring.Slot[event.ReceiveControlExt]
	receivePacketSlots  [ReceivePacketCapacity]ring.Slot[event.ReceivePacketExt]

	stats [NumQueues]counters
}

// New returns an empty queue.
func New() *MultiEventQueue {
	q := &MultiEventQueue{}
	q.interrupt.Init(q.interruptSlots[:])
	q.receiveControl.Init(q.receiveControlSlots[:])
	q.receivePacket.Init(q.receivePacketSlots[:])
	return q
}

// Submit enqueues e into the sub-queue for its type. On success it returns
// the zero value and nil. If the sub-queue is full it returns e unchanged
// and that sub-queue's *OverflowError; the event has not been stored.
func Submit[E Payload](q *MultiEventQueue, e E) (E, error) {
	var err error
	switch v := any(&e).(type) {
	case *event.InterruptEvent:
		err = q.Enqueue(*v)
	case *event.ReceiveControlExt:
		err = q.EnqueueSetupPacket(*v)
	case *event.ReceivePacketExt:
		err = q.EnqueueBuffer(v)
	}
	if err != nil {
		return e, err
	}
	var zero E
	return zero, nil
}

// Enqueue adds an interrupt event.
func (q *MultiEventQueue) Enqueue(e event.InterruptEvent) error {
	if !q.interrupt.Push(&e) {
		q.stats[QueueInterrupt].drops.Add(1)
		return ErrInterruptOverflow
	}
	q.stats[QueueInterrupt].pushed(q.interrupt.Len())
	return nil
}

// EnqueueSetupPacket adds an extended receive-control event.
func (q *MultiEventQueue) EnqueueSetupPacket(e event.ReceiveControlExt) error {
	if !q.receiveControl.Push(&e) {
		q.stats[QueueReceiveControl].drops.Add(1)
		return ErrReceiveControlOverflow
	}
	q.stats[QueueReceiveControl].pushed(q.receiveControl.Len())
	return nil
}

// EnqueueBuffer copies *e into the receive-packet sub-queue. *e is not
// modified and may be reused once EnqueueBuffer returns.
func (q *MultiEventQueue) EnqueueBuffer(e *event.ReceivePacketExt) error {
	if !q.receivePacket.Push(e) {
		q.stats[QueueReceivePacket].drops.Add(1)
		return ErrReceivePacketOverflow
	}
	q.stats[QueueReceivePacket].pushed(q.receivePacket.Len())
	return nil
}

// Dequeue removes the oldest interrupt event.
func (q *MultiEventQueue) Dequeue() (event.InterruptEvent, bool) {
	var e event.InterruptEvent
	ok := q.interrupt.Pop(&e)
	return e, ok
}

// DequeueSetupPacket removes the oldest extended receive-control event.
func (q *MultiEventQueue) DequeueSetupPacket() (event.ReceiveControlExt, bool) {
	var e event.ReceiveControlExt
	ok := q.receiveControl.Pop(&e)
	return e, ok
}

// DequeueBuffer removes the oldest extended receive-packet event.
func (q *MultiEventQueue) DequeueBuffer() (event.ReceivePacketExt, bool) {
	var e event.ReceivePacketExt
	ok := q.receivePacket.Pop(&e)
	return e, ok
}

// DequeueBufferInto removes the oldest extended receive-packet event into
// *out, avoiding a second copy of the packet buffer.
func (q *MultiEventQueue) DequeueBufferInto(out *event.ReceivePacketExt) bool {
	return q.receivePacket.Pop(out)
}

// Len returns the number of queued entries in sub-queue id.
func (q *MultiEventQueue) Len(id QueueID) int {
	switch id {
	case QueueInterrupt:
		return q.interrupt.Len()
	case QueueReceiveControl:
		return q.receiveControl.Len()
	case QueueReceivePacket:
		return q.receivePacket.Len()
	default:
		return 0
	}
}

// Cap returns the capacity of sub-queue id.
func (q *MultiEventQueue) Cap(id QueueID) int {
	switch id {
	case QueueInterrupt:
		return q.interrupt.Cap()
	case QueueReceiveControl:
		return q.receiveControl.Cap()
	case QueueReceivePacket:
		return q.receivePacket.Cap()
	default:
		return 0
	}
}
