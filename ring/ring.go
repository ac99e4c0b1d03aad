package ring

import "sync/atomic"

// cacheLine is the padding unit separating the producer and consumer
// cursors.
const cacheLine = 64

// Slot is one ring entry: a payload and the sequence stamp that says
// whether the payload is free, published, or being recycled.
//
// For a slot at index i in a ring of size n, seq == pos means free for the
// producer claiming position pos, seq == pos+1 means published for the
// consumer at pos, and the consumer stores pos+n to hand it back.
type Slot[T any] struct {
	seq atomic.Uint64
	val T
}

// Ring is a bounded FIFO over caller-provided slot storage. Any number of
// producers and consumers may use it concurrently; with one producer, Push
// is wait-free. Nothing is allocated after Init.
type Ring[T any] struct {
	_     [cacheLine]byte
	enq   atomic.Uint64
	_     [cacheLine - 8]byte
	deq   atomic.Uint64
	_     [cacheLine - 8]byte
	mask  uint64
	slots []Slot[T]
}

// Init prepares r to use slots as its storage. The length of slots must be
// a power of two of at least 2; with a single slot the sequence stamps of a
// full and an empty slot coincide. Anything else is a programming error and
// panics. Init must complete before any Push or Pop.
func (r *Ring[T]) Init(slots []Slot[T]) {
	n := len(slots)
	if n < 2 || n&(n-1) != 0 {
		panic("ring: size must be a power of two >= 2")
	}
	for i := range slots {
		slots[i].seq.Store(uint64(i))
	}
	r.slots = slots
	r.mask = uint64(n - 1)
	r.enq.Store(0)
	r.deq.Store(0)
}

// Push copies *v into the ring. It returns false without touching the ring
// or *v if the ring is full.
func (r *Ring[T]) Push(v *T) bool {
	pos := r.enq.Load()
	for {
		s := &r.slots[pos&r.mask]
		seq := s.seq.Load()
		switch dif := int64(seq - pos); {
		case dif == 0:
			if r.enq.CompareAndSwap(pos, pos+1) {
				s.val = *v
				s.seq.Store(pos + 1)
				return true
			}
			pos = r.enq.Load()
		case dif < 0:
			return false // consumer has not yet reclaimed the slot
		default:
			pos = r.enq.Load() // another producer claimed pos
		}
	}
}

// Pop copies the oldest entry into *out and removes it. It returns false,
// leaving *out untouched, if the ring is empty.
func (r *Ring[T]) Pop(out *T) bool {
	pos := r.deq.Load()
	for {
		s := &r.slots[pos&r.mask]
		seq := s.seq.Load()
		switch dif := int64(seq - (pos + 1)); {
		case dif == 0:
			if r.deq.CompareAndSwap(pos, pos+1) {
				*out = s.val
				s.seq.Store(pos + r.mask + 1)
				return true
			}
			pos = r.deq.Load()
		case dif < 0:
			return false // producer has not yet published the slot
		default:
			pos = r.deq.Load() // another consumer took pos
		}
	}
}

// Len returns the number of entries pushed and not yet popped. Under
// concurrent use the value is a snapshot.
func (r *Ring[T]) Len() int {
	enq := r.enq.Load()
	deq := r.deq.Load()
	if enq <= deq {
		return 0
	}
	n := int(enq - deq)
	if n > len(r.slots) {
		n = len(r.slots)
	}
	return n
}

// Cap returns the ring capacity.
func (r *Ring[T]) Cap() int {
	return len(r.slots)
}
