package trace

import (
	"sync/atomic"
	"time"
)

// RecorderSize is the number of samples a Recorder retains.
const RecorderSize = 256

// Edge is the transition a sample records.
type Edge uint8

// Sample edges.
const (
	EdgeEnter Edge = iota
	EdgeExit
)

// Sample is one decoded recorder entry.
type Sample struct {
	Channel Channel
	Marker  Marker
	Edge    Edge
	Time    time.Duration // since the recorder was created
}

// Packed sample layout: time in the low 48 bits, then edge, marker, channel.
const (
	timeBits    = 48
	timeMask    = 1<<timeBits - 1
	edgeShift   = timeBits
	markerShift = edgeShift + 1
	chanShift   = markerShift + 8
)

// Recorder keeps the most recent RecorderSize samples in a fixed ring and
// counts completed blocks per channel and marker. Each sample is a single
// atomic word, so readers on other goroutines see whole samples only.
type Recorder struct {
	now    func() time.Duration
	next   atomic.Uint64
	slots  [RecorderSize]atomic.Uint64
	counts [NumChannels][NumMarkers]atomic.Uint32
}

// NewRecorder returns a Recorder timed from the moment of the call.
func NewRecorder() *Recorder {
	start := time.Now()
	return NewRecorderClock(func() time.Duration { return time.Since(start) })
}

// NewRecorderClock returns a Recorder that timestamps with now.
func NewRecorderClock(now func() time.Duration) *Recorder {
	return &Recorder{now: now}
}

// Enter records a block entry.
func (r *Recorder) Enter(ch Channel, m Marker) {
	r.record(ch, m, EdgeEnter)
}

// Exit records a block exit and counts the block.
func (r *Recorder) Exit(ch Channel, m Marker) {
	r.record(ch, m, EdgeExit)
	if ch < NumChannels && m < NumMarkers {
		r.counts[ch][m].Add(1)
	}
}

func (r *Recorder) record(ch Channel, m Marker, e Edge) {
	word := uint64(r.now())&timeMask |
		uint64(e&1)<<edgeShift |
		uint64(m)<<markerShift |
		uint64(ch)<<chanShift
	i := r.next.Add(1) - 1
	r.slots[i%RecorderSize].Store(word)
}

// Count returns how many blocks completed on ch and m.
func (r *Recorder) Count(ch Channel, m Marker) uint32 {
	if ch >= NumChannels || m >= NumMarkers {
		return 0
	}
	return r.counts[ch][m].Load()
}

// Total returns the number of samples recorded, including overwritten ones.
func (r *Recorder) Total() uint64 {
	return r.next.Load()
}

// Samples copies the retained samples, oldest first, into dst and returns
// the number copied.
func (r *Recorder) Samples(dst []Sample) int {
	total := r.next.Load()
	first := uint64(0)
	if total > RecorderSize {
		first = total - RecorderSize
	}
	n := 0
	for i := first; i < total && n < len(dst); i++ {
		word := r.slots[i%RecorderSize].Load()
		dst[n] = Sample{
			Channel: Channel(word >> chanShift),
			Marker:  Marker(word >> markerShift),
			Edge:    Edge(word>>edgeShift) & 1,
			Time:    time.Duration(word & timeMask),
		}
		n++
	}
	return n
}

// Reset clears all samples and counts. It must not race with Enter or Exit.
func (r *Recorder) Reset() {
	r.next.Store(0)
	for i := range r.slots {
		r.slots[i].Store(0)
	}
	for c := range r.counts {
		for m := range r.counts[c] {
			r.counts[c][m].Store(0)
		}
	}
}
