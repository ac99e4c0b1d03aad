package queue

// QueueStats is a snapshot of one sub-queue's counters.
type QueueStats struct {
	Pushes    uint64 // events accepted
	Drops     uint64 // events rejected because the sub-queue was full
	HighWater uint32 // largest depth observed after a push
	Len       int    // depth at snapshot time
	Cap       int
}

// Stats is a snapshot of all sub-queues, indexed by QueueID.
type Stats [NumQueues]QueueStats

// Stats returns the current counters. Values read while producers are
// active may be mutually inconsistent by a few events.
func (q *MultiEventQueue) Stats() Stats {
	var s Stats
	for id := QueueID(0); id < NumQueues; id++ {
		c := &q.stats[id]
		s[id] = QueueStats{
			Pushes:    c.pushes.Load(),
			Drops:     c.drops.Load(),
			HighWater: c.highWater.Load(),
			Len:       q.Len(id),
			Cap:       q.Cap(id),
		}
	}
	return s
}

// TotalDrops returns the number of events rejected across all sub-queues.
func (s Stats) TotalDrops() uint64 {
	var n uint64
	for _, q := range s {
		n += q.Drops
	}
	return n
}
