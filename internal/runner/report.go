package runner

import (
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"github.com/samber/lo"

	"github.com/ardnew/usbtap/pkg"
	"github.com/ardnew/usbtap/queue"
)

// Report summarizes one run.
type Report struct {
	Scenario string
	Stimuli  int // conditions raised
	Serviced int // interrupt handler invocations
	Received int // events drained from all sub-queues

	Events      map[string]int // count per event label
	ByRole      map[string]int // USB and extended event count per role
	Errors      []string       // distinct error messages
	PacketBytes int            // bytes carried by captured packets
	Sends       int            // IN packets armed by the task side
	SendsBusy   int            // IN packets rejected while one was in flight

	Queues  queue.Stats
	Markers map[string]uint32 // completed trace blocks per channel.marker
}

// Dropped returns the number of events rejected by full sub-queues.
func (r *Report) Dropped() uint64 {
	return r.Queues.TotalDrops()
}

// check reports the first problem a strict run must fail on.
func (r *Report) check() error {
	if len(r.Errors) > 0 {
		return fmt.Errorf("%w: %s", pkg.ErrEmptySetupRead, r.Errors[0])
	}
	if n := r.Dropped(); n > 0 {
		return fmt.Errorf("%d events dropped: %w", n, pkg.ErrQueueFull)
	}
	return nil
}

// WriteTo writes a human-readable summary to w.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	cw := &countWriter{w: w}
	tw := tabwriter.NewWriter(cw, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "scenario\t%s\n", r.Scenario)
	fmt.Fprintf(tw, "stimuli\t%d\n", r.Stimuli)
	fmt.Fprintf(tw, "serviced\t%d\n", r.Serviced)
	fmt.Fprintf(tw, "received\t%d\n", r.Received)
	fmt.Fprintf(tw, "dropped\t%d\n", r.Dropped())
	fmt.Fprintf(tw, "sends\t%d\n", r.Sends)
	if r.SendsBusy > 0 {
		fmt.Fprintf(tw, "sends busy\t%d\n", r.SendsBusy)
	}
	if r.PacketBytes > 0 {
		fmt.Fprintf(tw, "packet bytes\t%d\n", r.PacketBytes)
	}

	writeCounts(tw, "events", r.Events)
	writeCounts(tw, "roles", r.ByRole)
	writeCounts(tw, "trace", r.Markers)

	fmt.Fprintf(tw, "\nqueue\tpushes\tdrops\thigh\tcap\n")
	for id := queue.QueueID(0); id < queue.NumQueues; id++ {
		s := r.Queues[id]
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n", id, s.Pushes, s.Drops, s.HighWater, s.Cap)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintf(tw, "\nerrors\n")
		for _, e := range r.Errors {
			fmt.Fprintf(tw, "  %s\n", e)
		}
	}

	err := tw.Flush()
	return cw.n, err
}

func writeCounts[V int | uint32](w io.Writer, title string, m map[string]V) {
	if len(m) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\n", title)
	keys := lo.Keys(m)
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s\t%d\n", k, m[k])
	}
}

type countWriter struct {
	w io.Writer
	n int64
}

func (c *countWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
