package runner

import (
	"context"
	"fmt"
	"runtime"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/ardnew/usbtap/event"
	"github.com/ardnew/usbtap/hal"
	"github.com/ardnew/usbtap/hal/sim"
	"github.com/ardnew/usbtap/internal/scenario"
	"github.com/ardnew/usbtap/irq"
	"github.com/ardnew/usbtap/pkg"
	"github.com/ardnew/usbtap/queue"
	"github.com/ardnew/usbtap/trace"
	"github.com/ardnew/usbtap/usb"
)

// component identifies the runner for structured logging.
const component = pkg.ComponentSim

// Options configures a run.
type Options struct {
	Classifier irq.Config
	Handler    irq.HandlerConfig

	// Hold delays the consumer until every burst has been serviced, so
	// the sub-queues fill as they would behind a stalled task.
	Hold bool

	// Strict fails the run if any error event was produced or any event
	// was dropped. The report is still returned.
	Strict bool
}

// DefaultOptions returns the default classifier configuration with no
// extended sub-queue routing.
func DefaultOptions() Options {
	return Options{Classifier: irq.DefaultConfig()}
}

// Run plays s against a simulated board. One goroutine raises each burst
// and services the resulting interrupts through an irq.Handler; another
// drains the three sub-queues. Run returns once both finish.
func Run(ctx context.Context, s *scenario.Scenario, opts Options) (*Report, error) {
	board := sim.NewBoard()
	rec := trace.NewRecorder()
	classifier := irq.NewClassifier(board.Controllers(), &board.IntC, opts.Classifier, irq.WithTracer(rec))
	q := queue.New()
	handler := irq.NewHandler(classifier, q, opts.Handler)

	produced := make(chan struct{})
	var out production
	c := newCollector()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(produced)
		var err error
		out, err = produce(ctx, s, board, handler)
		return err
	})

	g.Go(func() error {
		if opts.Hold {
			select {
			case <-produced:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return c.consume(ctx, q, produced)
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	r := c.report(s)
	r.Serviced = out.serviced
	r.Sends = out.sends
	r.SendsBusy = out.busy
	r.Queues = q.Stats()
	r.Markers = markerCounts(rec)
	pkg.LogInfo(component, "scenario complete", "scenario", s.Name,
		"stimuli", r.Stimuli, "serviced", r.Serviced, "dropped", r.Queues.TotalDrops())

	if opts.Strict {
		if err := r.check(); err != nil {
			return r, err
		}
	}
	return r, nil
}

// production counts what the producer did.
type production struct {
	serviced int // interrupt handler invocations
	sends    int // IN packets armed before their send-complete was raised
	busy     int // IN steps whose endpoint still had a packet in flight
}

// produce raises each burst and services interrupts until none remain
// pending.
func produce(ctx context.Context, s *scenario.Scenario, board *sim.Board, h *irq.Handler) (production, error) {
	// One invocation per possible pending bit drains any burst.
	const perBurst = usb.NumRoles * int(hal.NumInterrupts)

	var p production
	for bi := range s.Bursts {
		b := &s.Bursts[bi]
		for r := 0; r < b.Count(); r++ {
			if err := ctx.Err(); err != nil {
				return p, err
			}
			arm(board, b, &p)
			if err := b.Raise(board); err != nil {
				return p, fmt.Errorf("burst %d: %w", bi, err)
			}
			n := h.ServeAll(perBurst)
			p.serviced += n
			pkg.LogDebug(component, "burst serviced", "burst", bi, "name", b.Name,
				"repeat", r, "interrupts", n)
			if board.IntC.Pending() != 0 {
				return p, fmt.Errorf("burst %d: %w: 0x%08X still pending",
					bi, pkg.ErrUnhandledInterrupt, board.IntC.Pending())
			}
		}
	}
	return p, nil
}

// arm plays the task side of each IN step: it marks the endpoint's packet
// in flight before the host's acknowledgement is raised. An endpoint whose
// previous packet is still unacknowledged is counted busy.
func arm(board *sim.Board, b *scenario.Burst, p *production) {
	for i := range b.Steps {
		st := &b.Steps[i]
		if st.Interrupt() != hal.InterruptEndpointIn {
			continue
		}
		if board.Controller(st.ResolvedRole()).TxAck().Arm(st.Endpoint) {
			p.sends++
			continue
		}
		p.busy++
		pkg.LogWarn(component, "send rejected, packet in flight",
			"role", st.ResolvedRole(), "endpoint", st.Endpoint)
	}
}

// collector accumulates everything the consumer drains.
type collector struct {
	events   []event.InterruptEvent
	controls []event.ReceiveControlExt
	packets  []packetInfo
	pkt      event.ReceivePacketExt
}

type packetInfo struct {
	role  usb.Role
	bytes int
}

func newCollector() *collector {
	return &collector{}
}

// consume drains all sub-queues until produced is closed and the queues
// are empty.
func (c *collector) consume(ctx context.Context, q *queue.MultiEventQueue, produced <-chan struct{}) error {
	for {
		if c.drain(q) > 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-produced:
			c.drain(q)
			return nil
		default:
			runtime.Gosched()
		}
	}
}

func (c *collector) drain(q *queue.MultiEventQueue) int {
	n := 0
	for {
		ev, ok := q.Dequeue()
		if !ok {
			break
		}
		pkg.LogTrace(component, "event", "event", ev.String())
		c.events = append(c.events, ev)
		n++
	}
	for {
		rc, ok := q.DequeueSetupPacket()
		if !ok {
			break
		}
		pkg.LogTrace(component, "setup", "event", rc.String())
		c.controls = append(c.controls, rc)
		n++
	}
	for q.DequeueBufferInto(&c.pkt) {
		pkg.LogTrace(component, "packet", "event", c.pkt.String())
		c.packets = append(c.packets, packetInfo{role: c.pkt.Role, bytes: len(c.pkt.Data())})
		n++
	}
	return n
}

// Labels for extended events in Report.Events.
const (
	LabelReceiveControl = "ext.ReceiveControl"
	LabelReceivePacket  = "ext.ReceivePacket"
)

// Label names the kind of an interrupt event: the USB event kind for Usb
// events, otherwise the interrupt event kind.
func Label(ev event.InterruptEvent) string {
	if ev.Kind == event.KindUsb {
		return ev.Usb.Kind.String()
	}
	return ev.Kind.String()
}

func (c *collector) report(s *scenario.Scenario) *Report {
	labels := lo.Map(c.events, func(ev event.InterruptEvent, _ int) string {
		return Label(ev)
	})
	labels = append(labels, lo.Map(c.controls, func(event.ReceiveControlExt, int) string {
		return LabelReceiveControl
	})...)
	labels = append(labels, lo.Map(c.packets, func(packetInfo, int) string {
		return LabelReceivePacket
	})...)

	usbEvents := lo.Filter(c.events, func(ev event.InterruptEvent, _ int) bool {
		return ev.Kind == event.KindUsb
	})
	byRole := lo.CountValuesBy(usbEvents, func(ev event.InterruptEvent) string {
		return ev.Role.String()
	})
	for role, n := range lo.CountValuesBy(c.controls, func(rc event.ReceiveControlExt) string {
		return rc.Role.String()
	}) {
		byRole[role] += n
	}
	for role, n := range lo.CountValuesBy(c.packets, func(p packetInfo) string {
		return p.role.String()
	}) {
		byRole[role] += n
	}

	errs := lo.FilterMap(c.events, func(ev event.InterruptEvent, _ int) (string, bool) {
		return ev.Message, ev.Kind == event.KindErrorMessage
	})

	return &Report{
		Scenario:    s.Name,
		Stimuli:     s.Stimuli(),
		Received:    len(labels),
		Events:      lo.CountValues(labels),
		ByRole:      byRole,
		Errors:      lo.Uniq(errs),
		PacketBytes: lo.SumBy(c.packets, func(p packetInfo) int { return p.bytes }),
	}
}

func markerCounts(rec *trace.Recorder) map[string]uint32 {
	pkg.LogDebug(pkg.ComponentTrace, "trace samples recorded", "total", rec.Total())
	counts := make(map[string]uint32)
	for ch := trace.Channel(0); ch < trace.NumChannels; ch++ {
		for m := trace.Marker(0); m < trace.NumMarkers; m++ {
			if n := rec.Count(ch, m); n > 0 {
				counts[ch.String()+"."+m.String()] = n
			}
		}
	}
	return counts
}
