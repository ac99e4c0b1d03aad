package irq

import (
	"errors"

	"github.com/ardnew/usbtap/event"
	"github.com/ardnew/usbtap/pkg"
	"github.com/ardnew/usbtap/queue"
	"github.com/ardnew/usbtap/usb"
)

// HandlerConfig selects which events use the extended sub-queues.
type HandlerConfig struct {
	// SplitSetup routes a role's setup packets to the receive-control
	// sub-queue instead of the interrupt sub-queue.
	SplitSetup [usb.NumRoles]bool
}

// Handler is the interrupt epilogue: it classifies one condition and
// submits the result to the multi-event queue.
type Handler struct {
	classifier *Classifier
	queue      *queue.MultiEventQueue
	cfg        HandlerConfig
}

// NewHandler returns a handler that feeds q from c.
func NewHandler(c *Classifier, q *queue.MultiEventQueue, cfg HandlerConfig) *Handler {
	return &Handler{classifier: c, queue: q, cfg: cfg}
}

// Service handles one interrupt and returns the classified event. An OUT
// packet captured by the classifier goes to the receive-packet sub-queue. A
// full sub-queue drops the event and logs the drop; Service never fails.
func (h *Handler) Service() event.InterruptEvent {
	ev := h.classifier.Classify()
	pkt, captured := h.classifier.Captured()

	switch {
	case ev.IsUsb(event.UsbReceiveSetupPacket) && h.cfg.SplitSetup[ev.Role]:
		rc, _ := event.ReceiveControlFrom(ev)
		if _, err := queue.Submit(h.queue, rc); err != nil {
			h.dropped(err, ev)
		}

	case captured:
		if err := h.queue.EnqueueBuffer(pkt); err != nil {
			h.dropped(err, ev)
		}

	default:
		if _, err := queue.Submit(h.queue, ev); err != nil {
			h.dropped(err, ev)
		}
	}

	return ev
}

// ServeAll calls Service while any interrupt is pending, at most limit
// times, and returns the number of interrupts serviced.
func (h *Handler) ServeAll(limit int) int {
	n := 0
	for n < limit && h.classifier.Pending() != 0 {
		h.Service()
		n++
	}
	return n
}

func (h *Handler) dropped(err error, ev event.InterruptEvent) {
	var oe *queue.OverflowError
	name := "unknown"
	if errors.As(err, &oe) {
		name = oe.Queue.String()
	}
	pkg.LogError(pkg.ComponentQueue, "event dropped", "queue", name, "event", ev.String(), "error", err)
}
