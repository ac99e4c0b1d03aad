package trace

import "fmt"

// Channel is a logic-analyzer capture channel.
type Channel uint8

// Capture channels.
const (
	ChannelA Channel = iota // bus-level events
	ChannelB                // endpoint events
	NumChannels
)

// String returns the channel name.
func (c Channel) String() string {
	switch c {
	case ChannelA:
		return "A"
	case ChannelB:
		return "B"
	default:
		return fmt.Sprintf("Channel(%d)", uint8(c))
	}
}

// Marker is a bit within a channel that brackets one traced block.
type Marker uint8

// Interrupt classifier markers.
const (
	MarkerIRQBusReset  Marker = iota // bus reset branch
	MarkerIRQEPControl               // control endpoint branch
	MarkerIRQEPOut                   // OUT endpoint branch
	MarkerIRQEPIn                    // IN endpoint branch
	MarkerEPIs0                      // endpoint number was 0
	MarkerEPIs1                      // endpoint number was 1
	NumMarkers
)

// String returns the marker name.
func (m Marker) String() string {
	switch m {
	case MarkerIRQBusReset:
		return "irq_bus_reset"
	case MarkerIRQEPControl:
		return "irq_ep_control"
	case MarkerIRQEPOut:
		return "irq_ep_out"
	case MarkerIRQEPIn:
		return "irq_ep_in"
	case MarkerEPIs0:
		return "ep_is_0"
	case MarkerEPIs1:
		return "ep_is_1"
	default:
		return fmt.Sprintf("Marker(%d)", uint8(m))
	}
}

// Tracer records entry to and exit from traced blocks. Implementations
// are called from interrupt context and must not block or allocate.
type Tracer interface {
	Enter(ch Channel, m Marker)
	Exit(ch Channel, m Marker)
}

// Do runs fn bracketed by Enter and Exit on t and returns its result
// unchanged. A nil t runs fn untraced.
func Do[T any](t Tracer, ch Channel, m Marker, fn func() T) T {
	if t == nil {
		return fn()
	}
	t.Enter(ch, m)
	v := fn()
	t.Exit(ch, m)
	return v
}

// Mark records an empty traced block, a single pulse on the marker.
func Mark(t Tracer, ch Channel, m Marker) {
	if t == nil {
		return
	}
	t.Enter(ch, m)
	t.Exit(ch, m)
}

// Nop is a Tracer that records nothing.
type Nop struct{}

// Enter does nothing.
func (Nop) Enter(Channel, Marker) {}

// Exit does nothing.
func (Nop) Exit(Channel, Marker) {}
