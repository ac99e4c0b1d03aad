package event

import (
	"fmt"

	"github.com/ardnew/usbtap/usb"
)

// UsbKind identifies which condition a controller signalled.
type UsbKind uint8

// Usb event kinds.
const (
	UsbBusReset           UsbKind = iota // bus reset, no payload
	UsbReceiveSetupPacket                // setup packet extracted in the interrupt
	UsbReceivePacket                     // OUT data waiting in the endpoint FIFO
	UsbSendComplete                      // IN packet acknowledged by the host
	UsbReceiveControl                    // control condition, setup bytes not extracted
)

// String returns the condition name.
func (k UsbKind) String() string {
	switch k {
	case UsbBusReset:
		return "BusReset"
	case UsbReceiveSetupPacket:
		return "ReceiveSetupPacket"
	case UsbReceivePacket:
		return "ReceivePacket"
	case UsbSendComplete:
		return "SendComplete"
	case UsbReceiveControl:
		return "ReceiveControl"
	default:
		return fmt.Sprintf("UsbKind(%d)", uint8(k))
	}
}

// UsbEvent is a condition raised by one controller. Only the fields that
// belong to Kind are meaningful: Endpoint for every kind except BusReset,
// Setup only for UsbReceiveSetupPacket.
type UsbEvent struct {
	Kind     UsbKind
	Endpoint uint8
	Setup    usb.SetupPacket
}

// BusReset returns a bus reset event.
func BusReset() UsbEvent {
	return UsbEvent{Kind: UsbBusReset}
}

// ReceiveSetupPacket returns a setup packet event for endpoint.
func ReceiveSetupPacket(endpoint uint8, setup usb.SetupPacket) UsbEvent {
	return UsbEvent{Kind: UsbReceiveSetupPacket, Endpoint: endpoint, Setup: setup}
}

// ReceivePacket returns a data-received event for endpoint.
func ReceivePacket(endpoint uint8) UsbEvent {
	return UsbEvent{Kind: UsbReceivePacket, Endpoint: endpoint}
}

// SendComplete returns a send-complete event for endpoint.
func SendComplete(endpoint uint8) UsbEvent {
	return UsbEvent{Kind: UsbSendComplete, Endpoint: endpoint}
}

// ReceiveControl returns a control event for endpoint whose setup bytes are
// still in the controller FIFO.
func ReceiveControl(endpoint uint8) UsbEvent {
	return UsbEvent{Kind: UsbReceiveControl, Endpoint: endpoint}
}

// String returns a compact description of the event.
func (e UsbEvent) String() string {
	switch e.Kind {
	case UsbBusReset:
		return "BusReset"
	case UsbReceiveSetupPacket:
		return fmt.Sprintf("ReceiveSetupPacket(%d, %s)", e.Endpoint, e.Setup)
	default:
		return fmt.Sprintf("%s(%d)", e.Kind, e.Endpoint)
	}
}
