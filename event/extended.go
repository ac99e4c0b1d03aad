package event

import (
	"fmt"

	"github.com/ardnew/usbtap/usb"
)

// ReceiveControlExt is a setup packet reception carrying the fully parsed
// packet. It is queued separately from InterruptEvent.
type ReceiveControlExt struct {
	Role     usb.Role
	Endpoint uint8
	Setup    usb.SetupPacket
}

// ReceiveControlFrom converts a Usb(role, ReceiveSetupPacket(ep, pkt))
// interrupt event to its extended form. It returns false for any other event.
func ReceiveControlFrom(e InterruptEvent) (ReceiveControlExt, bool) {
	if !e.IsUsb(UsbReceiveSetupPacket) {
		return ReceiveControlExt{}, false
	}
	return ReceiveControlExt{Role: e.Role, Endpoint: e.Usb.Endpoint, Setup: e.Usb.Setup}, true
}

// String returns a compact description of the event.
func (e ReceiveControlExt) String() string {
	return fmt.Sprintf("ReceiveControl(%s, %d, %s)", e.Role, e.Endpoint, e.Setup)
}

// ReceivePacketExt carries the bytes of one OUT packet captured inside the
// interrupt handler. Buffer is sized for the largest endpoint packet.
type ReceivePacketExt struct {
	Role      usb.Role
	Endpoint  uint8
	BytesRead int
	Buffer    [usb.MaxPacketSize]byte
}

// Data returns the received bytes. The slice aliases e.Buffer.
func (e *ReceivePacketExt) Data() []byte {
	n := e.BytesRead
	if n < 0 {
		n = 0
	}
	if n > len(e.Buffer) {
		n = len(e.Buffer)
	}
	return e.Buffer[:n]
}

// String returns a compact description of the event.
func (e *ReceivePacketExt) String() string {
	return fmt.Sprintf("ReceivePacket(%s, %d, %d bytes)", e.Role, e.Endpoint, e.BytesRead)
}
