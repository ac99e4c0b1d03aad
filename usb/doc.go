// Package usb defines the small USB data model shared by the interrupt
// classifier and the event queue.
//
// It covers only what the interrupt core needs:
//
//   - [Role] names the three controllers (target, aux, control)
//   - [SetupPacket] is the 8-byte control transfer header
//   - endpoint number limits and the maximum packet size
//
// # Zero-Allocation Design
//
// [SetupPacketFromArray] converts the fixed buffer filled from the control
// FIFO without any error path, so the interrupt handler never needs to
// check a result it already validated by byte count. [ParseSetupPacket]
// is the slice-based form for consumer code.
//
//	var pkt usb.SetupPacket
//	if err := usb.ParseSetupPacket(raw, &pkt); err != nil {
//	    return err
//	}
//	if pkt.Request == usb.RequestGetDescriptor {
//	    // ...
//	}
package usb
