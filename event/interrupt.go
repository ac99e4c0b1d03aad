package event

import (
	"fmt"

	"github.com/ardnew/usbtap/usb"
)

// Kind identifies the variant held by an InterruptEvent.
type Kind uint8

// Interrupt event kinds.
const (
	KindUsb                Kind = iota // a USB condition on a named controller
	KindErrorMessage                   // a local anomaly with a static message
	KindUnhandledInterrupt             // nothing matched; carries the pending bits
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindUsb:
		return "Usb"
	case KindErrorMessage:
		return "ErrorMessage"
	case KindUnhandledInterrupt:
		return "UnhandledInterrupt"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// InterruptEvent is the outcome of one classification pass. It is a fixed
// size value with no pointers other than the static message string, so it
// can be copied into queue storage without allocating.
type InterruptEvent struct {
	Kind    Kind
	Role    usb.Role
	Usb     UsbEvent
	Message string
	Pending uint32
}

// Usb returns a USB condition event for role.
func Usb(role usb.Role, ev UsbEvent) InterruptEvent {
	return InterruptEvent{Kind: KindUsb, Role: role, Usb: ev}
}

// ErrorMessage returns an error event. msg must be a constant string; the
// event keeps a reference to it.
func ErrorMessage(msg string) InterruptEvent {
	return InterruptEvent{Kind: KindErrorMessage, Message: msg}
}

// UnhandledInterrupt returns a diagnostic event carrying the raw pending bits.
func UnhandledInterrupt(pending uint32) InterruptEvent {
	return InterruptEvent{Kind: KindUnhandledInterrupt, Pending: pending}
}

// IsUsb reports whether e is a USB event of the given kind.
func (e InterruptEvent) IsUsb(kind UsbKind) bool {
	return e.Kind == KindUsb && e.Usb.Kind == kind
}

// String returns a compact description of the event.
func (e InterruptEvent) String() string {
	switch e.Kind {
	case KindUsb:
		return fmt.Sprintf("Usb(%s, %s)", e.Role, e.Usb)
	case KindErrorMessage:
		return fmt.Sprintf("ErrorMessage(%q)", e.Message)
	case KindUnhandledInterrupt:
		return fmt.Sprintf("UnhandledInterrupt(0x%08X)", e.Pending)
	default:
		return e.Kind.String()
	}
}
