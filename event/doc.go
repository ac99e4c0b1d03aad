// Package event defines the values that flow out of interrupt handling and
// into the multi-event queue.
//
// Three payload kinds exist, each queued in its own sub-queue:
//
//   - [InterruptEvent]: the result of one classification pass, a tagged
//     union of Usb, ErrorMessage and UnhandledInterrupt
//   - [ReceiveControlExt]: a setup packet together with its role and endpoint
//   - [ReceivePacketExt]: a captured OUT packet with a full-size buffer
//
// The tagged unions are plain structs with a Kind discriminant rather than
// interfaces, so they stay fixed size and are copied by value into queue
// slots without boxing.
package event
