package pkg

import "errors"

// Interrupt core errors.
var (
	// ErrQueueFull indicates a sub-queue had no free slot for an event.
	ErrQueueFull = errors.New("event queue full")

	// ErrSetupPacketTooShort indicates the setup packet data is too short.
	ErrSetupPacketTooShort = errors.New("setup packet too short")

	// ErrEmptySetupRead indicates the control FIFO returned no bytes for a
	// pending setup condition.
	ErrEmptySetupRead = errors.New("received 0 bytes for setup packet")

	// ErrUnhandledInterrupt indicates no known condition matched a pending
	// interrupt.
	ErrUnhandledInterrupt = errors.New("unhandled interrupt")

	// ErrInvalidEndpoint indicates an endpoint number outside 0-15.
	ErrInvalidEndpoint = errors.New("invalid endpoint")

	// ErrInvalidRole indicates an unknown controller role.
	ErrInvalidRole = errors.New("invalid controller role")

	// ErrInvalidInterrupt indicates an unknown interrupt condition.
	ErrInvalidInterrupt = errors.New("invalid interrupt condition")

	// ErrBufferTooSmall indicates the provided buffer is too small.
	ErrBufferTooSmall = errors.New("buffer too small")

	// ErrPacketTooLarge indicates a packet exceeds the maximum packet size.
	ErrPacketTooLarge = errors.New("packet exceeds max packet size")

	// ErrScenario indicates a malformed simulator scenario.
	ErrScenario = errors.New("invalid scenario")
)
