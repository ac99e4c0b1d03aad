package usb

// Endpoint limits.
const (
	// MaxEndpoints is the number of endpoint numbers addressable on one
	// controller (0-15).
	MaxEndpoints = 16

	// EndpointNumberMask extracts the endpoint number from an address.
	EndpointNumberMask = 0x0F

	// MaxPacketSize is the largest packet any endpoint may carry and the
	// size of the buffer in an extended receive-packet event.
	MaxPacketSize = 512
)

// ValidEndpoint reports whether ep is an addressable endpoint number.
func ValidEndpoint(ep uint8) bool {
	return ep < MaxEndpoints
}
