// Package prof profiles simulator runs.
//
// Profiling is compiled in only with the "profile" build tag:
//
//	go build -tags profile ./cmd/usbtap-sim
//	usbtap-sim --cpu-profile cpu.prof --heap-profile heap.prof run flood.yaml
//
// Without the tag, [Start] returns a session whose [Session.Stop] does
// nothing, so call sites need no build constraints of their own.
package prof
