// Package trace provides the instrumentation hook used to time interrupt
// handling on an external logic analyzer.
//
// A traced block is bracketed by [Tracer.Enter] and [Tracer.Exit] on a
// named channel and marker:
//
//	ev := trace.Do(t, trace.ChannelB, trace.MarkerIRQEPControl, func() event.InterruptEvent {
//	    // ...
//	})
//
// [Do] returns the block's value unchanged and never alters control flow.
// [Nop] discards everything; [Recorder] keeps a fixed window of
// timestamped samples for hosted runs and tests.
package trace
