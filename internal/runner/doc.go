// Package runner plays a scenario against a simulated board.
//
// The producer goroutine stands in for the interrupt line: it raises each
// burst on a [sim.Board] and calls [irq.Handler.ServeAll] until nothing is
// pending. The consumer goroutine stands in for task code and drains the
// [queue.MultiEventQueue]. Both run under one errgroup; cancelling the
// context stops the run between bursts.
package runner
