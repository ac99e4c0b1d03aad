// Package scenario loads simulator stimulus files.
//
// A scenario is a list of bursts. Every step in a burst marks one
// condition pending on one simulated controller; the bursts are raised in
// order and the interrupt handler drains each before the next. Files are
// YAML or TOML, chosen by extension:
//
//	name: enumerate
//	bursts:
//	  - steps:
//	      - {role: target, condition: bus-reset}
//	  - steps:
//	      - role: target
//	        condition: control
//	        endpoint: 0
//	        setup: "80 06 00 01 00 00 12 00"
//	      - {role: aux, condition: out, endpoint: 1, text: hello}
//	  - repeat: 4
//	    steps:
//	      - {role: target, condition: in, endpoint: 1}
package scenario
