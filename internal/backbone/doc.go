// Package backbone holds the ordered collection of pipeline stages and ticks
// each of them once per call. It does not route data between stages; the
// pipeline package does that after every tick.
//
// Drive is the long-running loop the daemon uses: tick, wait for the next
// interval or shutdown, repeat.
package backbone
