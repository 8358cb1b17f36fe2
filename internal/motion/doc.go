// Package motion implements the body-motion stage.
//
// Each generation is seeded with the previous output so consecutive clips
// join without a visible jump. The seed is discarded once the stage has sat
// idle in Wait for longer than the idle window; Stop and Error handling
// refresh the window, so a pause spent in either keeps the seed alive.
package motion
