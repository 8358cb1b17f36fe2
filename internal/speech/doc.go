// Package speech implements the text-to-speech stage.
//
// Admitted text is prepared for the model one item per tick before the
// status handler runs, so preparation overlaps with generation of earlier
// items. A stop request discards all pending text and undelivered audio.
package speech
