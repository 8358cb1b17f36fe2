// Package synthetic provides deterministic generator backends that need no
// model server. Speech is a voiced tone whose length follows the text, face
// expressions follow the loudness of the audio, and motion drifts smoothly
// from the seed pose. They keep the daemon usable on machines without a GPU
// and give tests realistic artifacts.
package synthetic
