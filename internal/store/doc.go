// Package store writes per-script findings to disk.
//
// Each run writes into <output dir>/<target host>/. Every script with at
// least one accepted value gets <identifier>.txt holding the values joined
// by newlines, where the identifier is the last segment of the script path.
// Scripts sharing an identifier overwrite each other's artifact.
package store
