// Package config loads the folding configuration: the floating-point
// format registry, numeric safety flags and target facts.
//
// The built-in document is defaults.cue. A user directory holding one CUE
// package is unified with it, so user files may add formats and set flags
// or target values; contradicting a built-in format is an error. Decoded
// formats are then checked with validator struct tags.
package config
