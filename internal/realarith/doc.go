// Package realarith implements the closed-form floating-point operations
// that never need an arbitrary-precision math backend: rounding to
// integers, exponent scaling, stepping to adjacent values, integer powers
// and the scalar arithmetic used by vector reductions.
//
// Every operation is exact over big.Rat and rounds once into the target
// format, so results are reproducible bit for bit.
package realarith
