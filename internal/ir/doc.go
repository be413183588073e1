// Package ir defines the constants, types and floating-point formats that
// fold requests and results are expressed in.
//
// This package contains value types only. All other internal packages
// import ir; ir imports nothing internal.
//
// Key constraints:
//   - Integer constants are always normalized to their type's width
//   - Real values are exact: a finite value is a big.Rat magnitude plus sign
//   - Formats are read-only descriptors shared across goroutines
//   - All JSON tags use snake_case
package ir
