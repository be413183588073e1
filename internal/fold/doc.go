// Package fold decides whether a call to a well-known builtin with
// constant arguments can be replaced by its result, and computes that
// result.
//
// A Folder is a stateless oracle: Fold(fn, resultType, args...) either
// returns a constant of exactly resultType or reports that the call must
// be left alone. The reason for declining never crosses the package
// boundary; it is logged at debug level.
//
// Routing:
//
// Every Func has one table entry naming its family, its operand shapes and
// the result kinds it accepts. Fold classifies each operand once (integer,
// real, complex, byte buffer or vector), checks it against the entry and
// hands the call to the family's handler. A handler reached with a Func it
// does not implement panics: the table and the handlers are out of sync.
//
// Numeric safety:
//
// Flags carries the compiler's trapping-math, rounding-math, errno-math,
// signaling-NaN and unsafe-math settings. Folding never removes a trap,
// an errno update or a rounding-mode dependence that the flags say the
// program may observe.
package fold
