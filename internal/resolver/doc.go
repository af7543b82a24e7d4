// Package resolver folds ordered configuration blocks into an effective
// configuration.
//
// Resolution is last-write-wins: for every key the value of the last
// assignment seen, in block order and then declaration order, survives.
// Overriding a key is never an error. Lint reports the places where that
// rule silently discarded a value so that authors can decide whether the
// earlier assignment is intentional or dead.
//
// All functions in this package are pure: they neither mutate their input
// nor keep any state between calls.
package resolver
