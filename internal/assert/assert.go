// Package assert holds invariant checks for conditions that should be
// impossible to violate from valid caller input. They panic, and exist only
// to catch programmer error early — never call them on data that originates
// outside this process.
package assert

import "fmt"

// True panics with msg if cond is false.
func True(cond bool, msg string, args ...any) {
	if !cond {
		panic(fmt.Sprintf(msg, args...))
	}
}
