// Package clock provides the time source used for run and message
// timestamps, with a stub point for deterministic tests.
package clock

import "time"

// NowFunc supplies the current time; override in tests.
var NowFunc = time.Now

// Now returns the current time via NowFunc.
func Now() time.Time { return NowFunc() }
