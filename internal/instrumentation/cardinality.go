package instrumentation

import "strconv"

// Cardinality management helpers for metrics.
//
// Session names, tags and keyword expressions are caller input and never
// become metric labels. The only per-run label is the exit code, folded into
// a small fixed set here.

// ExitCodeLabel maps a process exit code onto a bounded label value.
//
//	ExitCodeLabel(0)   // "0"
//	ExitCodeLabel(1)   // "1"
//	ExitCodeLabel(2)   // "2"
//	ExitCodeLabel(137) // "other"
//	ExitCodeLabel(-1)  // "signal"
func ExitCodeLabel(code int) string {
	switch {
	case code < 0:
		return "signal"
	case code <= 2:
		return strconv.Itoa(code)
	default:
		return "other"
	}
}
