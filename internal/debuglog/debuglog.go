// Package debuglog is the ad-hoc diagnostic logger gated by
// NDS_TRACE_TERMINAL (spec.md §6). It exists purely for manual
// troubleshooting and is never required for correctness.
package debuglog

import (
	"fmt"
	"os"
)

func enabled() bool {
	v := os.Getenv("NDS_TRACE_TERMINAL")
	return v != "" && v != "0"
}

// Printf writes a diagnostic line to stderr when NDS_TRACE_TERMINAL is
// set to a non-empty value other than "0".
func Printf(format string, args ...interface{}) {
	if !enabled() {
		return
	}
	fmt.Fprintf(os.Stderr, "[nds-trace] "+format+"\n", args...)
}
