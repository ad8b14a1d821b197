package structure

import "fmt"

// ValidationError reports malformed input: missing OHLC values,
// non-monotonic timestamps, or NaN highs/lows that would corrupt the
// window scan. The run fails before any output is produced.
type ValidationError struct {
	Index  int
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("invalid bar series: %s at index %d: %s", e.Field, e.Index, e.Reason)
	}
	return fmt.Sprintf("invalid bar series: %s: %s", e.Field, e.Reason)
}

// InsufficientDataError reports a series too short for the configured
// swing window; detection needs at least 2*window+1 bars.
type InsufficientDataError struct {
	Length   int
	Required int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %d bars, need at least %d", e.Length, e.Required)
}
