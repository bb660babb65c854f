package sdk

import "time"

// DurationPtr is a convenience helper for optional duration fields such as
// Config.NavigateDelay, where zero is a meaningful value.
func DurationPtr(d time.Duration) *time.Duration { return &d }

// BoolPtr is a convenience helper for optional boolean fields.
func BoolPtr(b bool) *bool { return &b }
