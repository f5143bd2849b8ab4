package core

import "time"

// RateLimitConfig holds the known limits for one source. Zero means no limit
// for that window.
type RateLimitConfig struct {
	RequestsPerMinute int `json:"requests_per_minute,omitempty" mapstructure:"requests_per_minute" validate:"gte=0"`
	RequestsPerDay    int `json:"requests_per_day,omitempty" mapstructure:"requests_per_day" validate:"gte=0"`
	BurstSize         int `json:"burst_size,omitempty" mapstructure:"burst_size" validate:"gte=0"`
}

// Burst returns the configured burst size, defaulting to the minute cap or 10.
func (c RateLimitConfig) Burst() int {
	if c.BurstSize > 0 {
		return c.BurstSize
	}
	if c.RequestsPerMinute > 0 {
		return c.RequestsPerMinute
	}
	return 10
}

// RateLimitStatus reports the current window state for a source.
type RateLimitStatus struct {
	Source         string        `json:"source"`
	Configured     bool          `json:"configured"`
	MinuteRequests int           `json:"minute_requests"`
	MinuteLimit    int           `json:"minute_limit,omitempty"`
	DailyRequests  int           `json:"daily_requests"`
	DailyLimit     int           `json:"daily_limit,omitempty"`
	Burst          int           `json:"burst,omitempty"`
	CanRequest     bool          `json:"can_request"`
	EstimatedWait  time.Duration `json:"estimated_wait,omitempty"`
}
