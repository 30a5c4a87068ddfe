package fulfillment

import "time"

// Policy is a capped exponential backoff schedule.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultPolicy is three attempts waiting 1s then 2s, never more than 5s.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: 5 * time.Second}
}

// Delay returns how long to wait after the given failed attempt (1-based):
// min(BaseDelay * 2^(attempt-1), MaxDelay).
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			break
		}
		d *= 2
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// Next reports the delay before the attempt following the failed one, and
// false when no attempt is left.
func (p Policy) Next(attempt int) (time.Duration, bool) {
	if attempt >= p.attempts() {
		return 0, false
	}
	return p.Delay(attempt), true
}

func (p Policy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}
