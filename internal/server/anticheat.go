package server

import "time"

// Anti-cheat predicates. Both are pure: callers update the per-participant
// history kept on the variant state after a positive verdict.

// allowTap reports whether a tap at now respects the rate ceiling given the
// participant's last accepted tap. A zero lastTap always passes.
func allowTap(lastTap, now time.Time, maxPerSecond int) bool {
	if maxPerSecond <= 0 {
		return true
	}
	if lastTap.IsZero() {
		return true
	}
	return now.Sub(lastTap) >= time.Second/time.Duration(maxPerSecond)
}

// freshChallenge reports whether any issued challenge is within the response
// window of respondedAt. Scanning newest-first matches the expectation that
// clients answer the most recent probe.
func freshChallenge(issued []Challenge, respondedAt time.Time, window time.Duration) bool {
	for i := len(issued) - 1; i >= 0; i-- {
		elapsed := respondedAt.Sub(issued[i].IssuedAt)
		if elapsed >= 0 && elapsed < window {
			return true
		}
	}
	return false
}
