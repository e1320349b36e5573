// Package stopui renders the full-screen dismissal prompt shown while
// an alarm rings. Pressing the stop key silences the alarm through the
// daemon's control socket; an untouched screen dismisses itself after a
// timeout without silencing anything.
package stopui
