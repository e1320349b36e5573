// Package announcer runs the announcement session of a fired alarm: it
// loads the alarm, takes the platform resources it needs (wake lock,
// notification, audio focus), speaks the alarm text a fixed number of
// times and finally reschedules or disables the alarm. A single session
// runs at a time; a newer firing preempts the current one.
package announcer
