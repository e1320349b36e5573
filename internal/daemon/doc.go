// Package daemon assembles and runs the voice-alarm daemon: the alarm
// store, the wake-up timer bed, the announcement service, the speech
// engine and the control socket, plus a database watcher that re-arms
// alarms when the file changes underneath the daemon.
package daemon
