// Package control is the daemon's local command surface: a unix socket
// speaking newline-delimited JSON envelopes. The CLI and the stop
// screen use it to manage alarms and to silence a ringing one.
package control
