// Package dispatcher is the entry point invoked when an armed wake-up
// elapses. It decodes the alarm id from the raw payload and hands it to
// the announcement service; malformed payloads are dropped, never fatal.
package dispatcher
