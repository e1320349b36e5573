// Package alarms persists alarm definitions in a SQLite database. The
// database is the single source of truth: the scheduler re-arms from it
// at startup and after every mutation.
package alarms
