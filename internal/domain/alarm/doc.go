// Package alarm holds the alarm domain model shared by the daemon,
// the repository and the control surface.
package alarm
