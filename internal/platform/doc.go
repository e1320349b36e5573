// Package platform wraps the desktop facilities an announcement needs
// while it runs: a suspend inhibitor, a desktop notification with a stop
// action, and an advisory audio-focus arbiter. Every facility follows
// the same acquire-returns-release shape so the announcement loop can
// tear everything down unconditionally.
package platform
