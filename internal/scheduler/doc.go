// Package scheduler arms and disarms the single wake-up each alarm may
// hold. Schedule is cancel-then-set: it first disarms unconditionally,
// so two racing calls for the same id still leave at most one pending
// wake-up.
package scheduler
