// Package waketimer is the wake-up timer bed backing the scheduler: at
// most one pending timer per alarm id, firing a payload into the
// dispatcher at an absolute instant. Re-arming an id atomically replaces
// its previous handle.
package waketimer
