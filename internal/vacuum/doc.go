// Package vacuum models the robot vacuum's command surface.
//
// The appliance exposes a small wire command set (START, PAUSE, RESUME,
// ABORT) but a large state space; this package bridges the two with a
// transition table mapping (state, target) pairs to verdicts. Callers
// express intent as a Target; the Commander consults the table,
// publishes the prescribed command, and for confirm-on-completion
// targets waits until the appliance's reported state satisfies the
// target. The same table lookup serves as the confirmation predicate.
//
// ApplyStatus folds CURRENT-STATE and STATE-CHANGE messages into a
// device snapshot, clearing per-run transient fields when a
// CURRENT-STATE message omits them.
package vacuum
