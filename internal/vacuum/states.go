package vacuum

// State is one of the appliance's discrete operating states, as reported
// in the "state" field of CURRENT-STATE and STATE-CHANGE messages.
//
// The enumeration is the appliance's own; it is not simplified here.
// Only MachineOff is terminal in the sense of having no outgoing
// transitions (a powered-off robot cannot be commanded back on).
type State string

// Inactive states: on or off the dock, no clean in progress.
const (
	StateMachineOff          State = "MachineOff"
	StateInactiveCharged     State = "InactiveCharged"
	StateInactiveCharging    State = "InactiveCharging"
	StateInactiveDischarging State = "InactiveDischarging"
)

// Full clean states.
const (
	StateFullCleanInitiated   State = "FullCleanInitiated"
	StateFullCleanRunning     State = "FullCleanRunning"
	StateFullCleanPaused      State = "FullCleanPaused"
	StateFullCleanDiscovering State = "FullCleanDiscovering"
	StateFullCleanTraversing  State = "FullCleanTraversing"
	StateFullCleanCharging    State = "FullCleanCharging"
	StateFullCleanNeedsCharge State = "FullCleanNeedsCharge"
	StateFullCleanFinished    State = "FullCleanFinished"
	StateFullCleanAborted     State = "FullCleanAborted"
	StateFullCleanAbandoned   State = "FullCleanAbandoned"
)

// Mapping states.
const (
	StateMappingInitiated   State = "MappingInitiated"
	StateMappingRunning     State = "MappingRunning"
	StateMappingPaused      State = "MappingPaused"
	StateMappingCharging    State = "MappingCharging"
	StateMappingNeedsCharge State = "MappingNeedsCharge"
	StateMappingFinished    State = "MappingFinished"
	StateMappingAborted     State = "MappingAborted"
)

// Fault states.
const (
	StateFaultUserRecoverable   State = "FaultUserRecoverable"
	StateFaultCritical          State = "FaultCritical"
	StateFaultGettingInfo       State = "FaultGettingInfo"
	StateFaultLost              State = "FaultLost"
	StateFaultOnDock            State = "FaultOnDock"
	StateFaultOnDockCharged     State = "FaultOnDockCharged"
	StateFaultOnDockCharging    State = "FaultOnDockCharging"
	StateFaultReplaceOnDock     State = "FaultReplaceOnDock"
	StateFaultReturnToDock      State = "FaultReturnToDock"
	StateFaultRunningDiagnostic State = "FaultRunningDiagnostic"
	StateFaultCallHelpline      State = "FaultCallHelpline"
	StateFaultContactHelpline   State = "FaultContactHelpline"
)

// AllStates lists every state the transition table covers. Used by the
// totality test; keep it in sync when the appliance firmware adds states.
var AllStates = []State{
	StateMachineOff,
	StateInactiveCharged,
	StateInactiveCharging,
	StateInactiveDischarging,
	StateFullCleanInitiated,
	StateFullCleanRunning,
	StateFullCleanPaused,
	StateFullCleanDiscovering,
	StateFullCleanTraversing,
	StateFullCleanCharging,
	StateFullCleanNeedsCharge,
	StateFullCleanFinished,
	StateFullCleanAborted,
	StateFullCleanAbandoned,
	StateMappingInitiated,
	StateMappingRunning,
	StateMappingPaused,
	StateMappingCharging,
	StateMappingNeedsCharge,
	StateMappingFinished,
	StateMappingAborted,
	StateFaultUserRecoverable,
	StateFaultCritical,
	StateFaultGettingInfo,
	StateFaultLost,
	StateFaultOnDock,
	StateFaultOnDockCharged,
	StateFaultOnDockCharging,
	StateFaultReplaceOnDock,
	StateFaultReturnToDock,
	StateFaultRunningDiagnostic,
	StateFaultCallHelpline,
	StateFaultContactHelpline,
}

// cleaningActive reports whether a clean or mapping run is in progress
// (including its charging interludes).
func cleaningActive(s State) bool {
	switch s {
	case StateFullCleanInitiated, StateFullCleanRunning, StateFullCleanPaused,
		StateFullCleanDiscovering, StateFullCleanTraversing,
		StateFullCleanCharging, StateFullCleanNeedsCharge,
		StateMappingInitiated, StateMappingRunning, StateMappingPaused,
		StateMappingCharging, StateMappingNeedsCharge:
		return true
	}
	return false
}
