package vacuum

// Target is a user-facing intent for the vacuum.
type Target string

// Supported targets.
const (
	TargetIdle      Target = "Idle"
	TargetClean     Target = "Clean"
	TargetMapping   Target = "Mapping"
	TargetPause     Target = "Pause"
	TargetResume    Target = "Resume"
	TargetGoHome    Target = "GoHome"
	TargetZoneClean Target = "ZoneClean"
)

// AllTargets lists every target the transition table covers.
var AllTargets = []Target{
	TargetIdle,
	TargetClean,
	TargetMapping,
	TargetPause,
	TargetResume,
	TargetGoHome,
	TargetZoneClean,
}

// ActionKind classifies the table's verdict for a (state, target) pair.
type ActionKind int

const (
	// ActionReject: the target is not allowed in the current state.
	ActionReject ActionKind = iota

	// ActionNoop: the target is already satisfied; succeed without publishing.
	ActionNoop

	// ActionFire: publish the command and succeed immediately
	// (fire-and-forget form).
	ActionFire

	// ActionConfirm: publish the command, then wait until a later status
	// update satisfies the target (confirm-on-completion form).
	ActionConfirm
)

// Action is the table's verdict: what to do for a (state, target) pair.
type Action struct {
	Kind ActionKind

	// Command is the wire command tag to publish (ActionFire/ActionConfirm).
	Command string

	// Params are command parameters to include in the publish.
	Params map[string]any
}

// Command wire tags.
const (
	cmdStart  = "START"
	cmdPause  = "PAUSE"
	cmdResume = "RESUME"
	cmdAbort  = "ABORT"
)

// Full clean type parameter values for START.
const (
	fullCleanImmediate = "immediate"
	fullCleanMapping   = "mapping"
	fullCleanZoned     = "zoneConfigured"
)

var (
	reject = Action{Kind: ActionReject}
	noop   = Action{Kind: ActionNoop}
)

func confirm(command string, params map[string]any) Action {
	return Action{Kind: ActionConfirm, Command: command, Params: params}
}

func fire(command string, params map[string]any) Action {
	return Action{Kind: ActionFire, Command: command, Params: params}
}

// TargetAction is the transition table lookup: what a target requires
// given the current state.
//
// The verdicts mirror the appliance's own behaviour, not an idealised
// model. In particular:
//
//   - A powered-off machine rejects everything.
//   - Pause is only meaningful while actively running or discovering;
//     the charging interludes of a clean cannot be paused.
//   - GoHome during any active run maps to ABORT, which the appliance
//     answers by returning to the dock.
//   - Idle is the fire-and-forget form of ABORT: the caller does not
//     want to wait for the traverse home to finish.
//
// The same lookup doubles as the confirmation predicate: once a later
// status update makes the verdict ActionNoop, the target is achieved.
func TargetAction(state State, target Target) Action {
	if state == StateMachineOff {
		return reject
	}

	switch target {
	case TargetClean:
		return cleanAction(state, fullCleanImmediate)

	case TargetZoneClean:
		return cleanAction(state, fullCleanZoned)

	case TargetMapping:
		return mappingAction(state)

	case TargetPause:
		return pauseAction(state)

	case TargetResume:
		return resumeAction(state)

	case TargetGoHome:
		return goHomeAction(state)

	case TargetIdle:
		return idleAction(state)

	default:
		return reject
	}
}

// cleanAction handles TargetClean and TargetZoneClean, which differ only
// in the full clean type parameter.
func cleanAction(state State, cleanType string) Action {
	switch state {
	case StateInactiveCharged, StateInactiveDischarging,
		StateFullCleanFinished, StateFullCleanAborted, StateFullCleanAbandoned,
		StateMappingFinished, StateMappingAborted:
		return confirm(cmdStart, map[string]any{"fullCleanType": cleanType})

	case StateInactiveCharging:
		// Starting from the dock while charging is allowed; the robot
		// undocks and begins.
		return confirm(cmdStart, map[string]any{"fullCleanType": cleanType})

	case StateFullCleanInitiated, StateFullCleanRunning,
		StateFullCleanDiscovering, StateFullCleanTraversing,
		StateFullCleanCharging, StateFullCleanNeedsCharge:
		return noop

	default:
		// Paused runs must be resumed, not restarted. Faults reject.
		return reject
	}
}

func mappingAction(state State) Action {
	switch state {
	case StateInactiveCharged, StateInactiveCharging,
		StateFullCleanFinished, StateMappingFinished, StateMappingAborted:
		return confirm(cmdStart, map[string]any{"fullCleanType": fullCleanMapping})

	case StateMappingInitiated, StateMappingRunning,
		StateMappingCharging, StateMappingNeedsCharge:
		return noop

	default:
		return reject
	}
}

func pauseAction(state State) Action {
	switch state {
	case StateFullCleanRunning, StateFullCleanDiscovering, StateFullCleanTraversing,
		StateMappingRunning:
		return confirm(cmdPause, nil)

	case StateFullCleanPaused, StateMappingPaused:
		return noop

	default:
		return reject
	}
}

func resumeAction(state State) Action {
	switch state {
	case StateFullCleanPaused, StateMappingPaused:
		return confirm(cmdResume, nil)

	case StateFullCleanRunning, StateFullCleanDiscovering, StateFullCleanTraversing,
		StateMappingRunning:
		return noop

	default:
		return reject
	}
}

func goHomeAction(state State) Action {
	if cleaningActive(state) {
		return confirm(cmdAbort, nil)
	}

	switch state {
	case StateInactiveCharged, StateInactiveCharging,
		StateFullCleanFinished, StateMappingFinished,
		StateFaultOnDock, StateFaultOnDockCharged, StateFaultOnDockCharging:
		// Already on (or returning to) the dock.
		return noop

	default:
		return reject
	}
}

func idleAction(state State) Action {
	if cleaningActive(state) {
		return fire(cmdAbort, nil)
	}

	switch state {
	case StateInactiveCharged, StateInactiveCharging, StateInactiveDischarging,
		StateFullCleanFinished, StateFullCleanAborted, StateFullCleanAbandoned,
		StateMappingFinished, StateMappingAborted:
		return noop

	default:
		return reject
	}
}
