package logic

// Transition returns the state that follows current when ev occurs. It is
// total: every (state, event) pair has a defined result.
//
// Reset wins from anywhere and needs no satisfied wait condition. Trigger
// and TimeExpired are equivalent ways of completing the current state and
// both advance the cycle. None leaves the state unchanged.
func Transition(current State, ev Event) State {
	switch ev {
	case EventReset:
		return StateReady
	case EventTrigger, EventTimeExpired:
		return current.Next()
	default:
		return current
	}
}
