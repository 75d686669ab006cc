package lifecycle

import (
	"context"
	"errors"

	loopfsm "github.com/looplab/fsm"

	"perizinan/internal/common"
	"perizinan/internal/models"
)

// Transition defines a valid status change: an action moves a license from
// Src to Dst.
type Transition struct {
	Action string
	Src    string
	Dst    string
}

// Transitions is the fixed license lifecycle. Creation enters draft
// directly and is not part of the table; every other status change must
// match a row here.
var Transitions = []Transition{
	{Action: models.ActionSubmit, Src: models.StatusDraft, Dst: models.StatusSubmitted},
	{Action: models.ActionSubmit, Src: models.StatusRequiresRevision, Dst: models.StatusSubmitted},
	{Action: models.ActionBeginReview, Src: models.StatusSubmitted, Dst: models.StatusInReview},
	{Action: models.ActionRequestRevision, Src: models.StatusSubmitted, Dst: models.StatusRequiresRevision},
	{Action: models.ActionRequestRevision, Src: models.StatusInReview, Dst: models.StatusRequiresRevision},
	{Action: models.ActionApprove, Src: models.StatusSubmitted, Dst: models.StatusApproved},
	{Action: models.ActionApprove, Src: models.StatusInReview, Dst: models.StatusApproved},
	{Action: models.ActionReject, Src: models.StatusSubmitted, Dst: models.StatusRejected},
	{Action: models.ActionReject, Src: models.StatusInReview, Dst: models.StatusRejected},
	{Action: models.ActionRevoke, Src: models.StatusApproved, Dst: models.StatusRevoked},
	{Action: models.ActionExpire, Src: models.StatusApproved, Dst: models.StatusExpired},
}

// events converts Transitions into looplab/fsm EventDesc format,
// consolidating rows with the same action+destination into a single
// EventDesc with multiple source states.
var events = buildEvents()

func buildEvents() []loopfsm.EventDesc {
	type key struct {
		action string
		dst    string
	}
	grouped := make(map[key][]string)
	order := make([]key, 0)

	for _, t := range Transitions {
		k := key{action: t.Action, dst: t.Dst}
		if _, exists := grouped[k]; !exists {
			order = append(order, k)
		}
		grouped[k] = append(grouped[k], t.Src)
	}

	out := make([]loopfsm.EventDesc, 0, len(order))
	for _, k := range order {
		out = append(out, loopfsm.EventDesc{
			Name: k.action,
			Src:  grouped[k],
			Dst:  k.dst,
		})
	}
	return out
}

// Machine validates license status transitions. It is stateless: a
// short-lived FSM is created per Apply call because looplab/fsm tracks the
// current state internally.
type Machine struct{}

// New creates a lifecycle machine.
func New() *Machine {
	return &Machine{}
}

// Apply checks whether action is valid from the current status and returns
// the destination status. Returns a common.InvalidTransitionError naming
// the current status and the attempted action when the transition is not
// allowed. Apply never mutates anything.
func (m *Machine) Apply(ctx context.Context, current, action string) (string, error) {
	machine := loopfsm.NewFSM(current, events, nil)

	if err := machine.Event(ctx, action); err != nil {
		var invalidEvent loopfsm.InvalidEventError
		var unknownEvent loopfsm.UnknownEventError
		var noTransition loopfsm.NoTransitionError
		if errors.As(err, &invalidEvent) || errors.As(err, &unknownEvent) || errors.As(err, &noTransition) {
			return "", &common.InvalidTransitionError{Status: current, Action: action}
		}
		return "", err
	}

	return machine.Current(), nil
}

// CanEdit reports whether license content fields may still be changed in
// the given status.
func CanEdit(status string) bool {
	switch status {
	case models.StatusDraft, models.StatusSubmitted, models.StatusRequiresRevision:
		return true
	}
	return false
}
