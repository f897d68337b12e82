package meetup

import (
	"fmt"

	"playmatch/meetups/internal/models"
)

// Actor is the caller as supplied by the identity provider. A zero ID is anonymous.
type Actor struct {
	ID   uint
	Name string
}

// Anonymous reports whether the caller is unauthenticated.
func (a Actor) Anonymous() bool {
	return a.ID == 0
}

// Role is an actor's relation to a given meetup.
type Role int

const (
	RoleAnonymous Role = iota
	RoleMember         // authenticated, not on the roster
	RoleParticipant    // on the roster, not the host
	RoleHost
)

func (r Role) String() string {
	switch r {
	case RoleMember:
		return "member"
	case RoleParticipant:
		return "participant"
	case RoleHost:
		return "host"
	}
	return "anonymous"
}

// Action is something an actor can attempt on a meetup.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionCancel Action = "cancel"
	ActionDelete Action = "delete"
	ActionJoin   Action = "join"
	ActionLeave  Action = "leave"
)

// Guard approves or denies actions. It never mutates state.
type Guard struct{}

// RoleOf derives a's role on m. m may be nil for actions without a meetup.
func (Guard) RoleOf(a Actor, m *models.Meetup) Role {
	switch {
	case a.Anonymous():
		return RoleAnonymous
	case m == nil:
		return RoleMember
	case m.HostID == a.ID:
		return RoleHost
	case m.HasParticipant(a.ID):
		return RoleParticipant
	}
	return RoleMember
}

// Authorize checks action against the capability matrix.
// Membership conflicts on join and leave come back as the specific domain error.
func (g Guard) Authorize(a Actor, action Action, m *models.Meetup) error {
	role := g.RoleOf(a, m)
	if role == RoleAnonymous {
		return fmt.Errorf("%w: sign in to %s meetups", ErrAuthorization, action)
	}

	switch action {
	case ActionCreate:
		return nil
	case ActionUpdate, ActionCancel, ActionDelete:
		if role != RoleHost {
			return fmt.Errorf("%w: only the host can %s this meetup", ErrAuthorization, action)
		}
		return nil
	case ActionJoin:
		if role != RoleMember {
			return ErrAlreadyJoined
		}
		return nil
	case ActionLeave:
		switch role {
		case RoleHost:
			return ErrHostCannotLeave
		case RoleMember:
			return ErrNotParticipant
		}
		return nil
	}
	return fmt.Errorf("%w: unknown action %q", ErrAuthorization, action)
}
