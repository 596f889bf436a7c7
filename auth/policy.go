package auth

import "strings"

// Action names an operation guarded by the role policy.
type Action string

const (
	ActionHealth                  Action = "health"
	ActionReadLoans               Action = "loans:read"
	ActionCreateLoan              Action = "loans:create"
	ActionUploadLoanImage         Action = "loans:upload-image"
	ActionRegisterUser            Action = "users:register"
	ActionLookupRole              Action = "users:lookup-role"
	ActionLogin                   Action = "users:login"
	ActionListUsers               Action = "users:list"
	ActionUpdateUserRole          Action = "users:update-role"
	ActionDeleteUser              Action = "users:delete"
	ActionSubmitApplication       Action = "applications:submit"
	ActionListApplications        Action = "applications:list"
	ActionUpdateApplicationStatus Action = "applications:update-status"
	ActionDeleteApplication       Action = "applications:delete"
)

type access int

const (
	public access = iota
	authenticated
	managerOnly
)

var actionAccess = map[Action]access{
	ActionHealth:                  public,
	ActionReadLoans:               public,
	ActionRegisterUser:            public,
	ActionLookupRole:              public,
	ActionLogin:                   public,
	ActionCreateLoan:              managerOnly,
	ActionUploadLoanImage:         managerOnly,
	ActionListUsers:               managerOnly,
	ActionUpdateUserRole:          managerOnly,
	ActionDeleteUser:              managerOnly,
	ActionSubmitApplication:       authenticated,
	ActionListApplications:        authenticated,
	ActionUpdateApplicationStatus: managerOnly,
	ActionDeleteApplication:       managerOnly,
}

// IsPublic reports whether action may be performed without a session token.
func IsPublic(action Action) bool {
	a, ok := actionAccess[action]
	return ok && a == public
}

// Target describes the resource an action applies to. Email is the owner of
// the resource when the action is scoped to one user; empty means unscoped.
type Target struct {
	Email string
}

// Effect is the outcome tag of a Decision.
type Effect int

const (
	Allow Effect = iota
	DenyUnauthenticated
	DenyForbidden
)

// Decision is the result of evaluating the policy.
type Decision struct {
	Effect Effect
	Reason string
}

// Allowed reports whether the decision permits the action.
func (d Decision) Allowed() bool {
	return d.Effect == Allow
}

func allow() Decision { return Decision{Effect: Allow} }

func forbid(reason string) Decision {
	return Decision{Effect: DenyForbidden, Reason: reason}
}

// Decide evaluates whether id may perform action on target. A nil id is an
// unauthenticated caller. Unknown actions are denied.
func Decide(id *Identity, action Action, target Target) Decision {
	level, ok := actionAccess[action]
	if !ok {
		return forbid("unknown action")
	}
	if level == public {
		return allow()
	}
	if id == nil {
		return Decision{Effect: DenyUnauthenticated, Reason: "authentication required"}
	}

	switch action {
	case ActionUpdateUserRole:
		if !id.IsManager() {
			return forbid("manager role required")
		}
		if target.Email != "" && strings.EqualFold(target.Email, id.Email) {
			return forbid("users cannot change their own role")
		}
		return allow()
	case ActionListApplications:
		if id.IsManager() || target.Email == "" || strings.EqualFold(target.Email, id.Email) {
			return allow()
		}
		return forbid("cannot list another user's applications")
	}

	if level == managerOnly && !id.IsManager() {
		return forbid("manager role required")
	}
	return allow()
}
