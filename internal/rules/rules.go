// Package rules implements composable authorization checks. A rule is
// a pure predicate over the requester and the request context; rules
// attached to an operation are combined with logical AND and evaluated
// in order, stopping at the first denial.
package rules

import "github.com/chatrelay/apiserver/types"

// Context carries the request facts rules evaluate against.
type Context struct {
	// WantsSuperuser is set when the request attempts to grant
	// superuser privileges.
	WantsSuperuser bool
}

// Rule decides whether a request is allowed. Rules never mutate state.
type Rule interface {
	// Allow evaluates the rule. requester is nil for anonymous callers.
	Allow(requester *types.User, ctx Context) bool

	// Message is the fixed denial text surfaced when Allow is false.
	Message() string
}

// Denied is returned by Evaluate when a rule fails; it carries that
// rule's message.
type Denied struct {
	Reason string
}

func (d *Denied) Error() string {
	return d.Reason
}

// Evaluate runs the rules in order and returns a *Denied for the first
// failing rule, or nil when all pass.
func Evaluate(requester *types.User, ctx Context, ruleset ...Rule) error {
	for _, rule := range ruleset {
		if !rule.Allow(requester, ctx) {
			return &Denied{Reason: rule.Message()}
		}
	}
	return nil
}

// SuperuserElevation denies requests that try to grant superuser
// privileges unless the requester already is a superuser.
type SuperuserElevation struct{}

func (SuperuserElevation) Allow(requester *types.User, ctx Context) bool {
	if !ctx.WantsSuperuser {
		return true
	}
	return requester != nil && requester.IsSuperuser
}

func (SuperuserElevation) Message() string {
	return "You cannot create a superuser without being one yourself."
}

// ActiveAccount denies anonymous requesters and requesters whose
// account is soft-deleted.
type ActiveAccount struct{}

func (ActiveAccount) Allow(requester *types.User, _ Context) bool {
	return requester != nil && !requester.IsDeleted()
}

func (ActiveAccount) Message() string {
	return "You cannot request data while your account is deleted."
}

// LinkedChat denies requesters that have no linked chat identity.
type LinkedChat struct{}

func (LinkedChat) Allow(requester *types.User, _ Context) bool {
	return requester != nil && requester.HasTelegram()
}

func (LinkedChat) Message() string {
	return "You need to connect a chat to continue."
}
