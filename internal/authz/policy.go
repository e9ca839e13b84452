// Package authz decides whether an authenticated actor may perform an action
// on a content type. Decisions are a pure function of the actor's admin flag,
// role, and permission set; nothing here touches external state.
package authz

import "strings"

// Action is a requested operation on a content type.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// ContentType identifies what the action targets.
type ContentType string

const (
	ContentNote     ContentType = "note"
	ContentResource ContentType = "resource"
	ContentUser     ContentType = "user"
)

// Actor carries the claims the policy evaluates. It is resolved once per
// request by the auth middleware and passed explicitly.
type Actor struct {
	UserID      int
	IsAdmin     bool
	Role        string
	Permissions []string
}

// Superadmin reports whether the actor holds the superadmin role.
func (a Actor) Superadmin() bool {
	return strings.EqualFold(a.Role, "superadmin")
}

// hasToken checks the actor's permission set for any of the given tokens.
// Tokens are compared case-insensitively.
func (a Actor) hasToken(tokens ...string) bool {
	for _, granted := range a.Permissions {
		granted = strings.ToLower(strings.TrimSpace(granted))
		for _, want := range tokens {
			if granted == want {
				return true
			}
		}
	}
	return false
}

// Allow reports whether the actor may perform the action on the content type.
//
// The rule set, in order:
//  1. superadmin: every action on every content type.
//  2. user management: superadmin only, including read.
//  3. notes and resources: the actor must be an admin and hold the action's
//     permission token. "write" is accepted as a synonym for "update".
//     A content-manager holding the matching token may mutate resources;
//     read on resources requires only the admin flag.
func Allow(actor Actor, action Action, target ContentType) bool {
	if actor.Superadmin() {
		return true
	}

	if target == ContentUser {
		return false
	}

	if !actor.IsAdmin {
		return false
	}

	switch action {
	case ActionRead:
		return true
	case ActionCreate:
		return actor.hasToken("create")
	case ActionUpdate:
		return actor.hasToken("update", "write")
	case ActionDelete:
		return actor.hasToken("delete")
	}
	return false
}

// NormalizeTokens flattens a raw permission list into lowercase, deduplicated
// tokens. Legacy records sometimes hold a single comma-joined string inside a
// one-element list; those are split here so business logic only ever sees a
// clean set.
func NormalizeTokens(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	tokens := make([]string, 0, len(raw))
	for _, entry := range raw {
		for _, part := range strings.Split(entry, ",") {
			token := strings.ToLower(strings.TrimSpace(part))
			if token == "" {
				continue
			}
			if _, dup := seen[token]; dup {
				continue
			}
			seen[token] = struct{}{}
			tokens = append(tokens, token)
		}
	}
	return tokens
}
