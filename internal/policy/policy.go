// Package policy decides whether a requester may perform an operation on a
// task or user resource. Decide is pure: callers resolve the resource first
// and report a missing one as not found before asking for a decision.
package policy

import "github.com/atinyakov/TaskKeeper/internal/models"

// Decision is the outcome of Decide.
type Decision bool

const (
	Deny  Decision = false
	Allow Decision = true
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// Operation is the action being attempted.
type Operation int

const (
	Read Operation = iota
	Update
	Delete
	// List targets a whole collection rather than a single record.
	List
)

func (o Operation) String() string {
	switch o {
	case Read:
		return "read"
	case Update:
		return "update"
	case Delete:
		return "delete"
	case List:
		return "list"
	}
	return "unknown"
}

// Kind tells task resources from user resources.
type Kind int

const (
	KindTask Kind = iota
	KindUser
)

// Subject is the authenticated requester.
type Subject struct {
	ID      string
	IsAdmin bool
}

// SubjectOf builds a Subject from a user record.
func SubjectOf(u models.User) Subject {
	return Subject{ID: u.ID, IsAdmin: u.IsAdmin}
}

// Resource is the target of an operation. OwnerID is set for tasks,
// IsAdmin for users. A zero-id resource stands for the whole collection.
type Resource struct {
	Kind    Kind
	ID      string
	OwnerID string
	IsAdmin bool
}

// TaskResource describes t for Decide.
func TaskResource(t models.Task) Resource {
	return Resource{Kind: KindTask, ID: t.ID, OwnerID: t.Owner}
}

// UserResource describes u for Decide.
func UserResource(u models.User) Resource {
	return Resource{Kind: KindUser, ID: u.ID, IsAdmin: u.IsAdmin}
}

// Tasks is the collection of every task.
var Tasks = Resource{Kind: KindTask}

// Users is the collection of every user.
var Users = Resource{Kind: KindUser}

// Decide applies the role and ownership rules:
//
//  1. Administrators may do anything, except delete an administrator account.
//  2. Other users may read, update, and delete the tasks they own.
//  3. Everything else is denied.
func Decide(sub Subject, op Operation, res Resource) Decision {
	if sub.IsAdmin {
		if res.Kind == KindUser && op == Delete && res.IsAdmin {
			return Deny
		}
		return Allow
	}
	if res.Kind != KindTask || op == List {
		return Deny
	}
	if res.OwnerID != "" && res.OwnerID == sub.ID {
		return Allow
	}
	return Deny
}
