// Package dao provides data access objects for use in the Toks server.
package dao

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/HelifeWasTaken/Toks/ruleset"
	"github.com/google/uuid"
)

// Store holds all the repositories and maintains whatever shared resources
// they need. Close must be called before disposal.
type Store interface {
	Users() UserRepository
	RuleSets() RuleSetRepository
	Close() error
}

type UserRepository interface {

	// Create creates a new User. All attributes except for auto-generated
	// fields are taken from the provided User.
	Create(ctx context.Context, user User) (User, error)
	GetAll(ctx context.Context) ([]User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	Update(ctx context.Context, id uuid.UUID, user User) (User, error)
	Delete(ctx context.Context, id uuid.UUID) (User, error)
	Close() error
}

type RuleSetRepository interface {

	// Create creates a new RuleSet. All attributes except for auto-generated
	// fields are taken from the provided RuleSet.
	Create(ctx context.Context, rs RuleSet) (RuleSet, error)
	GetAll(ctx context.Context) ([]RuleSet, error)
	GetByID(ctx context.Context, id uuid.UUID) (RuleSet, error)
	GetByName(ctx context.Context, name string) (RuleSet, error)
	Update(ctx context.Context, id uuid.UUID, rs RuleSet) (RuleSet, error)
	Delete(ctx context.Context, id uuid.UUID) (RuleSet, error)
	Close() error
}

type Role int

const (
	Guest Role = iota
	Normal

	Admin Role = 100
)

func (r Role) String() string {
	switch r {
	case Guest:
		return "guest"
	case Normal:
		return "normal"
	case Admin:
		return "admin"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

func ParseRole(s string) (Role, error) {
	check := strings.ToLower(s)
	switch check {
	case "guest":
		return Guest, nil
	case "normal":
		return Normal, nil
	case "admin":
		return Admin, nil
	default:
		return Guest, fmt.Errorf("must be one of 'guest', 'normal', or 'admin'")
	}
}

// User is a server account that may create and manage stored rule sets.
type User struct {
	ID       uuid.UUID
	Username string

	// Password is the base64 encoding of the bcrypt hash of the account
	// password. It is never the cleartext.
	Password string

	Role Role

	// LastLogoutTime feeds the token signing key so a logout invalidates
	// every token issued before it.
	LastLogoutTime time.Time

	Created  time.Time
	Modified time.Time
}

// RuleSet is a named, stored tokenizer configuration. Defs holds the
// uncompiled rule definitions in priority order; compilation happens when
// a tokenize request names the set.
type RuleSet struct {
	ID      uuid.UUID
	OwnerID uuid.UUID
	Name    string

	DefaultKind string

	// Fallback is "word" or "seek".
	Fallback string

	Defs []ruleset.Def

	Created  time.Time
	Modified time.Time
}

// Validate returns an error if the RuleSet has invalid or missing fields,
// including definitions that will not compile.
func (rs RuleSet) Validate() error {
	if rs.Name == "" {
		return fmt.Errorf("name: must not be empty")
	}
	if _, err := ruleset.CompileAll(rs.DefaultKind, rs.Fallback, rs.Defs); err != nil {
		return err
	}
	return nil
}
