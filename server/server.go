// Package server provides an HTTP REST server for storing named tokenizer
// rule sets and running scans against them. Users authenticate with JWTs,
// create rule sets made of uncompiled rule definitions, and POST text to a
// stored set to receive a token stream back.
package server

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/HelifeWasTaken/Toks"
	"github.com/HelifeWasTaken/Toks/ruleset"
	"github.com/HelifeWasTaken/Toks/server/dao"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrBadCredentials = errors.New("the supplied username/password combination is incorrect")
	ErrPermissions    = errors.New("you don't have permission to do that")
	ErrNotFound       = errors.New("the requested entity could not be found")
	ErrAlreadyExists  = errors.New("resource with same identifying information already exists")
	ErrDB             = errors.New("an error occured with the DB")
	ErrBadArgument    = errors.New("one or more of the arguments is invalid")
	ErrBodyUnmarshal  = errors.New("malformed data in request")
)

// server:
//  - POST   /login               - accepts user and password and returns a jwt.
//  - DELETE /login/{id}          - ends user authentication session and destroys the jwt.
//  - POST   /users               - create a new user account (admin auth required)
//  - POST   /rulesets            - create a new stored rule set (auth required)
//  - GET    /rulesets            - get info on all stored rule sets (auth required)
//  - GET    /rulesets/{id}       - get a stored rule set (auth required)
//  - PUT    /rulesets/{id}       - replace a stored rule set (auth required, owner or admin)
//  - DELETE /rulesets/{id}       - delete a stored rule set (auth required, owner or admin)
//  - POST   /rulesets/{id}/tokens - tokenize text with a stored rule set (auth required)
//  - GET    /info                - get version info on the server and engine itself.

// ToksServer is an HTTP REST server that provides stored tokenizer rule sets
// and scanning against them. The zero-value of a ToksServer should not be
// used directly; call New() to get one ready for use.
type ToksServer struct {
	router        chi.Router
	db            dao.Store
	unauthedDelay time.Duration
	jwtSecret     []byte
}

// New creates a new ToksServer from the given config. The config is
// defaulted and validated before use.
func New(cfg Config) (ToksServer, error) {
	cfg = cfg.FillDefaults()
	if err := cfg.Validate(); err != nil {
		return ToksServer{}, fmt.Errorf("config: %w", err)
	}

	tks := ToksServer{
		jwtSecret:     cfg.TokenSecret,
		unauthedDelay: cfg.UnauthDelay(),
	}

	var err error
	tks.db, err = cfg.DB.Connect()
	if err != nil {
		return tks, err
	}

	tks.router = tks.newRouter()

	return tks, nil
}

// ServeForever begins listening on the given address and port for HTTP REST
// client requests. If address is kept as "", it will default to "localhost".
// If port is less than 1, it will default to 8080.
func (tks ToksServer) ServeForever(address string, port int) {
	if address == "" {
		address = "localhost"
	}
	if port < 1 {
		port = 8080
	}

	listenAddress := fmt.Sprintf("%s:%d", address, port)
	log.Printf("INFO  Listening on %s", listenAddress)
	log.Fatalf("FATAL %v", http.ListenAndServe(listenAddress, tks.router))
}

// Login verifies the provided username and password against the existing user
// in persistence and returns that user if they match.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If the credentials do not
// match a user or if the password is incorrect, it will match
// ErrBadCredentials. If the error occured due to an unexpected problem with
// the DB, it will match ErrDB.
func (tks ToksServer) Login(ctx context.Context, username string, password string) (dao.User, error) {
	user, err := tks.db.Users().GetByUsername(ctx, username)
	if err != nil {
		if err == dao.ErrNotFound {
			return dao.User{}, ErrBadCredentials
		}
		return dao.User{}, wrapDBError(err)
	}

	// verify password
	bcryptHash, err := base64.StdEncoding.DecodeString(user.Password)
	if err != nil {
		return dao.User{}, err
	}

	err = bcrypt.CompareHashAndPassword(bcryptHash, []byte(password))
	if err != nil {
		if err == bcrypt.ErrMismatchedHashAndPassword {
			return dao.User{}, ErrBadCredentials
		}
		return dao.User{}, wrapDBError(err)
	}

	return user, nil
}

// Logout marks the user with the given ID as having logged out, invalidating
// any login that may be active. Returns the user entity that was logged out.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If the user doesn't exist, it
// will match ErrNotFound. If the error occured due to an unexpected problem
// with the DB, it will match ErrDB.
func (tks ToksServer) Logout(ctx context.Context, who uuid.UUID) (dao.User, error) {
	existing, err := tks.db.Users().GetByID(ctx, who)
	if err != nil {
		if err == dao.ErrNotFound {
			return dao.User{}, ErrNotFound
		}
		return dao.User{}, newError("could not retrieve user", err, ErrDB)
	}

	existing.LastLogoutTime = time.Now()

	updated, err := tks.db.Users().Update(ctx, existing.ID, existing)
	if err != nil {
		return dao.User{}, newError("could not update user", err, ErrDB)
	}

	return updated, nil
}

// CreateUser creates a new user with the given username and password combo.
// Returns the newly-created user as it exists after creation.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If a user with that username
// is already present, it will match ErrAlreadyExists. If the error occured
// due to an unexpected problem with the DB, it will match ErrDB. Finally, if
// one of the arguments is invalid, it will match ErrBadArgument.
func (tks ToksServer) CreateUser(ctx context.Context, username, password string, role dao.Role) (dao.User, error) {
	var err error
	if username == "" {
		return dao.User{}, newError("username cannot be blank", err, ErrBadArgument)
	}
	if password == "" {
		return dao.User{}, newError("password cannot be blank", err, ErrBadArgument)
	}

	_, err = tks.db.Users().GetByUsername(ctx, username)
	if err == nil {
		return dao.User{}, newError("a user with that username already exists", ErrAlreadyExists)
	} else if err != dao.ErrNotFound {
		return dao.User{}, wrapDBError(err)
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	if err != nil {
		if err == bcrypt.ErrPasswordTooLong {
			return dao.User{}, newError("password is too long", err, ErrBadArgument)
		} else {
			return dao.User{}, newError("password could not be encrypted", err)
		}
	}

	storedPass := base64.StdEncoding.EncodeToString(passHash)

	newUser := dao.User{
		Username: username,
		Password: storedPass,
		Role:     role,
	}

	user, err := tks.db.Users().Create(ctx, newUser)
	if err != nil {
		if err == dao.ErrConstraintViolation {
			return dao.User{}, ErrAlreadyExists
		}
		return dao.User{}, newError("could not create user", err, ErrDB)
	}

	return user, nil
}

// CreateRuleSet stores a new named rule set owned by the given user. The
// definitions are validated (including a compile check) before being stored.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If a rule set with that name
// is already present, it will match ErrAlreadyExists. If the definitions are
// invalid, it will match ErrBadArgument. If the error occured due to an
// unexpected problem with the DB, it will match ErrDB.
func (tks ToksServer) CreateRuleSet(ctx context.Context, owner uuid.UUID, rs dao.RuleSet) (dao.RuleSet, error) {
	rs.OwnerID = owner

	if err := rs.Validate(); err != nil {
		return dao.RuleSet{}, newError(err.Error(), err, ErrBadArgument)
	}

	_, err := tks.db.RuleSets().GetByName(ctx, rs.Name)
	if err == nil {
		return dao.RuleSet{}, newError("a rule set with that name already exists", ErrAlreadyExists)
	} else if err != dao.ErrNotFound {
		return dao.RuleSet{}, wrapDBError(err)
	}

	created, err := tks.db.RuleSets().Create(ctx, rs)
	if err != nil {
		if err == dao.ErrConstraintViolation {
			return dao.RuleSet{}, ErrAlreadyExists
		}
		return dao.RuleSet{}, newError("could not create rule set", err, ErrDB)
	}

	return created, nil
}

// GetAllRuleSets returns all rule sets currently in persistence.
func (tks ToksServer) GetAllRuleSets(ctx context.Context) ([]dao.RuleSet, error) {
	all, err := tks.db.RuleSets().GetAll(ctx)
	if err != nil {
		return nil, wrapDBError(err)
	}

	return all, nil
}

// GetRuleSet returns the rule set with the given ID.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If no rule set with that ID
// exists, it will match ErrNotFound. If the error occured due to an
// unexpected problem with the DB, it will match ErrDB. Finally, if there is
// an issue with one of the arguments, it will match ErrBadArgument.
func (tks ToksServer) GetRuleSet(ctx context.Context, id string) (dao.RuleSet, error) {
	uuidID, err := uuid.Parse(id)
	if err != nil {
		return dao.RuleSet{}, newError("ID is not valid", ErrBadArgument)
	}

	rs, err := tks.db.RuleSets().GetByID(ctx, uuidID)
	if err != nil {
		if err == dao.ErrNotFound {
			return dao.RuleSet{}, ErrNotFound
		}
		return dao.RuleSet{}, newError("could not get rule set", err, ErrDB)
	}

	return rs, nil
}

// UpdateRuleSet replaces the properties of the rule set with the given ID
// with those in the given rule set. The owner and creation time are
// preserved. Returns the updated rule set.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If a rule set with the new
// name already exists, it will match ErrAlreadyExists. If no rule set with
// the given ID exists, it will match ErrNotFound. If the error occured due to
// an unexpected problem with the DB, it will match ErrDB. Finally, if one of
// the arguments is invalid, it will match ErrBadArgument.
func (tks ToksServer) UpdateRuleSet(ctx context.Context, id string, rs dao.RuleSet) (dao.RuleSet, error) {
	uuidID, err := uuid.Parse(id)
	if err != nil {
		return dao.RuleSet{}, newError("ID is not valid", ErrBadArgument)
	}

	existing, err := tks.db.RuleSets().GetByID(ctx, uuidID)
	if err != nil {
		if err == dao.ErrNotFound {
			return dao.RuleSet{}, ErrNotFound
		}
		return dao.RuleSet{}, wrapDBError(err)
	}

	rs.ID = existing.ID
	rs.OwnerID = existing.OwnerID
	rs.Created = existing.Created

	if err := rs.Validate(); err != nil {
		return dao.RuleSet{}, newError(err.Error(), err, ErrBadArgument)
	}

	if existing.Name != rs.Name {
		_, err := tks.db.RuleSets().GetByName(ctx, rs.Name)
		if err == nil {
			return dao.RuleSet{}, newError("a rule set with that name already exists", ErrAlreadyExists)
		} else if err != dao.ErrNotFound {
			return dao.RuleSet{}, wrapDBError(err)
		}
	}

	updated, err := tks.db.RuleSets().Update(ctx, uuidID, rs)
	if err != nil {
		if err == dao.ErrConstraintViolation {
			return dao.RuleSet{}, newError("a rule set with that name already exists", ErrAlreadyExists)
		} else if err == dao.ErrNotFound {
			return dao.RuleSet{}, ErrNotFound
		}
		return dao.RuleSet{}, wrapDBError(err)
	}

	return updated, nil
}

// DeleteRuleSet deletes the rule set with the given ID. It returns the
// deleted rule set just after it was deleted.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If no rule set with that ID
// exists, it will match ErrNotFound. If the error occured due to an
// unexpected problem with the DB, it will match ErrDB. Finally, if there is
// an issue with one of the arguments, it will match ErrBadArgument.
func (tks ToksServer) DeleteRuleSet(ctx context.Context, id string) (dao.RuleSet, error) {
	uuidID, err := uuid.Parse(id)
	if err != nil {
		return dao.RuleSet{}, newError("ID is not valid", ErrBadArgument)
	}

	rs, err := tks.db.RuleSets().Delete(ctx, uuidID)
	if err != nil {
		if err == dao.ErrNotFound {
			return dao.RuleSet{}, ErrNotFound
		}
		return dao.RuleSet{}, newError("could not delete rule set", err, ErrDB)
	}

	return rs, nil
}

// Tokenize compiles the stored rule set with the given ID and scans the given
// text with it. If strict is true, any input at a position no rule matches
// aborts the scan with a *toks.Error; otherwise the configured fallback mode
// of the rule set is used to produce default-kind tokens.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If no rule set with that ID
// exists, it will match ErrNotFound. If the error occured due to an
// unexpected problem with the DB, it will match ErrDB. If there is an issue
// with one of the arguments, it will match ErrBadArgument. A scan failure is
// returned as a *toks.Error and matches none of those.
func (tks ToksServer) Tokenize(ctx context.Context, id string, text string, strict bool) ([]toks.Token, error) {
	rs, err := tks.GetRuleSet(ctx, id)
	if err != nil {
		return nil, err
	}

	compiled, err := ruleset.CompileAll(rs.DefaultKind, rs.Fallback, rs.Defs)
	if err != nil {
		// stored defs passed Validate at write time, so this is on us
		return nil, newError("stored rule set does not compile", err, ErrDB)
	}

	tkz := compiled.Tokenizer()
	if strict {
		return tkz.TokenizeStrict(text)
	}
	return tkz.Tokenize(text)
}

// Error is an error in the server.
type Error struct {
	msg   string
	cause []error
}

func (e Error) Error() string {
	if e.msg == "" && e.cause != nil {
		return e.cause[0].Error()
	}

	if e.cause != nil {
		return e.msg + ": " + e.cause[0].Error()
	}

	return e.msg
}

func (e Error) Unwrap() []error {
	if len(e.cause) > 0 {
		return e.cause
	}
	return nil
}

func (e Error) Is(target error) bool {
	for i := range e.cause {
		if e.cause[i] == target {
			return true
		}
	}
	return false
}

func wrapDBError(err error) Error {
	return Error{
		cause: []error{err, ErrDB},
	}
}

func newError(msg string, causes ...error) Error {
	err := Error{msg: msg}
	if len(causes) > 0 {
		err.cause = make([]error, len(causes))
		copy(err.cause, causes)
	}
	return err
}
