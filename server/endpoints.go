package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/HelifeWasTaken/Toks"
	"github.com/HelifeWasTaken/Toks/internal/version"
	"github.com/HelifeWasTaken/Toks/ruleset"
	"github.com/HelifeWasTaken/Toks/server/dao"
	"github.com/google/uuid"
)

// POST /login: create a new login with token
func (tks ToksServer) doEndpoint_Login_POST(req *http.Request) EndpointResult {
	loginData := LoginRequest{}
	err := parseJSON(req, &loginData)
	if err != nil {
		return jsonBadRequest(err.Error(), err.Error())
	}

	if loginData.Username == "" {
		return jsonBadRequest("username: property is empty or missing from request", "empty user")
	}
	if loginData.Password == "" {
		return jsonBadRequest("password: property is empty or missing from request", "empty password")
	}

	user, err := tks.Login(req.Context(), loginData.Username, loginData.Password)
	if err != nil {
		if errors.Is(err, ErrBadCredentials) {
			return jsonUnauthorized(err.Error())
		} else {
			return jsonInternalServerError(err.Error())
		}
	}

	// password is valid, generate token for user and return it.
	tok, err := tks.generateJWT(user)
	if err != nil {
		return jsonInternalServerError("could not generate JWT: " + err.Error())
	}

	resp := LoginResponse{
		Token:  tok,
		UserID: user.ID.String(),
	}
	return jsonCreated(resp, "user '"+user.Username+"' successfully logged in")
}

// DELETE /login/{id}: remove a login for some user (log out). Requires auth
// for access at all. Requires auth by user with role Admin to log out anybody
// but self.
func (tks ToksServer) doEndpoint_LoginID_DELETE(req *http.Request, id uuid.UUID) EndpointResult {
	user, err := tks.requireJWT(req.Context(), req)
	if err != nil {
		return jsonUnauthorized(err.Error())
	}

	// is the user trying to delete someone else's login? they'd betta be the
	// admin if so!
	if id != user.ID && user.Role != dao.Admin {
		var otherUserStr string
		otherUser, err := tks.db.Users().GetByID(req.Context(), id)
		// if there was another user, find out now
		if err != nil {
			otherUserStr = id.String()
		} else {
			otherUserStr = "'" + otherUser.Username + "'"
		}

		return jsonForbidden("user '%s' (role %s) logout of user %s: forbidden", user.Username, user.Role, otherUserStr)
	}

	loggedOutUser, err := tks.Logout(req.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return jsonNotFound()
		}
		return jsonInternalServerError("could not log out user: " + err.Error())
	}

	var otherStr string
	if id != user.ID {
		otherStr = "user '" + loggedOutUser.Username + "'"
	} else {
		otherStr = "self"
	}

	return jsonNoContent("user '%s' successfully logged out %s", user.Username, otherStr)
}

// POST /users: create a new user (admin auth required)
func (tks ToksServer) doEndpoint_Users_POST(req *http.Request) EndpointResult {
	user, err := tks.requireJWT(req.Context(), req)
	if err != nil {
		return jsonUnauthorized(err.Error())
	}

	if user.Role != dao.Admin {
		return jsonForbidden()
	}

	var createUser UserModel
	err = parseJSON(req, &createUser)
	if err != nil {
		return jsonBadRequest(err.Error(), err.Error())
	}
	if createUser.Username == "" {
		return jsonBadRequest("username: property is empty or missing from request", "empty username")
	}
	if createUser.Password == "" {
		return jsonBadRequest("password: property is empty or missing from request", "empty password")
	}

	role := dao.Normal
	if createUser.Role != "" {
		role, err = dao.ParseRole(createUser.Role)
		if err != nil {
			return jsonBadRequest("role: "+err.Error(), "role: %s", err.Error())
		}
	}

	newUser, err := tks.CreateUser(req.Context(), createUser.Username, createUser.Password, role)
	if err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return jsonConflict("User with that username already exists", "user '%s' already exists", createUser.Username)
		} else if errors.Is(err, ErrBadArgument) {
			return jsonBadRequest(err.Error(), err.Error())
		} else {
			return jsonInternalServerError(err.Error())
		}
	}

	resp := UserModel{
		ID:       newUser.ID.String(),
		Username: newUser.Username,
		Role:     newUser.Role.String(),
	}

	return jsonCreated(resp, "user '%s' (%s) created", resp.Username, resp.ID)
}

// POST /rulesets: create a new stored rule set (auth required)
func (tks ToksServer) doEndpoint_RuleSets_POST(req *http.Request) EndpointResult {
	user, err := tks.requireJWT(req.Context(), req)
	if err != nil {
		return jsonUnauthorized(err.Error())
	}

	var m RuleSetModel
	err = parseJSON(req, &m)
	if err != nil {
		return jsonBadRequest(err.Error(), err.Error())
	}
	if m.Name == "" {
		return jsonBadRequest("name: property is empty or missing from request", "empty name")
	}

	created, err := tks.CreateRuleSet(req.Context(), user.ID, daoRuleSetFromModel(m))
	if err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return jsonConflict("Rule set with that name already exists", "rule set '%s' already exists", m.Name)
		} else if errors.Is(err, ErrBadArgument) {
			return jsonBadRequest(err.Error(), err.Error())
		} else {
			return jsonInternalServerError(err.Error())
		}
	}

	resp := modelFromDAORuleSet(created)
	return jsonCreated(resp, "rule set '%s' (%s) created by user '%s'", resp.Name, resp.ID, user.Username)
}

// GET /rulesets: get info on all stored rule sets (auth required)
func (tks ToksServer) doEndpoint_RuleSets_GET(req *http.Request) EndpointResult {
	user, err := tks.requireJWT(req.Context(), req)
	if err != nil {
		return jsonUnauthorized(err.Error())
	}

	all, err := tks.GetAllRuleSets(req.Context())
	if err != nil {
		return jsonInternalServerError("could not get rule sets: " + err.Error())
	}

	resp := make([]RuleSetModel, len(all))
	for i := range all {
		resp[i] = modelFromDAORuleSet(all[i])
	}

	return jsonOK(resp, "user '%s' got all rule sets (%d)", user.Username, len(resp))
}

// GET /rulesets/{id}: get a stored rule set (auth required)
func (tks ToksServer) doEndpoint_RuleSetsID_GET(req *http.Request, id uuid.UUID) EndpointResult {
	user, err := tks.requireJWT(req.Context(), req)
	if err != nil {
		return jsonUnauthorized(err.Error())
	}

	rs, err := tks.GetRuleSet(req.Context(), id.String())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return jsonNotFound()
		} else if errors.Is(err, ErrBadArgument) {
			return jsonBadRequest(err.Error(), err.Error())
		}
		return jsonInternalServerError("could not get rule set: " + err.Error())
	}

	resp := modelFromDAORuleSet(rs)
	return jsonOK(resp, "user '%s' got rule set '%s'", user.Username, resp.Name)
}

// PUT /rulesets/{id}: replace a stored rule set (auth required, owner or
// admin)
func (tks ToksServer) doEndpoint_RuleSetsID_PUT(req *http.Request, id uuid.UUID) EndpointResult {
	user, err := tks.requireJWT(req.Context(), req)
	if err != nil {
		return jsonUnauthorized(err.Error())
	}

	existing, err := tks.GetRuleSet(req.Context(), id.String())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return jsonNotFound()
		}
		return jsonInternalServerError("could not get rule set: " + err.Error())
	}

	if existing.OwnerID != user.ID && user.Role != dao.Admin {
		return jsonForbidden("user '%s' (role %s) replace rule set '%s': forbidden", user.Username, user.Role, existing.Name)
	}

	var m RuleSetModel
	err = parseJSON(req, &m)
	if err != nil {
		return jsonBadRequest(err.Error(), err.Error())
	}
	if m.Name == "" {
		return jsonBadRequest("name: property is empty or missing from request", "empty name")
	}

	updated, err := tks.UpdateRuleSet(req.Context(), id.String(), daoRuleSetFromModel(m))
	if err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return jsonConflict("Rule set with that name already exists", "rule set '%s' already exists", m.Name)
		} else if errors.Is(err, ErrNotFound) {
			return jsonNotFound()
		} else if errors.Is(err, ErrBadArgument) {
			return jsonBadRequest(err.Error(), err.Error())
		}
		return jsonInternalServerError("could not update rule set: " + err.Error())
	}

	resp := modelFromDAORuleSet(updated)
	return jsonOK(resp, "user '%s' replaced rule set '%s'", user.Username, resp.Name)
}

// DELETE /rulesets/{id}: delete a stored rule set (auth required, owner or
// admin)
func (tks ToksServer) doEndpoint_RuleSetsID_DELETE(req *http.Request, id uuid.UUID) EndpointResult {
	user, err := tks.requireJWT(req.Context(), req)
	if err != nil {
		return jsonUnauthorized(err.Error())
	}

	existing, err := tks.GetRuleSet(req.Context(), id.String())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return jsonNotFound()
		}
		return jsonInternalServerError("could not get rule set: " + err.Error())
	}

	if existing.OwnerID != user.ID && user.Role != dao.Admin {
		return jsonForbidden("user '%s' (role %s) delete rule set '%s': forbidden", user.Username, user.Role, existing.Name)
	}

	deleted, err := tks.DeleteRuleSet(req.Context(), id.String())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return jsonNotFound()
		}
		return jsonInternalServerError("could not delete rule set: " + err.Error())
	}

	return jsonNoContent("user '%s' deleted rule set '%s'", user.Username, deleted.Name)
}

// POST /rulesets/{id}/tokens: tokenize text with a stored rule set (auth
// required)
func (tks ToksServer) doEndpoint_RuleSetsIDTokens_POST(req *http.Request, id uuid.UUID) EndpointResult {
	user, err := tks.requireJWT(req.Context(), req)
	if err != nil {
		return jsonUnauthorized(err.Error())
	}

	var tokReq TokenizeRequest
	err = parseJSON(req, &tokReq)
	if err != nil {
		return jsonBadRequest(err.Error(), err.Error())
	}

	tokens, err := tks.Tokenize(req.Context(), id.String(), tokReq.Text, tokReq.Strict)
	if err != nil {
		scanErr := &toks.Error{}
		if errors.As(err, &scanErr) {
			return jsonUnprocessableEntity(err.Error(), "scan failed at %d:%d", scanErr.Line, scanErr.Column)
		} else if errors.Is(err, ErrNotFound) {
			return jsonNotFound()
		} else if errors.Is(err, ErrBadArgument) {
			return jsonBadRequest(err.Error(), err.Error())
		}
		return jsonInternalServerError("could not tokenize: " + err.Error())
	}

	resp := TokenizeResponse{Tokens: make([]TokenModel, len(tokens))}
	for i := range tokens {
		resp.Tokens[i] = TokenModel{
			Kind:   string(tokens[i].Kind),
			Lexeme: tokens[i].Lexeme,
			Line:   tokens[i].Line,
			Column: tokens[i].Column,
		}
	}

	return jsonOK(resp, "user '%s' tokenized %d byte(s) into %d token(s)", user.Username, len(tokReq.Text), len(resp.Tokens))
}

// GET /info: get version info on the server and engine itself.
func (tks ToksServer) doEndpoint_Info_GET(req *http.Request) EndpointResult {
	var resp InfoModel
	resp.Version.Server = version.ServerCurrent
	resp.Version.Engine = version.Current

	return jsonOK(resp, "get info")
}

func daoRuleSetFromModel(m RuleSetModel) dao.RuleSet {
	return dao.RuleSet{
		Name:        m.Name,
		DefaultKind: m.DefaultKind,
		Fallback:    m.Fallback,
		Defs:        m.Rules,
	}
}

func modelFromDAORuleSet(rs dao.RuleSet) RuleSetModel {
	defs := rs.Defs
	if defs == nil {
		defs = []ruleset.Def{}
	}
	return RuleSetModel{
		ID:          rs.ID.String(),
		OwnerID:     rs.OwnerID.String(),
		Name:        rs.Name,
		DefaultKind: rs.DefaultKind,
		Fallback:    rs.Fallback,
		Rules:       defs,
	}
}

// v must be a pointer to a type.
func parseJSON(req *http.Request, v interface{}) error {
	contentType := req.Header.Get("Content-Type")

	if strings.ToLower(contentType) != "application/json" {
		return fmt.Errorf("request content-type is not application/json")
	}

	bodyData, err := io.ReadAll(req.Body)
	if err != nil {
		return fmt.Errorf("could not read request body: %w", err)
	}

	err = json.Unmarshal(bodyData, v)
	if err != nil {
		return fmt.Errorf("malformed JSON in request")
	}

	return nil
}
