package server

import "github.com/HelifeWasTaken/Toks/ruleset"

// note that these are *not* the DAO models; those are distinct and closer to
// the DB format they are in. Rather these are the models that are received
// from and sent to the client.

type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type ErrorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

type UserModel struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Role     string `json:"role,omitempty"`
}

type RuleSetModel struct {
	ID          string        `json:"id,omitempty"`
	OwnerID     string        `json:"owner_id,omitempty"`
	Name        string        `json:"name"`
	DefaultKind string        `json:"default_kind,omitempty"`
	Fallback    string        `json:"fallback,omitempty"`
	Rules       []ruleset.Def `json:"rules"`
}

type TokenizeRequest struct {
	Text   string `json:"text"`
	Strict bool   `json:"strict,omitempty"`
}

type TokenModel struct {
	Kind   string `json:"kind"`
	Lexeme string `json:"lexeme"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

type TokenizeResponse struct {
	Tokens []TokenModel `json:"tokens"`
}

type InfoModel struct {
	Version struct {
		Server string `json:"server"`
		Engine string `json:"engine"`
	} `json:"version"`
}
