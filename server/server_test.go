package server

import (
	"context"
	"testing"
	"time"

	"github.com/HelifeWasTaken/Toks/ruleset"
	"github.com/HelifeWasTaken/Toks/server/dao"
	"github.com/stretchr/testify/assert"
)

func newTestServer(t *testing.T) ToksServer {
	t.Helper()

	tks, err := New(Config{
		TokenSecret:       []byte("test-secret-test-secret-test-secret!"),
		DB:                Database{Type: DatabaseInMemory},
		UnauthDelayMillis: -1,
	})
	if err != nil {
		t.Fatalf("could not create server: %v", err)
	}
	return tks
}

func Test_Login(t *testing.T) {
	testCases := []struct {
		name      string
		username  string
		password  string
		expectErr error
	}{
		{
			name:     "correct credentials",
			username: "enzo",
			password: "grape soda",
		},
		{
			name:      "wrong password",
			username:  "enzo",
			password:  "orange soda",
			expectErr: ErrBadCredentials,
		},
		{
			name:      "no such user",
			username:  "vantas",
			password:  "grape soda",
			expectErr: ErrBadCredentials,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)
			ctx := context.Background()

			tks := newTestServer(t)
			created, err := tks.CreateUser(ctx, "enzo", "grape soda", dao.Normal)
			if !assert.NoError(err) {
				return
			}

			user, err := tks.Login(ctx, tc.username, tc.password)

			if tc.expectErr != nil {
				assert.ErrorIs(err, tc.expectErr)
				return
			}
			if !assert.NoError(err) {
				return
			}
			assert.Equal(created.ID, user.ID)
			assert.Equal("enzo", user.Username)
		})
	}
}

func Test_CreateUser_duplicate(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	tks := newTestServer(t)

	_, err := tks.CreateUser(ctx, "enzo", "grape soda", dao.Normal)
	if !assert.NoError(err) {
		return
	}

	_, err = tks.CreateUser(ctx, "enzo", "different password", dao.Normal)
	assert.ErrorIs(err, ErrAlreadyExists)
}

func Test_JWT_roundTrip(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	tks := newTestServer(t)
	user, err := tks.CreateUser(ctx, "enzo", "grape soda", dao.Normal)
	if !assert.NoError(err) {
		return
	}

	tok, err := tks.generateJWT(user)
	if !assert.NoError(err) {
		return
	}
	assert.NotEmpty(tok)

	// a logout must invalidate the old token's signing key, even though it
	// lands within the same second the user was created
	_, err = tks.Logout(ctx, user.ID)
	assert.NoError(err)
	after, err := tks.db.Users().GetByID(ctx, user.ID)
	if !assert.NoError(err) {
		return
	}
	assert.NotEqual(tks.signingKey(user), tks.signingKey(after))
}

func Test_signingKey_subSecondLogout(t *testing.T) {
	assert := assert.New(t)

	tks := newTestServer(t)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	user := dao.User{
		Username:       "enzo",
		Password:       "c3RvcmVkLWhhc2g=",
		LastLogoutTime: base,
	}
	bumped := user
	bumped.LastLogoutTime = base.Add(50 * time.Millisecond)

	// same wall-clock second, different instants; the keys must not collide
	assert.Equal(user.LastLogoutTime.Unix(), bumped.LastLogoutTime.Unix())
	assert.NotEqual(tks.signingKey(user), tks.signingKey(bumped))
}

func Test_RuleSets_lifecycle(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	tks := newTestServer(t)
	owner, err := tks.CreateUser(ctx, "enzo", "grape soda", dao.Normal)
	if !assert.NoError(err) {
		return
	}

	rs := dao.RuleSet{
		Name:        "tiny-lang",
		DefaultKind: "id",
		Fallback:    "word",
		Defs: []ruleset.Def{
			{Type: "keyword", Kind: "eq", Keyword: "="},
			{Type: "region", Kind: "str", Begin: `"`, End: `"`},
		},
	}

	created, err := tks.CreateRuleSet(ctx, owner.ID, rs)
	if !assert.NoError(err) {
		return
	}
	assert.Equal(owner.ID, created.OwnerID)
	assert.NotEqual("", created.ID.String())

	// duplicate name is rejected
	_, err = tks.CreateRuleSet(ctx, owner.ID, rs)
	assert.ErrorIs(err, ErrAlreadyExists)

	// invalid defs are rejected
	bad := rs
	bad.Name = "broken"
	bad.Defs = []ruleset.Def{{Type: "pattern", Kind: "num", Pattern: "["}}
	_, err = tks.CreateRuleSet(ctx, owner.ID, bad)
	assert.ErrorIs(err, ErrBadArgument)

	got, err := tks.GetRuleSet(ctx, created.ID.String())
	if !assert.NoError(err) {
		return
	}
	assert.Equal("tiny-lang", got.Name)
	assert.Len(got.Defs, 2)

	all, err := tks.GetAllRuleSets(ctx)
	if !assert.NoError(err) {
		return
	}
	assert.Len(all, 1)

	got.DefaultKind = "word"
	updated, err := tks.UpdateRuleSet(ctx, created.ID.String(), got)
	if !assert.NoError(err) {
		return
	}
	assert.Equal("word", updated.DefaultKind)
	assert.Equal(created.Created, updated.Created)

	deleted, err := tks.DeleteRuleSet(ctx, created.ID.String())
	if !assert.NoError(err) {
		return
	}
	assert.Equal(created.ID, deleted.ID)

	_, err = tks.GetRuleSet(ctx, created.ID.String())
	assert.ErrorIs(err, ErrNotFound)
}

func Test_Tokenize_storedRuleSet(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	tks := newTestServer(t)
	owner, err := tks.CreateUser(ctx, "enzo", "grape soda", dao.Normal)
	if !assert.NoError(err) {
		return
	}

	created, err := tks.CreateRuleSet(ctx, owner.ID, dao.RuleSet{
		Name:        "assignments",
		DefaultKind: "id",
		Fallback:    "seek",
		Defs: []ruleset.Def{
			{Type: "keyword", Kind: "eq", Keyword: "="},
			{Type: "region", Kind: "str", Begin: `"`, End: `"`},
		},
	})
	if !assert.NoError(err) {
		return
	}

	tokens, err := tks.Tokenize(ctx, created.ID.String(), `x="hi"`, false)
	if !assert.NoError(err) {
		return
	}
	if !assert.Len(tokens, 3) {
		return
	}
	assert.Equal("id", string(tokens[0].Kind))
	assert.Equal("x", tokens[0].Lexeme)
	assert.Equal("eq", string(tokens[1].Kind))
	assert.Equal("str", string(tokens[2].Kind))
	assert.Equal("hi", tokens[2].Lexeme)

	// strict mode rejects input no rule covers
	_, err = tks.Tokenize(ctx, created.ID.String(), `x="hi"`, true)
	assert.Error(err)

	// missing rule set
	_, err = tks.Tokenize(ctx, "9196b7a5-6d67-4c96-a2d1-7c2e8b44b4b2", "x", false)
	assert.ErrorIs(err, ErrNotFound)
}
