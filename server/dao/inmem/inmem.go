// Package inmem provides an all-in-memory implementation of the Toks server
// datastore, suitable for testing and for servers that do not need their rule
// sets to survive a restart.
package inmem

import (
	"fmt"

	"github.com/HelifeWasTaken/Toks/server/dao"
)

type store struct {
	users    *UsersRepository
	ruleSets *RuleSetsRepository
}

func NewDatastore() dao.Store {
	return &store{
		users:    NewUsersRepository(),
		ruleSets: NewRuleSetsRepository(),
	}
}

func (s *store) Users() dao.UserRepository {
	return s.users
}

func (s *store) RuleSets() dao.RuleSetRepository {
	return s.ruleSets
}

func (s *store) Close() error {
	var err error

	if nextErr := s.users.Close(); nextErr != nil {
		err = nextErr
	}
	if nextErr := s.ruleSets.Close(); nextErr != nil {
		if err != nil {
			err = fmt.Errorf("%s\nadditionally, %w", err, nextErr)
		} else {
			err = nextErr
		}
	}

	return err
}
