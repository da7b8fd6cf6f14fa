// Package sqlite provides a sqlite-backed implementation of the Toks server
// datastore.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/HelifeWasTaken/Toks/server/dao"
	"modernc.org/sqlite"
)

type store struct {
	dbFilename string

	db *sql.DB

	users    *UsersDB
	ruleSets *RuleSetsDB
}

func NewDatastore(storageDir string) (dao.Store, error) {
	st := &store{
		dbFilename: "toks.db",
	}

	fileName := filepath.Join(storageDir, st.dbFilename)

	var err error
	st.db, err = sql.Open("sqlite", fileName)
	if err != nil {
		return nil, wrapDBError(err)
	}

	st.users = &UsersDB{db: st.db}
	if err := st.users.init(); err != nil {
		return nil, err
	}

	st.ruleSets = &RuleSetsDB{db: st.db}
	if err := st.ruleSets.init(true); err != nil {
		return nil, err
	}

	return st, nil
}

func (s *store) Users() dao.UserRepository {
	return s.users
}

func (s *store) RuleSets() dao.RuleSetRepository {
	return s.ruleSets
}

func (s *store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("%s: %w", s.dbFilename, err)
	}
	return nil
}

func wrapDBError(err error) error {
	sqliteErr := &sqlite.Error{}
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code() == 19 {
			return dao.ErrConstraintViolation
		}
		return fmt.Errorf("%s", sqlite.ErrorCodeString[sqliteErr.Code()])
	} else if errors.Is(err, sql.ErrNoRows) {
		return dao.ErrNotFound
	}
	return err
}
