package sqlite

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/HelifeWasTaken/Toks/ruleset"
	"github.com/HelifeWasTaken/Toks/server/dao"
	"github.com/google/uuid"
)

type RuleSetsDB struct {
	db *sql.DB
}

func (repo *RuleSetsDB) init(fk bool) error {
	stmt := `CREATE TABLE IF NOT EXISTS rulesets (
		id TEXT NOT NULL PRIMARY KEY,
		owner_id TEXT NOT NULL`

	if fk {
		stmt += ` REFERENCES users(id) ON DELETE CASCADE ON UPDATE CASCADE`
	}

	stmt += `,
		name TEXT NOT NULL UNIQUE,
		default_kind TEXT NOT NULL,
		fallback TEXT NOT NULL,
		defs TEXT NOT NULL,
		created INTEGER NOT NULL,
		modified INTEGER NOT NULL
	);`
	_, err := repo.db.Exec(stmt)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

func (repo *RuleSetsDB) Create(ctx context.Context, rs dao.RuleSet) (dao.RuleSet, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.RuleSet{}, fmt.Errorf("could not generate ID: %w", err)
	}

	stmt, err := repo.db.Prepare(`INSERT INTO rulesets (id, owner_id, name, default_kind, fallback, defs, created, modified) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return dao.RuleSet{}, wrapDBError(err)
	}
	now := time.Now()

	defsData := ruleset.EncDefs(rs.Defs)
	encDefs := base64.StdEncoding.EncodeToString(defsData)
	_, err = stmt.ExecContext(ctx, newUUID.String(), rs.OwnerID.String(), rs.Name, rs.DefaultKind, rs.Fallback, encDefs, now.Unix(), now.Unix())
	if err != nil {
		return dao.RuleSet{}, wrapDBError(err)
	}

	return repo.GetByID(ctx, newUUID)
}

func (repo *RuleSetsDB) GetAll(ctx context.Context) ([]dao.RuleSet, error) {
	rows, err := repo.db.QueryContext(ctx, `SELECT id, owner_id, name, default_kind, fallback, defs, created, modified FROM rulesets;`)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []dao.RuleSet

	for rows.Next() {
		var rs dao.RuleSet
		var id string
		var ownerID string
		var encDefs string
		var created int64
		var modified int64
		err = rows.Scan(
			&id,
			&ownerID,
			&rs.Name,
			&rs.DefaultKind,
			&rs.Fallback,
			&encDefs,
			&created,
			&modified,
		)

		if err != nil {
			return nil, wrapDBError(err)
		}

		rs.ID, err = uuid.Parse(id)
		if err != nil {
			return all, fmt.Errorf("stored UUID %q is invalid: %w", id, err)
		}
		rs.OwnerID, err = uuid.Parse(ownerID)
		if err != nil {
			return all, fmt.Errorf("stored owner ID %q is invalid: %w", ownerID, err)
		}
		rs.Defs, err = decodeDefs(encDefs)
		if err != nil {
			return all, fmt.Errorf("stored definitions for %q are invalid: %w", rs.Name, err)
		}
		rs.Created = time.Unix(created, 0)
		rs.Modified = time.Unix(modified, 0)

		all = append(all, rs)
	}

	if err := rows.Err(); err != nil {
		return all, wrapDBError(err)
	}

	return all, nil
}

func (repo *RuleSetsDB) GetByID(ctx context.Context, id uuid.UUID) (dao.RuleSet, error) {
	row := repo.db.QueryRowContext(ctx, `SELECT owner_id, name, default_kind, fallback, defs, created, modified FROM rulesets WHERE id = ?;`,
		id.String(),
	)
	return repo.scanRow(row, dao.RuleSet{ID: id}, "")
}

func (repo *RuleSetsDB) GetByName(ctx context.Context, name string) (dao.RuleSet, error) {
	row := repo.db.QueryRowContext(ctx, `SELECT owner_id, id, default_kind, fallback, defs, created, modified FROM rulesets WHERE name = ?;`,
		name,
	)
	return repo.scanRow(row, dao.RuleSet{Name: name}, name)
}

// scanRow fills in the remaining fields of rs from a single-row query. byName
// is non-empty when the query selected on name and so returns id in name's
// column position.
func (repo *RuleSetsDB) scanRow(row *sql.Row, rs dao.RuleSet, byName string) (dao.RuleSet, error) {
	var ownerID string
	var second string
	var encDefs string
	var created int64
	var modified int64

	err := row.Scan(
		&ownerID,
		&second,
		&rs.DefaultKind,
		&rs.Fallback,
		&encDefs,
		&created,
		&modified,
	)

	if err != nil {
		return rs, wrapDBError(err)
	}

	if byName != "" {
		rs.ID, err = uuid.Parse(second)
		if err != nil {
			return rs, fmt.Errorf("stored UUID %q is invalid: %w", second, err)
		}
	} else {
		rs.Name = second
	}

	rs.OwnerID, err = uuid.Parse(ownerID)
	if err != nil {
		return rs, fmt.Errorf("stored owner ID %q is invalid: %w", ownerID, err)
	}
	rs.Defs, err = decodeDefs(encDefs)
	if err != nil {
		return rs, fmt.Errorf("stored definitions for %q are invalid: %w", rs.Name, err)
	}
	rs.Created = time.Unix(created, 0)
	rs.Modified = time.Unix(modified, 0)

	return rs, nil
}

func (repo *RuleSetsDB) Update(ctx context.Context, id uuid.UUID, rs dao.RuleSet) (dao.RuleSet, error) {
	defsData := ruleset.EncDefs(rs.Defs)
	encDefs := base64.StdEncoding.EncodeToString(defsData)

	// deliberately not updating created
	res, err := repo.db.ExecContext(ctx, `UPDATE rulesets SET id=?, owner_id=?, name=?, default_kind=?, fallback=?, defs=?, modified=? WHERE id=?;`,
		rs.ID.String(),
		rs.OwnerID.String(),
		rs.Name,
		rs.DefaultKind,
		rs.Fallback,
		encDefs,
		time.Now().Unix(),
		id.String(),
	)
	if err != nil {
		return dao.RuleSet{}, wrapDBError(err)
	}
	rowsAff, err := res.RowsAffected()
	if err != nil {
		return dao.RuleSet{}, wrapDBError(err)
	}
	if rowsAff < 1 {
		return dao.RuleSet{}, dao.ErrNotFound
	}

	return repo.GetByID(ctx, rs.ID)
}

func (repo *RuleSetsDB) Delete(ctx context.Context, id uuid.UUID) (dao.RuleSet, error) {
	curVal, err := repo.GetByID(ctx, id)
	if err != nil {
		return curVal, err
	}

	res, err := repo.db.ExecContext(ctx, `DELETE FROM rulesets WHERE id = ?`, id.String())
	if err != nil {
		return curVal, wrapDBError(err)
	}
	rowsAff, err := res.RowsAffected()
	if err != nil {
		return curVal, wrapDBError(err)
	}
	if rowsAff < 1 {
		return curVal, dao.ErrNotFound
	}

	return curVal, nil
}

func (repo *RuleSetsDB) Close() error {
	return repo.db.Close()
}

func decodeDefs(enc string) ([]ruleset.Def, error) {
	data, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return nil, err
	}
	return ruleset.DecDefs(data)
}
