package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/HelifeWasTaken/Toks/server/dao"
	"github.com/google/uuid"
)

type UsersDB struct {
	db *sql.DB
}

func (repo *UsersDB) init() error {
	_, err := repo.db.Exec(`CREATE TABLE IF NOT EXISTS users (
		id TEXT NOT NULL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		role INTEGER NOT NULL,
		created INTEGER NOT NULL,
		modified INTEGER NOT NULL,

		-- nanoseconds, not seconds; this value feeds token signing keys and
		-- truncating it would alter them across a restart
		last_logout_time INTEGER NOT NULL
	);`)
	if err != nil {
		return wrapDBError(err)
	}

	return nil
}

func (repo *UsersDB) Create(ctx context.Context, user dao.User) (dao.User, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.User{}, fmt.Errorf("could not generate ID: %w", err)
	}

	stmt, err := repo.db.Prepare(`INSERT INTO users (id, username, password, role, created, modified, last_logout_time) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return dao.User{}, wrapDBError(err)
	}

	now := time.Now()
	_, err = stmt.ExecContext(
		ctx,
		newUUID.String(),
		user.Username,
		user.Password,
		int64(user.Role),
		now.Unix(),
		now.Unix(),
		now.UnixNano(),
	)
	if err != nil {
		return dao.User{}, wrapDBError(err)
	}

	return repo.GetByID(ctx, newUUID)
}

func (repo *UsersDB) GetAll(ctx context.Context) ([]dao.User, error) {
	rows, err := repo.db.QueryContext(ctx, `SELECT id, username, password, role, created, modified, last_logout_time FROM users;`)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []dao.User

	for rows.Next() {
		var user dao.User
		var id string
		var role int64
		var created int64
		var modified int64
		var logoutTime int64
		err = rows.Scan(
			&id,
			&user.Username,
			&user.Password,
			&role,
			&created,
			&modified,
			&logoutTime,
		)

		if err != nil {
			return nil, wrapDBError(err)
		}

		user.ID, err = uuid.Parse(id)
		if err != nil {
			return all, fmt.Errorf("stored UUID %q is invalid: %w", id, err)
		}
		user.Role = dao.Role(role)
		user.Created = time.Unix(created, 0)
		user.Modified = time.Unix(modified, 0)
		user.LastLogoutTime = time.Unix(0, logoutTime)

		all = append(all, user)
	}

	if err := rows.Err(); err != nil {
		return all, wrapDBError(err)
	}

	return all, nil
}

func (repo *UsersDB) Update(ctx context.Context, id uuid.UUID, user dao.User) (dao.User, error) {
	// deliberately not updating created
	res, err := repo.db.ExecContext(ctx, `UPDATE users SET id=?, username=?, password=?, role=?, last_logout_time=?, modified=? WHERE id=?;`,
		user.ID.String(),
		user.Username,
		user.Password,
		int64(user.Role),
		user.LastLogoutTime.UnixNano(),
		time.Now().Unix(),
		id.String(),
	)
	if err != nil {
		return dao.User{}, wrapDBError(err)
	}
	rowsAff, err := res.RowsAffected()
	if err != nil {
		return dao.User{}, wrapDBError(err)
	}
	if rowsAff < 1 {
		return dao.User{}, dao.ErrNotFound
	}

	return repo.GetByID(ctx, user.ID)
}

func (repo *UsersDB) GetByUsername(ctx context.Context, username string) (dao.User, error) {
	user := dao.User{
		Username: username,
	}
	var id string
	var role int64
	var created int64
	var modified int64
	var logout int64

	row := repo.db.QueryRowContext(ctx, `SELECT id, password, role, created, modified, last_logout_time FROM users WHERE username = ?;`,
		username,
	)
	err := row.Scan(
		&id,
		&user.Password,
		&role,
		&created,
		&modified,
		&logout,
	)

	if err != nil {
		return user, wrapDBError(err)
	}

	user.ID, err = uuid.Parse(id)
	if err != nil {
		return user, fmt.Errorf("stored UUID %q is invalid: %w", id, err)
	}
	user.Role = dao.Role(role)
	user.Created = time.Unix(created, 0)
	user.Modified = time.Unix(modified, 0)
	user.LastLogoutTime = time.Unix(0, logout)

	return user, nil
}

func (repo *UsersDB) GetByID(ctx context.Context, id uuid.UUID) (dao.User, error) {
	user := dao.User{
		ID: id,
	}
	var role int64
	var created int64
	var modified int64
	var logout int64

	row := repo.db.QueryRowContext(ctx, `SELECT username, password, role, created, modified, last_logout_time FROM users WHERE id = ?;`,
		id.String(),
	)
	err := row.Scan(
		&user.Username,
		&user.Password,
		&role,
		&created,
		&modified,
		&logout,
	)

	if err != nil {
		return user, wrapDBError(err)
	}

	user.Role = dao.Role(role)
	user.Created = time.Unix(created, 0)
	user.Modified = time.Unix(modified, 0)
	user.LastLogoutTime = time.Unix(0, logout)

	return user, nil
}

func (repo *UsersDB) Delete(ctx context.Context, id uuid.UUID) (dao.User, error) {
	curVal, err := repo.GetByID(ctx, id)
	if err != nil {
		return curVal, err
	}

	res, err := repo.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id.String())
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

func (repo *UsersDB) Close() error {
	return repo.db.Close()
}
