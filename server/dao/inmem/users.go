package inmem

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/HelifeWasTaken/Toks/server/dao"
	"github.com/google/uuid"
)

func NewUsersRepository() *UsersRepository {
	return &UsersRepository{
		users:           make(map[uuid.UUID]dao.User),
		byUsernameIndex: make(map[string]uuid.UUID),
	}
}

type UsersRepository struct {
	mtx             sync.RWMutex
	users           map[uuid.UUID]dao.User
	byUsernameIndex map[string]uuid.UUID
}

func (ur *UsersRepository) Close() error {
	return nil
}

func (ur *UsersRepository) Create(ctx context.Context, user dao.User) (dao.User, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.User{}, fmt.Errorf("could not generate ID: %w", err)
	}

	ur.mtx.Lock()
	defer ur.mtx.Unlock()

	user.ID = newUUID

	// make sure it's not already in the DB
	if _, ok := ur.byUsernameIndex[user.Username]; ok {
		return dao.User{}, dao.ErrConstraintViolation
	}

	now := time.Now()
	user.LastLogoutTime = now
	user.Created = now
	user.Modified = now

	ur.users[user.ID] = user
	ur.byUsernameIndex[user.Username] = user.ID

	return user, nil
}

func (ur *UsersRepository) GetAll(ctx context.Context) ([]dao.User, error) {
	ur.mtx.RLock()
	defer ur.mtx.RUnlock()

	all := make([]dao.User, 0, len(ur.users))
	for k := range ur.users {
		all = append(all, ur.users[k])
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].ID.String() < all[j].ID.String()
	})

	return all, nil
}

func (ur *UsersRepository) GetByID(ctx context.Context, id uuid.UUID) (dao.User, error) {
	ur.mtx.RLock()
	defer ur.mtx.RUnlock()

	user, ok := ur.users[id]
	if !ok {
		return dao.User{}, dao.ErrNotFound
	}
	return user, nil
}

func (ur *UsersRepository) GetByUsername(ctx context.Context, username string) (dao.User, error) {
	ur.mtx.RLock()
	defer ur.mtx.RUnlock()

	id, ok := ur.byUsernameIndex[username]
	if !ok {
		return dao.User{}, dao.ErrNotFound
	}
	return ur.users[id], nil
}

func (ur *UsersRepository) Update(ctx context.Context, id uuid.UUID, user dao.User) (dao.User, error) {
	ur.mtx.Lock()
	defer ur.mtx.Unlock()

	existing, ok := ur.users[id]
	if !ok {
		return dao.User{}, dao.ErrNotFound
	}

	// check for conflicts on this table only
	// (inmem does not support enforcement of foreign keys)
	if user.Username != existing.Username {
		// that's okay but we need to check it
		if _, ok := ur.byUsernameIndex[user.Username]; ok {
			return dao.User{}, dao.ErrConstraintViolation
		}
	}
	if user.ID != id {
		// that's okay but we need to check it
		if _, ok := ur.users[user.ID]; ok {
			return dao.User{}, dao.ErrConstraintViolation
		}
	}

	user.Modified = time.Now()

	ur.users[user.ID] = user
	ur.byUsernameIndex[user.Username] = user.ID
	if user.ID != id {
		delete(ur.users, id)
	}
	if user.Username != existing.Username {
		delete(ur.byUsernameIndex, existing.Username)
	}

	return user, nil
}

func (ur *UsersRepository) Delete(ctx context.Context, id uuid.UUID) (dao.User, error) {
	ur.mtx.Lock()
	defer ur.mtx.Unlock()

	user, ok := ur.users[id]
	if !ok {
		return dao.User{}, dao.ErrNotFound
	}

	delete(ur.byUsernameIndex, user.Username)
	delete(ur.users, user.ID)

	return user, nil
}
