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

func NewRuleSetsRepository() *RuleSetsRepository {
	return &RuleSetsRepository{
		ruleSets:    make(map[uuid.UUID]dao.RuleSet),
		byNameIndex: make(map[string]uuid.UUID),
	}
}

type RuleSetsRepository struct {
	mtx         sync.RWMutex
	ruleSets    map[uuid.UUID]dao.RuleSet
	byNameIndex map[string]uuid.UUID
}

func (rr *RuleSetsRepository) Close() error {
	return nil
}

func (rr *RuleSetsRepository) Create(ctx context.Context, rs dao.RuleSet) (dao.RuleSet, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.RuleSet{}, fmt.Errorf("could not generate ID: %w", err)
	}

	rr.mtx.Lock()
	defer rr.mtx.Unlock()

	rs.ID = newUUID

	// make sure it's not already in the DB
	if _, ok := rr.byNameIndex[rs.Name]; ok {
		return dao.RuleSet{}, dao.ErrConstraintViolation
	}

	now := time.Now()
	rs.Created = now
	rs.Modified = now

	rr.ruleSets[rs.ID] = rs
	rr.byNameIndex[rs.Name] = rs.ID

	return rs, nil
}

func (rr *RuleSetsRepository) GetAll(ctx context.Context) ([]dao.RuleSet, error) {
	rr.mtx.RLock()
	defer rr.mtx.RUnlock()

	all := make([]dao.RuleSet, 0, len(rr.ruleSets))
	for k := range rr.ruleSets {
		all = append(all, rr.ruleSets[k])
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].ID.String() < all[j].ID.String()
	})

	return all, nil
}

func (rr *RuleSetsRepository) GetByID(ctx context.Context, id uuid.UUID) (dao.RuleSet, error) {
	rr.mtx.RLock()
	defer rr.mtx.RUnlock()

	rs, ok := rr.ruleSets[id]
	if !ok {
		return dao.RuleSet{}, dao.ErrNotFound
	}
	return rs, nil
}

func (rr *RuleSetsRepository) GetByName(ctx context.Context, name string) (dao.RuleSet, error) {
	rr.mtx.RLock()
	defer rr.mtx.RUnlock()

	id, ok := rr.byNameIndex[name]
	if !ok {
		return dao.RuleSet{}, dao.ErrNotFound
	}
	return rr.ruleSets[id], nil
}

func (rr *RuleSetsRepository) Update(ctx context.Context, id uuid.UUID, rs dao.RuleSet) (dao.RuleSet, error) {
	rr.mtx.Lock()
	defer rr.mtx.Unlock()

	existing, ok := rr.ruleSets[id]
	if !ok {
		return dao.RuleSet{}, dao.ErrNotFound
	}

	// check for conflicts on this table only
	if rs.Name != existing.Name {
		// that's okay but we need to check it
		if _, ok := rr.byNameIndex[rs.Name]; ok {
			return dao.RuleSet{}, dao.ErrConstraintViolation
		}
	}
	if rs.ID != id {
		// that's okay but we need to check it
		if _, ok := rr.ruleSets[rs.ID]; ok {
			return dao.RuleSet{}, dao.ErrConstraintViolation
		}
	}

	rs.Modified = time.Now()

	rr.ruleSets[rs.ID] = rs
	rr.byNameIndex[rs.Name] = rs.ID
	if rs.ID != id {
		delete(rr.ruleSets, id)
	}
	if rs.Name != existing.Name {
		delete(rr.byNameIndex, existing.Name)
	}

	return rs, nil
}

func (rr *RuleSetsRepository) Delete(ctx context.Context, id uuid.UUID) (dao.RuleSet, error) {
	rr.mtx.Lock()
	defer rr.mtx.Unlock()

	rs, ok := rr.ruleSets[id]
	if !ok {
		return dao.RuleSet{}, dao.ErrNotFound
	}

	delete(rr.byNameIndex, rs.Name)
	delete(rr.ruleSets, rs.ID)

	return rs, nil
}
