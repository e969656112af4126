package dummydb

import (
	"context"

	"github.com/google/uuid"

	"github.com/tachera/mlango/core/center"
)

type centerRepository struct {
	db *centerTable
}

var _ center.Repository = (*centerRepository)(nil) // interface compliance check

func NewCenterRepository(db *DB) center.Repository {
	return &centerRepository{db: db.center}
}

func (repo *centerRepository) CreateCenter(ctx context.Context, ctr center.Center) (center.Center, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, c := range repo.db.table {
		if c.Name == ctr.Name {
			return center.Center{}, center.ErrNameExists
		}
	}
	if ctr.ID == "" {
		ctr.ID = uuid.NewString()
	}
	repo.db.table[ctr.ID] = &ctr
	return ctr, nil
}

func (repo *centerRepository) QueryAllCenters(ctx context.Context) ([]center.Center, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	centers := make([]center.Center, 0, len(repo.db.table))
	for _, c := range repo.db.table {
		centers = append(centers, *c)
	}
	return centers, nil
}

func (repo *centerRepository) GetCenterByID(ctx context.Context, id string) (center.Center, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if ctr, ok := repo.db.table[id]; ok {
		return *ctr, nil
	}
	return center.Center{}, center.ErrNotFound
}

func (repo *centerRepository) QueryAllFlags(ctx context.Context) ([]center.FeatureFlag, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	flags := make([]center.FeatureFlag, 0, len(repo.db.flags))
	for key, enabled := range repo.db.flags {
		flags = append(flags, center.FeatureFlag{CenterID: key.centerID, Feature: key.feature, Enabled: enabled})
	}
	return flags, nil
}

func (repo *centerRepository) GetCenterFlags(ctx context.Context, centerID string) ([]center.FeatureFlag, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	flags := make([]center.FeatureFlag, 0)
	for key, enabled := range repo.db.flags {
		if key.centerID == centerID {
			flags = append(flags, center.FeatureFlag{CenterID: key.centerID, Feature: key.feature, Enabled: enabled})
		}
	}
	return flags, nil
}

func (repo *centerRepository) UpsertFlag(ctx context.Context, flag center.FeatureFlag) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.flags[flagKey{centerID: flag.CenterID, feature: flag.Feature}] = flag.Enabled
	return nil
}
