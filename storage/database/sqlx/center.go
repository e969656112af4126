package sqlxrepos

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/tachera/mlango/core/center"
)

const uniqueViolation = "23505"

type centerRow struct {
	ID        string       `db:"id"`
	Name      string       `db:"name"`
	CreatedAt sql.NullTime `db:"created_at"`
	UpdatedAt sql.NullTime `db:"updated_at"`
}

func (r centerRow) toCenter() center.Center {
	ctr := center.Center{
		ID:   r.ID,
		Name: r.Name,
	}
	if r.CreatedAt.Valid {
		ctr.CreatedAt = r.CreatedAt.Time.UTC()
	}
	if r.UpdatedAt.Valid {
		ctr.UpdatedAt = r.UpdatedAt.Time.UTC()
	}
	return ctr
}

type flagRow struct {
	CenterID string `db:"center_id"`
	Feature  string `db:"feature_name"`
	Enabled  bool   `db:"is_enabled"`
}

func (r flagRow) toFlag() center.FeatureFlag {
	return center.FeatureFlag{
		CenterID: r.CenterID,
		Feature:  center.Feature(r.Feature),
		Enabled:  r.Enabled,
	}
}

type centerRepository struct {
	db *sqlx.DB
}

var _ center.Repository = (*centerRepository)(nil) // interface compliance check

func NewCenterRepository(db *sqlx.DB) center.Repository {
	return &centerRepository{db: db}
}

func (repo *centerRepository) CreateCenter(ctx context.Context, ctr center.Center) (center.Center, error) {
	query, args, err := psql.Insert("centers").
		Columns("name", "created_at", "updated_at").
		Values(ctr.Name, ctr.CreatedAt, ctr.UpdatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return center.Center{}, errors.Wrap(err, "building query")
	}
	if err = repo.db.GetContext(ctx, &ctr.ID, query, args...); err != nil {
		if pqErr, ok := errors.Cause(err).(*pq.Error); ok && string(pqErr.Code) == uniqueViolation {
			return center.Center{}, center.ErrNameExists
		}
		return center.Center{}, errors.Wrap(err, "creating center")
	}
	return ctr, nil
}

func (repo *centerRepository) QueryAllCenters(ctx context.Context) ([]center.Center, error) {
	query, args, err := psql.Select("id", "name", "created_at", "updated_at").
		From("centers").OrderBy("name").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}

	var rows []centerRow
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying centers")
	}
	centers := make([]center.Center, 0, len(rows))
	for _, row := range rows {
		centers = append(centers, row.toCenter())
	}
	return centers, nil
}

func (repo *centerRepository) GetCenterByID(ctx context.Context, id string) (center.Center, error) {
	query, args, err := psql.Select("id", "name", "created_at", "updated_at").
		From("centers").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return center.Center{}, errors.Wrap(err, "building query")
	}

	var row centerRow
	if err = repo.db.GetContext(ctx, &row, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return center.Center{}, center.ErrNotFound
		}
		return center.Center{}, errors.Wrap(err, "getting center")
	}
	return row.toCenter(), nil
}

func (repo *centerRepository) QueryAllFlags(ctx context.Context) ([]center.FeatureFlag, error) {
	query, args, err := psql.Select("center_id", "feature_name", "is_enabled").
		From("center_feature_permissions").
		OrderBy("center_id", "feature_name").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	return repo.selectFlags(ctx, query, args)
}

func (repo *centerRepository) GetCenterFlags(ctx context.Context, centerID string) ([]center.FeatureFlag, error) {
	query, args, err := psql.Select("center_id", "feature_name", "is_enabled").
		From("center_feature_permissions").
		Where(sq.Eq{"center_id": centerID}).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	return repo.selectFlags(ctx, query, args)
}

func (repo *centerRepository) selectFlags(ctx context.Context, query string, args []interface{}) ([]center.FeatureFlag, error) {
	var rows []flagRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying flags")
	}
	flags := make([]center.FeatureFlag, 0, len(rows))
	for _, row := range rows {
		flags = append(flags, row.toFlag())
	}
	return flags, nil
}

// UpsertFlag writes the flag row in a single atomic statement; readers are
// invalidated by the service afterwards, never patched concurrently.
func (repo *centerRepository) UpsertFlag(ctx context.Context, flag center.FeatureFlag) error {
	query, args, err := psql.Insert("center_feature_permissions").
		Columns("center_id", "feature_name", "is_enabled").
		Values(flag.CenterID, flag.Feature.String(), flag.Enabled).
		Suffix("ON CONFLICT (center_id, feature_name) DO UPDATE SET is_enabled = EXCLUDED.is_enabled").
		ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	if _, err = repo.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "upserting flag")
	}
	return nil
}
