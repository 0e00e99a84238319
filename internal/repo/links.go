package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/rs/zerolog/log"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/abdusco/shortr/internal"
)

type linkRow struct {
	ID        int64  `db:"id" goqu:"skipinsert,skipupdate"`
	ShortID   string `db:"short_id"`
	LongURL   string `db:"long_url"`
	Clicks    int64  `db:"clicks" goqu:"skipinsert"`
	CreatedAt Date   `db:"created_at" goqu:"skipupdate"`
}

func (r *linkRow) toDomain() *internal.Link {
	return &internal.Link{
		ID:        r.ID,
		ShortID:   r.ShortID,
		LongURL:   r.LongURL,
		Clicks:    r.Clicks,
		CreatedAt: r.CreatedAt.Time(),
	}
}

type LinksRepo struct {
	db *sql.DB
}

func NewLinksRepo(db *sql.DB) *LinksRepo {
	return &LinksRepo{db: db}
}

// Create inserts a new mapping. A uniqueness violation on short_id comes back
// as internal.ErrAliasConflict so callers can tell collisions from outages.
func (r *LinksRepo) Create(ctx context.Context, shortID, longURL string) (*internal.Link, error) {
	executor := goqu.New("sqlite", r.db)

	log.Debug().Str("short_id", shortID).Str("url", longURL).Msg("creating link")

	now := Date(time.Now().UTC())
	query := executor.Insert("urls").
		Cols("short_id", "long_url", "created_at").
		Vals([]any{shortID, longURL, now}).
		Returning("id", "short_id", "long_url", "clicks", "created_at")

	var row linkRow
	found, err := query.Executor().ScanStructContext(ctx, &row)
	if err != nil {
		if isUniqueViolation(err) {
			log.Debug().Str("short_id", shortID).Msg("short id already taken")
			return nil, internal.ErrAliasConflict
		}
		log.Error().Err(err).Str("short_id", shortID).Msg("failed to create link")
		return nil, err
	}
	if !found {
		return nil, errors.New("insert returned no rows")
	}

	link := row.toDomain()
	log.Info().Int64("id", link.ID).Str("short_id", link.ShortID).Msg("link created")

	return link, nil
}

func (r *LinksRepo) GetByShortID(ctx context.Context, shortID string) (*internal.Link, error) {
	executor := goqu.New("sqlite", r.db)

	query := executor.From("urls").
		Where(goqu.Ex{"short_id": shortID}).
		Select("id", "short_id", "long_url", "clicks", "created_at")

	var row linkRow
	found, err := query.Executor().ScanStructContext(ctx, &row)
	if err != nil {
		log.Error().Err(err).Str("short_id", shortID).Msg("failed to fetch link")
		return nil, err
	}
	if !found {
		return nil, internal.ErrNotFound
	}

	return row.toDomain(), nil
}

// GetByLongURL returns the earliest mapping pointing at longURL, if any.
func (r *LinksRepo) GetByLongURL(ctx context.Context, longURL string) (*internal.Link, error) {
	executor := goqu.New("sqlite", r.db)

	query := executor.From("urls").
		Where(goqu.Ex{"long_url": longURL}).
		Select("id", "short_id", "long_url", "clicks", "created_at").
		Order(goqu.C("id").Asc()).
		Limit(1)

	var row linkRow
	found, err := query.Executor().ScanStructContext(ctx, &row)
	if err != nil {
		log.Error().Err(err).Str("url", longURL).Msg("failed to fetch link by url")
		return nil, err
	}
	if !found {
		return nil, internal.ErrNotFound
	}

	return row.toDomain(), nil
}

// IncrementClicks bumps the click counter by one. The update is a single
// statement, so concurrent redirects cannot lose increments.
func (r *LinksRepo) IncrementClicks(ctx context.Context, shortID string) error {
	executor := goqu.New("sqlite", r.db)

	query := executor.Update("urls").
		Set(goqu.Record{"clicks": goqu.L("clicks + 1")}).
		Where(goqu.Ex{"short_id": shortID})

	if _, err := query.Executor().ExecContext(ctx); err != nil {
		log.Error().Err(err).Str("short_id", shortID).Msg("failed to increment clicks")
		return err
	}
	return nil
}

func (r *LinksRepo) List(ctx context.Context) ([]*internal.Link, error) {
	executor := goqu.New("sqlite", r.db)

	query := executor.From("urls").
		Select("id", "short_id", "long_url", "clicks", "created_at").
		Order(goqu.C("created_at").Desc(), goqu.C("id").Desc())

	var rows []linkRow
	if err := query.Executor().ScanStructsContext(ctx, &rows); err != nil {
		log.Error().Err(err).Msg("failed to list links")
		return nil, err
	}

	links := make([]*internal.Link, len(rows))
	for i, row := range rows {
		links[i] = row.toDomain()
	}
	return links, nil
}

// Delete removes a mapping; its analytics rows go with it via the cascade.
func (r *LinksRepo) Delete(ctx context.Context, shortID string) error {
	executor := goqu.New("sqlite", r.db)

	query := executor.Delete("urls").Where(goqu.Ex{"short_id": shortID})

	res, err := query.Executor().ExecContext(ctx)
	if err != nil {
		log.Error().Err(err).Str("short_id", shortID).Msg("failed to delete link")
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return internal.ErrNotFound
	}

	log.Info().Str("short_id", shortID).Msg("link deleted")
	return nil
}

func isUniqueViolation(err error) bool {
	var serr *sqlite.Error
	if errors.As(err, &serr) {
		code := serr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
