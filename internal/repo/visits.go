package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/abdusco/shortr/internal"
)

type visitRow struct {
	ID        int64   `db:"id"`
	ShortID   string  `db:"short_id"`
	IP        string  `db:"ip"`
	Country   *string `db:"country"`
	UserAgent string  `db:"user_agent"`
	Device    string  `db:"device"`
	Browser   string  `db:"browser"`
	Referrer  *string `db:"referrer"`
	CreatedAt Date    `db:"created_at"`
}

func (r *visitRow) toDomain() *internal.Visit {
	return &internal.Visit{
		ID:        r.ID,
		ShortID:   r.ShortID,
		IP:        r.IP,
		Country:   r.Country,
		UserAgent: r.UserAgent,
		Device:    r.Device,
		Browser:   r.Browser,
		Referrer:  r.Referrer,
		CreatedAt: r.CreatedAt.Time(),
	}
}

type countryCountRow struct {
	Country *string `db:"country"`
	Count   int64   `db:"cnt"`
}

type deviceCountRow struct {
	Device string `db:"device"`
	Count  int64  `db:"cnt"`
}

type referrerCountRow struct {
	Referrer string `db:"referrer"`
	Count    int64  `db:"cnt"`
}

// VisitsRepo stores and aggregates the per-redirect analytics log.
type VisitsRepo struct {
	db *sql.DB
}

func NewVisitsRepo(db *sql.DB) *VisitsRepo {
	return &VisitsRepo{db: db}
}

// Create appends one visit record. Rows are append-only; nothing updates them
// and only the cascade from urls removes them.
func (r *VisitsRepo) Create(ctx context.Context, v internal.Visit) error {
	executor := goqu.New("sqlite", r.db)

	log.Debug().Str("short_id", v.ShortID).Str("ip", v.IP).Msg("recording visit")

	now := Date(time.Now().UTC())
	query := executor.Insert("analytics").
		Cols("short_id", "ip", "country", "user_agent", "device", "browser", "referrer", "created_at").
		Vals([]any{v.ShortID, v.IP, v.Country, v.UserAgent, v.Device, v.Browser, v.Referrer, now})

	if _, err := query.Executor().ExecContext(ctx); err != nil {
		log.Error().Err(err).Str("short_id", v.ShortID).Msg("failed to record visit")
		return err
	}
	return nil
}

// CountByCountry returns the top visit counts grouped by country, most
// visited first. Unresolved countries group under null.
func (r *VisitsRepo) CountByCountry(ctx context.Context, shortID string, limit uint) ([]internal.CountryCount, error) {
	executor := goqu.New("sqlite", r.db)

	query := executor.From("analytics").
		Where(goqu.Ex{"short_id": shortID}).
		Select(goqu.C("country"), goqu.COUNT("*").As("cnt")).
		GroupBy(goqu.C("country")).
		Order(goqu.C("cnt").Desc()).
		Limit(limit)

	var rows []countryCountRow
	if err := query.Executor().ScanStructsContext(ctx, &rows); err != nil {
		log.Error().Err(err).Str("short_id", shortID).Msg("failed to count visits by country")
		return nil, err
	}

	counts := make([]internal.CountryCount, len(rows))
	for i, row := range rows {
		counts[i] = internal.CountryCount{Country: row.Country, Count: row.Count}
	}
	return counts, nil
}

func (r *VisitsRepo) CountByDevice(ctx context.Context, shortID string) ([]internal.DeviceCount, error) {
	executor := goqu.New("sqlite", r.db)

	query := executor.From("analytics").
		Where(goqu.Ex{"short_id": shortID}).
		Select(goqu.C("device"), goqu.COUNT("*").As("cnt")).
		GroupBy(goqu.C("device")).
		Order(goqu.C("cnt").Desc())

	var rows []deviceCountRow
	if err := query.Executor().ScanStructsContext(ctx, &rows); err != nil {
		log.Error().Err(err).Str("short_id", shortID).Msg("failed to count visits by device")
		return nil, err
	}

	counts := make([]internal.DeviceCount, len(rows))
	for i, row := range rows {
		counts[i] = internal.DeviceCount{Device: row.Device, Count: row.Count}
	}
	return counts, nil
}

// CountByReferrer skips visits that arrived without a referrer.
func (r *VisitsRepo) CountByReferrer(ctx context.Context, shortID string, limit uint) ([]internal.ReferrerCount, error) {
	executor := goqu.New("sqlite", r.db)

	query := executor.From("analytics").
		Where(goqu.Ex{"short_id": shortID}, goqu.C("referrer").IsNotNull()).
		Select(goqu.C("referrer"), goqu.COUNT("*").As("cnt")).
		GroupBy(goqu.C("referrer")).
		Order(goqu.C("cnt").Desc()).
		Limit(limit)

	var rows []referrerCountRow
	if err := query.Executor().ScanStructsContext(ctx, &rows); err != nil {
		log.Error().Err(err).Str("short_id", shortID).Msg("failed to count visits by referrer")
		return nil, err
	}

	counts := make([]internal.ReferrerCount, len(rows))
	for i, row := range rows {
		counts[i] = internal.ReferrerCount{Referrer: row.Referrer, Count: row.Count}
	}
	return counts, nil
}

// Recent returns the latest visits, newest first.
func (r *VisitsRepo) Recent(ctx context.Context, shortID string, limit uint) ([]*internal.Visit, error) {
	executor := goqu.New("sqlite", r.db)

	query := executor.From("analytics").
		Where(goqu.Ex{"short_id": shortID}).
		Select("id", "short_id", "ip", "country", "user_agent", "device", "browser", "referrer", "created_at").
		Order(goqu.C("created_at").Desc(), goqu.C("id").Desc()).
		Limit(limit)

	var rows []visitRow
	if err := query.Executor().ScanStructsContext(ctx, &rows); err != nil {
		log.Error().Err(err).Str("short_id", shortID).Msg("failed to fetch recent visits")
		return nil, err
	}

	visits := make([]*internal.Visit, len(rows))
	for i, row := range rows {
		visits[i] = row.toDomain()
	}
	return visits, nil
}
