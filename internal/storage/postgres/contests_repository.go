package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Togather-Foundation/contests/internal/domain/contests"
	"github.com/Togather-Foundation/contests/internal/domain/ids"
	"github.com/Togather-Foundation/contests/internal/metrics"
)

// ContestRepository stores contests in the contests table.
type ContestRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

var _ contests.Repository = (*ContestRepository)(nil)

func NewContestRepository(pool *pgxpool.Pool) *ContestRepository {
	return &ContestRepository{pool: pool}
}

const contestColumns = `id, name, platform, link, start_time, end_time, duration_minutes, status, solution_link, created_at, updated_at`

func (r *ContestRepository) FindByKey(ctx context.Context, key contests.Key) (_ *contests.Contest, err error) {
	defer recordQuery("find_contest_by_key", time.Now(), &err)

	row := r.queryer().QueryRow(ctx,
		`SELECT `+contestColumns+` FROM contests WHERE name = $1 AND platform = $2`,
		key.Name, string(key.Platform),
	)
	c, err := scanContest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, contests.ErrNotFound
		}
		return nil, &contests.PersistenceError{Op: "find contest", Key: key.String(), Err: err}
	}
	return c, nil
}

// Upsert relies on the unique (name, platform) index so concurrent refreshes
// cannot create duplicate rows. solution_link, id, and created_at are never
// touched on conflict.
func (r *ContestRepository) Upsert(ctx context.Context, c contests.Contest) (_ contests.UpsertResult, err error) {
	defer recordQuery("upsert_contest", time.Now(), &err)

	id, err := ids.NewULID()
	if err != nil {
		return contests.UpsertResult{}, fmt.Errorf("generate id: %w", err)
	}

	const query = `
		INSERT INTO contests (
			id, name, platform, link, start_time, end_time, duration_minutes, status
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
		ON CONFLICT (name, platform)
		DO UPDATE SET
			link = EXCLUDED.link,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			duration_minutes = EXCLUDED.duration_minutes,
			status = EXCLUDED.status,
			updated_at = now()
		RETURNING id, (xmax = 0) AS created, updated_at
	`

	var res contests.UpsertResult
	err = r.queryer().QueryRow(ctx, query,
		id,
		c.Name,
		string(c.Platform),
		c.Link,
		c.StartTime.UTC(),
		c.EndTime.UTC(),
		c.Duration,
		string(c.Status),
	).Scan(&res.ID, &res.Created, &res.UpdatedAt)
	if err != nil {
		return contests.UpsertResult{}, &contests.PersistenceError{Op: "upsert contest", Key: c.Key().String(), Err: err}
	}
	return res, nil
}

func (r *ContestRepository) ListByStatusNot(ctx context.Context, status contests.Status) (_ []contests.Contest, err error) {
	defer recordQuery("list_contests_by_status_not", time.Now(), &err)

	rows, err := r.queryer().Query(ctx,
		`SELECT `+contestColumns+` FROM contests WHERE status <> $1 ORDER BY start_time ASC`,
		string(status),
	)
	if err != nil {
		return nil, &contests.PersistenceError{Op: "list contests", Err: err}
	}
	return collectContests(rows)
}

func (r *ContestRepository) UpdateStatus(ctx context.Context, id string, status contests.Status) (err error) {
	defer recordQuery("update_contest_status", time.Now(), &err)

	tag, err := r.queryer().Exec(ctx,
		`UPDATE contests SET status = $2, updated_at = now() WHERE id = $1`,
		id, string(status),
	)
	if err != nil {
		return &contests.PersistenceError{Op: "update status", Key: id, Err: err}
	}
	if tag.RowsAffected() == 0 {
		return contests.ErrNotFound
	}
	return nil
}

func (r *ContestRepository) List(ctx context.Context, filter contests.Filter) (_ []contests.Contest, err error) {
	defer recordQuery("list_contests", time.Now(), &err)

	var (
		where []string
		args  []any
	)
	if len(filter.Platforms) > 0 {
		platforms := make([]string, 0, len(filter.Platforms))
		for _, p := range filter.Platforms {
			platforms = append(platforms, string(p))
		}
		args = append(args, platforms)
		where = append(where, "platform = ANY($"+strconv.Itoa(len(args))+")")
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, "status = $"+strconv.Itoa(len(args)))
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + contestColumns + ` FROM contests`)
	if len(where) > 0 {
		sb.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	if filter.Status == contests.StatusCompleted {
		sb.WriteString(" ORDER BY start_time DESC, id DESC")
	} else {
		sb.WriteString(" ORDER BY start_time ASC, id ASC")
	}
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		sb.WriteString(" LIMIT $" + strconv.Itoa(len(args)))
	}

	rows, err := r.queryer().Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, &contests.PersistenceError{Op: "list contests", Err: err}
	}
	return collectContests(rows)
}

func (r *ContestRepository) GetByID(ctx context.Context, id string) (_ *contests.Contest, err error) {
	defer recordQuery("get_contest", time.Now(), &err)

	row := r.queryer().QueryRow(ctx, `SELECT `+contestColumns+` FROM contests WHERE id = $1`, id)
	c, err := scanContest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, contests.ErrNotFound
		}
		return nil, &contests.PersistenceError{Op: "get contest", Key: id, Err: err}
	}
	return c, nil
}

func (r *ContestRepository) SetSolutionLink(ctx context.Context, id string, link string) (_ *contests.Contest, err error) {
	defer recordQuery("set_solution_link", time.Now(), &err)

	row := r.queryer().QueryRow(ctx,
		`UPDATE contests SET solution_link = $2, updated_at = now() WHERE id = $1 RETURNING `+contestColumns,
		id, link,
	)
	c, err := scanContest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, contests.ErrNotFound
		}
		return nil, &contests.PersistenceError{Op: "set solution link", Key: id, Err: err}
	}
	return c, nil
}

func (r *ContestRepository) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

func scanContest(row pgx.Row) (*contests.Contest, error) {
	var (
		c        contests.Contest
		platform string
		status   string
	)
	err := row.Scan(
		&c.ID,
		&c.Name,
		&platform,
		&c.Link,
		&c.StartTime,
		&c.EndTime,
		&c.Duration,
		&status,
		&c.SolutionLink,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Platform = contests.Platform(platform)
	c.Status = contests.Status(status)
	c.StartTime = c.StartTime.UTC()
	c.EndTime = c.EndTime.UTC()
	return &c, nil
}

func collectContests(rows pgx.Rows) ([]contests.Contest, error) {
	defer rows.Close()

	out := make([]contests.Contest, 0)
	for rows.Next() {
		c, err := scanContest(rows)
		if err != nil {
			return nil, &contests.PersistenceError{Op: "scan contest", Err: err}
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, &contests.PersistenceError{Op: "iterate contests", Err: err}
	}
	return out, nil
}

// recordQuery reports query latency, counting everything except not-found
// lookups as errors.
func recordQuery(operation string, start time.Time, errp *error) {
	err := *errp
	if errors.Is(err, contests.ErrNotFound) {
		err = nil
	}
	metrics.RecordQuery(operation, start, err)
}
