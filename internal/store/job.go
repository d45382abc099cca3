package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jobmail/jobboard/internal/model"
)

type JobStore struct {
	db *sqlx.DB
}

func NewJobStore(db *sqlx.DB) *JobStore {
	return &JobStore{db: db}
}

func (s *JobStore) Create(ctx context.Context, job *model.Job) (*model.Job, error) {
	if !job.Status.Valid() {
		return nil, fmt.Errorf("invalid job status %q", job.Status)
	}
	if job.PostedAt.IsZero() {
		job.PostedAt = time.Now().UTC()
	}
	res, err := s.db.NamedExecContext(ctx,
		`INSERT INTO jobs (title, description, apply_instructions, apply_link, apply_email,
		                   salary, currency, location, category, remote_type, hours, status,
		                   posted_at, expires_at)
		 VALUES (:title, :description, :apply_instructions, :apply_link, :apply_email,
		         :salary, :currency, :location, :category, :remote_type, :hours, :status,
		         :posted_at, :expires_at)`,
		job)
	if err != nil {
		return nil, err
	}
	job.ID, err = res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (s *JobStore) Update(ctx context.Context, job *model.Job) error {
	if !job.Status.Valid() {
		return fmt.Errorf("invalid job status %q", job.Status)
	}
	res, err := s.db.NamedExecContext(ctx,
		`UPDATE jobs SET title = :title, description = :description,
		     apply_instructions = :apply_instructions, apply_link = :apply_link,
		     apply_email = :apply_email, salary = :salary, currency = :currency,
		     location = :location, category = :category, remote_type = :remote_type,
		     hours = :hours, status = :status, expires_at = :expires_at
		 WHERE id = :id`,
		job)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *JobStore) Delete(ctx context.Context, id int64) (string, error) {
	var title string
	err := s.db.GetContext(ctx, &title, `SELECT title FROM jobs WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	_, err = s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	return title, err
}

func (s *JobStore) GetByID(ctx context.Context, id int64) (*model.Job, error) {
	var job model.Job
	err := s.db.GetContext(ctx, &job, `SELECT * FROM jobs WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// JobFilter narrows List results. A zero Status means all statuses.
type JobFilter struct {
	Status   model.JobStatus
	Category string
	Location string
	Search   string
}

// List returns a page of jobs newest-first plus the total match count.
func (s *JobStore) List(ctx context.Context, f JobFilter, page, pageSize int) ([]model.Job, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	where := ` WHERE 1=1`
	args := []any{}
	if f.Status != "" {
		where += ` AND status = ?`
		args = append(args, f.Status)
	}
	if f.Category != "" {
		where += ` AND category = ?`
		args = append(args, f.Category)
	}
	if f.Location != "" {
		where += ` AND location = ?`
		args = append(args, f.Location)
	}
	if f.Search != "" {
		where += ` AND (title LIKE ? OR description LIKE ?)`
		like := "%" + f.Search + "%"
		args = append(args, like, like)
	}

	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM jobs`+where, args...); err != nil {
		return nil, 0, err
	}

	var jobs []model.Job
	args = append(args, pageSize, (page-1)*pageSize)
	err := s.db.SelectContext(ctx, &jobs,
		`SELECT * FROM jobs`+where+` ORDER BY posted_at DESC, id DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

// ListPublished returns every published job newest-first, for the RSS feed.
func (s *JobStore) ListPublished(ctx context.Context) ([]model.Job, error) {
	var jobs []model.Job
	err := s.db.SelectContext(ctx, &jobs,
		`SELECT * FROM jobs WHERE status = ? ORDER BY posted_at DESC`, model.JobPublished)
	return jobs, err
}

type countRow struct {
	Key   string `db:"key"`
	Count int    `db:"count"`
}

// Stats summarizes the job table for the stats page.
func (s *JobStore) Stats(ctx context.Context) (*model.JobStats, error) {
	stats := &model.JobStats{
		ByStatus:   map[string]int{},
		ByCategory: map[string]int{},
	}

	if err := s.db.GetContext(ctx, &stats.Total, `SELECT COUNT(*) FROM jobs`); err != nil {
		return nil, err
	}

	var rows []countRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT status AS key, COUNT(*) AS count FROM jobs GROUP BY status`); err != nil {
		return nil, err
	}
	for _, r := range rows {
		stats.ByStatus[r.Key] = r.Count
	}

	rows = rows[:0]
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT category AS key, COUNT(*) AS count FROM jobs GROUP BY category`); err != nil {
		return nil, err
	}
	for _, r := range rows {
		stats.ByCategory[r.Key] = r.Count
	}
	return stats, nil
}
