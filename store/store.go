package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/openquery/dispatcher"
	"github.com/openquery/dispatcher/job"
)

// Store is the bun-backed implementation of dispatcher.Store.
type Store struct {
	db *bun.DB
}

// New wraps an already-opened, already-initialized *bun.DB.
func New(db *bun.DB) *Store {
	return &Store{db: db}
}

var _ dispatcher.Store = (*Store)(nil)

// Enqueue inserts spec as a new Pending job and returns its assigned id.
func (s *Store) Enqueue(ctx context.Context, spec job.Spec) (uuid.UUID, error) {
	model := fromSpec(spec)
	if _, err := s.db.NewInsert().Model(model).Exec(ctx); err != nil {
		return uuid.UUID{}, err
	}
	return model.ID, nil
}

// ClaimNext selects the oldest eligible Pending job and transitions it to
// Queued in one UPDATE ... WHERE id IN (subquery) ... RETURNING
// statement, directly generalizing the store's original single-tier
// Pull query to a two-tier admission check: subqueries of the same
// statement count the currently in-flight rows (global, and per owning
// user) and only admit a candidate when both counts are still under budget.
func (s *Store) ClaimNext(ctx context.Context, generation string, globalCap, userCap int) (*job.Job, error) {
	now := time.Now()
	inFlight := []job.Status{job.Queued, job.Running, job.Transferring}

	globalCount := s.db.NewSelect().
		Model((*jobModel)(nil)).
		ColumnExpr("count(*)").
		Where("status IN (?)", bun.In(inFlight))

	subQuery := s.db.NewSelect().
		Model((*jobModel)(nil)).
		Column("id").
		Where("status = ?", job.Pending).
		Where(
			"user_id NOT IN (?)",
			s.db.NewSelect().
				Model((*jobModel)(nil)).
				Column("user_id").
				Where("status IN (?)", bun.In(inFlight)).
				GroupExpr("user_id").
				Having("count(*) >= ?", userCap),
		).
		Order("created_at ASC", "id ASC").
		Limit(1)

	var jobs []*jobModel
	err := s.db.NewUpdate().
		Model((*jobModel)(nil)).
		Set("status = ?", job.Queued).
		Set("generation = ?", generation).
		Set("updated_at = ?", now).
		Where("id IN (?)", subQuery).
		Where("(?) < ?", globalCount, globalCap).
		Returning("*").
		Scan(ctx, &jobs)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, nil
	}
	return jobs[0].toJob(), nil
}

// Start transitions a Queued job owned by generation to Running, setting
// started_at on first entry.
func (s *Store) Start(ctx context.Context, j *job.Job, generation string) error {
	now := time.Now()
	var started *time.Time
	if j.StartedAt == nil {
		started = &now
	} else {
		started = j.StartedAt
	}
	res, err := s.db.NewUpdate().
		Model((*jobModel)(nil)).
		Set("status = ?", job.Running).
		Set("started_at = ?", started).
		Set("updated_at = ?", now).
		Where("id = ?", j.ID).
		Where("status = ?", job.Queued).
		Where("generation = ?", generation).
		Exec(ctx)
	if err != nil {
		return err
	}
	if !isAffected(res) {
		return dispatcher.ErrLockLost
	}
	j.Status = job.Running
	j.StartedAt = started
	j.UpdatedAt = now
	return nil
}

// Transition applies a legal status change and writes its accompanying
// fields, bumping updated_at and, on first entry to a terminal state,
// completed_at.
func (s *Store) Transition(ctx context.Context, j *job.Job, to job.Status, fields dispatcher.TransitionFields) error {
	if !job.CanTransition(j.Status, to) {
		return dispatcher.ErrTransitionFailed
	}
	now := time.Now()
	query := s.db.NewUpdate().
		Model((*jobModel)(nil)).
		Set("status = ?", to).
		Set("updated_at = ?", now).
		Where("id = ?", j.ID).
		Where("status = ?", j.Status)

	if to.Terminal() {
		query = query.Set("completed_at = ?", now)
	}
	if fields.ErrorMessage != "" {
		query = query.Set("error_message = ?", fields.ErrorMessage)
	}
	if fields.ResultMetadata != nil {
		query = query.Set("result_metadata = ?", map[string]any(fields.ResultMetadata))
	}

	res, err := query.Exec(ctx)
	if err != nil {
		return err
	}
	if !isAffected(res) {
		return dispatcher.ErrTransitionFailed
	}
	j.Status = to
	j.UpdatedAt = now
	if to.Terminal() {
		j.CompletedAt = &now
	}
	if fields.ErrorMessage != "" {
		j.ErrorMessage = fields.ErrorMessage
	}
	if fields.ResultMetadata != nil {
		j.ResultMetadata = fields.ResultMetadata
	}
	return nil
}

// Get returns the job identified by id, or (nil, nil) if it does not exist.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*job.Job, error) {
	var m jobModel
	err := s.db.NewSelect().Model(&m).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return m.toJob(), nil
}

// List returns up to limit jobs owned by userID matching status.
func (s *Store) List(ctx context.Context, userID uuid.UUID, status job.Status, limit int) ([]*job.Job, error) {
	var models []*jobModel
	query := s.db.NewSelect().Model(&models)
	if userID != (uuid.UUID{}) {
		query = query.Where("user_id = ?", userID)
	}
	if status != job.Unknown {
		query = query.Where("status = ?", status)
	}
	query = query.Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, err
	}
	ret := make([]*job.Job, len(models))
	for i, m := range models {
		ret[i] = m.toJob()
	}
	return ret, nil
}

// Delete permanently removes the job identified by id.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.NewDelete().Model((*jobModel)(nil)).Where("id = ?", id).Exec(ctx)
	return err
}

// MarkRerun restores a terminal job to Pending, clearing its execution
// state while preserving its id. It is a distinct, explicit operation
// rather than a transition job.CanTransition would ever allow, since
// spec.md treats rerun as an administrative override of the normal
// lifecycle, not a state the dispatcher itself can reach.
func (s *Store) MarkRerun(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.NewUpdate().
		Model((*jobModel)(nil)).
		Set("status = ?", job.Pending).
		Set("started_at = NULL").
		Set("completed_at = NULL").
		Set("error_message = ?", "").
		Set("result_metadata = NULL").
		Set("locked_until = NULL").
		Set("generation = ?", "").
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Where("status IN (?, ?)", job.Completed, job.Failed).
		Exec(ctx)
	if err != nil {
		return err
	}
	if !isAffected(res) {
		return dispatcher.ErrValidation
	}
	return nil
}

// ReclaimStale transitions every Queued/Running/Transferring job whose
// updated_at predates staleThreshold, or whose generation does not match
// the live process, back to Pending, replacing its result metadata with a
// reclaim reason.
func (s *Store) ReclaimStale(ctx context.Context, generation string, staleThreshold time.Duration) ([]uuid.UUID, error) {
	cutoff := time.Now().Add(-staleThreshold)
	var ids []uuid.UUID
	err := s.db.NewUpdate().
		Model((*jobModel)(nil)).
		Set("status = ?", job.Pending).
		Set("started_at = NULL").
		Set("completed_at = NULL").
		Set("result_metadata = ?", map[string]any{"reclaim_reason": "stale updated_at or generation mismatch"}).
		Set("locked_until = NULL").
		Set("generation = ?", "").
		Set("updated_at = ?", time.Now()).
		Where("status IN (?)", bun.In([]job.Status{job.Queued, job.Running, job.Transferring})).
		WhereGroup("AND", func(q *bun.UpdateQuery) *bun.UpdateQuery {
			return q.
				Where("updated_at < ?", cutoff).
				WhereOr("generation != ?", generation)
		}).
		Returning("id").
		Scan(ctx, &ids)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// CurrentCounts aggregates row counts per non-terminal status.
func (s *Store) CurrentCounts(ctx context.Context) (dispatcher.Counts, error) {
	var rows []struct {
		Status job.Status `bun:"status"`
		Count  int64      `bun:"count"`
	}
	err := s.db.NewSelect().
		Model((*jobModel)(nil)).
		ColumnExpr("status").
		ColumnExpr("count(*) AS count").
		Where("status IN (?)", bun.In([]job.Status{job.Pending, job.Queued, job.Running, job.Transferring})).
		GroupExpr("status").
		Scan(ctx, &rows)
	if err != nil {
		return dispatcher.Counts{}, err
	}
	var counts dispatcher.Counts
	for _, r := range rows {
		switch r.Status {
		case job.Pending:
			counts.Pending = r.Count
		case job.Queued:
			counts.Queued = r.Count
		case job.Running:
			counts.Running = r.Count
		case job.Transferring:
			counts.Transferring = r.Count
		}
	}
	return counts, nil
}

// GetSettings returns the settings row owned by userID, or (nil, nil) if
// the user has never configured one.
func (s *Store) GetSettings(ctx context.Context, userID uuid.UUID) (*job.UserSettings, error) {
	var m userSettingsModel
	err := s.db.NewSelect().Model(&m).Where("user_id = ?", userID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return m.toSettings(), nil
}

// PutSettings creates or replaces the settings row for settings.UserID.
func (s *Store) PutSettings(ctx context.Context, settings job.UserSettings) error {
	model := &userSettingsModel{
		UserID:             settings.UserID,
		ExportLocation:     settings.ExportLocation,
		ExportType:         string(settings.ExportType),
		MaxParallelQueries: settings.MaxParallelQueries,
		SSHHostname:        settings.SSHHostname,
		SSHPort:            settings.SSHPort,
		SSHUsername:        settings.SSHUsername,
		SSHPassword:        settings.SSHPassword,
		SSHKey:             settings.SSHKey,
		SSHKeyPassphrase:   settings.SSHKeyPassphrase,
	}
	_, err := s.db.NewInsert().
		Model(model).
		On("CONFLICT (user_id) DO UPDATE").
		Set("export_location = EXCLUDED.export_location").
		Set("export_type = EXCLUDED.export_type").
		Set("max_parallel_queries = EXCLUDED.max_parallel_queries").
		Set("ssh_hostname = EXCLUDED.ssh_hostname").
		Set("ssh_port = EXCLUDED.ssh_port").
		Set("ssh_username = EXCLUDED.ssh_username").
		Set("ssh_password = EXCLUDED.ssh_password").
		Set("ssh_key = EXCLUDED.ssh_key").
		Set("ssh_key_passphrase = EXCLUDED.ssh_key_passphrase").
		Exec(ctx)
	return err
}
