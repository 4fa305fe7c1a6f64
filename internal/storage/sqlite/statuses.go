package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"taskboard/internal/apperr"
	"taskboard/internal/models"
)

const statusColumns = `id, name, created_at, updated_at`

func scanStatus(row scanner) (models.Status, error) {
	var st models.Status
	err := row.Scan(&st.ID, &st.Name, &st.CreatedAt, &st.UpdatedAt)
	return st, err
}

// ListStatuses returns all statuses, oldest first.
func (s *Store) ListStatuses(ctx context.Context) ([]models.Status, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+statusColumns+` FROM statuses ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, apperr.Storage("list statuses", err)
	}
	defer rows.Close()

	statuses := []models.Status{}
	for rows.Next() {
		st, err := scanStatus(rows)
		if err != nil {
			return nil, apperr.Storage("scan status", err)
		}
		statuses = append(statuses, st)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("list statuses", err)
	}
	return statuses, nil
}

// GetStatus fetches a single status by id.
func (s *Store) GetStatus(ctx context.Context, id int64) (models.Status, error) {
	if err := validID("status", id); err != nil {
		return models.Status{}, err
	}
	return getStatus(ctx, s.db, id)
}

func getStatus(ctx context.Context, q querier, id int64) (models.Status, error) {
	st, err := scanStatus(q.QueryRowContext(ctx, `SELECT `+statusColumns+` FROM statuses WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Status{}, apperr.NotFound("status not found")
	}
	if err != nil {
		return models.Status{}, apperr.Storage("get status", err)
	}
	return st, nil
}

func getStatusByName(ctx context.Context, q querier, name string) (models.Status, error) {
	st, err := scanStatus(q.QueryRowContext(ctx, `SELECT `+statusColumns+` FROM statuses WHERE name = ?`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Status{}, apperr.NotFound("status %q not found", name)
	}
	if err != nil {
		return models.Status{}, apperr.Storage("get status by name", err)
	}
	return st, nil
}

// CreateStatus persists a new status with a unique name.
func (s *Store) CreateStatus(ctx context.Context, name string) (models.Status, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Status{}, apperr.Validation("status name must not be empty")
	}

	var created models.Status
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		taken, err := nameTaken(ctx, tx, "statuses", name, 0)
		if err != nil {
			return err
		}
		if taken {
			return apperr.Conflict("status %q already exists", name)
		}

		res, err := tx.ExecContext(ctx, `INSERT INTO statuses(name) VALUES(?)`, name)
		if err != nil {
			if isUniqueViolation(err) {
				return apperr.Conflict("status %q already exists", name)
			}
			return apperr.Storage("insert status", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return apperr.Storage("status id", err)
		}
		created, err = getStatus(ctx, tx, id)
		return err
	})
	return created, err
}

// UpdateStatus renames an existing status.
func (s *Store) UpdateStatus(ctx context.Context, id int64, name string) (models.Status, error) {
	if err := validID("status", id); err != nil {
		return models.Status{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Status{}, apperr.Validation("status name must not be empty")
	}

	var updated models.Status
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		found, err := exists(ctx, tx, "statuses", id)
		if err != nil {
			return err
		}
		if !found {
			return apperr.NotFound("status not found")
		}

		taken, err := nameTaken(ctx, tx, "statuses", name, id)
		if err != nil {
			return err
		}
		if taken {
			return apperr.Conflict("status %q already exists", name)
		}

		if _, err := tx.ExecContext(ctx, `UPDATE statuses SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, name, id); err != nil {
			if isUniqueViolation(err) {
				return apperr.Conflict("status %q already exists", name)
			}
			return apperr.Storage("update status", err)
		}
		updated, err = getStatus(ctx, tx, id)
		return err
	})
	return updated, err
}

// DeleteStatus detaches the status from every task that references it and
// then removes it. Tasks themselves are kept.
func (s *Store) DeleteStatus(ctx context.Context, id int64) (models.Deleted, error) {
	if err := validID("status", id); err != nil {
		return models.Deleted{}, err
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		found, err := exists(ctx, tx, "statuses", id)
		if err != nil {
			return err
		}
		if !found {
			return apperr.NotFound("status not found")
		}

		res, err := tx.ExecContext(ctx, `UPDATE tasks SET status_id = NULL, updated_at = CURRENT_TIMESTAMP WHERE status_id = ?`, id)
		if err != nil {
			return apperr.Storage("unlink tasks", err)
		}
		if unlinked, err := res.RowsAffected(); err == nil && unlinked > 0 {
			s.logger.Debug("unlinked tasks from status", slog.Int64("status_id", id), slog.Int64("tasks", unlinked))
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM statuses WHERE id = ?`, id); err != nil {
			return apperr.Storage("delete status", err)
		}
		return nil
	})
	if err != nil {
		return models.Deleted{}, err
	}
	return models.Deleted{Message: "status deleted", ID: id}, nil
}
