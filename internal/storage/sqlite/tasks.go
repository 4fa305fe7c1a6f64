package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"taskboard/internal/apperr"
	"taskboard/internal/models"
)

const taskColumns = `id, title, description, board_id, status_id, created_at, updated_at`

func scanTask(row scanner) (models.Task, error) {
	var (
		t           models.Task
		description sql.NullString
		statusID    sql.NullInt64
	)
	if err := row.Scan(&t.ID, &t.Title, &description, &t.BoardID, &statusID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return models.Task{}, err
	}
	t.Description = nullString(description)
	t.StatusID = nullInt64(statusID)
	return t, nil
}

// ListTasks returns every task, oldest first.
func (s *Store) ListTasks(ctx context.Context) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, apperr.Storage("list tasks", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, apperr.Storage("scan task", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("list tasks", err)
	}
	return tasks, nil
}

// GetTask retrieves a task by id.
func (s *Store) GetTask(ctx context.Context, id int64) (models.Task, error) {
	if err := validID("task", id); err != nil {
		return models.Task{}, err
	}
	return getTask(ctx, s.db, id)
}

func getTask(ctx context.Context, q querier, id int64) (models.Task, error) {
	t, err := scanTask(q.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, apperr.NotFound("task not found")
	}
	if err != nil {
		return models.Task{}, apperr.Storage("get task", err)
	}
	return t, nil
}

// CreateTask inserts a task owned by an existing board. A status must be
// resolvable from either StatusID or StatusName; StatusID wins when both are
// given.
func (s *Store) CreateTask(ctx context.Context, in models.TaskInput) (models.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return models.Task{}, apperr.Validation("task title must not be empty")
	}
	boardID, err := in.BoardID.Parse("boardId")
	if err != nil {
		return models.Task{}, err
	}

	var description *string
	if in.Description.Present() {
		description = models.TrimmedPtr(in.Description.Value)
	}

	var created models.Task
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requireBoard(ctx, tx, boardID); err != nil {
			return err
		}

		statusID, err := resolveStatus(ctx, tx, in.StatusID, in.StatusName)
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `INSERT INTO tasks(title, description, board_id, status_id) VALUES(?, ?, ?, ?)`,
			title, description, boardID, statusID)
		if err != nil {
			return apperr.Storage("insert task", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return apperr.Storage("task id", err)
		}
		created, err = getTask(ctx, tx, id)
		return err
	})
	return created, err
}

// UpdateTask applies only the fields present in the patch. An explicit null
// on statusId or statusName disconnects the task from its status.
func (s *Store) UpdateTask(ctx context.Context, id int64, patch models.TaskPatch) (models.Task, error) {
	if err := validID("task", id); err != nil {
		return models.Task{}, err
	}

	var updated models.Task
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := getTask(ctx, tx, id)
		if err != nil {
			return err
		}

		next := current
		if patch.Title.Set {
			title := strings.TrimSpace(patch.Title.Value)
			if patch.Title.Null || title == "" {
				return apperr.Validation("task title must not be empty")
			}
			next.Title = title
		}

		if patch.Description.Set {
			next.Description = nil
			if !patch.Description.Null {
				next.Description = models.TrimmedPtr(patch.Description.Value)
			}
		}

		if patch.BoardID.Set {
			if patch.BoardID.Null {
				return apperr.Validation("boardId must not be null")
			}
			boardID, err := patch.BoardID.Value.Parse("boardId")
			if err != nil {
				return err
			}
			if err := requireBoard(ctx, tx, boardID); err != nil {
				return err
			}
			next.BoardID = boardID
		}

		if patch.StatusID.Set || patch.StatusName.Set {
			if patch.StatusID.Null || patch.StatusName.Null {
				next.StatusID = nil
			} else {
				statusID, err := resolveStatus(ctx, tx, patch.StatusID, patch.StatusName)
				if err != nil {
					return err
				}
				next.StatusID = &statusID
			}
		}

		_, err = tx.ExecContext(ctx, `UPDATE tasks SET title = ?, description = ?, board_id = ?, status_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			next.Title, next.Description, next.BoardID, next.StatusID, id)
		if err != nil {
			return apperr.Storage("update task", err)
		}
		updated, err = getTask(ctx, tx, id)
		return err
	})
	return updated, err
}

// DeleteTask removes a task by id.
func (s *Store) DeleteTask(ctx context.Context, id int64) (models.Deleted, error) {
	if err := validID("task", id); err != nil {
		return models.Deleted{}, err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return models.Deleted{}, apperr.Storage("delete task", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Deleted{}, apperr.Storage("delete task", err)
	}
	if affected == 0 {
		return models.Deleted{}, apperr.NotFound("task not found")
	}
	return models.Deleted{Message: "task deleted", ID: id}, nil
}

func requireBoard(ctx context.Context, q querier, id int64) error {
	found, err := exists(ctx, q, "boards", id)
	if err != nil {
		return err
	}
	if !found {
		return apperr.NotFound("board not found")
	}
	return nil
}

// resolveStatus picks the status a task should reference. statusID takes
// precedence over statusName; with neither present there is nothing to
// resolve and the result is NotFound.
func resolveStatus(ctx context.Context, q querier, statusID models.Optional[models.IDRef], statusName models.Optional[string]) (int64, error) {
	if statusID.Present() {
		id, err := statusID.Value.Parse("statusId")
		if err != nil {
			return 0, err
		}
		found, err := exists(ctx, q, "statuses", id)
		if err != nil {
			return 0, err
		}
		if !found {
			return 0, apperr.NotFound("status not found")
		}
		return id, nil
	}

	if statusName.Present() {
		name := strings.TrimSpace(statusName.Value)
		if name == "" {
			return 0, apperr.Validation("statusName must not be empty")
		}
		st, err := getStatusByName(ctx, q, name)
		if err != nil {
			return 0, err
		}
		return st.ID, nil
	}

	return 0, apperr.NotFound("status not found")
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullInt64(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}
