package sqlite

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"

	"taskboard/internal/apperr"
	"taskboard/internal/models"
)

// boardsWithTasks joins each board with its tasks so a listing is one read.
const boardsWithTasks = `SELECT b.id, b.name, b.created_at, b.updated_at,
        t.id, t.title, t.description, t.board_id, t.status_id, t.created_at, t.updated_at
    FROM boards b
    LEFT JOIN tasks t ON t.board_id = b.id`

const boardsWithTasksOrder = ` ORDER BY b.created_at DESC, b.id DESC, t.created_at ASC, t.id ASC`

// ListBoards returns all boards, newest first, each with its tasks attached.
func (s *Store) ListBoards(ctx context.Context) ([]models.Board, error) {
	return queryBoards(ctx, s.db, boardsWithTasks+boardsWithTasksOrder)
}

// GetBoard fetches one board with its tasks.
func (s *Store) GetBoard(ctx context.Context, id int64) (models.Board, error) {
	if err := validID("board", id); err != nil {
		return models.Board{}, err
	}
	return getBoard(ctx, s.db, id)
}

func getBoard(ctx context.Context, q querier, id int64) (models.Board, error) {
	boards, err := queryBoards(ctx, q, boardsWithTasks+` WHERE b.id = ?`+boardsWithTasksOrder, id)
	if err != nil {
		return models.Board{}, err
	}
	if len(boards) == 0 {
		return models.Board{}, apperr.NotFound("board not found")
	}
	return boards[0], nil
}

func queryBoards(ctx context.Context, q querier, query string, args ...any) ([]models.Board, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Storage("list boards", err)
	}
	defer rows.Close()

	boards := []models.Board{}
	for rows.Next() {
		var (
			b           models.Board
			taskID      sql.NullInt64
			title       sql.NullString
			description sql.NullString
			boardID     sql.NullInt64
			statusID    sql.NullInt64
			created     sql.NullTime
			updated     sql.NullTime
		)
		if err := rows.Scan(&b.ID, &b.Name, &b.CreatedAt, &b.UpdatedAt,
			&taskID, &title, &description, &boardID, &statusID, &created, &updated); err != nil {
			return nil, apperr.Storage("scan board", err)
		}

		if n := len(boards); n == 0 || boards[n-1].ID != b.ID {
			b.Tasks = []models.Task{}
			boards = append(boards, b)
		}
		if !taskID.Valid {
			continue
		}

		last := &boards[len(boards)-1]
		last.Tasks = append(last.Tasks, models.Task{
			ID:          taskID.Int64,
			Title:       title.String,
			Description: nullString(description),
			BoardID:     boardID.Int64,
			StatusID:    nullInt64(statusID),
			CreatedAt:   created.Time,
			UpdatedAt:   updated.Time,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("list boards", err)
	}
	return boards, nil
}

// CreateBoard persists a new board with a unique name.
func (s *Store) CreateBoard(ctx context.Context, name string) (models.Board, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Board{}, apperr.Validation("board name must not be empty")
	}

	var created models.Board
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		taken, err := nameTaken(ctx, tx, "boards", name, 0)
		if err != nil {
			return err
		}
		if taken {
			return apperr.Conflict("board %q already exists", name)
		}

		res, err := tx.ExecContext(ctx, `INSERT INTO boards(name) VALUES(?)`, name)
		if err != nil {
			if isUniqueViolation(err) {
				return apperr.Conflict("board %q already exists", name)
			}
			return apperr.Storage("insert board", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return apperr.Storage("board id", err)
		}
		created, err = getBoard(ctx, tx, id)
		return err
	})
	return created, err
}

// UpdateBoard renames an existing board.
func (s *Store) UpdateBoard(ctx context.Context, id int64, name string) (models.Board, error) {
	if err := validID("board", id); err != nil {
		return models.Board{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Board{}, apperr.Validation("board name must not be empty")
	}

	var updated models.Board
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		found, err := exists(ctx, tx, "boards", id)
		if err != nil {
			return err
		}
		if !found {
			return apperr.NotFound("board not found")
		}

		taken, err := nameTaken(ctx, tx, "boards", name, id)
		if err != nil {
			return err
		}
		if taken {
			return apperr.Conflict("board %q already exists", name)
		}

		if _, err := tx.ExecContext(ctx, `UPDATE boards SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, name, id); err != nil {
			if isUniqueViolation(err) {
				return apperr.Conflict("board %q already exists", name)
			}
			return apperr.Storage("update board", err)
		}
		updated, err = getBoard(ctx, tx, id)
		return err
	})
	return updated, err
}

// DeleteBoard removes a board along with its tasks.
func (s *Store) DeleteBoard(ctx context.Context, id int64) (models.Deleted, error) {
	if err := validID("board", id); err != nil {
		return models.Deleted{}, err
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		found, err := exists(ctx, tx, "boards", id)
		if err != nil {
			return err
		}
		if !found {
			return apperr.NotFound("board not found")
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE board_id = ?`, id)
		if err != nil {
			return apperr.Storage("delete board tasks", err)
		}
		if removed, err := res.RowsAffected(); err == nil && removed > 0 {
			s.logger.Debug("deleted board tasks", slog.Int64("board_id", id), slog.Int64("tasks", removed))
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM boards WHERE id = ?`, id); err != nil {
			return apperr.Storage("delete board", err)
		}
		return nil
	})
	if err != nil {
		return models.Deleted{}, err
	}
	return models.Deleted{Message: "board deleted", ID: id}, nil
}
