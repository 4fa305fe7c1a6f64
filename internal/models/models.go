package models

import (
	"strconv"
	"strings"
	"time"

	"taskboard/internal/apperr"
)

// Board is a named collection of tasks. Deleting a board deletes its tasks.
type Board struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Tasks     []Task    `json:"tasks"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Status is a named workflow state that tasks may reference.
type Status struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Task is a unit of work owned by exactly one board.
type Task struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	BoardID     int64     `json:"boardId"`
	StatusID    *int64    `json:"statusId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Deleted confirms a successful delete.
type Deleted struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

// TaskInput carries the fields accepted when creating a task.
type TaskInput struct {
	Title       string
	Description Optional[string]
	BoardID     IDRef
	StatusID    Optional[IDRef]
	StatusName  Optional[string]
}

// TaskPatch carries a partial task update. Only fields with Set are applied.
type TaskPatch struct {
	Title       Optional[string]
	Description Optional[string]
	BoardID     Optional[IDRef]
	StatusID    Optional[IDRef]
	StatusName  Optional[string]
}

// ParseID converts raw into a positive identifier. field names the input in the error.
func ParseID(field, raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, apperr.Validation("%s is required", field)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid %s", field)
	}
	return id, nil
}

// TrimmedPtr returns a pointer to the trimmed value.
func TrimmedPtr(v string) *string {
	v = strings.TrimSpace(v)
	return &v
}
