package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskboard/internal/models"
)

type createTaskRequest struct {
	Title       string                        `json:"title" binding:"required"`
	Description models.Optional[string]       `json:"description"`
	BoardID     models.IDRef                  `json:"boardId" binding:"required"`
	StatusID    models.Optional[models.IDRef] `json:"statusId"`
	StatusName  models.Optional[string]       `json:"statusName"`
}

type updateTaskRequest struct {
	Title       models.Optional[string]       `json:"title"`
	Description models.Optional[string]       `json:"description"`
	BoardID     models.Optional[models.IDRef] `json:"boardId"`
	StatusID    models.Optional[models.IDRef] `json:"statusId"`
	StatusName  models.Optional[string]       `json:"statusName"`
}

// handleListTasks returns every task.
func (s *Server) handleListTasks(c *gin.Context) {
	tasks, err := s.store.ListTasks(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, tasks)
}

// handleGetTask returns one task.
func (s *Server) handleGetTask(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	task, err := s.store.GetTask(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, task)
}

// handleCreateTask inserts a new task into a board.
func (s *Server) handleCreateTask(c *gin.Context) {
	var req createTaskRequest
	if err := bindJSON(c, &req); err != nil {
		s.respondError(c, err)
		return
	}

	// The store never picks a status on its own; the configured default is
	// applied here, before the call.
	if s.defaultStatus != "" && !req.StatusID.Present() && !req.StatusName.Present() {
		req.StatusName = models.Some(s.defaultStatus)
	}

	task, err := s.store.CreateTask(c.Request.Context(), models.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		BoardID:     req.BoardID,
		StatusID:    req.StatusID,
		StatusName:  req.StatusName,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, task)
}

// handleUpdateTask applies a partial update; absent fields are left alone.
func (s *Server) handleUpdateTask(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}

	var req updateTaskRequest
	if err := bindJSON(c, &req); err != nil {
		s.respondError(c, err)
		return
	}

	task, err := s.store.UpdateTask(c.Request.Context(), id, models.TaskPatch(req))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, task)
}

// handleDeleteTask removes a task completely.
func (s *Server) handleDeleteTask(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	deleted, err := s.store.DeleteTask(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, deleted)
}
