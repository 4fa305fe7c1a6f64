package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleListStatuses(c *gin.Context) {
	statuses, err := s.store.ListStatuses(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, statuses)
}

func (s *Server) handleGetStatus(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	status, err := s.store.GetStatus(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, status)
}

func (s *Server) handleCreateStatus(c *gin.Context) {
	var req nameRequest
	if err := bindJSON(c, &req); err != nil {
		s.respondError(c, err)
		return
	}

	status, err := s.store.CreateStatus(c.Request.Context(), req.Name)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, status)
}

func (s *Server) handleUpdateStatus(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}

	var req nameRequest
	if err := bindJSON(c, &req); err != nil {
		s.respondError(c, err)
		return
	}

	status, err := s.store.UpdateStatus(c.Request.Context(), id, req.Name)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, status)
}

// handleDeleteStatus removes a status; tasks that used it keep existing
// without one.
func (s *Server) handleDeleteStatus(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	deleted, err := s.store.DeleteStatus(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, deleted)
}
