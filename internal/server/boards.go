package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// nameRequest is the body shared by board and status create/update.
type nameRequest struct {
	Name string `json:"name" binding:"required"`
}

// handleListBoards returns all boards with their tasks.
func (s *Server) handleListBoards(c *gin.Context) {
	boards, err := s.store.ListBoards(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, boards)
}

// handleGetBoard returns one board with its tasks.
func (s *Server) handleGetBoard(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	board, err := s.store.GetBoard(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, board)
}

// handleCreateBoard creates a new board.
func (s *Server) handleCreateBoard(c *gin.Context) {
	var req nameRequest
	if err := bindJSON(c, &req); err != nil {
		s.respondError(c, err)
		return
	}

	board, err := s.store.CreateBoard(c.Request.Context(), req.Name)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, board)
}

// handleUpdateBoard renames an existing board.
func (s *Server) handleUpdateBoard(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}

	var req nameRequest
	if err := bindJSON(c, &req); err != nil {
		s.respondError(c, err)
		return
	}

	board, err := s.store.UpdateBoard(c.Request.Context(), id, req.Name)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, board)
}

// handleDeleteBoard removes a board and all of its tasks.
func (s *Server) handleDeleteBoard(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	deleted, err := s.store.DeleteBoard(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, deleted)
}
