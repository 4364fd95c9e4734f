package server

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// 1MB is plenty for a task document
const maxBodySize = 1 << 20

func (s *Server) handleList(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner := c.Query("owner")
		if owner == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "owner parameter required"})
			return
		}
		activeOnly := kind == "task" && c.Query("archived") == "false"

		rows, err := s.storage.List(kind, owner, activeOnly)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

func (s *Server) handleCreate(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodySize))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
			return
		}
		if _, err := s.storage.Upsert(kind, body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.Data(http.StatusCreated, "application/json", body)
	}
}

func (s *Server) handleUpdate(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodySize))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
			return
		}
		cols, err := s.storage.Upsert(kind, body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if cols.ID != id {
			c.JSON(http.StatusBadRequest, gin.H{"error": "row id does not match path"})
			return
		}
		c.Data(http.StatusOK, "application/json", body)
	}
}

func (s *Server) handleDelete(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := s.storage.Delete(kind, id); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": id})
	}
}

type positionsRequest struct {
	Kind    string `json:"kind" binding:"required"`
	Owner   string `json:"owner" binding:"required"`
	Updates []struct {
		ID       string `json:"id" binding:"required"`
		Position int    `json:"position"`
	} `json:"updates" binding:"required"`
}

func (s *Server) handlePositions(c *gin.Context) {
	var req positionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := make(map[string]int, len(req.Updates))
	for _, u := range req.Updates {
		updates[u.ID] = u.Position
	}
	if err := s.storage.SetPositions(req.Kind, req.Owner, updates); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": len(updates)})
}

func (s *Server) handleChanges(c *gin.Context) {
	owner := c.Query("owner")
	if owner == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "owner parameter required"})
		return
	}
	since, err := strconv.ParseInt(c.DefaultQuery("since", "0"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "since must be an integer"})
		return
	}

	seq, kinds, err := s.storage.ChangesSince(owner, since)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"seq": seq, "kinds": kinds})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
