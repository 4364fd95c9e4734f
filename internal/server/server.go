// Package server implements taskdeckd, the HTTP backend the clients
// sync against. It exposes per-entity CRUD collections, a batched
// reposition endpoint and a change feed the clients poll.
package server

import (
	"github.com/gin-gonic/gin"
)

// collectionKinds maps the REST collection names to the entity kind
// recorded in storage and reported on the change feed.
var collectionKinds = map[string]string{
	"tasks":     "task",
	"sections":  "section",
	"projects":  "project",
	"reminders": "reminder",
}

// Server is the taskdeckd HTTP server.
type Server struct {
	storage *Storage
	router  *gin.Engine
}

// NewServer wires the routes over the given storage.
func NewServer(storage *Storage) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	s := &Server{
		storage: storage,
		router:  router,
	}

	api := router.Group("/api")
	{
		for path, kind := range collectionKinds {
			api.GET("/"+path, s.handleList(kind))
			api.POST("/"+path, s.handleCreate(kind))
			api.PATCH("/"+path+"/:id", s.handleUpdate(kind))
			api.DELETE("/"+path+"/:id", s.handleDelete(kind))
		}

		api.POST("/positions", s.handlePositions)
		api.GET("/changes", s.handleChanges)
		api.GET("/health", s.handleHealth)
	}

	return s
}

// Run starts serving on addr.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}
