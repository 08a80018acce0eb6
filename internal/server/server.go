// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the pipeline control surface over HTTP: trigger a
// stage, poll its task, read the latest snapshot summary, and export the
// contacts projection. Triggering always returns immediately; the caller
// observes completion through the task resource.
package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pdiddy/outreach-engine/internal/ledger"
	"github.com/pdiddy/outreach-engine/internal/pipeline"
	"github.com/pdiddy/outreach-engine/internal/snapshot"
	"github.com/pdiddy/outreach-engine/internal/status"
)

// Server wires the HTTP surface to the pipeline driver and stores.
type Server struct {
	driver  *pipeline.Driver
	store   *snapshot.Store
	sends   *ledger.Store
	runners map[string]pipeline.Runner
	version string
	started time.Time
}

// New returns a Server. runners maps stage name to the closure that
// executes that stage; stages absent from the map cannot be triggered.
func New(driver *pipeline.Driver, store *snapshot.Store, sends *ledger.Store, runners map[string]pipeline.Runner, version string) *Server {
	return &Server{
		driver:  driver,
		store:   store,
		sends:   sends,
		runners: runners,
		version: version,
		started: time.Now(),
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	api := r.Group("/api")
	api.GET("/status", s.getStatus)
	api.GET("/stats", s.getStats)
	api.POST("/stages/:stage/run", s.runStage)
	api.GET("/stages/:stage/latest", s.getLatest)
	api.GET("/tasks/:id", s.getTask)
	api.GET("/contacts", s.getContacts)
	api.GET("/contacts/export.csv", s.exportContacts)

	return r
}

func (s *Server) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"version": s.version,
		"uptime":  time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) getStats(c *gin.Context) {
	stats, err := status.Collect(c.Request.Context(), s.store, s.sends)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) runStage(c *gin.Context) {
	stage := strings.ToLower(c.Param("stage"))
	run, ok := s.runners[stage]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown stage: " + stage})
		return
	}

	// The task outlives the HTTP request; detach it from the request
	// context so a client disconnect cannot cancel a running stage.
	task := s.driver.Trigger(context.Background(), stage, run)
	c.JSON(http.StatusAccepted, gin.H{
		"task_id": task.ID,
		"stage":   task.Stage,
		"state":   task.State(),
	})
}

func (s *Server) getTask(c *gin.Context) {
	task, ok := s.driver.Lookup(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown task"})
		return
	}

	resp := gin.H{
		"task_id": task.ID,
		"stage":   task.Stage,
		"state":   task.State(),
	}
	if err := task.Err(); err != nil {
		resp["error"] = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) getLatest(c *gin.Context) {
	stage := strings.ToLower(c.Param("stage"))
	if !snapshot.KnownStage(stage) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown stage: " + stage})
		return
	}

	meta, err := s.store.LatestMeta(stage)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, meta)
}

func (s *Server) getContacts(c *gin.Context) {
	contacts, err := s.sends.Contacts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, contacts)
}

func (s *Server) exportContacts(c *gin.Context) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="contacts.csv"`)
	if err := s.sends.ExportCSV(c.Request.Context(), c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
