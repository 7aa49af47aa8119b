package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/atikulmunna/logsift/internal/aggregator"
	"github.com/atikulmunna/logsift/internal/filter"
	"github.com/atikulmunna/logsift/internal/ingest"
	"github.com/atikulmunna/logsift/internal/model"
)

// Server exposes an ingested record set over a read-only JSON API.
type Server struct {
	engine     *gin.Engine
	records    []model.LogRecord
	report     ingest.Report
	aggregator *aggregator.Aggregator
	log        logrus.FieldLogger
	port       string
}

// New creates a server over records. The records are never modified.
func New(records []model.LogRecord, report ingest.Report, log logrus.FieldLogger, port string) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	// Disable automatic redirects that cause 301 issues.
	engine.RedirectTrailingSlash = false
	engine.RedirectFixedPath = false

	s := &Server{
		engine:     engine,
		records:    records,
		report:     report,
		aggregator: aggregator.FromRecords(records, log),
		log:        log,
		port:       port,
	}

	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) setupRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"run_id":  s.report.RunID.String(),
			"records": len(s.records),
			"skipped": s.report.Skipped(),
		})
	})

	s.engine.GET("/api/records", s.handleRecords)

	s.engine.GET("/api/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.aggregator.Snapshot())
	})

	s.engine.GET("/api/frequency", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.aggregator.Frequency())
	})

	s.engine.GET("/api/skips", func(c *gin.Context) {
		skips := s.report.Skips
		if skips == nil {
			skips = []ingest.Skip{}
		}
		c.JSON(http.StatusOK, skips)
	})
}

// handleRecords serves records filtered by ?level= and ?since=, sorted by
// datetime when ?sort=true.
func (s *Server) handleRecords(c *gin.Context) {
	records := filter.ByLevel(s.records, c.Query("level"))

	records, err := filter.Since(records, c.Query("since"), s.log)
	if errors.Is(err, filter.ErrBadSince) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if sorted, _ := strconv.ParseBool(c.Query("sort")); sorted {
		records, err = filter.SortByDatetime(records)
		if err != nil {
			s.log.Warnf("records left unsorted: %v", err)
		}
	}

	if records == nil {
		records = []model.LogRecord{}
	}
	c.JSON(http.StatusOK, records)
}

// Start runs the server. Blocks until the server is stopped.
func (s *Server) Start() error {
	s.log.WithField("port", s.port).Info("serving records")
	return s.engine.Run(":" + s.port)
}
