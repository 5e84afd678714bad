// Package server exposes the routing core over HTTP with gin.
//
// The server owns one network and at most one active scenario. Activating a
// scenario installs its damage map on the network in a single swap; every
// route request builds its own routing engine, so requests never share
// episode state.
package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tariktoplu/Opti-LogistiX/config"
	"github.com/tariktoplu/Opti-LogistiX/episode"
	"github.com/tariktoplu/Opti-LogistiX/network"
	"github.com/tariktoplu/Opti-LogistiX/scenario"
)

// Server serves the HTTP API.
type Server struct {
	net    *network.Network
	idx    *network.SpatialIndex
	cfg    *config.Config
	gen    *scenario.Generator
	policy episode.Policy
	logger *zap.Logger

	mu      sync.RWMutex
	current *scenario.Scenario
}

// Option configures a Server.
type Option func(*Server)

// WithConfig sets the configuration (defaults otherwise).
func WithConfig(c *config.Config) Option {
	return func(s *Server) {
		if c != nil {
			s.cfg = c
		}
	}
}

// WithGenerator sets the scenario generator.
func WithGenerator(g *scenario.Generator) Option {
	return func(s *Server) {
		if g != nil {
			s.gen = g
		}
	}
}

// WithPolicy enables rl and hybrid routing.
func WithPolicy(p episode.Policy) Option {
	return func(s *Server) { s.policy = p }
}

// WithLogger sets the request and event logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// New indexes n and returns a server for it.
func New(n *network.Network, opts ...Option) (*Server, error) {
	idx, err := network.NewSpatialIndex(n)
	if err != nil {
		return nil, err
	}
	s := &Server{
		net:    n,
		idx:    idx,
		cfg:    config.Default(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.gen == nil {
		s.gen = scenario.NewGenerator(scenario.WithLogger(s.logger))
	}
	return s, nil
}

// Handler builds the gin engine with all routes.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog())

	cc := cors.DefaultConfig()
	cc.AllowAllOrigins = true
	cc.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	cc.AllowHeaders = []string{"*"}
	r.Use(cors.New(cc))

	r.GET("/health", s.handleHealth)

	v1 := r.Group("/api/v1")
	v1.GET("/health", s.handleHealth)
	v1.POST("/route", s.handleRoute)
	v1.GET("/routes/compare", s.handleCompare)
	v1.GET("/scenarios", s.handleListScenarios)
	v1.POST("/scenarios/activate", s.handleActivate)
	v1.POST("/scenarios/preset/:name", s.handlePreset)
	v1.DELETE("/scenarios/current", s.handleClear)
	v1.GET("/damage-map", s.handleDamageMap)
	v1.GET("/graph/nodes", s.handleNodes)
	v1.GET("/graph/edges", s.handleEdges)
	v1.GET("/graph/stats", s.handleStats)

	return r
}

// Run serves on addr until the listener fails.
func (s *Server) Run(addr string) error {
	s.logger.Info("server starting",
		zap.String("addr", addr),
		zap.Int("nodes", s.net.NodeCount()),
		zap.Int("edges", s.net.EdgeCount()),
	)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

// Current returns the active scenario or nil.
func (s *Server) Current() *scenario.Scenario {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Activate installs sc on the network and makes it current.
func (s *Server) Activate(sc *scenario.Scenario) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := scenario.Apply(s.net, sc); err != nil {
		return err
	}
	s.current = sc
	s.logger.Info("scenario activated", zap.String("id", sc.ID), zap.Int("affected_roads", sc.AffectedRoads))
	return nil
}

// Clear removes the active scenario.
func (s *Server) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.net.ClearDamage()
	s.current = nil
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}
