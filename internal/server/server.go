package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ChicagoDave/latamgrid/pkg/analytics"
	"github.com/ChicagoDave/latamgrid/pkg/dataset"
	"github.com/ChicagoDave/latamgrid/pkg/explorer"
	"github.com/ChicagoDave/latamgrid/pkg/geo"
	"github.com/ChicagoDave/latamgrid/pkg/heatmap"
	"github.com/ChicagoDave/latamgrid/pkg/overlay"
	"github.com/ChicagoDave/latamgrid/pkg/scenario"
	"github.com/ChicagoDave/latamgrid/pkg/source"
)

// errLoading is reported while the selected scenario has no snapshot yet.
var errLoading = errors.New("scenario is still loading")

// Options configures a Server.
type Options struct {
	Port int
	// Mode is a gin mode: debug, release or test.
	Mode   string
	Logger *zap.Logger
}

// Server is the JSON API over one explorer session.
type Server struct {
	session  *explorer.Session
	topology *geo.Topology
	heatmaps heatmap.Cache
	port     int
	logger   *zap.Logger
	engine   *gin.Engine
}

// New creates a server for session. topo may be nil when the base map could
// not be loaded; map regions are then omitted and /api/topology reports 503.
func New(session *explorer.Session, topo *geo.Topology, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	}
	s := &Server{
		session:  session,
		topology: topo,
		port:     opts.Port,
		logger:   logger,
	}
	s.engine = s.routes()
	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog())

	api := r.Group("/api")
	{
		api.GET("/health", s.handleHealth)
		api.GET("/manifest", s.handleManifest)
		api.GET("/scenario", s.handleScenario)
		api.POST("/scenario", s.handleChange)
		api.PUT("/scenario", s.handleSelect)
		api.GET("/snapshot", s.handleSnapshot)
		api.GET("/metrics", s.handleMetrics)
		api.GET("/heatmap", s.handleHeatmap)
		api.GET("/overlay", s.handleOverlay)
		api.GET("/summary", s.handleSummary)
		api.GET("/countries", s.handleCountries)
		api.GET("/countries/:name", s.handleCountry)
		api.GET("/locate", s.handleLocate)
		api.GET("/topology", s.handleTopology)
	}
	return r
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("latamgrid server starting", zap.String("addr", "http://localhost"+srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return <-errc
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, scenario.ErrInvalidField),
		errors.Is(err, scenario.ErrInvalidValue),
		errors.Is(err, heatmap.ErrUnknownMetric):
		return http.StatusBadRequest
	case errors.Is(err, scenario.ErrNoResolution),
		errors.Is(err, explorer.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, analytics.ErrUnknownCountry),
		errors.Is(err, source.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, dataset.ErrDataUnavailable),
		errors.Is(err, scenario.ErrManifestUnavailable),
		errors.Is(err, geo.ErrTopologyUnavailable),
		errors.Is(err, errLoading):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Warn("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// snapshot returns the current snapshot or the reason there is none.
func (s *Server) snapshot() (*dataset.Snapshot, error) {
	v := s.session.View()
	if v.Snapshot != nil {
		return v.Snapshot, nil
	}
	if v.Error != "" {
		return nil, fmt.Errorf("%w: %s", dataset.ErrDataUnavailable, v.Key)
	}
	return nil, fmt.Errorf("%w: %s", errLoading, v.Key)
}

func (s *Server) metric(c *gin.Context) (heatmap.Metric, error) {
	return heatmap.Lookup(c.DefaultQuery("metric", heatmap.Default))
}

func (s *Server) handleHealth(c *gin.Context) {
	v := s.session.View()
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"key":      v.Key,
		"loaded":   v.Snapshot != nil,
		"loading":  v.Loading,
		"topology": s.topology != nil,
	})
}

func (s *Server) handleManifest(c *gin.Context) {
	m := s.session.Manifest()
	c.JSON(http.StatusOK, gin.H{
		"count":     m.Len(),
		"default":   m.Default(),
		"scenarios": m.Scenarios(),
	})
}

func (s *Server) handleScenario(c *gin.Context) {
	c.JSON(http.StatusOK, s.session.View())
}

type changeRequest struct {
	Field string `json:"field" binding:"required"`
	Value string `json:"value" binding:"required"`
}

func (s *Server) handleChange(c *gin.Context) {
	var req changeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be {\"field\": ..., \"value\": ...}"})
		return
	}
	if _, err := s.session.Change(c.Request.Context(), req.Field, req.Value); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.session.View())
}

func (s *Server) handleSelect(c *gin.Context) {
	var cfg scenario.Config
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be a scenario config"})
		return
	}
	if err := cfg.Validate(); err != nil {
		s.fail(c, err)
		return
	}
	if _, err := s.session.Select(c.Request.Context(), cfg); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.session.View())
}

func (s *Server) handleSnapshot(c *gin.Context) {
	snap, err := s.snapshot()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

type metricInfo struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Kind  string `json:"kind"`
	Unit  string `json:"unit"`
}

func (s *Server) handleMetrics(c *gin.Context) {
	ms := heatmap.Metrics()
	out := make([]metricInfo, len(ms))
	for i, m := range ms {
		out[i] = metricInfo{ID: m.ID, Label: m.Label, Kind: m.Kind.String(), Unit: m.Unit()}
	}
	c.JSON(http.StatusOK, gin.H{"default": heatmap.Default, "metrics": out})
}

func (s *Server) handleHeatmap(c *gin.Context) {
	m, err := s.metric(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	snap, err := s.snapshot()
	if err != nil {
		s.fail(c, err)
		return
	}
	hm := s.heatmaps.Get(m, snap)
	colors := make(map[string]string, len(hm.Values))
	for name := range hm.Values {
		colors[name] = hm.Color(name)
	}
	c.JSON(http.StatusOK, gin.H{
		"key":        snap.Key,
		"metric":     m.ID,
		"title":      m.Title(),
		"unit":       m.Unit(),
		"values":     hm.Values,
		"colors":     colors,
		"boundaries": hm.Scale.Boundaries,
		"max":        hm.Scale.Max,
		"no_data":    hm.Scale.NoData,
		"legend":     hm.Legend(),
	})
}

func (s *Server) handleOverlay(c *gin.Context) {
	m, err := s.metric(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	snap, err := s.snapshot()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, overlay.Build(snap, s.heatmaps.Get(m, snap), s.topology))
}

func (s *Server) handleSummary(c *gin.Context) {
	snap, err := s.snapshot()
	if err != nil {
		s.fail(c, err)
		return
	}
	summary, report := analytics.Regional(snap)
	c.JSON(http.StatusOK, gin.H{"summary": summary, "report": report})
}

func (s *Server) handleCountries(c *gin.Context) {
	snap, err := s.snapshot()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"countries": analytics.Countries(snap)})
}

func (s *Server) handleCountry(c *gin.Context) {
	snap, err := s.snapshot()
	if err != nil {
		s.fail(c, err)
		return
	}
	summary, err := analytics.Country(snap, c.Param("name"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleLocate(c *gin.Context) {
	if s.topology == nil {
		s.fail(c, geo.ErrTopologyUnavailable)
		return
	}
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	pt := geo.Pt(lat, lng)
	if errLat != nil || errLng != nil || !pt.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng must be valid coordinates"})
		return
	}
	name, ok := s.topology.CountryAt(pt)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no country at that point"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"country": name})
}

func (s *Server) handleTopology(c *gin.Context) {
	if s.topology == nil {
		s.fail(c, geo.ErrTopologyUnavailable)
		return
	}
	c.JSON(http.StatusOK, s.topology)
}
