package serving

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aayushagarwaltech-bot/Transportation/metrics"
	"github.com/aayushagarwaltech-bot/Transportation/pkg/errors"
	"github.com/aayushagarwaltech-bot/Transportation/pkg/fsutil"
	"github.com/aayushagarwaltech-bot/Transportation/pkg/log"
)

// Server exposes an Adapter over HTTP.
type Server struct {
	adapter     *Adapter
	metricsPath string
	logger      log.Logger
}

// NewServer returns a Server. metricsPath may be empty.
func NewServer(a *Adapter, metricsPath string, l log.Logger) *Server {
	if l == nil {
		l = log.GetLoggerWithName("http")
	}
	return &Server{adapter: a, metricsPath: metricsPath, logger: l}
}

// Router builds the gin engine.
//
//	GET  /healthz
//	GET  /schema
//	GET  /metrics
//	POST /predict
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog())
	s.InitRoutes(r)
	return r
}

// InitRoutes registers the handlers on r.
func (s *Server) InitRoutes(r gin.IRoutes) {
	r.GET("/healthz", s.healthHandler)
	r.GET("/schema", s.schemaHandler)
	r.GET("/metrics", s.metricsHandler)
	r.POST("/predict", s.predictHandler)
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			log.DurationMsKey, time.Since(start).Milliseconds(),
		)
	}
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) schemaHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.adapter.Schema())
}

func (s *Server) metricsHandler(c *gin.Context) {
	if s.metricsPath == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "no metrics configured", "status": http.StatusNotFound})
		return
	}
	ok, err := fsutil.Exists(s.metricsPath)
	if err == nil && !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "metrics not found; run the pipeline first", "status": http.StatusNotFound})
		return
	}
	var rep metrics.Report
	if err == nil {
		rep, err = metrics.LoadReport(s.metricsPath)
	}
	if err != nil {
		s.logger.Error("reading metrics failed", err, log.PathKey, s.metricsPath)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "status": http.StatusInternalServerError})
		return
	}
	c.JSON(http.StatusOK, rep)
}

// Test command.
// curl -i -X POST http://localhost:8080/predict -d '{"season": 2, "month": 6, "temperature": 0.5}'
func (s *Server) predictHandler(c *gin.Context) {
	var fields map[string]any
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "json decoding : " + err.Error(),
			"status": http.StatusBadRequest,
		})
		return
	}
	if fields == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "request body must be a JSON object",
			"status": http.StatusBadRequest,
		})
		return
	}

	pred, err := s.adapter.Predict(fields)
	if err != nil {
		code := statusFor(err)
		if code == http.StatusInternalServerError {
			s.logger.Error("prediction failed", err)
		}
		c.JSON(code, gin.H{
			"error":  err.Error(),
			"status": code,
			"schema": s.adapter.Schema().Features,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"prediction": pred.Value,
		"lower":      pred.Lower,
		"upper":      pred.Upper,
		"band":       pred.Band,
		"band_note":  BandNote,
		"vector":     pred.Vector,
		"schema":     pred.Schema,
	})
}

func statusFor(err error) int {
	var ve *errors.ValidationError
	var mm *errors.SchemaMismatchError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &mm):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
