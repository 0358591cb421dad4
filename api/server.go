package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/datadoctor/uploader-go/api/controllers"
	"github.com/datadoctor/uploader-go/api/middlewares"
	"github.com/datadoctor/uploader-go/api/notifyhub"
	"github.com/datadoctor/uploader-go/tool"
	"github.com/datadoctor/uploader-go/upload"
)

// Server is the localhost control API the UI talks to.
type Server struct {
	port   int
	orch   *upload.Orchestrator
	hub    *notifyhub.Hub
	engine *gin.Engine
	server *http.Server
	mu     sync.RWMutex
}

// NewServer creates a control API server bound to the orchestrator and hub.
func NewServer(port int, orch *upload.Orchestrator, hub *notifyhub.Hub) *Server {
	return &Server{
		port: port,
		orch: orch,
		hub:  hub,
	}
}

func (s *Server) setupRoutes() *gin.Engine {
	if tool.DefaultLogger.GetLevel() == log.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.Default()
	engine.Use(gin.Recovery())

	uploadCtrl := controllers.NewUploadController(s.orch)

	// Mutating endpoints share one limiter; a stuck UI retry loop should not
	// turn into a request storm against the service.
	mutateLimiter := rate.NewLimiter(rate.Limit(2), 5)

	self := engine.Group("/api/self/v1", middlewares.OnlyAllowLocal)
	{
		self.POST("/upload", middlewares.RateLimit(mutateLimiter), uploadCtrl.HandleUpload) // start or replace (?replace=true)
		self.GET("/upload/status", uploadCtrl.HandleStatus)                                 // current session snapshot
		self.DELETE("/upload", middlewares.RateLimit(mutateLimiter), uploadCtrl.HandleCancel)
		self.POST("/upload/reset", middlewares.RateLimit(mutateLimiter), uploadCtrl.HandleReset)
		self.GET("/history", controllers.HandleHistory)          // recent upload outcomes
		self.GET("/config", controllers.HandleConfigGet)         // limits for pre-upload guidance
		self.GET("/health", controllers.HandleHealth)            // service reachability probe
		self.GET("/create-qr-code", controllers.GenerateQRCode)  // QR code PNG for the dashboard URL
		if s.hub != nil {
			self.GET("/notify-ws", HandleNotifyWS(s.hub))
		}
	}

	return engine
}

// Start runs the control API. Localhost only; the middleware rejects
// anything that is not loopback even if the listener is reachable.
func (s *Server) Start() error {
	engine := s.setupRoutes()

	s.mu.Lock()
	s.engine = engine
	s.server = &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", s.port),
		Handler: engine,
	}
	srv := s.server
	s.mu.Unlock()

	tool.DefaultLogger.Infof("Starting control API on http://127.0.0.1:%d", s.port)
	return srv.ListenAndServe()
}

// Shutdown stops the control API gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	srv := s.server
	s.mu.RUnlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
