package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/MarcoPoloResearchLab/wedding/backend/internal/confirmations"
	"github.com/MarcoPoloResearchLab/wedding/backend/internal/invitations"
	"github.com/MarcoPoloResearchLab/wedding/backend/internal/songs"
	"github.com/MarcoPoloResearchLab/wedding/backend/internal/transports"
	"github.com/MarcoPoloResearchLab/wedding/backend/internal/uploads"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	errMissingInvitations   = errors.New("invitations service dependency required")
	errMissingConfirmations = errors.New("confirmations service dependency required")
	errMissingTransports    = errors.New("transports service dependency required")
	errMissingSongs         = errors.New("songs service dependency required")
	errMissingUploads       = errors.New("upload store dependency required")
	errMissingHealth        = errors.New("health checker dependency required")
)

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Dependencies struct {
	Invitations    *invitations.Service
	Confirmations  *confirmations.Service
	Transports     *transports.Service
	Songs          *songs.Service
	Uploads        *uploads.Store
	Health         HealthChecker
	Events         *ChangeDispatcher
	AllowedOrigins []string
	Logger         *zap.Logger

	// HeartbeatInterval spaces keep-alive events on open change streams.
	HeartbeatInterval time.Duration
}

func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	switch {
	case deps.Invitations == nil:
		return nil, errMissingInvitations
	case deps.Confirmations == nil:
		return nil, errMissingConfirmations
	case deps.Transports == nil:
		return nil, errMissingTransports
	case deps.Songs == nil:
		return nil, errMissingSongs
	case deps.Uploads == nil:
		return nil, errMissingUploads
	case deps.Health == nil:
		return nil, errMissingHealth
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	events := deps.Events
	if events == nil {
		events = NewChangeDispatcher()
	}
	heartbeatInterval := deps.HeartbeatInterval
	if heartbeatInterval <= 0 {
		heartbeatInterval = defaultHeartbeatInterval
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware(deps.AllowedOrigins))
	router.Use(accessLog(logger))
	router.Use(observeLatency())
	router.MaxMultipartMemory = 8 << 20

	handler := &httpHandler{
		invitations:       deps.Invitations,
		confirmations:     deps.Confirmations,
		transports:        deps.Transports,
		songs:             deps.Songs,
		uploads:           deps.Uploads,
		health:            deps.Health,
		events:            events,
		heartbeatInterval: heartbeatInterval,
		logger:            logger,
	}

	router.GET("/healthz", handler.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.StaticFS(deps.Uploads.PublicPrefix(), deps.Uploads.FileSystem())

	api := router.Group("/api")

	invitationRoutes := api.Group("/invitaciones")
	invitationRoutes.GET("", handler.listInvitations)
	invitationRoutes.GET("/:id", handler.getInvitation)
	invitationRoutes.POST("", handler.createInvitation)
	invitationRoutes.PUT("/id/:id", handler.updateInvitationByID)
	invitationRoutes.PUT("/:titulo", handler.updateInvitationByTitle)
	invitationRoutes.DELETE("/titulo/:titulo", handler.deleteInvitationByTitle)
	invitationRoutes.DELETE("/:id", handler.deleteInvitation)

	confirmationRoutes := api.Group("/confirmaciones")
	confirmationRoutes.GET("", handler.listConfirmations)
	confirmationRoutes.GET("/invitacion/:id", handler.listConfirmationsByInvitation)
	confirmationRoutes.GET("/:id", handler.getConfirmation)
	confirmationRoutes.POST("", handler.createConfirmation)
	confirmationRoutes.PUT("/:id", handler.updateConfirmation)
	confirmationRoutes.DELETE("/:id", handler.deleteConfirmation)

	transportRoutes := api.Group("/transportes")
	transportRoutes.GET("", handler.listTransports)
	transportRoutes.GET("/invitacion/:id", handler.listTransportsByInvitation)
	transportRoutes.GET("/buscar/:nombre", handler.searchTransports)
	transportRoutes.GET("/hora/:hora", handler.transportCapacity)
	transportRoutes.GET("/:id", handler.getTransport)
	transportRoutes.POST("", handler.createTransport)
	transportRoutes.PUT("/:id", handler.updateTransport)
	transportRoutes.DELETE("/:id", handler.deleteTransport)

	songRoutes := api.Group("/musica")
	songRoutes.GET("", handler.listSongs)
	songRoutes.GET("/buscar", handler.searchSongs)
	songRoutes.GET("/invitacion/:id", handler.listSongsByInvitation)
	songRoutes.GET("/:id", handler.getSong)
	songRoutes.POST("", handler.createSong)
	songRoutes.PUT("/:id", handler.updateSong)
	songRoutes.DELETE("/:id", handler.deleteSong)

	api.GET("/eventos/:id", handler.streamEvents)

	api.POST("/upload", handler.uploadImage)
	api.POST("/upload-multiple", handler.uploadImages)

	return router, nil
}

type httpHandler struct {
	invitations   *invitations.Service
	confirmations *confirmations.Service
	transports    *transports.Service
	songs         *songs.Service
	uploads       *uploads.Store
	health        HealthChecker
	events        *ChangeDispatcher
	logger        *zap.Logger

	heartbeatInterval time.Duration
}

func (h *httpHandler) handleHealth(c *gin.Context) {
	if err := h.health.Ping(c.Request.Context()); err != nil {
		h.logger.Error("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
