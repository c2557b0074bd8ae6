package api

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"onboardgo/internal/logging"
	"onboardgo/internal/models"
	"onboardgo/internal/service/onboarding"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handler wires HTTP routes to the onboarding service and the static assets.
type Handler struct {
	onboarding *onboarding.Service
	staticDir  string
	logger     *zap.Logger
}

// NewHandler constructs a Handler instance.
func NewHandler(service *onboarding.Service, staticDir string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		onboarding: service,
		staticDir:  staticDir,
		logger:     logger,
	}
}

// NewRouter builds a gin engine with recovery, request ids and access logging.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), logging.RequestID(), logging.GinLogger(h.logger))
	h.RegisterRoutes(router)
	return router
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/", h.index)
	router.GET("/static/*filepath", h.staticFile)
	router.GET("/healthz", h.health)

	api := router.Group("/api")
	api.POST("/submit_step", h.submitStep)
	api.GET("/get_data", h.getData)
	api.POST("/analyze", h.analyze)
	api.POST("/reset", h.reset)
	api.GET("/export", h.export)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) submitStep(c *gin.Context) {
	var req submitStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	session, err := req.toSession()
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	result, err := h.onboarding.SubmitStep(c.Request.Context(), session)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     "Step data saved successfully",
		"backupSaved": result.BackupSaved,
	})
}

func (h *Handler) getData(c *gin.Context) {
	sessions, err := h.onboarding.ListSessions(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if sessions == nil {
		sessions = make([]models.Session, 0)
	}
	c.JSON(http.StatusOK, sessions)
}

func (h *Handler) analyze(c *gin.Context) {
	result, err := h.onboarding.Analyze(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if result.Analysis == nil {
		c.JSON(http.StatusOK, gin.H{"insights": result.Insights})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"insights": result.Insights,
		"analysis": result.Analysis,
		"source":   result.Source,
	})
}

func (h *Handler) reset(c *gin.Context) {
	if err := h.onboarding.Reset(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "All data reset successfully"})
}

func (h *Handler) export(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.onboarding.Export(c.Request.Context(), &buf); err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="onboarding_data.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// fail converts a service error into a 500 carrying the error text.
func (h *Handler) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
