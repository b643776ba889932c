package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"bitbucket.org/qsrfocus/audits_backend/config"
	"bitbucket.org/qsrfocus/audits_backend/models"
	"bitbucket.org/qsrfocus/audits_backend/utils"
	"bitbucket.org/qsrfocus/audits_backend/workflow"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
)

const defaultPort = "8080"

var tracer = otel.Tracer("qsr-audits")

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// identityMiddleware trusts the upstream gateway's resolved identity.
// Authentication itself happens there; this service only consumes the
// decision (tenant, actor, admin flag) plus a correlation id.
func identityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if businessId := strings.TrimSpace(c.GetHeader("X-Business-Id")); businessId != "" {
			ctx = utils.SetBusinessIdInContext(ctx, businessId)
		}
		if userIdRaw := strings.TrimSpace(c.GetHeader("X-User-Id")); userIdRaw != "" {
			if userId, err := strconv.Atoi(userIdRaw); err == nil {
				ctx = utils.SetUserIdInContext(ctx, userId)
			}
		}
		if userName := strings.TrimSpace(c.GetHeader("X-User-Name")); userName != "" {
			ctx = utils.SetUserNameInContext(ctx, userName)
		}
		if strings.EqualFold(strings.TrimSpace(c.GetHeader("X-Is-Admin")), "true") {
			ctx = utils.SetIsAdminInContext(ctx, true)
		}

		correlationId := strings.TrimSpace(c.GetHeader("X-Correlation-Id"))
		if correlationId == "" {
			correlationId = uuid.NewString()
		}
		ctx = utils.SetCorrelationIdInContext(ctx, correlationId)
		c.Header("X-Correlation-Id", correlationId)

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func writeError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrors):
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrAuditCompleted), errors.Is(err, models.ErrAuditNotOwned):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, workflow.ErrItemNotInTemplate), errors.Is(err, workflow.ErrInvalidOption):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		config.LogError(config.GetLogger(), "server.go", "writeError", c.FullPath(), nil, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func auditIdParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid audit id"})
		return 0, false
	}
	return id, true
}

func startAuditHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewAudit
		if err := c.ShouldBindJSON(&input); err != nil {
			writeError(c, err)
			return
		}
		audit, err := models.StartAudit(c.Request.Context(), &input)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, audit)
	}
}

func auditSummaryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := auditIdParam(c)
		if !ok {
			return
		}
		summary, err := models.GetAuditSummary(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

func updateAuditItemHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := auditIdParam(c)
		if !ok {
			return
		}
		var input models.UpdateAuditItemInput
		if err := c.ShouldBindJSON(&input); err != nil {
			writeError(c, err)
			return
		}
		ctx, span := tracer.Start(c.Request.Context(), "UpdateAuditItem")
		defer span.End()
		result, err := workflow.UpdateAuditItem(ctx, id, &input)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func updateAuditItemsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := auditIdParam(c)
		if !ok {
			return
		}
		var inputs []*models.UpdateAuditItemInput
		if err := c.ShouldBindJSON(&inputs); err != nil {
			writeError(c, err)
			return
		}
		ctx, span := tracer.Start(c.Request.Context(), "UpdateAuditItems")
		defer span.End()
		result, err := workflow.UpdateAuditItems(ctx, id, inputs)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func completeAuditHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := auditIdParam(c)
		if !ok {
			return
		}
		ctx, span := tracer.Start(c.Request.Context(), "CompleteAudit")
		defer span.End()
		result, err := workflow.CompleteAudit(ctx, id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func auditActionItemsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := auditIdParam(c)
		if !ok {
			return
		}
		actionItems, err := models.GetAuditActionItems(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"actionItems": actionItems})
	}
}

func auditDeviationsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := auditIdParam(c)
		if !ok {
			return
		}
		deviations, err := models.GetAuditDeviations(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, deviations)
	}
}

func auditItemsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := auditIdParam(c)
		if !ok {
			return
		}
		items, err := models.GetAuditItems(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

func createTemplateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewChecklistTemplate
		if err := c.ShouldBindJSON(&input); err != nil {
			writeError(c, err)
			return
		}
		template, err := models.CreateChecklistTemplate(c.Request.Context(), &input)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, template)
	}
}

func listTemplatesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		templates, err := models.GetChecklistTemplates(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"templates": templates})
	}
}

func getTemplateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid template id"})
			return
		}
		template, gerr := models.GetChecklistTemplate(c.Request.Context(), id)
		if gerr != nil {
			writeError(c, gerr)
			return
		}
		c.JSON(http.StatusOK, template)
	}
}

func createChecklistItemHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewChecklistItem
		if err := c.ShouldBindJSON(&input); err != nil {
			writeError(c, err)
			return
		}
		item, err := models.CreateChecklistItem(c.Request.Context(), &input)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, item)
	}
}

func getChecklistItemHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
			return
		}
		item, gerr := models.GetChecklistItem(c.Request.Context(), id)
		if gerr != nil {
			writeError(c, gerr)
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

func getLocationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid location id"})
			return
		}
		location, gerr := models.GetLocation(c.Request.Context(), id)
		if gerr != nil {
			writeError(c, gerr)
			return
		}
		c.JSON(http.StatusOK, location)
	}
}

func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func main() {
	logger := config.GetLogger()

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := gin.New()
	r.Use(func(c *gin.Context) {
		// Always allow the startup probe.
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		// Gate everything else on dependency readiness.
		if config.GetDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// In production, require an explicit allowlist via CORS_ALLOWED_ORIGINS.
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "Authorization",
		"X-Business-Id", "X-User-Id", "X-User-Name", "X-Is-Admin", "X-Correlation-Id")
	corsConfig.AddExposeHeaders("Content-Length", "X-Correlation-Id")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	r.Use(identityMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	r.POST("/audits", startAuditHandler())
	r.GET("/audits/:id/summary", auditSummaryHandler())
	r.POST("/audits/:id/items", updateAuditItemHandler())
	r.POST("/audits/:id/items/batch", updateAuditItemsHandler())
	r.POST("/audits/:id/complete", completeAuditHandler())
	r.GET("/audits/:id/items", auditItemsHandler())
	r.GET("/audits/:id/action-items", auditActionItemsHandler())
	r.GET("/audits/:id/deviations", auditDeviationsHandler())

	r.POST("/templates", createTemplateHandler())
	r.GET("/templates", listTemplatesHandler())
	r.GET("/templates/:id", getTemplateHandler())
	r.POST("/checklist-items", createChecklistItemHandler())
	r.GET("/checklist-items/:id", getChecklistItemHandler())
	r.GET("/locations/:id", getLocationHandler())

	// Start listening immediately (startup probe is TCP based).
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// AutoMigrate can run DDL that blocks tables; allow running it as a
	// separate job instead.
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	// Start outbox dispatcher (publishes AFTER commit).
	dispatcherCtx, cancelDispatcher := context.WithCancel(context.Background())
	defer cancelDispatcher()
	go workflow.NewOutboxDispatcher(db, logger).Run(dispatcherCtx)

	// Recompute reads must see committed sibling writes, not a stale snapshot.
	for attempt := 1; ; attempt++ {
		err := db.Exec("SET SESSION TRANSACTION ISOLATION LEVEL READ COMMITTED").Error
		if err == nil {
			break
		}
		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		logger.WithFields(logrus.Fields{
			"field":   "database",
			"attempt": attempt,
		}).Warn("failed to set isolation level; retrying in " + sleep.String() + ": " + err.Error())
		time.Sleep(sleep)
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("audit service listening on :", port)

	// Block until shutdown or server error.
	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Stop background workers first so they don't start new work while draining.
	cancelDispatcher()

	shutdownTimeout := 30 * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}
