package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/Elysion-Sphere/GestCare/internal/animation"
	"github.com/Elysion-Sphere/GestCare/internal/service"
)

type Handler struct {
	service *service.Service
	banner  *animation.Banner
}

type ProblemDetails struct {
	Type      string `json:"type"`
	Title     string `json:"title"`
	Status    int    `json:"status"`
	Detail    string `json:"detail,omitempty"`
	Field     string `json:"field,omitempty"`
	Instance  string `json:"instance,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

const (
	problemContentType      = "application/problem+json"
	problemTypeValidation   = "https://gestcare.dev/problems/validation-error"
	problemTypeDuplicate    = "https://gestcare.dev/problems/duplicate-key"
	problemTypeNotFound     = "https://gestcare.dev/problems/not-found"
	problemTypeUnauthorized = "https://gestcare.dev/problems/unauthorized"
	problemTypeInternal     = "https://gestcare.dev/problems/internal-error"
	problemTypeInvalidParam = "https://gestcare.dev/problems/invalid-parameter"
)

const headerRequestID = "X-Request-ID"

func NewRouter(svc *service.Service, banner *animation.Banner, serviceName string) *gin.Engine {
	if strings.TrimSpace(serviceName) == "" {
		serviceName = "gestcare-api"
	}

	router := gin.New()
	h := &Handler{service: svc, banner: banner}
	router.Use(
		requestid.New(),
		panicRecoveryMiddleware(slog.Default()),
		otelgin.Middleware(serviceName),
		requestObservabilityMiddleware(slog.Default()),
	)

	api := router.Group("/api")
	v1 := api.Group("/v1")

	v1.GET("/health", h.health)
	v1.POST("/auth/signup", h.signup)
	v1.POST("/auth/login", h.login)

	protected := v1.Group("")
	protected.Use(h.requireAuth())
	protected.GET("/hospitals", h.listHospitals)
	protected.POST("/hospitals", h.createHospital)
	protected.GET("/hospitals/:id", h.getHospital)
	protected.PUT("/hospitals/:id", h.updateHospital)
	protected.DELETE("/hospitals/:id", h.deleteHospital)
	protected.GET("/documents", h.listDocuments)
	protected.POST("/documents", h.createDocument)
	protected.GET("/documents/:id", h.getDocument)
	protected.PUT("/documents/:id", h.updateDocument)
	protected.DELETE("/documents/:id", h.deleteDocument)
	protected.GET("/dashboard", h.dashboard)
	protected.GET("/dashboard/banner", h.bannerSnapshot)
	protected.POST("/dashboard/banner/visibility", h.bannerVisibility)

	return router
}

type httpMetrics struct {
	requests metric.Int64Counter
	latency  metric.Float64Histogram
	rejected metric.Int64Counter
}

func newHTTPMetrics(logger *slog.Logger) httpMetrics {
	meter := otel.Meter("gestcare/http")
	m := httpMetrics{}
	var err error

	m.requests, err = meter.Int64Counter(
		"gestcare.http.requests",
		metric.WithDescription("Requests HTTP atendidas"),
	)
	if err != nil {
		logger.Error("create request counter", "error", err)
	}

	m.latency, err = meter.Float64Histogram(
		"gestcare.http.latency",
		metric.WithUnit("ms"),
		metric.WithDescription("Latencia de requests HTTP em milissegundos"),
	)
	if err != nil {
		logger.Error("create latency histogram", "error", err)
	}

	m.rejected, err = meter.Int64Counter(
		"gestcare.http.rejected",
		metric.WithDescription("Requests rejeitadas pela pipeline de validacao (4xx)"),
	)
	if err != nil {
		logger.Error("create rejected counter", "error", err)
	}

	return m
}

// spanLogAttrs threads trace correlation into log lines when a span exists.
func spanLogAttrs(c *gin.Context, attrs []any) []any {
	spanContext := trace.SpanFromContext(c.Request.Context()).SpanContext()
	if !spanContext.IsValid() {
		return attrs
	}
	return append(attrs,
		"trace_id", spanContext.TraceID().String(),
		"span_id", spanContext.SpanID().String(),
	)
}

func requestObservabilityMiddleware(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	metrics := newHTTPMetrics(logger)

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()
		elapsed := float64(time.Since(start)) / float64(time.Millisecond)

		metricAttrs := metric.WithAttributes(
			attribute.String("http.request.method", c.Request.Method),
			attribute.String("http.route", route),
			attribute.Int("http.response.status_code", status),
		)
		if metrics.requests != nil {
			metrics.requests.Add(c.Request.Context(), 1, metricAttrs)
		}
		if metrics.latency != nil {
			metrics.latency.Record(c.Request.Context(), elapsed, metricAttrs)
		}
		if metrics.rejected != nil && status >= http.StatusBadRequest && status < http.StatusInternalServerError {
			metrics.rejected.Add(c.Request.Context(), 1, metricAttrs)
		}

		logAttrs := spanLogAttrs(c, []any{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration_ms", elapsed,
			"request_id", c.Writer.Header().Get(headerRequestID),
			"client_ip", c.ClientIP(),
		})
		if len(c.Errors) > 0 {
			logAttrs = append(logAttrs, "error", c.Errors.Last().Err.Error())
		}

		switch {
		case status >= http.StatusInternalServerError:
			logger.ErrorContext(c.Request.Context(), "http request", logAttrs...)
		case status >= http.StatusBadRequest:
			logger.WarnContext(c.Request.Context(), "http request", logAttrs...)
		default:
			logger.InfoContext(c.Request.Context(), "http request", logAttrs...)
		}
	}
}

// panicRecoveryMiddleware is the outermost boundary: a fault anywhere below
// is logged with its stack and surfaced as a generic internal error.
func panicRecoveryMiddleware(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}

	return func(c *gin.Context) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}

			err := fmt.Errorf("panic recovered: %v", recovered)
			_ = c.Error(err)

			span := trace.SpanFromContext(c.Request.Context())
			if span.SpanContext().IsValid() {
				span.RecordError(err)
				span.SetStatus(codes.Error, "panic recovered")
				span.SetAttributes(
					attribute.Bool("error", true),
					attribute.String("error.type", "panic"),
				)
			}

			logger.ErrorContext(c.Request.Context(), "panic recovered", spanLogAttrs(c, []any{
				"panic", recovered,
				"stack_trace", string(debug.Stack()),
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"request_id", requestid.Get(c),
			})...)

			writeProblemResponse(c, http.StatusInternalServerError, problemTypeInternal, "Internal Server Error", "internal server error", "")
		}()

		c.Next()
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) signup(c *gin.Context) {
	var input service.SignupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.writeProblem(c, http.StatusBadRequest, problemTypeValidation, "Validation Error", fmt.Sprintf("invalid request body: %s", err.Error()))
		return
	}

	output, err := h.service.Signup(c.Request.Context(), input)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, output)
}

func (h *Handler) login(c *gin.Context) {
	var input service.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.writeProblem(c, http.StatusBadRequest, problemTypeValidation, "Validation Error", fmt.Sprintf("invalid request body: %s", err.Error()))
		return
	}

	output, err := h.service.Login(c.Request.Context(), input)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, output)
}

func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		rawAuthorization := strings.TrimSpace(c.GetHeader("Authorization"))
		if rawAuthorization == "" {
			h.writeProblem(c, http.StatusUnauthorized, problemTypeUnauthorized, "Unauthorized", "missing bearer token")
			return
		}

		prefix := "Bearer "
		if !strings.HasPrefix(rawAuthorization, prefix) {
			h.writeProblem(c, http.StatusUnauthorized, problemTypeUnauthorized, "Unauthorized", "invalid authorization header")
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(rawAuthorization, prefix))
		if err := h.service.ValidateAccessToken(token); err != nil {
			h.writeProblem(c, http.StatusUnauthorized, problemTypeUnauthorized, "Unauthorized", "invalid token")
			return
		}

		c.Next()
	}
}

func (h *Handler) listHospitals(c *gin.Context) {
	hospitals, err := h.service.ListHospitals(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, hospitals)
}

func (h *Handler) createHospital(c *gin.Context) {
	var input service.HospitalInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.writeProblem(c, http.StatusBadRequest, problemTypeValidation, "Validation Error", fmt.Sprintf("invalid request body: %s", err.Error()))
		return
	}

	hospital, err := h.service.CreateHospital(c.Request.Context(), input)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, hospital)
}

func (h *Handler) getHospital(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.writeProblem(c, http.StatusBadRequest, problemTypeInvalidParam, "Invalid Parameter", err.Error())
		return
	}

	hospital, err := h.service.GetHospital(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, hospital)
}

func (h *Handler) updateHospital(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.writeProblem(c, http.StatusBadRequest, problemTypeInvalidParam, "Invalid Parameter", err.Error())
		return
	}

	var input service.HospitalInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.writeProblem(c, http.StatusBadRequest, problemTypeValidation, "Validation Error", fmt.Sprintf("invalid request body: %s", err.Error()))
		return
	}

	hospital, err := h.service.UpdateHospital(c.Request.Context(), id, input)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, hospital)
}

func (h *Handler) deleteHospital(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.writeProblem(c, http.StatusBadRequest, problemTypeInvalidParam, "Invalid Parameter", err.Error())
		return
	}

	output, err := h.service.DeleteHospital(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, output)
}

func (h *Handler) listDocuments(c *gin.Context) {
	documents, err := h.service.ListDocuments(c.Request.Context(), service.DocumentFilter{
		Category:   c.Query("category"),
		HospitalID: c.Query("hospital_id"),
		Query:      c.Query("q"),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, documents)
}

func (h *Handler) createDocument(c *gin.Context) {
	input, att, err := bindDocumentForm(c)
	if err != nil {
		h.writeProblem(c, http.StatusBadRequest, problemTypeValidation, "Validation Error", err.Error())
		return
	}

	document, err := h.service.CreateDocument(c.Request.Context(), input, att)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, document)
}

func (h *Handler) getDocument(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.writeProblem(c, http.StatusBadRequest, problemTypeInvalidParam, "Invalid Parameter", err.Error())
		return
	}

	document, err := h.service.GetDocument(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, document)
}

func (h *Handler) updateDocument(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.writeProblem(c, http.StatusBadRequest, problemTypeInvalidParam, "Invalid Parameter", err.Error())
		return
	}

	input, att, err := bindDocumentForm(c)
	if err != nil {
		h.writeProblem(c, http.StatusBadRequest, problemTypeValidation, "Validation Error", err.Error())
		return
	}

	document, err := h.service.UpdateDocument(c.Request.Context(), id, input, att)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, document)
}

func (h *Handler) deleteDocument(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.writeProblem(c, http.StatusBadRequest, problemTypeInvalidParam, "Invalid Parameter", err.Error())
		return
	}

	if err := h.service.DeleteDocument(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) dashboard(c *gin.Context) {
	output, err := h.service.Dashboard(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, output)
}

func (h *Handler) bannerSnapshot(c *gin.Context) {
	if h.banner == nil {
		h.writeProblem(c, http.StatusNotFound, problemTypeNotFound, "Not Found", "banner animation is disabled")
		return
	}
	c.JSON(http.StatusOK, h.banner.Snapshot())
}

// bannerVisibility mirrors the page visibility events: hidden pauses the
// frame loop, visible resumes it. Form state is never touched.
func (h *Handler) bannerVisibility(c *gin.Context) {
	if h.banner == nil {
		h.writeProblem(c, http.StatusNotFound, problemTypeNotFound, "Not Found", "banner animation is disabled")
		return
	}

	var input struct {
		Hidden bool `json:"hidden"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		h.writeProblem(c, http.StatusBadRequest, problemTypeValidation, "Validation Error", fmt.Sprintf("invalid request body: %s", err.Error()))
		return
	}

	if input.Hidden {
		h.banner.Pause()
	} else {
		h.banner.Resume()
	}
	c.JSON(http.StatusOK, gin.H{"running": h.banner.Running()})
}

// bindDocumentForm reads the multipart document submission: the flat field
// mapping plus the optional file part. Only file metadata is kept.
func bindDocumentForm(c *gin.Context) (service.DocumentInput, *service.AttachmentInput, error) {
	var input service.DocumentInput
	if err := c.ShouldBind(&input); err != nil {
		return service.DocumentInput{}, nil, fmt.Errorf("invalid form body: %s", err.Error())
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return input, nil, nil
		}
		return service.DocumentInput{}, nil, fmt.Errorf("invalid file part: %s", err.Error())
	}

	return input, &service.AttachmentInput{
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
	}, nil
}

func (h *Handler) writeError(c *gin.Context, err error) {
	field := ""
	var fieldErr *service.FieldError
	if errors.As(err, &fieldErr) {
		field = fieldErr.Field
	}

	switch {
	case errors.Is(err, service.ErrMissingField),
		errors.Is(err, service.ErrInvalidFormat),
		errors.Is(err, service.ErrSizeOrType):
		h.writeProblemWithField(c, http.StatusBadRequest, problemTypeValidation, "Validation Error", err.Error(), field)
	case errors.Is(err, service.ErrReferentialMiss):
		h.writeProblemWithField(c, http.StatusUnprocessableEntity, problemTypeValidation, "Validation Error", err.Error(), field)
	case errors.Is(err, service.ErrDuplicateKey):
		h.writeProblemWithField(c, http.StatusConflict, problemTypeDuplicate, "Conflict", err.Error(), field)
	case errors.Is(err, service.ErrNotFound):
		h.writeProblem(c, http.StatusNotFound, problemTypeNotFound, "Not Found", err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		h.writeProblem(c, http.StatusUnauthorized, problemTypeUnauthorized, "Unauthorized", err.Error())
	default:
		_ = c.Error(err)
		span := trace.SpanFromContext(c.Request.Context())
		spanContext := span.SpanContext()
		if spanContext.IsValid() {
			span.RecordError(err)
			span.SetStatus(codes.Error, "internal server error")
			span.SetAttributes(attribute.Bool("error", true))
		}
		logAttrs := []any{
			"error", err.Error(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"request_id", requestid.Get(c),
		}
		if spanContext.IsValid() {
			logAttrs = append(
				logAttrs,
				"trace_id", spanContext.TraceID().String(),
				"span_id", spanContext.SpanID().String(),
			)
		}
		slog.ErrorContext(c.Request.Context(), "internal server error", logAttrs...)
		h.writeProblem(c, http.StatusInternalServerError, problemTypeInternal, "Internal Server Error", "internal server error")
	}
}

func (h *Handler) writeProblem(c *gin.Context, status int, problemType string, title string, detail string) {
	writeProblemResponse(c, status, problemType, title, detail, "")
}

func (h *Handler) writeProblemWithField(c *gin.Context, status int, problemType string, title string, detail string, field string) {
	writeProblemResponse(c, status, problemType, title, detail, field)
}

func writeProblemResponse(c *gin.Context, status int, problemType string, title string, detail string, field string) {
	if problemType == "" {
		problemType = "about:blank"
	}
	if title == "" {
		title = http.StatusText(status)
	}

	requestID := requestid.Get(c)
	if requestID != "" {
		c.Header(headerRequestID, requestID)
	}

	c.Header("Content-Type", problemContentType)
	c.AbortWithStatusJSON(status, ProblemDetails{
		Type:      problemType,
		Title:     title,
		Status:    status,
		Detail:    detail,
		Field:     field,
		Instance:  c.Request.URL.Path,
		RequestID: requestID,
	})
}

func parseID(c *gin.Context, param string) (int64, error) {
	raw := strings.TrimSpace(c.Param(param))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid parameter %q: must be a positive integer", param)
	}
	return id, nil
}
