package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	credentialapp "github.com/astro-web3/credential-gateway/internal/app/credential"
	"github.com/astro-web3/credential-gateway/internal/config"
	"github.com/astro-web3/credential-gateway/internal/domain/credential"
	"github.com/astro-web3/credential-gateway/pkg/logger"
	"github.com/astro-web3/credential-gateway/pkg/tracer"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

const invalidTokenChallenge = `Bearer error="invalid_token"`

type Handler struct {
	appService   credentialapp.Service
	maxBodyBytes int64
}

func NewHandler(appService credentialapp.Service, cfg *config.Config) *Handler {
	return &Handler{
		appService:   appService,
		maxBodyBytes: cfg.Server.MaxBodyBytes,
	}
}

// Credential handles POST /api/credential. The body is passed through to the
// authorization service untouched.
func (h *Handler) Credential(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "transport.http.Credential")
	defer span.End()

	if h.maxBodyBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)
	}
	content, err := c.GetRawData()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			span.SetAttributes(attribute.Bool("credential.body_too_large", true))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Request content is too large."})
			return
		}
		tracer.Fail(span, err)
		logger.WarnContext(ctx, "failed to read request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request content could not be read."})
		return
	}

	resp := h.appService.Issue(ctx, credential.Request{
		Content:       content,
		Authorization: c.GetHeader("Authorization"),
	})
	span.SetAttributes(attribute.Int("http.status_code", resp.Status))

	if !resp.Succeeded() {
		if resp.Status == http.StatusUnauthorized {
			c.Header("WWW-Authenticate", invalidTokenChallenge)
		}
		c.JSON(resp.Status, gin.H{"error": resp.Body})
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Data(resp.Status, contentTypeOf(resp.Body), []byte(resp.Body))
}

func contentTypeOf(body string) string {
	if json.Valid([]byte(body)) {
		return "application/json"
	}
	return "text/plain; charset=utf-8"
}
