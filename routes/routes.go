package routes

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"sklandapi/core"
	"sklandapi/utils"
)

const (
	requestTimeout = 2 * time.Minute

	// Colors
	Reset        = "\033[0m"
	Purple       = "\033[35m"
	DarkGray     = "\033[90m"
	Neutral      = "\033[37m"
	LabelColor   = "\033[97m"
	SuccessColor = "\033[32m"
	ErrorColor   = "\033[31m"
)

type TokenRequest struct {
	Token string `json:"token"`
}

type DecryptRequest struct {
	Data  string `json:"data"`
	PriID string `json:"pri_id"`
}

// ClientFactory returns a fresh client per request; a client must not be
// shared between concurrent requests.
type ClientFactory func() (*core.Client, error)

type Handler struct {
	NewClient ClientFactory
	Gatherer  prometheus.Gatherer
}

func (h *Handler) Register(e *echo.Echo) {
	e.GET("/health", h.Health)
	e.POST("/signIn", h.SignIn)
	e.POST("/status", h.Status)
	e.POST("/decryptFingerprint", h.DecryptFingerprint)
	if h.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(h.Gatherer, promhttp.HandlerOpts{})))
	}
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true})
}

func (h *Handler) bindToken(c echo.Context) (string, error) {
	contentType := c.Request().Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, echo.MIMEApplicationJSON) {
		return "", c.JSON(http.StatusUnsupportedMediaType, map[string]interface{}{
			"success": false,
			"error":   "Unsupported Content-Type",
			"details": fmt.Sprintf("Expected 'Content-Type: application/json' but got '%s'", contentType),
		})
	}

	var req TokenRequest
	if err := c.Bind(&req); err != nil {
		return "", c.JSON(http.StatusBadRequest, map[string]interface{}{"success": false, "error": "invalid request"})
	}
	if strings.TrimSpace(req.Token) == "" {
		return "", c.JSON(http.StatusBadRequest, map[string]interface{}{"success": false, "error": "token wasn't provided"})
	}
	return strings.TrimSpace(req.Token), nil
}

func (h *Handler) SignIn(c echo.Context) error {
	token, err := h.bindToken(c)
	if token == "" {
		return err
	}

	client, err := h.NewClient()
	if err != nil {
		log.Errorf("failed to create client: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{"success": false, "error": "failed to create client"})
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	start := time.Now()
	results, nickname, err := client.DoFullSignIn(ctx, token)
	logSignIn(nickname, results, err, time.Since(start))
	if err != nil {
		return c.JSON(http.StatusBadGateway, map[string]interface{}{"success": false, "error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":  true,
		"nickname": nickname,
		"results":  results,
	})
}

func (h *Handler) Status(c echo.Context) error {
	token, err := h.bindToken(c)
	if token == "" {
		return err
	}

	client, err := h.NewClient()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{"success": false, "error": "failed to create client"})
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	status, nickname := client.CheckStatus(ctx, token)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":  true,
		"nickname": nickname,
		"status":   status,
	})
}

// DecryptFingerprint reverses a captured device profile envelope.
func (h *Handler) DecryptFingerprint(c echo.Context) error {
	var req DecryptRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{"success": false, "error": "invalid request"})
	}
	if req.Data == "" || len(req.PriID) != 16 {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{"success": false, "error": "data and a 16 character pri_id are required"})
	}

	fields, err := core.DecodeEnvelope(req.Data, req.PriID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{"success": false, "error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "fields": fields})
}

func logSignIn(nickname string, results []utils.SignInResult, err error, duration time.Duration) {
	separator := fmt.Sprintf("%s|%s", DarkGray, Reset)
	name := fmt.Sprintf("%s%s%s", Purple, nickname, Reset)
	timeValue := fmt.Sprintf("%sTime:%s %s%.2fs%s", LabelColor, Reset, Neutral, duration.Seconds(), Reset)

	if err != nil {
		log.Info(strings.Join([]string{
			name, separator,
			fmt.Sprintf("%sError:%s %s%s%s", LabelColor, Reset, ErrorColor, err.Error(), Reset),
			separator, timeValue,
		}, " "))
		return
	}

	parts := []string{name}
	for _, r := range results {
		color := SuccessColor
		if !r.SignedToday() {
			color = ErrorColor
		}
		parts = append(parts, separator, fmt.Sprintf("%s%s:%s %s%s%s", LabelColor, r.Game, Reset, color, r.Nickname, Reset))
	}
	parts = append(parts, separator, timeValue)
	log.Info(strings.Join(parts, " "))
}
