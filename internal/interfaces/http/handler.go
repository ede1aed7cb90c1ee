package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"warelay/internal/entities"
	"warelay/internal/interfaces"
	"warelay/internal/usecases"
)

type Handler struct {
	messageService *usecases.MessageService
	store          interfaces.ConversationStore
	verifyToken    string
	logger         *slog.Logger
}

func NewHandler(service *usecases.MessageService, store interfaces.ConversationStore, verifyToken string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		messageService: service,
		store:          store,
		verifyToken:    verifyToken,
		logger:         logger.With("component", "http"),
	}
}

// SetupRoutes wires the webhook surface and the operator API.
func SetupRoutes(
	r *gin.Engine,
	h *Handler,
	admin *AdminHandler,
	middleware *Middleware,
) {
	// Apply Security Middleware
	r.Use(SecurityHeaders())
	r.Use(RequestSizeLimiter(10 << 20)) // 10MB max request size
	r.Use(middleware.CORSMiddleware())

	// Platform-facing routes
	r.GET("/webhook", h.VerifyWebhook)
	r.POST("/webhook", h.ReceiveWebhook)
	r.POST("/send", h.SendMessage)
	r.POST("/get", h.GetMessages)

	// Operator auth
	authGroup := r.Group("/api/auth")
	{
		authGroup.POST("/login", admin.Login)
		authGroup.POST("/register", admin.Register)
	}

	// Protected operator routes
	api := r.Group("/api")
	api.Use(middleware.AuthRequired())
	api.Use(middleware.RateLimitPerUser(5, 10))
	{
		api.GET("/dashboard/stats", admin.GetStats)
		api.GET("/config", admin.GetAllConfigs)
		api.POST("/config", admin.SetConfig)
		api.GET("/messages/latest", admin.GetLatestMessages)
		api.GET("/whatsapp/qr", admin.GetDeviceQRCode)
	}
}

// VerifyWebhook answers the platform's subscription handshake: echo the
// challenge when hub.mode is "subscribe" and the shared token matches.
func (h *Handler) VerifyWebhook(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && h.verifyToken != "" && token == h.verifyToken {
		c.String(http.StatusOK, challenge)
		return
	}
	c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
}

// ReceiveWebhook ingests one webhook delivery and acknowledges with counts.
// Reply dispatch happens in the background; only a malformed transport-level
// request can fail here.
func (h *Handler) ReceiveWebhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.messageService.HandleWebhook(c.Request.Context(), payload)
	h.logger.Info("webhook processed", "received", result.Received, "stored", result.Stored)
	c.JSON(http.StatusOK, result)
}

// SendMessage is the operator-initiated direct send.
func (h *Handler) SendMessage(c *gin.Context) {
	var body struct {
		Number string `json:"number"`
		Text   string `json:"text"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if !ValidPhoneNumber(body.Number) || body.Text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "number and text are required"})
		return
	}

	if err := h.messageService.SendDirect(c.Request.Context(), entities.ChannelWhatsApp, body.Number, body.Text); err != nil {
		h.logger.Error("direct send failed", "error", err, "to", body.Number)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetMessages returns stored history for a number, newest-first.
func (h *Handler) GetMessages(c *gin.Context) {
	var body struct {
		Number string `json:"number"`
		Limit  int    `json:"limit"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	address := entities.NormalizeAddress(body.Number)
	messages := h.store.Fetch(c.Request.Context(), address, body.Limit)
	c.JSON(http.StatusOK, gin.H{"count": len(messages), "messages": messages})
}
