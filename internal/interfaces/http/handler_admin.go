package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"

	"warelay/internal/infrastructure"
	"warelay/internal/interfaces"
	"warelay/internal/usecases"
)

// AdminHandler serves the operator API: auth, stats, runtime config and the
// device-session QR code.
type AdminHandler struct {
	auth         *usecases.AuthUsecase
	dashboard    *usecases.DashboardUsecase
	store        interfaces.ConversationStore
	deviceClient *infrastructure.WhatsAppDeviceClient // nil when the channel is disabled
}

func NewAdminHandler(auth *usecases.AuthUsecase, dashboard *usecases.DashboardUsecase, store interfaces.ConversationStore, deviceClient *infrastructure.WhatsAppDeviceClient) *AdminHandler {
	return &AdminHandler{
		auth:         auth,
		dashboard:    dashboard,
		store:        store,
		deviceClient: deviceClient,
	}
}

func (h *AdminHandler) Login(c *gin.Context) {
	var loginReq struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&loginReq); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	token, err := h.auth.Login(loginReq.Username, loginReq.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *AdminHandler) Register(c *gin.Context) {
	var regReq struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&regReq); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	// Validate inputs
	if !ValidSlug(regReq.Username) || len(regReq.Password) < 6 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid username or password (min 6 chars)"})
		return
	}
	if err := h.auth.Register(regReq.Username, regReq.Password); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "registered"})
}

func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := h.dashboard.GetStats(c.Request.Context(), 30, 20)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) GetAllConfigs(c *gin.Context) {
	configs, err := h.dashboard.GetAllConfigs()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, configs)
}

func (h *AdminHandler) SetConfig(c *gin.Context) {
	var req struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if !ValidConfigKey(req.Key) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid config key"})
		return
	}
	if err := h.dashboard.SetConfig(req.Key, SanitizeString(req.Value)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}

// GetLatestMessages returns the newest events across all conversations.
func (h *AdminHandler) GetLatestMessages(c *gin.Context) {
	messages := h.store.Recent(c.Request.Context(), 50)
	c.JSON(http.StatusOK, gin.H{"count": len(messages), "messages": messages})
}

// GetDeviceQRCode returns the whatsmeow login QR as PNG.
func (h *AdminHandler) GetDeviceQRCode(c *gin.Context) {
	if h.deviceClient == nil {
		c.String(http.StatusServiceUnavailable, "Device session not configured")
		return
	}

	qrCodeString := h.deviceClient.GetQR()
	if qrCodeString == "" {
		if h.deviceClient.IsLoggedIn() {
			c.String(http.StatusOK, "Already logged in")
			return
		}
		c.String(http.StatusAccepted, "QR code not yet available. Please wait...")
		return
	}

	png, err := qrcode.Encode(qrCodeString, qrcode.Medium, 256)
	if err != nil {
		c.String(http.StatusInternalServerError, "Failed to generate QR code")
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
