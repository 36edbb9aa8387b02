package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/players_club/internal/resp"
	"github.com/MorseWayne/players_club/internal/service"
)

// AuthHandler 后台登录
type AuthHandler struct {
	auth   service.AuthService
	logger *zap.Logger
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(auth service.AuthService, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{auth: auth, logger: logger}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// Login 管理员登录
// @Summary 管理员登录
// @Tags 后台
// @Accept json
// @Produce json
// @Param request body loginRequest true "凭证"
// @Success 200 {object} resp.Response[service.TokenPair] "成功"
// @Failure 401 {object} resp.Response[any] "凭证错误"
// @Failure 429 {object} resp.Response[any] "尝试过于频繁"
// @Router /api/v1/admin/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "Username and password are required", err)
		return
	}

	pair, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, h.logger, "admin_login", err)
		return
	}
	resp.OK(c.Writer, pair, requestID(c), "")
}

// Refresh 刷新令牌
// POST /api/v1/admin/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "refreshToken is required", err)
		return
	}

	pair, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		writeError(c, h.logger, "admin_refresh", err)
		return
	}
	resp.OK(c.Writer, pair, requestID(c), "")
}
