package handler

import (
	"context"
	"log"
	"os"
	"strings"

	"fair-ats-go/internal/storage"
	"fair-ats-go/internal/storage/models"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserHandler 候选人账户的HTTP入口
type UserHandler struct {
	storage *storage.Storage
	logger  *log.Logger
}

// NewUserHandler 创建用户处理器
func NewUserHandler(store *storage.Storage) *UserHandler {
	return &UserHandler{
		storage: store,
		logger:  log.New(os.Stdout, "[UserHandler] ", log.LstdFlags|log.Lshortfile),
	}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Name       string `json:"name"`
	Skills     string `json:"skills"`
	Experience string `json:"experience"`
	Education  string `json:"education"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister 注册候选人账户, 密码使用bcrypt加密存储。
// POST /api/v1/users
func (h *UserHandler) HandleRegister(ctx context.Context, c *app.RequestContext) {
	var req RegisterRequest
	if err := c.BindAndValidate(&req); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "请求体解析失败: " + err.Error()})
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "邮箱格式不正确"})
		return
	}
	if len(req.Password) < 8 {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "密码长度至少8位"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Printf("密码加密失败: %v", err)
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "密码加密失败"})
		return
	}

	user := &models.User{
		UserID:     uuid.NewString(),
		Email:      req.Email,
		Password:   string(hashed),
		Name:       req.Name,
		Skills:     req.Skills,
		Experience: req.Experience,
		Education:  req.Education,
	}

	if err := h.storage.MySQL.CreateUser(ctx, user); err != nil {
		h.logger.Printf("创建用户失败: %v", err)
		c.JSON(consts.StatusConflict, utils.H{"error": "注册失败, 邮箱可能已被使用"})
		return
	}

	c.JSON(consts.StatusCreated, user)
}

// HandleLogin 校验邮箱和密码。凭据正确返回用户信息,
// 写操作走统一的API令牌鉴权, 这里不签发会话令牌。
// POST /api/v1/auth/login
func (h *UserHandler) HandleLogin(ctx context.Context, c *app.RequestContext) {
	var req LoginRequest
	if err := c.BindAndValidate(&req); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "请求体解析失败: " + err.Error()})
		return
	}

	user, err := h.storage.MySQL.GetUserByEmail(ctx, strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		if storage.IsNotFound(err) {
			c.JSON(consts.StatusUnauthorized, utils.H{"error": "邮箱或密码错误"})
			return
		}
		c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		c.JSON(consts.StatusUnauthorized, utils.H{"error": "邮箱或密码错误"})
		return
	}

	c.JSON(consts.StatusOK, utils.H{"user": user})
}

// HandleGetProfile 查询用户资料。
// GET /api/v1/users/:user_id
func (h *UserHandler) HandleGetProfile(ctx context.Context, c *app.RequestContext) {
	userID := c.Param("user_id")
	user, err := h.storage.MySQL.GetUserByID(ctx, userID)
	if err != nil {
		if storage.IsNotFound(err) {
			c.JSON(consts.StatusNotFound, utils.H{"error": "用户不存在"})
			return
		}
		c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}
	c.JSON(consts.StatusOK, user)
}
