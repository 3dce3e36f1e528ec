package http

import (
	stdhttp "net/http"
	"strconv"
	"time"

	"github.com/aminkhaleghi1994/todo-app/internal/adapters/transport/http/dto"
	"github.com/aminkhaleghi1994/todo-app/internal/adapters/transport/http/middleware"
	appsvc "github.com/aminkhaleghi1994/todo-app/internal/app/auth/service"
	authErrors "github.com/aminkhaleghi1994/todo-app/internal/domain/auth/errors"
	"github.com/aminkhaleghi1994/todo-app/internal/domain/auth/model"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

const tokenType = "bearer"

var authOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "todo_auth_requests_total",
	Help: "Authentication endpoint calls by operation and response status.",
}, []string{"op", "status"})

type Handler struct {
	svc appsvc.Service
	log *zap.Logger
}

func NewHandler(svc appsvc.Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Register mounts the user routes on r. Routes under the bearer gate see
// the caller through middleware.CurrentUser.
func (h *Handler) Register(r gin.IRouter) {
	users := r.Group("/users")
	users.POST("/register", h.register)
	users.POST("/login", h.login)
	users.POST("/refresh", h.refresh)

	protected := users.Group("", middleware.BearerAuth(h.svc, h.log))
	protected.GET("/me", h.me)
	protected.POST("/logout", h.logout)
}

func (h *Handler) register(c *gin.Context) {
	var body dto.RegisterDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		h.fail(c, "register", authErrors.NewInvalidArgument(err.Error()))
		return
	}

	user, err := h.svc.Register(c.Request.Context(), body)
	if err != nil {
		h.fail(c, "register", err)
		return
	}
	h.respond(c, "register", stdhttp.StatusCreated, toUserResponse(user))
}

func (h *Handler) login(c *gin.Context) {
	var body dto.LoginDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		h.fail(c, "login", authErrors.NewInvalidArgument(err.Error()))
		return
	}

	pair, err := h.svc.Login(c.Request.Context(), body)
	if err != nil {
		h.fail(c, "login", err)
		return
	}
	h.respond(c, "login", stdhttp.StatusOK, dto.TokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    tokenType,
		ExpiresIn:    int(pair.AccessTTL / time.Second),
	})
}

func (h *Handler) refresh(c *gin.Context) {
	var body dto.RefreshDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		h.fail(c, "refresh", authErrors.NewInvalidArgument(err.Error()))
		return
	}

	at, err := h.svc.Refresh(c.Request.Context(), body)
	if err != nil {
		if authErrors.IsInternal(err) {
			// verification path: never surface as a server error
			h.log.Error("refresh failed", zap.Error(err))
			authOutcomes.WithLabelValues("refresh", statusLabel(stdhttp.StatusUnauthorized)).Inc()
			middleware.AbortWithAuthError(c, err)
			return
		}
		h.fail(c, "refresh", err)
		return
	}
	h.respond(c, "refresh", stdhttp.StatusOK, dto.AccessTokenResponse{
		AccessToken: at.Token,
		TokenType:   tokenType,
		ExpiresIn:   int(at.TTL / time.Second),
	})
}

func (h *Handler) me(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	c.JSON(stdhttp.StatusOK, toUserResponse(user))
}

func (h *Handler) logout(c *gin.Context) {
	var body dto.LogoutDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		h.fail(c, "logout", authErrors.NewInvalidArgument(err.Error()))
		return
	}
	body.AccessToken = middleware.CurrentToken(c)

	user, _ := middleware.CurrentUser(c)
	if err := h.svc.Logout(c.Request.Context(), user, body); err != nil {
		h.fail(c, "logout", err)
		return
	}
	h.respond(c, "logout", stdhttp.StatusOK, gin.H{"message": "logged out"})
}

func (h *Handler) respond(c *gin.Context, op string, status int, body any) {
	authOutcomes.WithLabelValues(op, statusLabel(status)).Inc()
	c.JSON(status, body)
}

func (h *Handler) fail(c *gin.Context, op string, err error) {
	status := handleError(c, err)
	if status == stdhttp.StatusInternalServerError {
		h.log.Error(op+" failed", zap.Error(err))
	}
	authOutcomes.WithLabelValues(op, statusLabel(status)).Inc()
}

func handleError(c *gin.Context, err error) int {
	switch {
	case authErrors.IsInvalidArgument(err):
		c.AbortWithStatusJSON(stdhttp.StatusBadRequest, gin.H{"error": err.Error()})
	case authErrors.IsAlreadyExists(err):
		c.AbortWithStatusJSON(stdhttp.StatusConflict, gin.H{"error": "user already exists"})
	case authErrors.IsUnauthenticated(err), authErrors.IsIdentityDisabled(err):
		middleware.AbortWithAuthError(c, err)
	default:
		c.AbortWithStatusJSON(stdhttp.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
	return c.Writer.Status()
}

func toUserResponse(u model.User) dto.UserResponse {
	return dto.UserResponse{ID: u.ID, Username: u.Username, IsActive: u.IsActive}
}

func statusLabel(status int) string {
	return strconv.Itoa(status)
}
