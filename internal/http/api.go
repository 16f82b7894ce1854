package http

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"bearer-auth/internal/auth"
	"bearer-auth/internal/domain"
	"bearer-auth/internal/security"
	"bearer-auth/internal/service"
)

const identityKey = "identity"

// TokenInspector exposes verified token metadata.
type TokenInspector interface {
	Inspect(token string) (*security.VerifiedToken, error)
}

// Handler wires HTTP routes to the authentication services.
type Handler struct {
	auth   service.AuthService
	gate   *auth.Gate
	tokens TokenInspector
	logger *logrus.Logger
}

func NewHandler(authService service.AuthService, gate *auth.Gate, tokens TokenInspector, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		auth:   authService,
		gate:   gate,
		tokens: tokens,
		logger: logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(h.requestLogger(), corsMiddleware())

	api := router.Group("/api/v1")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})
		api.GET("/routes", h.listRoutes(router))

		authGroup := api.Group("/auth")
		authGroup.GET("/test", func(c *gin.Context) {
			c.JSON(http.StatusOK, messageResponse{Status: http.StatusOK, Message: "Hello from open."})
		})
		authGroup.POST("/login", h.login)
		authGroup.POST("/register", h.register)
		authGroup.GET("/me", h.RequireAuth(), h.me)

		protected := api.Group("/protected", h.RequireAuth())
		protected.GET("/user_demo", h.RequireRoles(domain.RoleUser), func(c *gin.Context) {
			c.JSON(http.StatusOK, messageResponse{Status: http.StatusOK, Message: "Hello from user protected."})
		})
		protected.GET("/admin_demo", h.RequireRoles(domain.RoleAdmin), func(c *gin.Context) {
			c.JSON(http.StatusOK, messageResponse{Status: http.StatusOK, Message: "Hello from admin protected."})
		})
	}
}

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	Username string `json:"username"`
	Token    string `json:"token"`
}

type messageResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

type meResponse struct {
	Username  string   `json:"username"`
	Roles     []string `json:"roles"`
	Issuer    string   `json:"issuer"`
	TokenID   string   `json:"token_id"`
	IssuedAt  string   `json:"issued_at"`
	ExpiresAt string   `json:"expires_at"`
}

type routeResponse struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, domain.NewError(domain.KindInvalidInput, "username and password are required", err))
		return
	}

	res, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{Username: res.Identity.Username(), Token: res.Token})
}

func (h *Handler) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, domain.NewError(domain.KindInvalidInput, "username and password are required", err))
		return
	}

	res, err := h.auth.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tokenResponse{Username: res.Identity.Username(), Token: res.Token})
}

func (h *Handler) me(c *gin.Context) {
	token, err := auth.BearerToken(c.GetHeader("Authorization"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	verified, err := h.tokens.Inspect(token)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, meResponse{
		Username:  verified.Identity.Username(),
		Roles:     verified.Identity.Roles(),
		Issuer:    verified.Issuer,
		TokenID:   verified.TokenID,
		IssuedAt:  verified.IssuedAt.UTC().Format(time.RFC3339),
		ExpiresAt: verified.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

func (h *Handler) listRoutes(router *gin.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		routes := router.Routes()
		resp := make([]routeResponse, 0, len(routes))
		for _, r := range routes {
			resp = append(resp, routeResponse{Method: r.Method, Path: r.Path})
		}
		sort.Slice(resp, func(i, j int) bool {
			if resp[i].Path == resp[j].Path {
				return resp[i].Method < resp[j].Method
			}
			return resp[i].Path < resp[j].Path
		})
		c.JSON(http.StatusOK, resp)
	}
}

// RequireAuth rejects requests without a valid bearer token and stores the identity on the context.
func (h *Handler) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := h.gate.Authenticate(c.Request)
		if err != nil {
			h.writeError(c, err)
			c.Abort()
			return
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

// RequireRoles must run after RequireAuth; it admits identities holding any of roles.
func (h *Handler) RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFrom(c)
		if !ok {
			h.writeError(c, domain.ErrMissingCredentials)
			c.Abort()
			return
		}
		if err := auth.RequireAnyRole(identity, roles...); err != nil {
			h.writeError(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// IdentityFrom returns the identity stored by RequireAuth.
func IdentityFrom(c *gin.Context) (domain.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return domain.Identity{}, false
	}
	identity, ok := v.(domain.Identity)
	return identity, ok
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		h.logger.WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"latency":   time.Since(start).String(),
			"client_ip": c.ClientIP(),
		}).Info("request")
	}
}
