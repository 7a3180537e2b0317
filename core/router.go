package core

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// RouterDeps carries everything NewRouter wires together. Denylist may be nil,
// in which case logout only clears the cookie.
type RouterDeps struct {
	Config   Config
	Logger   *slog.Logger
	Auth     *Authenticator
	Codec    *SessionCodec
	Users    UserRepository
	Products ProductRepository
	Contacts ContactRepository
	Denylist TokenDenylist
	Metrics  *Metrics
	Health   map[string]Pinger
}

type productRequest struct {
	Name        *string   `json:"name"`
	Category    *string   `json:"category"`
	Price       *float64  `json:"price"`
	Specs       *[]string `json:"specs"`
	Description *string   `json:"description"`
	Image       *string   `json:"image"`
	Visible     *bool     `json:"visible"`
}

// NewRouter constructs the Gin engine with routes wired.
func NewRouter(d RouterDeps) *gin.Engine {
	startedAt := time.Now()
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	transport := NewCookieTransport(d.Config.SessionCookieName, d.Codec.TTL(), d.Config.CookieSecure)
	adminOnly := RoleRequired(RoleAdmin, d.Metrics)

	r := gin.New()
	// Global middleware: logging -> recovery -> origin/CORS -> session -> CSRF
	r.Use(RequestLogger(logger), gin.Recovery())
	r.Use(OriginRefererMiddleware(d.Config))
	r.Use(SessionMiddleware(transport, d.Codec, d.Denylist, logger))
	r.Use(CSRFMiddleware(NewCSRFStore(d.Config)))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			st := CollectSystemStatus(c.Request.Context(), d.Health, startedAt)
			status := http.StatusOK
			if st.Status != "ok" {
				logger.WarnContext(c.Request.Context(), "health check failed", "components", st.Components)
				status = http.StatusServiceUnavailable
			}
			c.JSON(status, st)
		})

		api.POST("/auth/login", func(c *gin.Context) {
			var req struct {
				Identifier string `json:"identifier" form:"identifier"`
				Username   string `json:"username" form:"username"`
				Password   string `json:"password" form:"password"`
			}
			if err := c.ShouldBind(&req); err != nil {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
				return
			}
			identifier := firstNonEmpty(req.Identifier, req.Username)
			if strings.TrimSpace(identifier) == "" || req.Password == "" {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "identifier and password are required")
				return
			}

			ctx := c.Request.Context()
			user, subject, err := d.Auth.Authenticate(ctx, identifier, req.Password)
			if err != nil {
				if errors.Is(err, ErrInvalidCredentials) {
					respondError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid credentials")
					return
				}
				logger.ErrorContext(ctx, "login failed", "error", err)
				respondError(c, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "login temporarily unavailable, try again")
				return
			}

			token, err := d.Codec.Encode(subject)
			if err != nil {
				logger.ErrorContext(ctx, "failed to sign session", "error", err)
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to create session")
				return
			}
			transport.Attach(c.Writer, c.Request, token)
			c.JSON(http.StatusOK, gin.H{"user": user})
		})

		api.POST("/auth/logout", func(c *gin.Context) {
			if s := currentSubject(c); s != nil && d.Denylist != nil {
				if err := d.Denylist.Revoke(c.Request.Context(), s.TokenID, s.ExpiresAt); err != nil {
					logger.ErrorContext(c.Request.Context(), "failed to revoke session", "error", err)
					respondError(c, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "logout temporarily unavailable, try again")
					return
				}
			}
			transport.Clear(c.Writer, c.Request)
			c.JSON(http.StatusOK, gin.H{"message": "logged out"})
		})

		api.GET("/auth/me", func(c *gin.Context) {
			s := currentSubject(c)
			if s == nil {
				respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "login required")
				return
			}
			rec, err := d.Users.FindByID(c.Request.Context(), s.UserID)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "user no longer exists")
					return
				}
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to load user")
				return
			}
			c.JSON(http.StatusOK, gin.H{"user": rec.Public()})
		})

		api.GET("/products", func(c *gin.Context) {
			if c.Query("all") == "true" {
				if !allowRole(c, RoleAdmin, d.Metrics) {
					return
				}
				listProducts(c, logger, d.Products.ListAll)
				return
			}
			listProducts(c, logger, d.Products.ListVisible)
		})

		api.GET("/products/:id", func(c *gin.Context) {
			id, ok := parseID(c)
			if !ok {
				return
			}
			p, err := d.Products.Get(c.Request.Context(), id)
			if err != nil {
				respondRepoError(c, logger, err, "failed to fetch product")
				return
			}
			if !p.Visible && RequireRole(currentSubject(c), RoleAdmin) != nil {
				respondError(c, http.StatusNotFound, "NOT_FOUND", "product not found")
				return
			}
			c.JSON(http.StatusOK, p)
		})

		api.POST("/products", adminOnly, func(c *gin.Context) {
			var req productRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
				return
			}
			in := ProductInput{Visible: true}
			req.applyTo(&in)
			if msg := validateProduct(in); msg != "" {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", msg)
				return
			}
			p, err := d.Products.Create(c.Request.Context(), in)
			if err != nil {
				respondRepoError(c, logger, err, "failed to create product")
				return
			}
			c.JSON(http.StatusCreated, p)
		})

		// Partial update: omitted fields keep their current value.
		api.PUT("/products/:id", adminOnly, func(c *gin.Context) {
			id, ok := parseID(c)
			if !ok {
				return
			}
			var req productRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
				return
			}
			ctx := c.Request.Context()
			current, err := d.Products.Get(ctx, id)
			if err != nil {
				respondRepoError(c, logger, err, "failed to fetch product")
				return
			}
			in := current.input()
			req.applyTo(&in)
			if msg := validateProduct(in); msg != "" {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", msg)
				return
			}
			p, err := d.Products.Update(ctx, id, in)
			if err != nil {
				respondRepoError(c, logger, err, "failed to update product")
				return
			}
			c.JSON(http.StatusOK, p)
		})

		api.PATCH("/products/:id", adminOnly, func(c *gin.Context) {
			id, ok := parseID(c)
			if !ok {
				return
			}
			var req struct {
				Action string `json:"action"`
			}
			if err := c.ShouldBindJSON(&req); err != nil || req.Action != "toggle-visibility" {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid action")
				return
			}
			p, err := d.Products.ToggleVisibility(c.Request.Context(), id)
			if err != nil {
				respondRepoError(c, logger, err, "failed to toggle product visibility")
				return
			}
			c.JSON(http.StatusOK, p)
		})

		api.DELETE("/products/:id", adminOnly, func(c *gin.Context) {
			id, ok := parseID(c)
			if !ok {
				return
			}
			if err := d.Products.Delete(c.Request.Context(), id); err != nil {
				respondRepoError(c, logger, err, "failed to delete product")
				return
			}
			c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
		})

		api.POST("/contact", func(c *gin.Context) {
			var req struct {
				Name    string  `json:"name"`
				Email   string  `json:"email"`
				Phone   *string `json:"phone"`
				Message string  `json:"message"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
				return
			}
			if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Message) == "" {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "name, email and message are required")
				return
			}
			sub, err := d.Contacts.Create(c.Request.Context(), req.Name, req.Email, req.Phone, req.Message)
			if err != nil {
				respondRepoError(c, logger, err, "failed to submit contact form")
				return
			}
			c.JSON(http.StatusCreated, gin.H{"message": "contact submission received", "id": sub.ID})
		})

		admin := api.Group("/admin")
		admin.Use(adminOnly)
		admin.GET("/products", func(c *gin.Context) {
			listProducts(c, logger, d.Products.ListAll)
		})
	}

	return r
}

func (p *Product) input() ProductInput {
	return ProductInput{
		Name:        p.Name,
		Category:    p.Category,
		Price:       p.Price,
		Specs:       p.Specs,
		Description: p.Description,
		Image:       p.Image,
		Visible:     p.Visible,
	}
}

func (req productRequest) applyTo(in *ProductInput) {
	if req.Name != nil {
		in.Name = strings.TrimSpace(*req.Name)
	}
	if req.Category != nil {
		in.Category = strings.TrimSpace(*req.Category)
	}
	if req.Price != nil {
		in.Price = *req.Price
	}
	if req.Specs != nil {
		in.Specs = *req.Specs
	}
	if req.Description != nil {
		in.Description = *req.Description
	}
	if req.Image != nil {
		if strings.TrimSpace(*req.Image) == "" {
			in.Image = nil
		} else {
			img := *req.Image
			in.Image = &img
		}
	}
	if req.Visible != nil {
		in.Visible = *req.Visible
	}
}

func validateProduct(in ProductInput) string {
	switch {
	case in.Name == "":
		return "name is required"
	case in.Category == "":
		return "category is required"
	case in.Price < 0:
		return "price must not be negative"
	}
	return ""
}
