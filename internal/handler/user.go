// Package handler exposes the profile read API over gin.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmerrifield20/profiles/internal/denormalize"
	"github.com/jmerrifield20/profiles/internal/identity"
	"github.com/jmerrifield20/profiles/internal/userconfig"
	"github.com/jmerrifield20/profiles/internal/users"
	"go.uber.org/zap"
)

const ctxViewer = "profiles_viewer"

// userStore is the subset of users.UserRepository used by UserHandler.
type userStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*users.User, error)
	GetByEmail(ctx context.Context, email string) ([]*users.User, error)
}

// profileBuilder is the subset of denormalize.Denormalizer used by UserHandler.
type profileBuilder interface {
	Denormalize(ctx context.Context, u *users.User, opts denormalize.Options) (*denormalize.Profile, error)
}

type platformAdmins interface {
	IsPlatformAdmin(ctx context.Context, userID uuid.UUID) (bool, error)
}

type moduleConfigs interface {
	ModulesForUser(ctx context.Context, u *users.User) (*userconfig.Configurations, error)
}

// selfProfile is the body of GET /user.
type selfProfile struct {
	*denormalize.Profile
	IsPlatformAdmin bool                       `json:"isPlatformAdmin"`
	Configurations  *userconfig.Configurations `json:"configurations"`
}

// UserHandler serves denormalized user profiles to authenticated viewers.
type UserHandler struct {
	users    userStore
	profiles profileBuilder
	tokens   *identity.UserTokenIssuer
	admins   platformAdmins
	configs  moduleConfigs
	logger   *zap.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userRepo userStore, profiles profileBuilder, tokens *identity.UserTokenIssuer, logger *zap.Logger) *UserHandler {
	return &UserHandler{users: userRepo, profiles: profiles, tokens: tokens, logger: logger}
}

// SetPlatformAdmins configures the platform-admin lookup for GET /user.
func (h *UserHandler) SetPlatformAdmins(a platformAdmins) {
	h.admins = a
}

// SetModuleConfigs configures the configuration lookup for GET /user.
func (h *UserHandler) SetModuleConfigs(c moduleConfigs) {
	h.configs = c
}

// Register registers UserHandler routes on the given router group.
// Every route requires a user session token.
func (h *UserHandler) Register(rg *gin.RouterGroup) {
	authed := rg.Group("", identity.RequireUserToken(h.tokens), h.loadViewer)
	authed.GET("/user", h.GetMe)
	authed.GET("/users", h.ListByEmail)
	authed.GET("/users/:id", h.GetUser)
	authed.GET("/users/:id/profile", h.GetUser)
}

// loadViewer resolves the token's user and stores it as the request viewer.
func (h *UserHandler) loadViewer(c *gin.Context) {
	claims := identity.UserClaimsFromCtx(c)
	id, err := claims.ParsedUserID()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid user token subject"})
		return
	}

	viewer, err := h.users.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user no longer exists"})
			return
		}
		h.logger.Error("load viewer", zap.String("user_id", id.String()), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}

	c.Set(ctxViewer, viewer)
	c.Next()
}

func viewerFromCtx(c *gin.Context) *users.User {
	v, _ := c.Get(ctxViewer)
	u, _ := v.(*users.User)
	return u
}

// GetUser handles GET /users/:id and GET /users/:id/profile.
func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	ctx := c.Request.Context()
	subject, err := h.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.logger.Error("get user", zap.String("user_id", id.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get user"})
		return
	}

	p, ok := h.build(c, subject)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, p)
}

// ListByEmail handles GET /users?email=.
func (h *UserHandler) ListByEmail(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email query parameter is required"})
		return
	}

	found, err := h.users.GetByEmail(c.Request.Context(), email)
	if err != nil {
		h.logger.Error("get users by email", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to search users"})
		return
	}

	out := make([]*denormalize.Profile, 0, len(found))
	for _, u := range found {
		p, ok := h.build(c, u)
		if !ok {
			return
		}
		out = append(out, p)
	}

	c.Header("X-Items-Count", strconv.Itoa(len(out)))
	c.JSON(http.StatusOK, out)
}

// GetMe handles GET /user: the viewer's own profile with private data,
// platform-admin flag and merged configurations.
func (h *UserHandler) GetMe(c *gin.Context) {
	ctx := c.Request.Context()
	viewer := viewerFromCtx(c)

	p, ok := h.build(c, viewer)
	if !ok {
		return
	}

	body := selfProfile{
		Profile:        p,
		Configurations: &userconfig.Configurations{Modules: []userconfig.Module{}},
	}

	if h.admins != nil {
		isAdmin, err := h.admins.IsPlatformAdmin(ctx, viewer.ID)
		if err != nil {
			h.logger.Warn("platform admin lookup failed", zap.String("user_id", viewer.ID.String()), zap.Error(err))
		}
		body.IsPlatformAdmin = isAdmin && err == nil
	}

	if h.configs != nil {
		cfgs, err := h.configs.ModulesForUser(ctx, viewer)
		if err != nil {
			h.logger.Warn("configuration lookup failed", zap.String("user_id", viewer.ID.String()), zap.Error(err))
		} else if cfgs != nil {
			body.Configurations = cfgs
		}
	}

	c.JSON(http.StatusOK, body)
}

// build builds the profile of subject for the current viewer. Private
// data is kept only when the viewer is the subject. It writes the error
// response itself and reports false on failure.
func (h *UserHandler) build(c *gin.Context, subject *users.User) (*denormalize.Profile, bool) {
	viewer := viewerFromCtx(c)
	self := viewer != nil && viewer.ID == subject.ID

	p, err := h.profiles.Denormalize(c.Request.Context(), subject, denormalize.Options{
		DoNotKeepPrivateData: !self,
		Viewer:               viewer,
	})
	if err != nil {
		h.logger.Error("denormalize user", zap.String("user_id", subject.ID.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build profile"})
		return nil, false
	}
	return p, true
}
