package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"houseprice/internal/auth"
	"houseprice/internal/features"
	"houseprice/internal/models"
	"houseprice/internal/pricing"
	"houseprice/pkg/geo"
)

const (
	sessionUserID   = "user_id"
	sessionUserName = "user_name"

	// MsgCheckInputs is the only failure text a prediction request exposes.
	MsgCheckInputs = "Error: Please check your inputs"
	msgLoginFirst  = "Please login to access this page."

	publishTimeout = 2 * time.Second
)

// Publisher sends prediction events downstream.
type Publisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// Handler serves the account and prediction endpoints.
type Handler struct {
	auth      *auth.Service
	builder   *features.Builder
	pricing   *pricing.Service
	locations *geo.Table
	publisher Publisher
}

type Deps struct {
	Auth      *auth.Service
	Builder   *features.Builder
	Pricing   *pricing.Service
	Locations *geo.Table
	// Publisher is optional.
	Publisher Publisher
}

func NewHandler(d Deps) *Handler {
	if d.Locations == nil {
		d.Locations = geo.DefaultTable()
	}
	return &Handler{
		auth:      d.Auth,
		builder:   d.Builder,
		pricing:   d.Pricing,
		locations: d.Locations,
		publisher: d.Publisher,
	}
}

// Prediction is the JSON body returned for a successful estimate.
type Prediction struct {
	PredictionText string  `json:"prediction_text"`
	Location       string  `json:"location"`
	Estimate       float64 `json:"estimate"`
	Scaled         float64 `json:"scaled"`
	Formatted      string  `json:"formatted"`
}

// Sentence renders the estimate for display.
func Sentence(location, formatted string) string {
	return fmt.Sprintf("Estimated House Price in %s: %s", cases.Title(language.Und).String(location), formatted)
}

type sessionUser struct {
	Email string
	Name  string
}

// requireUser is the capability check for pages that need an account. It
// writes the rejection itself and reports whether the caller may proceed.
func requireUser(c *gin.Context) (sessionUser, bool) {
	s := sessions.Default(c)
	email, _ := s.Get(sessionUserID).(string)
	if email == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgLoginFirst, "redirect": "/login"})
		return sessionUser{}, false
	}
	name, _ := s.Get(sessionUserName).(string)
	return sessionUser{Email: email, Name: name}, true
}

func loggedIn(c *gin.Context) bool {
	email, _ := sessions.Default(c).Get(sessionUserID).(string)
	return email != ""
}

func startSession(c *gin.Context, u models.User) error {
	s := sessions.Default(c)
	s.Clear()
	s.Set(sessionUserID, u.Email)
	s.Set(sessionUserName, u.Name)
	return s.Save()
}

func (h *Handler) Index(c *gin.Context) {
	if loggedIn(c) {
		c.Redirect(http.StatusFound, "/home")
		return
	}
	c.Redirect(http.StatusFound, "/login")
}

type loginForm struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

func (h *Handler) Login(c *gin.Context) {
	if loggedIn(c) {
		c.JSON(http.StatusOK, gin.H{"redirect": "/home"})
		return
	}
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": auth.ErrInvalidCredentials.Error()})
		return
	}

	user, err := h.auth.Authenticate(c.Request.Context(), form.Email, form.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.internalError(c, "login failed", err)
		return
	}
	if err := startSession(c, user); err != nil {
		h.internalError(c, "save session", err)
		return
	}

	log.Info().Str("user", user.Email).Msg("user logged in")
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Welcome back, %s!", user.Name), "redirect": "/home"})
}

type registerForm struct {
	Name            string `form:"name" json:"name"`
	Email           string `form:"email" json:"email"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

func (h *Handler) Register(c *gin.Context) {
	if loggedIn(c) {
		c.JSON(http.StatusOK, gin.H{"redirect": "/home"})
		return
	}
	var form registerForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": auth.ErrFieldsRequired.Error()})
		return
	}

	user, err := h.auth.Register(c.Request.Context(), auth.Registration(form))
	switch {
	case errors.Is(err, auth.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "redirect": "/login"})
		return
	case errors.Is(err, auth.ErrFieldsRequired), errors.Is(err, auth.ErrPasswordTooShort), errors.Is(err, auth.ErrPasswordTooLong),
		errors.Is(err, auth.ErrPasswordMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		h.internalError(c, "register failed", err)
		return
	}
	if err := startSession(c, user); err != nil {
		h.internalError(c, "save session", err)
		return
	}

	log.Info().Str("user", user.Email).Msg("new user registered")
	c.JSON(http.StatusCreated, gin.H{"message": fmt.Sprintf("Welcome, %s! Your account has been created.", user.Name), "redirect": "/home"})
}

func (h *Handler) Logout(c *gin.Context) {
	s := sessions.Default(c)
	user, _ := s.Get(sessionUserID).(string)
	if user == "" {
		user = "unknown"
	}
	s.Clear()
	if err := s.Save(); err != nil {
		h.internalError(c, "clear session", err)
		return
	}
	log.Info().Str("user", user).Msg("user logged out")
	c.JSON(http.StatusOK, gin.H{"message": "You have been logged out successfully.", "redirect": "/login"})
}

func (h *Handler) Home(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_name": user.Name, "locations": h.locations.Names()})
}

// Predict runs the estimate pipeline for the signed-in user.
func (h *Handler) Predict(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	fields, err := rawFields(c)
	if err != nil {
		log.Warn().Err(err).Str("user", user.Email).Msg("unreadable prediction request")
		c.JSON(http.StatusBadRequest, gin.H{"error": MsgCheckInputs})
		return
	}

	attrs, derived, err := h.builder.BuildAttributes(fields)
	if err != nil {
		var verr *features.ValidationError
		if errors.As(err, &verr) {
			log.Warn().Str("field", verr.Field).Str("reason", verr.Reason.Error()).Str("user", user.Email).Msg("prediction input rejected")
		} else {
			log.Warn().Err(err).Str("user", user.Email).Msg("prediction input rejected")
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": MsgCheckInputs})
		return
	}
	if !h.locations.Has(attrs.Location) {
		log.Debug().Str("location", attrs.Location).Msg("unknown location, using default coordinates")
	}

	vec := features.Assemble(attrs, derived)
	res, err := h.pricing.Predict(vec)
	if err != nil {
		log.Error().Err(err).Str("user", user.Email).Msg("prediction error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": MsgCheckInputs})
		return
	}

	log.Info().Str("user", user.Name).Str("location", attrs.Location).Str("price", res.Formatted).Msg("prediction made")
	event := models.NewPredictionEvent(user.Email, attrs.Location, vec.Slice(), res.Estimate, res.Scaled, res.Formatted)
	event.Geohash = derived.Coordinates.Geohash()
	h.publish(c.Request.Context(), event)

	c.JSON(http.StatusOK, Prediction{
		PredictionText: Sentence(attrs.Location, res.Formatted),
		Location:       attrs.Location,
		Estimate:       res.Estimate,
		Scaled:         res.Scaled,
		Formatted:      res.Formatted,
	})
}

func (h *Handler) publish(ctx context.Context, e models.PredictionEvent) {
	if h.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := h.publisher.PublishJSON(ctx, e.ID, e); err != nil {
		log.Error().Err(err).Str("id", e.ID).Msg("failed to publish prediction event")
	}
}

func (h *Handler) Health(c *gin.Context) {
	n, err := h.auth.Count(c.Request.Context())
	if err != nil {
		h.internalError(c, "count users", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "users_count": n})
}

func (h *Handler) Locations(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"default": h.locations.DefaultKey(), "locations": h.locations.Names()})
}

func (h *Handler) internalError(c *gin.Context, msg string, err error) {
	_ = c.Error(err)
	log.Error().Err(err).Msg(msg)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong. Please try again."})
}
