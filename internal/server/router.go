package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"houseprice/internal/logging"
)

const sessionName = "houseprice_session"

type SessionOptions struct {
	Secret string
	MaxAge time.Duration
	Secure bool
}

// NewRouter registers every route on a fresh gin engine.
func NewRouter(h *Handler, opts SessionOptions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logging.RequestLogger())

	store := cookie.NewStore([]byte(opts.Secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(opts.MaxAge.Seconds()),
		Secure:   opts.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	router.Use(sessions.Sessions(sessionName, store))

	router.GET("/", h.Index)
	router.GET("/health", h.Health)
	router.GET("/locations", h.Locations)

	router.POST("/login", h.Login)
	router.POST("/register", h.Register)
	router.GET("/logout", h.Logout)
	router.POST("/logout", h.Logout)

	router.GET("/home", h.Home)
	router.POST("/home", h.Predict)
	router.POST("/predict", h.Predict)

	return router
}
