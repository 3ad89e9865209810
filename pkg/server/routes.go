package server

import (
	"net"
	"net/http"
	"strconv"
	"time"

	httpLogger "github.com/chi-middleware/logrus-logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"

	"github.com/getzep/ducks/internal"
	"github.com/getzep/ducks/pkg/auth"
	"github.com/getzep/ducks/pkg/models"
	"github.com/getzep/ducks/pkg/observability"
	"github.com/getzep/ducks/pkg/web"
)

var log = internal.GetLogger()

const ReadHeaderTimeout = 5 * time.Second

const (
	duckIDParam = "{duckID:[0-9]+}"
	factIDParam = "{factID:[0-9]+}"
	// names are matched as slugs
	nameParam = "{name:[-a-zA-Z0-9_]+}"
)

// Create creates a new HTTP server with the given app state
func Create(appState *models.AppState) (*http.Server, error) {
	router, err := setupRouter(appState)
	if err != nil {
		return nil, err
	}

	cfg := appState.Config.Server
	return &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:           router,
		ReadHeaderTimeout: ReadHeaderTimeout,
	}, nil
}

func setupRouter(appState *models.AppState) (*chi.Mux, error) {
	cfg := appState.Config

	router := chi.NewRouter()
	router.Use(httpLogger.Logger("router", log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(SendVersion)
	if len(cfg.Server.CustomHeaders) > 0 {
		router.Use(ApplyCustomHeaders(cfg.Server.CustomHeaders))
	}
	router.Use(middleware.Heartbeat("/healthz"))

	if cfg.OTel.Enabled {
		router.Use(observability.Middleware(cfg.OTel.ServiceName, router))
	}

	if cfg.Auth.Required {
		log.Info("JWT authentication required")
		verifier, err := auth.JWTVerifier(cfg)
		if err != nil {
			return nil, err
		}
		router.Use(verifier)
		router.Use(jwtauth.Authenticator)
	}

	router.NotFound(web.NotFoundHandler())

	router.Handle("/static/*", http.FileServer(http.FS(web.StaticFS)))

	messenger := web.NewMessenger(cfg.Web.MessageSecret)

	router.Get("/", web.GetDuckListHandler(appState, messenger))
	router.Post("/", web.PostDuckListHandler(appState, messenger))

	router.Get("/"+duckIDParam+"/", web.GetDuckDetailsHandler(appState, messenger))
	router.Get("/name/"+nameParam+"/", web.GetDuckByNameHandler(appState, messenger))
	router.Post("/"+duckIDParam+"/rate/", web.PostRateFactHandler(appState, messenger))

	router.Get("/"+duckIDParam+"/facts/add/", web.GetAddFactHandler(appState, messenger))
	router.Post("/"+duckIDParam+"/facts/add/", web.PostAddFactHandler(appState, messenger))

	router.Get("/"+duckIDParam+"/delete", web.GetDeleteDuckHandler(appState, messenger))
	router.Post("/"+duckIDParam+"/delete", web.PostDeleteDuckHandler(appState, messenger))

	router.Get("/fact/"+factIDParam+"/delete/", web.GetDeleteFactHandler(appState, messenger))
	router.Post("/fact/"+factIDParam+"/delete/", web.PostDeleteFactHandler(appState, messenger))

	return router, nil
}
