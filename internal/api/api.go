package api

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"classifieds-service/internal/database"
	"classifieds-service/internal/service"
)

const sessionKey = "db_session"

// Services bundles what the handlers depend on.
type Services struct {
	DB    *database.DB
	Users *service.UserService
	Ads   *service.AdService
}

// NewRouter builds the Echo instance with middleware and the full route table.
func NewRouter(s Services) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			event := log.Info()
			if v.Error != nil {
				event = log.Error().Err(v.Error)
			}
			event.
				Str("id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	}))

	RegisterRoutes(e, s)
	return e
}

// RegisterRoutes mounts the user, ad and health routes on e.
func RegisterRoutes(e *echo.Echo, s Services) {
	withSession := SessionMiddleware(s.DB)

	userHandler := NewUserHandler(s.Users)
	e.POST("/user/", userHandler.CreateUser, withSession)
	e.GET("/user/:id", userHandler.GetUser, withSession)
	e.PATCH("/user/:id", userHandler.UpdateUser, withSession)
	e.DELETE("/user/:id", userHandler.DeleteUser, withSession)

	adHandler := NewAdHandler(s.Ads)
	e.POST("/ad/", adHandler.CreateAd, withSession)
	e.GET("/ad/:id", adHandler.GetAd, withSession)
	e.PATCH("/ad/:id", adHandler.UpdateAd, withSession)
	e.DELETE("/ad/:id", adHandler.DeleteAd, withSession)

	e.GET("/health", healthHandler(s.DB))
}

// SessionMiddleware opens one database session per request and releases it
// once the handler returns, whether or not the handler committed.
func SessionMiddleware(db *database.DB) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, err := db.Begin(c.Request().Context())
			if err != nil {
				return err
			}
			defer func() {
				if err := sess.Close(); err != nil {
					log.Error().Err(err).Msg("failed to release database session")
				}
			}()

			c.Set(sessionKey, sess)
			return next(c)
		}
	}
}

func sessionFrom(c echo.Context) *database.Session {
	return c.Get(sessionKey).(*database.Session)
}

func healthHandler(db *database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		status, code := "ok", 200
		if err := db.PingContext(c.Request().Context()); err != nil {
			log.Error().Err(err).Msg("health check: database unreachable")
			status, code = "unavailable", 503
		}
		return c.JSON(code, map[string]interface{}{
			"status":  status,
			"service": "classifieds-service",
			"time":    time.Now().Format(time.RFC3339),
		})
	}
}

// pathID parses the :id segment. Anything but decimal digits is treated as an
// unmatched route.
func pathID(c echo.Context) (int64, error) {
	id := c.Param("id")
	if id == "" {
		return 0, echo.ErrNotFound
	}
	for i := 0; i < len(id); i++ {
		if id[i] < '0' || id[i] > '9' {
			return 0, echo.ErrNotFound
		}
	}
	idInt, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, echo.ErrNotFound
	}
	return idInt, nil
}

// decodeStrict reads a single JSON object into v, rejecting unknown keys.
func decodeStrict(c echo.Context, v interface{}) error {
	dec := json.NewDecoder(c.Request().Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func invalidPayload(c echo.Context) error {
	return c.JSON(400, map[string]string{"error": "Invalid request payload"})
}
