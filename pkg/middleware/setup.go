package middleware

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"SKCKPortal/internal/config"
	"SKCKPortal/pkg/apperror"
)

type errorBody struct {
	Code    apperror.Code     `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// ErrorHandler renders every error as {"error": {code, message, details}}.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var (
			status int
			body   errorBody
			he     *echo.HTTPError
		)
		if errors.As(err, &he) {
			status = he.Code
			body = errorBody{Code: codeForStatus(he.Code), Message: http.StatusText(he.Code)}
		} else {
			ae := apperror.From(err)
			status = apperror.HTTPStatus(ae.Code)
			body = errorBody{Code: ae.Code, Message: ae.Message, Details: ae.Details}
		}

		if status >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("path", c.Path()),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
				zap.Error(err))
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, map[string]errorBody{"error": body})
		}
		if err != nil {
			log.Warn("write error response", zap.Error(err))
		}
	}
}

func codeForStatus(status int) apperror.Code {
	switch status {
	case http.StatusBadRequest:
		return apperror.CodeValidation
	case http.StatusUnauthorized:
		return apperror.CodeUnauthorized
	case http.StatusForbidden:
		return apperror.CodeForbidden
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return apperror.CodeNotFound
	case http.StatusTooManyRequests:
		return apperror.CodeRateLimited
	default:
		return apperror.CodeInternal
	}
}

// RequestLogger logs one line per request through zap.
func RequestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("path", v.URIPath),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			log.Info("request", fields...)
			return nil
		},
	})
}

// SetupMiddleware installs the global middleware chain.
func SetupMiddleware(e *echo.Echo, cfg *config.Config, log *zap.Logger) {
	e.HideBanner = true
	e.HTTPErrorHandler = ErrorHandler(log)

	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(RequestLogger(log.Named("http")))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
}
