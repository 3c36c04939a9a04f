package middleware

import (
	"strconv"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// RequestID ensures every request carries a request id and stores it on the
// request context for downstream log correlation.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = uuid.New().String()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, id)

			ctx := SetRequestID(req.Context(), id)
			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}

// Logger logs one line per request with timing and response metadata.
func Logger(logger ectologger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			req := c.Request()
			res := c.Response()
			start := time.Now()
			if err = next(c); err != nil {
				c.Error(err)
			}
			stop := time.Now()

			logger.WithContext(c.Request().Context()).WithFields(map[string]interface{}{
				"request_id":    GetRequestID(c.Request().Context()),
				"method":        req.Method,
				"uri":           req.RequestURI,
				"status":        res.Status,
				"route":         c.Path(),
				"remote_ip":     c.RealIP(),
				"host":          req.Host,
				"user_agent":    req.UserAgent(),
				"response_time": stop.Sub(start),
				"response_size": strconv.FormatInt(res.Size, 10),
			}).Info("Request")

			return nil
		}
	}
}
