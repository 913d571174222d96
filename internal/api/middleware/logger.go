package middleware

import (
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github/chapool/mtw-recovery/internal/util"
)

type LoggerConfig struct {
	Skipper      middleware.Skipper
	Level        zerolog.Level
	LogRequestID bool
	// the callback URL carries the signer response, keep it out of the logs unless asked for
	LogRequestQuery  bool
	LogRequestHeader bool
}

var DefaultLoggerConfig = LoggerConfig{
	Skipper:      middleware.DefaultSkipper,
	Level:        zerolog.DebugLevel,
	LogRequestID: true,
}

func Logger() echo.MiddlewareFunc {
	return LoggerWithConfig(DefaultLoggerConfig)
}

// LoggerWithConfig stores a request scoped logger in the request context and logs
// every completed request.
func LoggerWithConfig(config LoggerConfig) echo.MiddlewareFunc {
	if config.Skipper == nil {
		config.Skipper = DefaultLoggerConfig.Skipper
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if config.Skipper(c) {
				return next(c)
			}

			req := c.Request()
			res := c.Response()

			lctx := log.With()
			if config.LogRequestID {
				id := req.Header.Get(echo.HeaderXRequestID)
				if id == "" {
					id = res.Header().Get(echo.HeaderXRequestID)
				}
				lctx = lctx.Str("id", id)
			}
			l := lctx.Logger()

			ctx := l.WithContext(req.Context())
			ctx = util.DisableLogger(ctx, false)
			c.SetRequest(req.WithContext(ctx))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			took := time.Since(start)

			e := l.WithLevel(config.Level).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Int64("bytes_out", res.Size).
				Dur("duration_ms", took).
				Str("remote_ip", c.RealIP())

			if config.LogRequestQuery {
				e = e.Str("query", req.URL.RawQuery)
			} else if req.URL.RawQuery != "" {
				e = e.Str("query", redactQuery(req.URL.Query()))
			}

			if config.LogRequestHeader {
				e = e.Dict("header", headerDict(req.Header))
			}

			if res.Status >= http.StatusInternalServerError {
				e.Err(err).Msg("http request failed")
			} else {
				e.Msg("http request")
			}

			return nil
		}
	}
}

func redactQuery(q url.Values) string {
	for k := range q {
		q.Set(k, "*****")
	}

	return q.Encode()
}

func headerDict(h http.Header) *zerolog.Event {
	dict := zerolog.Dict()
	for k, v := range h {
		if k == echo.HeaderAuthorization || k == echo.HeaderCookie {
			dict = dict.Str(k, "*****")
			continue
		}
		dict = dict.Strs(k, v)
	}

	return dict
}
