package callback

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/mtw-recovery/internal/api"
	"github/chapool/mtw-recovery/internal/api/httperrors"
	"github/chapool/mtw-recovery/internal/relay"
	"github/chapool/mtw-recovery/internal/util"
)

func GetCallbackRoute(s *api.Server) *echo.Route {
	return s.Router.Root.GET("/callback", getCallbackHandler(s))
}

// getCallbackHandler is the page the signer redirects to. A load carrying a signer response
// is written into the relay and the page can be closed right away.
func getCallbackHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)
		lang := s.I18n.ParseAcceptLanguage(c.Request().Header.Get(util.HeaderAcceptLanguage))

		req := c.Request()
		currentURL := c.Scheme() + "://" + req.Host + req.URL.RequestURI()

		captured, err := relay.CaptureRedirect(ctx, s.Mailbox, currentURL)
		if err != nil {
			log.Debug().Err(err).Msg("Failed to capture signer redirect")
			e := httperrors.ErrBadRequestCallback.Copy()
			e.Internal = err
			return e
		}

		if !captured {
			return c.String(http.StatusOK, s.I18n.Translate(lang, "CallbackIgnored"))
		}

		log.Debug().Str("requestId", req.URL.Query().Get("requestId")).Msg("Captured signer redirect")

		return c.String(http.StatusOK, s.I18n.Translate(lang, "CallbackCaptured"))
	}
}
