package wellknown

import (
	"github.com/labstack/echo/v4"
	"github/chapool/mtw-recovery/internal/api"
)

// The signer app hands control back to DAPPKIT_CALLBACK. On mobile the callback host
// only opens in the browser session that started the handshake if it publishes these files.

func GetAppleAppSiteAssociationRoute(s *api.Server) *echo.Route {
	return s.Router.WellKnown.GET("/apple-app-site-association", fileHandler(func() string {
		return s.Config.Paths.AppleAppSiteAssociationFile
	}))
}

func GetAndroidAssetlinksRoute(s *api.Server) *echo.Route {
	return s.Router.WellKnown.GET("/assetlinks.json", fileHandler(func() string {
		return s.Config.Paths.AndroidAssetlinksFile
	}))
}

func fileHandler(path func() string) echo.HandlerFunc {
	return func(c echo.Context) error {
		file := path()
		if file == "" {
			return echo.ErrNotFound
		}

		c.Response().Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		c.Response().Header().Set("Cache-Control", "public, max-age=0, must-revalidate")

		return c.File(file)
	}
}
