package wellknown_test

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/mtw-recovery/internal/api"
	"github/chapool/mtw-recovery/internal/api/httperrors"
	"github/chapool/mtw-recovery/internal/config"
	"github/chapool/mtw-recovery/internal/test"
)

func writeFile(t *testing.T, name string, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestGetAppLinks(t *testing.T) {
	apple := `{"applinks":{"apps":[],"details":[{"appID":"ABCDE.org.celo.helper","paths":["/callback"]}]}}`
	android := `[{"relation":["delegate_permission/common.handle_all_urls"],"target":{"namespace":"android_app","package_name":"org.celo.helper"}}]`

	cfg := test.DefaultTestServerConfig(t)
	cfg.Paths.AppleAppSiteAssociationFile = writeFile(t, "apple-app-site-association", apple)
	cfg.Paths.AndroidAssetlinksFile = writeFile(t, "assetlinks.json", android)

	test.WithTestServerConfigurable(t, cfg, func(s *api.Server) {
		res := test.PerformRequest(t, s, "GET", "/.well-known/apple-app-site-association", nil, nil)
		require.Equal(t, http.StatusOK, res.Result().StatusCode)
		assert.Equal(t, echo.MIMEApplicationJSON, res.Header().Get(echo.HeaderContentType))
		assert.JSONEq(t, apple, res.Body.String())

		res = test.PerformRequest(t, s, "GET", "/.well-known/assetlinks.json", nil, nil)
		require.Equal(t, http.StatusOK, res.Result().StatusCode)
		assert.JSONEq(t, android, res.Body.String())
	})
}

func TestGetAppLinksNotConfigured(t *testing.T) {
	cfg := test.DefaultTestServerConfig(t)
	cfg.Paths = config.PathsServer{}

	test.WithTestServerConfigurable(t, cfg, func(s *api.Server) {
		for _, path := range []string{"/.well-known/apple-app-site-association", "/.well-known/assetlinks.json"} {
			res := test.PerformRequest(t, s, "GET", path, nil, nil)
			test.RequireHTTPError(t, res, httperrors.NewFromEcho(echo.ErrNotFound))
		}
	})
}
