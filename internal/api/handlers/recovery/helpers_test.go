package recovery_test

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github/chapool/mtw-recovery/internal/api"
	"github/chapool/mtw-recovery/internal/dappkit"
	"github/chapool/mtw-recovery/internal/test"
	"github/chapool/mtw-recovery/internal/types"
)

// answerDeeplink plays the signer: it parses deeplink and loads the callback page with the
// response respond builds.
func answerDeeplink(t *testing.T, s *api.Server, deeplink string, respond func(req *dappkit.Request) *dappkit.Response) {
	t.Helper()

	req, err := dappkit.ParseRequest(deeplink)
	require.NoError(t, err)

	raw, err := dappkit.SerializeResponse(req.Meta.Callback, respond(req))
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)

	res := test.PerformRequest(t, s, "GET", u.RequestURI(), nil, nil)
	require.Equal(t, http.StatusOK, res.Result().StatusCode)
}

func currentStatus(t *testing.T, s *api.Server, headers http.Header) types.RecoveryStatus {
	t.Helper()

	res := test.PerformRequest(t, s, "GET", "/api/v1/recoveries/current", nil, headers)
	require.Equal(t, http.StatusOK, res.Result().StatusCode)

	var status types.RecoveryStatus
	test.ParseResponseAndValidate(t, res, &status)

	return status
}

// awaitStatus polls the current recovery until cond holds.
func awaitStatus(t *testing.T, s *api.Server, headers http.Header, cond func(status types.RecoveryStatus) bool) types.RecoveryStatus {
	t.Helper()

	var status types.RecoveryStatus
	require.Eventually(t, func() bool {
		status = currentStatus(t, s, headers)
		return cond(status)
	}, 5*time.Second, 10*time.Millisecond)

	return status
}

func finished(status types.RecoveryStatus) bool {
	return *status.Phase == "finished"
}
