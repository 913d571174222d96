package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github/chapool/mtw-recovery/internal/config"
)

var ErrDiscoveryFailure = errors.New("account discovery failed")

const fetchAccountsPath = "/fetchAccountsForWalletAddress"

// Client queries the service that indexes wallet contracts by the address controlling them.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg config.Discovery) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// FetchAccounts returns every wallet contract ever associated with walletAddress.
func (c *Client) FetchAccounts(ctx context.Context, walletAddress common.Address) ([]common.Address, error) {
	q := url.Values{}
	q.Set("walletAddress", strings.ToLower(walletAddress.Hex()))
	endpoint := c.baseURL + fetchAccountsPath + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(ErrDiscoveryFailure, err.Error())
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(ErrDiscoveryFailure, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.Wrap(ErrDiscoveryFailure, fmt.Sprintf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var raw []string
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, errors.Wrap(ErrDiscoveryFailure, "invalid response: "+err.Error())
	}

	accounts := make([]common.Address, 0, len(raw))
	for _, a := range raw {
		if !common.IsHexAddress(a) {
			log.Warn().Str("account", a).Msg("Skipping invalid address from discovery service")
			continue
		}
		accounts = append(accounts, common.HexToAddress(a))
	}

	return accounts, nil
}
