package test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// DiscoveryServer fakes the account discovery service. Unknown addresses have no accounts.
type DiscoveryServer struct {
	URL string

	mu       sync.Mutex
	accounts map[string][]string
	status   int
}

func NewDiscoveryServer(t *testing.T) *DiscoveryServer {
	t.Helper()

	d := &DiscoveryServer{accounts: map[string][]string{}, status: http.StatusOK}

	srv := httptest.NewServer(http.HandlerFunc(d.serveHTTP))
	t.Cleanup(srv.Close)
	d.URL = srv.URL

	return d
}

// SetAccounts registers the accounts returned for walletAddress.
func (d *DiscoveryServer) SetAccounts(walletAddress string, accounts ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.accounts[strings.ToLower(walletAddress)] = accounts
}

// SetStatus makes every following request answer with status.
func (d *DiscoveryServer) SetStatus(status int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.status = status
}

func (d *DiscoveryServer) serveHTTP(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	status := d.status
	accounts := d.accounts[r.URL.Query().Get("walletAddress")]
	d.mu.Unlock()

	if status != http.StatusOK {
		http.Error(w, http.StatusText(status), status)
		return
	}

	if accounts == nil {
		accounts = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(accounts)
}
