package handshake

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github/chapool/mtw-recovery/internal/config"
	"github/chapool/mtw-recovery/internal/dappkit"
	"github/chapool/mtw-recovery/internal/kv"
	"github/chapool/mtw-recovery/internal/metrics"
	"github/chapool/mtw-recovery/internal/relay"
)

const (
	PrefixLogin  = "login"
	PrefixSignTx = "sign_tx"
)

// Coordinator runs one deeplink round trip at a time:
// register, serialize, launch, await, parse, match, release.
type Coordinator struct {
	deeplinkBase string
	meta         dappkit.Meta
	mailbox      relay.Mailbox
	launcher     Launcher
	store        kv.Store
	registry     *Registry
}

func NewCoordinator(cfg config.DappKit, mailbox relay.Mailbox, launcher Launcher, store kv.Store, registry *Registry) *Coordinator {
	return &Coordinator{
		deeplinkBase: cfg.DeeplinkBase,
		meta: dappkit.Meta{
			DappName: cfg.DappName,
			Callback: cfg.Callback,
		},
		mailbox:  mailbox,
		launcher: launcher,
		store:    store,
		registry: registry,
	}
}

// NewRequestID returns a correlation id unique to one request.
func NewRequestID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}

// Exchange performs the round trip for req and returns the matched response.
// It fails with ErrSessionBusy if another exchange is outstanding.
func (c *Coordinator) Exchange(ctx context.Context, req *dappkit.Request) (resp *dappkit.Response, err error) {
	pending, err := c.Send(ctx, req)
	if err != nil {
		return nil, err
	}
	defer func() { pending.Close(err) }()

	raw, err := pending.Await(ctx)
	if err != nil {
		return nil, err
	}

	return pending.Validate(raw)
}

// Send registers req and hands its deeplink to the launcher. The returned Pending
// holds the registry until it is closed.
func (c *Coordinator) Send(ctx context.Context, req *dappkit.Request) (*Pending, error) {
	req.Meta = c.meta

	if err := c.registry.Acquire(req.RequestID); err != nil {
		metrics.ObserveHandshake(string(req.Type), metrics.ResultBusy, 0)
		return nil, err
	}

	p := &Pending{
		coordinator: c,
		req:         req,
		start:       time.Now(),
		logger:      log.With().Str("requestId", req.RequestID).Str("type", string(req.Type)).Logger(),
	}

	deeplink, err := dappkit.SerializeRequest(c.deeplinkBase, req)
	if err != nil {
		err = errors.Wrap(err, "failed to serialize request")
		p.Close(err)
		return nil, err
	}

	if err := c.launcher.Open(ctx, deeplink); err != nil {
		err = errors.Wrap(err, "failed to launch deeplink")
		p.Close(err)
		return nil, err
	}
	p.logger.Debug().Msg("Launched deeplink, awaiting signer response")

	return p, nil
}

// Pending is a launched request waiting for its response.
type Pending struct {
	coordinator *Coordinator
	req         *dappkit.Request
	start       time.Time
	logger      zerolog.Logger
	closeOnce   sync.Once
}

func (p *Pending) RequestID() string {
	return p.req.RequestID
}

// Await blocks until the relay delivers a redirect URL.
func (p *Pending) Await(ctx context.Context) (string, error) {
	return p.coordinator.mailbox.AwaitAndTake(ctx)
}

// Validate parses raw and accepts it only as the response to this request.
func (p *Pending) Validate(raw string) (*dappkit.Response, error) {
	resp, err := dappkit.ParseResponse(raw)
	if err != nil {
		return nil, err
	}

	if err := dappkit.Match(p.req.RequestID, resp, p.req.Type); err != nil {
		p.logger.Warn().Err(err).Msg("Signer response does not match request")
		return nil, err
	}

	return resp, nil
}

// Close releases the registry and records the result. Only the first call has an effect.
func (p *Pending) Close(err error) {
	p.closeOnce.Do(func() {
		p.coordinator.registry.Release(p.req.RequestID)

		result := metrics.ResultSuccess
		switch {
		case err == nil:
		case errors.Is(err, relay.ErrResponseTimeout):
			result = metrics.ResultTimeout
		default:
			result = metrics.ResultFailure
		}
		metrics.ObserveHandshake(string(p.req.Type), result, time.Since(p.start))
	})
}

// RequestAccountAddress runs the account handshake and persists the connected address.
func (c *Coordinator) RequestAccountAddress(ctx context.Context) (common.Address, error) {
	req := newAccountRequest()

	resp, err := c.Exchange(ctx, req)
	if err != nil {
		return common.Address{}, err
	}

	return c.connect(ctx, req.RequestID, resp)
}

// StartAccountAddress launches the account handshake without waiting for the signer.
func (c *Coordinator) StartAccountAddress(ctx context.Context) (*Pending, error) {
	return c.Send(ctx, newAccountRequest())
}

// FinishAccountAddress awaits the response to an account handshake, closes it and
// persists the connected address.
func (c *Coordinator) FinishAccountAddress(ctx context.Context, pending *Pending) (addr common.Address, err error) {
	defer func() { pending.Close(err) }()

	raw, err := pending.Await(ctx)
	if err != nil {
		return common.Address{}, err
	}

	resp, err := pending.Validate(raw)
	if err != nil {
		return common.Address{}, err
	}

	return c.connect(ctx, pending.RequestID(), resp)
}

func newAccountRequest() *dappkit.Request {
	return &dappkit.Request{
		RequestID: NewRequestID(PrefixLogin),
		Type:      dappkit.RequestTypeAccountAddress,
	}
}

func (c *Coordinator) connect(ctx context.Context, requestID string, resp *dappkit.Response) (common.Address, error) {
	payload, err := dappkit.MatchAccountAuth(requestID, resp)
	if err != nil {
		return common.Address{}, err
	}

	if err := c.store.Set(ctx, kv.KeyAddress, payload.Address.Hex()); err != nil {
		return common.Address{}, errors.Wrap(err, "failed to persist connected address")
	}

	log.Info().Str("address", payload.Address.Hex()).Msg("Connected account address")

	return payload.Address, nil
}

// ConnectedAddress returns the address persisted by the last account handshake.
func (c *Coordinator) ConnectedAddress(ctx context.Context) (common.Address, error) {
	v, err := c.store.Get(ctx, kv.KeyAddress)
	if err != nil {
		return common.Address{}, err
	}

	if !common.IsHexAddress(v) {
		return common.Address{}, errors.Errorf("stored address %q is invalid", v)
	}

	return common.HexToAddress(v), nil
}

func (c *Coordinator) SetConnectedAddress(ctx context.Context, addr common.Address) error {
	return c.store.Set(ctx, kv.KeyAddress, addr.Hex())
}

func (c *Coordinator) Busy() bool {
	_, busy := c.registry.Current()
	return busy
}
