package recovery

import (
	"fmt"
	"strings"

	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github/chapool/mtw-recovery/internal/api"
	"github/chapool/mtw-recovery/internal/recovery"
	"github/chapool/mtw-recovery/internal/types"
	"golang.org/x/text/language"
)

func explorerURL(s *api.Server, txHash string) string {
	return fmt.Sprintf(s.Config.Chain.ExplorerTxURL, txHash)
}

// outcomeError translates the outcome message, unknown messages are passed through.
func outcomeError(s *api.Server, lang language.Tag, msg string) string {
	switch {
	case msg == recovery.MsgNoWalletFound:
		return s.I18n.Translate(lang, "NoWalletFound")
	case strings.HasPrefix(msg, recovery.MsgUnexpectedErrorPrefix):
		return s.I18n.Translate(lang, "UnexpectedError", map[string]interface{}{
			"Detail": strings.TrimPrefix(msg, recovery.MsgUnexpectedErrorPrefix),
		})
	default:
		return msg
	}
}

func statusToTypes(s *api.Server, lang language.Tag, status recovery.Status) *types.RecoveryStatus {
	res := &types.RecoveryStatus{
		Phase:         swag.String(string(status.Phase)),
		Address:       status.Address,
		Signer:        status.Signer,
		Deeplink:      status.Deeplink.String,
		DurationMs:    status.Since(s.Clock.Now()).Milliseconds(),
		ExplorerLinks: []string{},
		TxHashes:      []string{},
		Wallets:       make([]*types.RecoveryWallet, 0, len(status.Wallets)),
	}

	if status.StartedAt.Valid {
		startedAt := strfmt.DateTime(status.StartedAt.Time)
		res.StartedAt = &startedAt
	}
	if status.FinishedAt.Valid {
		finishedAt := strfmt.DateTime(status.FinishedAt.Time)
		res.FinishedAt = &finishedAt
	}

	for _, w := range status.Wallets {
		wallet := &types.RecoveryWallet{
			Address: swag.String(w.Address),
			State:   swag.String(w.State),
			TxHash:  w.TxHash.String,
			Error:   w.Error.String,
		}
		if w.TxHash.Valid {
			wallet.ExplorerURL = explorerURL(s, w.TxHash.String)
		}
		res.Wallets = append(res.Wallets, wallet)
	}

	switch status.Phase {
	case recovery.PhaseRunning:
		res.Message = s.I18n.Translate(lang, "RecoveryRunning")
		if res.Deeplink != "" {
			res.Message = s.I18n.Translate(lang, "OpenDeeplink")
		}
	case recovery.PhaseFinished:
		if status.Outcome == nil {
			break
		}

		res.TxHashes = append(res.TxHashes, status.Outcome.TxHashes...)
		for _, hash := range status.Outcome.TxHashes {
			res.ExplorerLinks = append(res.ExplorerLinks, explorerURL(s, hash))
		}

		if status.Outcome.Error.Valid {
			res.Error = outcomeError(s, lang, status.Outcome.Error.String)
			res.Message = res.Error
		} else {
			res.Message = s.I18n.TranslatePlural(lang, "RecoveryFinished", len(status.Outcome.TxHashes), nil)
		}
	case recovery.PhaseIdle:
	}

	return res
}
