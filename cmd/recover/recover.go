package recover

import (
	"context"
	"os"

	"github.com/aarondl/null/v8"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/mtw-recovery/internal/api"
	"github/chapool/mtw-recovery/internal/config"
	"github/chapool/mtw-recovery/internal/kv"
	"github/chapool/mtw-recovery/internal/recovery"
	"github/chapool/mtw-recovery/internal/tui"
	"github/chapool/mtw-recovery/internal/util/command"
)

const (
	plainFlag   string = "plain"
	logFileFlag string = "log-file"
)

var ErrNoAddress = errors.New("no address given and no connected address stored, run the connect command first")

type Flags struct {
	Plain   bool
	LogFile string
}

type ui interface {
	Run(ctx context.Context, work tui.Work) (recovery.Outcome, error)
}

func New() *cobra.Command {
	var flags Flags

	cmd := &cobra.Command{
		Use:   "recover [address]",
		Short: "Moves the funds of every wallet of an account back to its signer",
		Long: `Discovers the meta-transaction wallets of the given account and moves their funds back
to the signer. Each wallet needs one signature from the wallet app, the deeplinks to open are
printed while the recovery runs. Without an address the connected one is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecover(cmd.Context(), flags, args)
		},
	}

	cmd.Flags().BoolVar(&flags.Plain, plainFlag, false, "Print line based progress instead of the interactive view")
	cmd.Flags().StringVar(&flags.LogFile, logFileFlag, "", "Write logs to this file while the interactive view is shown")

	return cmd
}

func runRecover(ctx context.Context, flags Flags, args []string) error {
	cfg := config.DefaultServiceConfigFromEnv()

	return command.WithServer(ctx, cfg, func(ctx context.Context, s *api.Server) error {
		primary, err := resolveAddress(ctx, s, args)
		if err != nil {
			return err
		}

		if err := s.Chain.EnsureHealthy(ctx); err != nil {
			return err
		}

		if err := command.ServeInBackground(s); err != nil {
			return err
		}

		var view ui
		if !flags.Plain && tui.Interactive(os.Stdout) {
			closeLog, err := redirectLogs(flags.LogFile)
			if err != nil {
				return err
			}
			defer closeLog()

			view = tui.NewMonitor(primary.Hex(), cfg.Chain.ExplorerTxURL, s.Deeplinks)
		} else {
			view = tui.NewPlain(os.Stdout, cfg.Chain.ExplorerTxURL, s.Deeplinks)
		}

		outcome, err := view.Run(ctx, func(ctx context.Context, observer recovery.Observer) recovery.Outcome {
			outcome, err := s.Runner.Run(ctx, primary, observer)
			if err != nil {
				return recovery.Outcome{TxHashes: []string{}, Error: null.StringFrom(recovery.MsgUnexpectedErrorPrefix + err.Error())}
			}

			return outcome
		})
		if err != nil {
			return err
		}

		if len(outcome.TxHashes) == 0 {
			return errors.New(outcome.Error.String)
		}

		return nil
	})
}

func resolveAddress(ctx context.Context, s *api.Server, args []string) (common.Address, error) {
	if len(args) > 0 {
		if !common.IsHexAddress(args[0]) {
			return common.Address{}, errors.Errorf("invalid address %q", args[0])
		}

		return common.HexToAddress(args[0]), nil
	}

	addr, err := s.Coordinator.ConnectedAddress(ctx)
	if errors.Is(err, kv.ErrNotFound) {
		return common.Address{}, ErrNoAddress
	}

	return addr, err
}

// redirectLogs keeps log output from drawing over the interactive view.
func redirectLogs(file string) (func(), error) {
	previous := log.Logger

	if file == "" {
		log.Logger = zerolog.Nop()
		return func() { log.Logger = previous }, nil
	}

	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open log file")
	}

	log.Logger = previous.Output(f)

	return func() {
		log.Logger = previous
		_ = f.Close()
	}, nil
}
