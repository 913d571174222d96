package connect

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github/chapool/mtw-recovery/internal/api"
	"github/chapool/mtw-recovery/internal/config"
	"github/chapool/mtw-recovery/internal/tui"
	"github/chapool/mtw-recovery/internal/util/command"
)

func New() *cobra.Command {
	return &cobra.Command{
		Use:   "connect",
		Short: "Connects the wallet app and stores its account address",
		Long: `Asks the wallet app for its account address through a deeplink and stores it.
The stored address is used by the recover command when no address is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConnect(cmd.Context())
		},
	}
}

func runConnect(ctx context.Context) error {
	cfg := config.DefaultServiceConfigFromEnv()

	return command.WithServer(ctx, cfg, func(ctx context.Context, s *api.Server) error {
		if err := command.ServeInBackground(s); err != nil {
			return err
		}

		_, err := Connect(ctx, s, os.Stdout)

		return err
	})
}

// Connect runs the account handshake, printing the deeplink to open to w.
func Connect(ctx context.Context, s *api.Server, w io.Writer) (common.Address, error) {
	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go tui.WatchDeeplinks(watchCtx, s.Deeplinks, func(deeplink string) {
		if deeplink != "" {
			fmt.Fprintf(w, "Open this link with your wallet app:\n%s\n", deeplink)
		}
	})

	addr, err := s.Coordinator.RequestAccountAddress(ctx)
	cancel()
	s.Deeplinks.Clear()
	if err != nil {
		return common.Address{}, err
	}

	fmt.Fprintf(w, "Connected %s\n", addr.Hex())

	return addr, nil
}
