package probe

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/mtw-recovery/internal/api"
	"github/chapool/mtw-recovery/internal/api/handlers/common"
	"github/chapool/mtw-recovery/internal/config"
	"github/chapool/mtw-recovery/internal/util/command"
)

const (
	verboseFlag string = "verbose"
)

type Flags struct {
	Verbose bool
}

func New() *cobra.Command {
	return command.NewSubcommandGroup("probe",
		newLiveness(),
		newReadiness(),
	)
}

func newLiveness() *cobra.Command {
	return newProbe("liveness", "Runs liveness probes",
		`Checks the store backends, the RPC node and the writeable paths.
Exits with a non-zero code if any of them fails.`,
		func(cfg config.Server) time.Duration { return cfg.Management.LivenessTimeout },
		common.ProbeLiveness,
	)
}

func newReadiness() *cobra.Command {
	return newProbe("readiness", "Runs readiness probes",
		`Checks the store backends.
Exits with a non-zero code if any of them fails.`,
		func(cfg config.Server) time.Duration { return cfg.Management.ReadinessTimeout },
		common.ProbeReadiness,
	)
}

func newProbe(use string, short string, long string, timeout func(cfg config.Server) time.Duration, probe func(ctx context.Context, s *api.Server) error) *cobra.Command {
	var flags Flags

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long:  long,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.DefaultServiceConfigFromEnv()

			return command.WithServer(cmd.Context(), cfg, func(ctx context.Context, s *api.Server) error {
				ctx, cancel := context.WithTimeout(ctx, timeout(cfg))
				defer cancel()

				if err := probe(ctx, s); err != nil {
					return err
				}

				if flags.Verbose {
					log.Info().Str("probe", use).Msg("Probe succeeded")
				}

				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&flags.Verbose, verboseFlag, "v", false, "Show verbose output.")

	return cmd
}
