package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/mtw-recovery/cmd/connect"
	"github/chapool/mtw-recovery/cmd/db"
	"github/chapool/mtw-recovery/cmd/env"
	"github/chapool/mtw-recovery/cmd/probe"
	"github/chapool/mtw-recovery/cmd/recover"
	"github/chapool/mtw-recovery/cmd/server"
	"github/chapool/mtw-recovery/internal/config"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Version: config.GetFormattedBuildArgs(),
	Use:     "app",
	Short:   config.ModuleName,
	Long: fmt.Sprintf(`%v

Recovers funds stuck in meta-transaction wallets by moving them back to their signer.
Every transaction is signed by an external wallet app reached through deeplinks.
Requires configuration through ENV.`, config.ModuleName),
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	// attach the subcommands
	rootCmd.AddCommand(
		connect.New(),
		db.New(),
		env.New(),
		probe.New(),
		recover.New(),
		server.New(),
	)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Failed to execute root command")
		os.Exit(1)
	}
}
