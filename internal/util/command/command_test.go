package command_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/mtw-recovery/internal/api"
	"github/chapool/mtw-recovery/internal/test"
	"github/chapool/mtw-recovery/internal/util/command"
)

func TestWithServer(t *testing.T) {
	cfg := test.DefaultTestServerConfig(t)
	cfg.Logger.PrettyPrintConsole = false

	testError := errors.New("test error")

	resultErr := command.WithServer(t.Context(), cfg, func(ctx context.Context, s *api.Server) error {
		require.NotNil(t, s.Chain)
		require.NoError(t, s.Chain.HealthCheck(ctx))

		_, err := s.Coordinator.ConnectedAddress(ctx)
		assert.Error(t, err)

		return testError
	})

	assert.Equal(t, testError, resultErr)
}

func TestWithServerInvalidConfig(t *testing.T) {
	cfg := test.DefaultTestServerConfig(t)
	cfg.Chain.RPCURLs = nil

	called := false
	err := command.WithServer(t.Context(), cfg, func(context.Context, *api.Server) error {
		called = true
		return nil
	})

	require.Error(t, err)
	assert.False(t, called)
}

func TestNewSubcommandGroup(t *testing.T) {
	sub := &cobra.Command{Use: "child", RunE: func(*cobra.Command, []string) error { return nil }}
	cmd := command.NewSubcommandGroup("group", sub)

	assert.Equal(t, "group", cmd.Use)
	assert.Equal(t, "group related subcommands", cmd.Short)
	require.Len(t, cmd.Commands(), 1)
	assert.Equal(t, "child", cmd.Commands()[0].Use)
}
