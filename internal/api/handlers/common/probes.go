package common

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github/chapool/mtw-recovery/internal/api"
	"github/chapool/mtw-recovery/internal/util"
)

// ProbeReadiness checks the store backend connections.
func ProbeReadiness(ctx context.Context, s *api.Server) error {
	log := util.LogFromContext(ctx)

	if s.DB != nil {
		if err := s.DB.PingContext(ctx); err != nil {
			log.Warn().Err(err).Msg("Readiness probe failed: database")
			return errors.Wrap(err, "database is not reachable")
		}
	}

	if s.Redis != nil {
		if err := s.Redis.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("Readiness probe failed: redis")
			return errors.Wrap(err, "redis is not reachable")
		}
	}

	return nil
}

// ProbeLiveness additionally checks the RPC node and that the configured paths are writeable.
func ProbeLiveness(ctx context.Context, s *api.Server) error {
	log := util.LogFromContext(ctx)

	if err := ProbeReadiness(ctx, s); err != nil {
		return err
	}

	if err := s.Chain.HealthCheck(ctx); err != nil {
		log.Warn().Err(err).Str("url", s.Chain.URL()).Msg("Liveness probe failed: RPC node")
		return errors.Wrap(err, "RPC node is not healthy")
	}

	for _, dir := range s.Config.Management.ProbeWriteablePathsAbs {
		if err := probeWriteable(dir, s.Config.Management.ProbeWriteableTouchfile); err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("Liveness probe failed: path not writeable")
			return err
		}
	}

	return nil
}

func probeWriteable(dir string, touchfile string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return errors.Wrapf(err, "failed to stat %q", dir)
	}
	if !info.IsDir() {
		return errors.Errorf("%q is not a directory", dir)
	}

	file := filepath.Join(dir, touchfile)
	now := time.Now()
	if err := os.WriteFile(file, []byte(now.Format(time.RFC3339)), 0o600); err != nil {
		return errors.Wrapf(err, "failed to touch %q", file)
	}

	return os.Chtimes(file, now, now)
}
