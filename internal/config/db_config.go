package config

import (
	"path/filepath"

	"github/chapool/mtw-recovery/internal/util"
)

var (
	DatabaseMigrationTable  = "migrations"
	DatabaseMigrationFolder = filepath.Join(util.GetProjectRootDir(), "/migrations")
)
