package config

import (
	"flag"
	"os"
	"strings"
)

// testing reports whether we are currently executing within "go test".
func testing() bool {
	if flag.Lookup("test.v") != nil {
		return true
	}

	return strings.HasSuffix(os.Args[0], ".test")
}
