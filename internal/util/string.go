package util

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/rs/zerolog/log"
)

func ContainsString(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}

	return false
}

func GenerateRandomHexString(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		log.Panic().Err(err).Msg("Failed to generate random bytes")
	}

	return hex.EncodeToString(b)
}
