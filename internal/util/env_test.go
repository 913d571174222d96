package util_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github/chapool/mtw-recovery/internal/util"
)

func TestGetEnvAsStringArr(t *testing.T) {
	t.Setenv("TEST_RPC_URLS", " https://a.example , ,https://b.example")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, util.GetEnvAsStringArr("TEST_RPC_URLS", nil))

	t.Setenv("TEST_RPC_URLS", " , ")
	assert.Equal(t, []string{"fallback"}, util.GetEnvAsStringArr("TEST_RPC_URLS", []string{"fallback"}))

	assert.Equal(t, []string{"x"}, util.GetEnvAsStringArr("TEST_RPC_URLS_UNSET", []string{"x"}))
}

func TestGetEnvAsDuration(t *testing.T) {
	t.Setenv("TEST_RELAY_POLL", "250ms")
	assert.Equal(t, 250*time.Millisecond, util.GetEnvAsDuration("TEST_RELAY_POLL", time.Second))

	t.Setenv("TEST_RELAY_POLL", "soon")
	assert.Equal(t, time.Second, util.GetEnvAsDuration("TEST_RELAY_POLL", time.Second))
}

func TestGetEnvEnum(t *testing.T) {
	allowed := []string{"memory", "store"}

	t.Setenv("TEST_RELAY_BACKEND", "store")
	assert.Equal(t, "store", util.GetEnvEnum("TEST_RELAY_BACKEND", "memory", allowed))

	t.Setenv("TEST_RELAY_BACKEND", "carrier-pigeon")
	assert.Equal(t, "memory", util.GetEnvEnum("TEST_RELAY_BACKEND", "memory", allowed))
}
