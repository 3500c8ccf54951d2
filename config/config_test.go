package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigurationDefaults(t *testing.T) {
	conf := GetConfiguration()

	assert.Equal(t, "localhost:8080", conf.HttpListen)
	require.Len(t, conf.Zones, 5)
	assert.Contains(t, conf.Zones, "europe")
	assert.Equal(t, 50, conf.BufferCapacity)
	assert.Equal(t, 25, conf.LowWatermark)
	assert.Equal(t, 10*time.Second, conf.RefillInterval)
	assert.Equal(t, 100, conf.RotateUses)
	assert.Equal(t, 30*time.Second, conf.RotateAge)
	assert.Equal(t, ":memory:", conf.Catalog)
	assert.NotEmpty(t, conf.ProbeUrls)
	assert.False(t, conf.Metrics)
}

func TestGetConfigurationIsCached(t *testing.T) {
	a := GetConfiguration()
	b := GetConfiguration()
	assert.Equal(t, a, b)
}
