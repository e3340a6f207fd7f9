package clickhouse

import (
	"testing"
	"time"

	ch "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildOptions(t *testing.T) {
	cfg := ClientConfig{
		Host:         "ch.local",
		Port:         8123,
		Database:     "smartsignal",
		User:         "writer",
		Password:     "secret",
		UseHTTP:      true,
		AsyncInsert:  true,
		WaitForAsync: true,
		MaxExecTime:  30 * time.Second,
		DialTimeout:  time.Second,
		ReadTimeout:  2 * time.Second,
	}

	opts := buildOptions(cfg)

	assert.Equal(t, []string{"ch.local:8123"}, opts.Addr)
	assert.Equal(t, ch.HTTP, opts.Protocol)
	assert.Equal(t, "smartsignal", opts.Auth.Database)
	assert.Equal(t, "writer", opts.Auth.Username)
	assert.Equal(t, 30, opts.Settings["max_execution_time"])
	assert.Equal(t, 1, opts.Settings["async_insert"])
	assert.Equal(t, 1, opts.Settings["wait_for_async_insert"])
	assert.Equal(t, time.Second, opts.DialTimeout)
}

func TestBuildOptionsNativeWithoutSettings(t *testing.T) {
	opts := buildOptions(ClientConfig{Host: "localhost", Port: 9000, WaitForAsync: true})

	assert.Equal(t, ch.Native, opts.Protocol)
	assert.Empty(t, opts.Settings)
}

func TestNewClientRequiresHost(t *testing.T) {
	_, err := NewClient(WithDatabase("x"))
	require.Error(t, err)
}

func TestNewClientWithoutPing(t *testing.T) {
	c, err := NewClient(WithHost("localhost", 9000), WithDatabase("smartsignal"), WithoutPing())
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, "smartsignal", c.Database())
	assert.NotNil(t, c.DB())
}
