package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.HTTP.Addr)
	assert.Empty(t, cfg.Webhook.Secret)
	assert.Equal(t, "0.1", cfg.TradeVolume().String())
	assert.Equal(t, 20, cfg.Trade.Deviation)
	assert.Equal(t, 123456, cfg.Trade.Magic)

	ids, err := cfg.AuthorizedUserIDs()
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("MT5RELAY_WEBHOOK_SECRET", "topsecret")
	t.Setenv("MT5RELAY_MT5_LOGIN", "12345678")
	t.Setenv("MT5RELAY_MT5_SERVER", "Broker-Server")
	t.Setenv("MT5RELAY_TRADE_VOLUME", "0.25")
	t.Setenv("MT5RELAY_TELEGRAM_AUTHORIZED_IDS", "111, 222,333")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "topsecret", cfg.Webhook.Secret)
	assert.Equal(t, int64(12345678), cfg.MT5.Login)
	assert.Equal(t, "Broker-Server", cfg.MT5.Server)
	assert.Equal(t, "0.25", cfg.TradeVolume().String())

	ids, err := cfg.AuthorizedUserIDs()
	require.NoError(t, err)
	assert.Equal(t, []int64{111, 222, 333}, ids)
}

func TestLoadConfigRejectsBadVolume(t *testing.T) {
	t.Setenv("MT5RELAY_TRADE_VOLUME", "lots")

	_, err := LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trade.volume")
}

func TestLoadConfigRejectsBadAuthorizedIDs(t *testing.T) {
	t.Setenv("MT5RELAY_TELEGRAM_AUTHORIZED_IDS", "111,abc")

	_, err := LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "authorized_ids")
}
