package mqtt

import (
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("tcp://broker:1883", "account-service", "user", "pass")

	assert.Equal(t, "tcp://broker:1883", cfg.Broker)
	assert.True(t, cfg.AutoReconnect)
	assert.Equal(t, 5*time.Second, cfg.PublishTimeout)
}

func TestPublish_NotConnected(t *testing.T) {
	c := NewClient(NewConfig("tcp://127.0.0.1:1", "test", "", ""))
	require.False(t, c.IsConnected())

	err := c.PublishJSON("accounts/events/user/registered", map[string]string{"user_id": "1"})
	assert.ErrorIs(t, err, mqtt.ErrNotConnected)
}

func TestPublishJSON_MarshalError(t *testing.T) {
	c := NewClient(NewConfig("tcp://127.0.0.1:1", "test", "", ""))

	err := c.PublishJSON("topic", make(chan int))
	assert.ErrorContains(t, err, "marshal payload")
}
