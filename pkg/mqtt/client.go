package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	"account-service/internal/logger"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

type Config struct {
	Broker               string
	ClientID             string
	Username             string
	Password             string
	CleanSession         bool
	KeepAlive            int
	ConnectTimeout       int
	AutoReconnect        bool
	MaxReconnectInterval time.Duration
	PublishTimeout       time.Duration
}

type Client struct {
	client mqtt.Client
	config *Config
}

// NewConfig fills in the connection settings the service always uses.
func NewConfig(broker, clientID, username, password string) *Config {
	return &Config{
		Broker:               broker,
		ClientID:             clientID,
		Username:             username,
		Password:             password,
		CleanSession:         true,
		KeepAlive:            30,
		ConnectTimeout:       10,
		AutoReconnect:        true,
		MaxReconnectInterval: time.Minute,
		PublishTimeout:       5 * time.Second,
	}
}

func NewClient(config *Config) *Client {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.Broker)
	opts.SetClientID(config.ClientID)
	opts.SetUsername(config.Username)
	opts.SetPassword(config.Password)
	opts.SetCleanSession(config.CleanSession)
	opts.SetKeepAlive(time.Duration(config.KeepAlive) * time.Second)
	opts.SetConnectTimeout(time.Duration(config.ConnectTimeout) * time.Second)
	opts.SetAutoReconnect(config.AutoReconnect)
	opts.SetMaxReconnectInterval(config.MaxReconnectInterval)

	opts.SetOnConnectHandler(func(client mqtt.Client) {
		logger.Info("MQTT client connected", zap.String("broker", config.Broker))
	})

	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		logger.Warn("MQTT connection lost", zap.Error(err))
	})

	opts.SetReconnectingHandler(func(c mqtt.Client, opts *mqtt.ClientOptions) {
		logger.Info("Reconnecting to MQTT broker")
	})

	return &Client{
		client: mqtt.NewClient(opts),
		config: config,
	}
}

// Connect establishes a connection to the MQTT broker
func (c *Client) Connect() error {
	logger.Info("Connecting to MQTT broker", zap.String("broker", c.config.Broker))

	token := c.client.Connect()
	token.Wait()

	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}

	return nil
}

// Publish publishes a message to a topic
func (c *Client) Publish(topic string, qos byte, retained bool, payload []byte) error {
	token := c.client.Publish(topic, qos, retained, payload)
	if c.config.PublishTimeout > 0 {
		if !token.WaitTimeout(c.config.PublishTimeout) {
			return fmt.Errorf("publish to %s timed out", topic)
		}
	} else {
		token.Wait()
	}
	return token.Error()
}

// PublishJSON marshals v and publishes it with QoS 1.
func (c *Client) PublishJSON(topic string, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal payload for %s: %w", topic, err)
	}
	return c.Publish(topic, 1, false, payload)
}

// Disconnect disconnects from MQTT broker
func (c *Client) Disconnect() {
	c.client.Disconnect(250)
	logger.Info("Disconnected from MQTT broker")
}

// IsConnected returns connection status
func (c *Client) IsConnected() bool {
	return c.client.IsConnected()
}
