/*
Copyright 2025 LimpehFi Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"github.com/kelseyhightower/envconfig"

	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_PORT = "5001"

	// TokenDecimals is the precision of the reference stablecoin. Every
	// on-chain amount is an integer scaled by 10^TokenDecimals.
	TokenDecimals = 6
)

var ConfigStore atomic.Value

type ServerConfig struct {
	SSL       bool   `json:"ssl" envconfig:"LIMPEH_SERVER_SSL"`
	Secure    bool   `json:"secure" envconfig:"LIMPEH_SERVER_SECURE"`
	SecretKey string `json:"secret_key" envconfig:"LIMPEH_SERVER_SECRET_KEY"`
	Domain    string `json:"domain" envconfig:"LIMPEH_SERVER_SSL_DOMAIN"`
	Email     string `json:"ssl_email" envconfig:"LIMPEH_SERVER_SSL_EMAIL"`
	Port      string `json:"port" envconfig:"LIMPEH_SERVER_PORT"`
}

type RedisConfig struct {
	Dns           string `json:"dns" envconfig:"LIMPEH_REDIS_DNS"`
	SkipTLSVerify bool   `json:"skip_tls_verify" envconfig:"LIMPEH_REDIS_SKIP_TLS_VERIFY"`
}

// NetworkConfig describes one chain the service can bind to. Contract and
// token addresses are resolved per network because the Credit deployment
// differs between them.
type NetworkConfig struct {
	ChainID        uint64 `json:"chain_id"`
	RpcUrl         string `json:"rpc_url"`
	CreditContract string `json:"credit_contract"`
	PaymentToken   string `json:"payment_token"`
	ExplorerUrl    string `json:"explorer_url"`
}

type ChainConfig struct {
	// Networks is keyed by a human name ("mainnet", "unichain-sepolia").
	Networks map[string]NetworkConfig `json:"networks"`
	// DefaultNetwork is the network the service signs against.
	DefaultNetwork string `json:"default_network" envconfig:"LIMPEH_CHAIN_DEFAULT_NETWORK"`
	// FallbackNetwork names the one alternate network a wallet may sit on.
	// Chain ids outside Networks and the fallback are a mismatch.
	FallbackNetwork string `json:"fallback_network" envconfig:"LIMPEH_CHAIN_FALLBACK_NETWORK"`
	// OperatorKey is the hex-encoded private key the service submits
	// transactions with.
	OperatorKey string `json:"operator_key" envconfig:"LIMPEH_CHAIN_OPERATOR_KEY"`
}

type WorldIDConfig struct {
	AppID      string `json:"app_id" envconfig:"LIMPEH_WORLDID_APP_ID"`
	Action     string `json:"action" envconfig:"LIMPEH_WORLDID_ACTION"`
	ApiBaseUrl string `json:"api_base_url" envconfig:"LIMPEH_WORLDID_API_BASE_URL"`
}

type QueueConfig struct {
	WebhookQueue        string `json:"webhook_queue" envconfig:"LIMPEH_QUEUE_WEBHOOK"`
	AllowanceQueue      string `json:"allowance_queue" envconfig:"LIMPEH_QUEUE_ALLOWANCE"`
	MaxRetryAttempts    int    `json:"max_retry_attempts" envconfig:"LIMPEH_QUEUE_MAX_RETRY_ATTEMPTS"`
	MonitoringPort      string `json:"monitoring_port" envconfig:"LIMPEH_QUEUE_MONITORING_PORT"`
	ReconcileDelayHours int    `json:"reconcile_delay_hours" envconfig:"LIMPEH_QUEUE_RECONCILE_DELAY_HOURS"`
}

type RateLimitConfig struct {
	RequestsPerSecond  *float64 `json:"requests_per_second" envconfig:"LIMPEH_RATE_LIMIT_RPS"`
	Burst              *int     `json:"burst" envconfig:"LIMPEH_RATE_LIMIT_BURST"`
	CleanupIntervalSec *int     `json:"cleanup_interval_sec" envconfig:"LIMPEH_RATE_LIMIT_CLEANUP_INTERVAL_SEC"`
}

type SlackWebhook struct {
	WebhookUrl string `json:"webhook_url"`
}

type Notification struct {
	Slack   SlackWebhook `json:"slack"`
	Webhook struct {
		Url     string            `json:"url"`
		Headers map[string]string `json:"headers"`
	} `json:"webhook"`
}

type Configuration struct {
	ProjectName     string          `json:"project_name" envconfig:"LIMPEH_PROJECT_NAME"`
	EnableTelemetry bool            `json:"enable_telemetry" envconfig:"LIMPEH_ENABLE_TELEMETRY"`
	Server          ServerConfig    `json:"server"`
	Redis           RedisConfig     `json:"redis"`
	Chain           ChainConfig     `json:"chain"`
	WorldID         WorldIDConfig   `json:"world_id"`
	Queue           QueueConfig     `json:"queue"`
	Notification    Notification    `json:"notification"`
	RateLimit       RateLimitConfig `json:"rate_limit"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}

	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("limpeh", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return err
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called limpeh.json with your config ❌")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "Limpeh Server"
	}

	if cnf.Redis.Dns == "" {
		log.Println("Error: Redis DNS is empty. It's a required field.")
		return errors.New("redis DNS is required")
	}

	if len(cnf.Chain.Networks) == 0 {
		log.Println("Error: No chain networks configured. At least one is required.")
		return errors.New("at least one chain network is required")
	}

	if cnf.Chain.DefaultNetwork == "" {
		for name := range cnf.Chain.Networks {
			cnf.Chain.DefaultNetwork = name
			break
		}
		log.Printf("Warning: Default network not specified. Using %q", cnf.Chain.DefaultNetwork)
	}
	if _, ok := cnf.Chain.Networks[cnf.Chain.DefaultNetwork]; !ok {
		return errors.New("default network is not in the networks map")
	}
	if cnf.Chain.FallbackNetwork != "" {
		if _, ok := cnf.Chain.Networks[cnf.Chain.FallbackNetwork]; !ok {
			return errors.New("fallback network is not in the networks map")
		}
	}

	if cnf.WorldID.ApiBaseUrl == "" {
		cnf.WorldID.ApiBaseUrl = "https://developer.worldcoin.org/api/v2"
	}

	// Trim white spaces from fields
	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)
	cnf.WorldID.AppID = strings.TrimSpace(cnf.WorldID.AppID)
	cnf.WorldID.Action = strings.TrimSpace(cnf.WorldID.Action)

	// Set default value for Port if it's empty
	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		log.Printf("Warning: Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}

	if cnf.Queue.WebhookQueue == "" {
		cnf.Queue.WebhookQueue = "webhook_queue"
	}
	if cnf.Queue.AllowanceQueue == "" {
		cnf.Queue.AllowanceQueue = "allowance_reconcile_queue"
	}
	if cnf.Queue.MaxRetryAttempts <= 0 {
		cnf.Queue.MaxRetryAttempts = 3
	}
	if cnf.Queue.ReconcileDelayHours <= 0 {
		cnf.Queue.ReconcileDelayHours = 1
	}

	// Rate limiting is disabled by default (when both RPS and Burst are nil)
	if cnf.RateLimit.RequestsPerSecond != nil && cnf.RateLimit.Burst == nil {
		defaultBurst := 2 * int(*cnf.RateLimit.RequestsPerSecond)
		cnf.RateLimit.Burst = &defaultBurst
		log.Printf("Warning: Rate limit burst not specified. Setting default value: %d", defaultBurst)
	}
	if cnf.RateLimit.RequestsPerSecond == nil && cnf.RateLimit.Burst != nil {
		defaultRPS := float64(*cnf.RateLimit.Burst) / 2
		cnf.RateLimit.RequestsPerSecond = &defaultRPS
		log.Printf("Warning: Rate limit RPS not specified. Setting default value: %.2f", defaultRPS)
	}
	if cnf.RateLimit.CleanupIntervalSec == nil {
		defaultCleanup := 10800 // 3 hours in seconds
		cnf.RateLimit.CleanupIntervalSec = &defaultCleanup
	}

	return nil
}

// ResolveNetwork maps a wallet chain id to a configured network. The second
// return reports an exact match; unknown chain ids resolve to the one named
// fallback network when configured, otherwise the zero value is returned and
// the caller must treat the wallet as being on an unsupported chain.
func (cnf *Configuration) ResolveNetwork(chainID uint64) (NetworkConfig, bool) {
	for _, n := range cnf.Chain.Networks {
		if n.ChainID == chainID {
			return n, true
		}
	}
	if cnf.Chain.FallbackNetwork != "" {
		if n, ok := cnf.Chain.Networks[cnf.Chain.FallbackNetwork]; ok {
			return n, false
		}
	}
	return NetworkConfig{}, false
}

// DefaultNetworkConfig returns the network the service itself operates on.
func (cnf *Configuration) DefaultNetworkConfig() NetworkConfig {
	return cnf.Chain.Networks[cnf.Chain.DefaultNetwork]
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	ConfigStore.Store(mockConfig)
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
