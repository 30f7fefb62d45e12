package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config carries the settings shared by every service plus the vendor
// credentials only some of them need. Required credentials are checked by the
// service that uses them, at startup, before any traffic is served.
type Config struct {
	Env     string `mapstructure:"env"`
	NATSURL string `mapstructure:"nats_url"`

	DashboardPort int `mapstructure:"dashboard_port"`
	HubitatPort   int `mapstructure:"hubitat_port"`
	WeatherPort   int `mapstructure:"weather_port"`
	GoveePort     int `mapstructure:"govee_port"`
	DatabasePort  int `mapstructure:"database_port"`
	MetricsPort   int `mapstructure:"metrics_port"`

	DBPath string `mapstructure:"db_path"`

	HubitatIP          string `mapstructure:"hubitat_ip"`
	HubitatAccessToken string `mapstructure:"hubitat_access_token"`
	HubitatAppID       string `mapstructure:"hubitat_app_id"`

	OpenWeatherMapAPIKey string `mapstructure:"openweathermap_api_key"`
	Latitude             string `mapstructure:"latitude"`
	Longitude            string `mapstructure:"longitude"`

	GoveeAPIKey string `mapstructure:"govee_api_key"`
	GoveeSKU    string `mapstructure:"govee_sku"`
	GoveeDevice string `mapstructure:"govee_device"`
}

// Load reads .env (when present), then the environment. Environment variables
// win over the file, matching how the services are deployed.
func Load() (*Config, error) {
	// Missing .env is fine, the environment may carry everything.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("env", "development")
	v.SetDefault("nats_url", "nats://localhost:4222")
	v.SetDefault("dashboard_port", 8003)
	v.SetDefault("hubitat_port", 8000)
	v.SetDefault("weather_port", 8001)
	v.SetDefault("govee_port", 8002)
	v.SetDefault("database_port", 8004)
	v.SetDefault("metrics_port", 0)
	v.SetDefault("db_path", "sensor_data.db")
	v.SetDefault("latitude", "40.0448")
	v.SetDefault("longitude", "-75.4884")

	// AutomaticEnv alone does not populate Unmarshal, so bind each key.
	for _, key := range []string{
		"env", "nats_url",
		"dashboard_port", "hubitat_port", "weather_port", "govee_port", "database_port", "metrics_port",
		"db_path",
		"hubitat_ip", "hubitat_access_token", "hubitat_app_id",
		"openweathermap_api_key", "latitude", "longitude",
		"govee_api_key", "govee_sku", "govee_device",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	return &cfg, nil
}

// Require returns an error naming every missing key from pairs of
// (key name, value). Services call it for their own mandatory credentials.
func Require(pairs ...string) error {
	var missing []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			missing = append(missing, strings.ToUpper(pairs[i]))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}
