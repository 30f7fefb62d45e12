// Command discover is a one-shot diagnostic: it checks every configured
// device and vendor API before the services are started, so configuration
// problems surface here instead of at integration time.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/orangeqtym/hubitat-terraform/internal/config"
	"github.com/orangeqtym/hubitat-terraform/internal/govee"
	"github.com/orangeqtym/hubitat-terraform/internal/hubitat"
	"github.com/orangeqtym/hubitat-terraform/internal/logger"
	"github.com/orangeqtym/hubitat-terraform/internal/weather"
)

// DeviceStatus is one discovered device or API endpoint.
type DeviceStatus struct {
	Name        string                 `json:"name"`
	Type        string                 `json:"type"`
	Address     string                 `json:"address"`
	Status      string                 `json:"status"`
	Details     map[string]interface{} `json:"details"`
	LastChecked time.Time              `json:"last_checked"`
}

var (
	jsonOutput bool

	rootCmd = &cobra.Command{
		Use:   "discover",
		Short: "Device discovery and health check for the IoT integration",
		Long:  `Checks the Hubitat hub, the OpenWeatherMap API and the Govee device API with the configured credentials, and reports what is ready for integration.`,
		RunE:  runDiscovery,
	}
)

func init() {
	cobra.OnInitialize(func() {
		_ = godotenv.Load()
		viper.AutomaticEnv()
	})
	rootCmd.Flags().BoolVar(&jsonOutput, "json", false, "emit results as JSON")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runDiscovery(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logg, err := logger.New("production", "discover")
	if err != nil {
		return err
	}
	defer logg.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	devices := []DeviceStatus{
		checkHubitat(ctx, cfg),
		checkWeather(ctx, cfg, logg),
		checkGovee(ctx, cfg, logg),
	}

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(devices)
	}
	printResults(devices)
	return nil
}

func checkHubitat(ctx context.Context, cfg *config.Config) DeviceStatus {
	ds := DeviceStatus{
		Name:        "Hubitat Hub",
		Type:        "hub",
		Address:     cfg.HubitatIP,
		Details:     map[string]interface{}{},
		LastChecked: time.Now().UTC(),
	}

	client, err := hubitat.NewClient(cfg)
	if err != nil {
		ds.Status = "error"
		ds.Address = "unknown"
		ds.Details["error"] = err.Error()
		return ds
	}
	ds.Details["has_credentials"] = true

	// Basic reachability before the API call.
	if open, detail := checkPort(cfg.HubitatIP, 80, 3*time.Second); !open {
		ds.Status = "offline"
		ds.Details["port_80"] = detail
		return ds
	}

	status := client.CheckConnectivity(ctx)
	ds.Details["hub"] = status
	if status["status"] == "online" {
		ds.Status = "online"
		ds.Details["api_status"] = "success"
		ds.Details["device_count"] = status["device_count"]
		if devices, err := client.AllDevices(ctx); err == nil {
			var sensors []string
			for _, d := range devices {
				if hasSensorCapability(d) {
					sensors = append(sensors, d.Label)
				}
			}
			ds.Details["sensor_devices"] = sensors
			ds.Details["sensor_device_count"] = len(sensors)
		}
	} else {
		// Credentials present but the API call failed; reported as a plain
		// error either way, auth and network failures are not distinguished.
		ds.Status = "error"
		ds.Details["api_status"] = "failed"
	}
	return ds
}

func checkWeather(ctx context.Context, cfg *config.Config, logg *logger.Logger) DeviceStatus {
	ds := DeviceStatus{
		Name:    "OpenWeatherMap API",
		Type:    "external_api",
		Address: "api.openweathermap.org",
		Details: map[string]interface{}{
			"latitude":  cfg.Latitude,
			"longitude": cfg.Longitude,
		},
		LastChecked: time.Now().UTC(),
	}

	client, err := weather.NewClient(cfg, logg)
	if err != nil {
		ds.Status = "error"
		ds.Details["error"] = err.Error()
		return ds
	}

	reading := client.Current(ctx, false)
	if reading.Status == "success" {
		ds.Status = "online"
		ds.Details["api_status"] = "success"
		ds.Details["location"] = reading.Location
		ds.Details["current_temp"] = reading.Temperature
		ds.Details["current_humidity"] = reading.Humidity
	} else {
		ds.Status = "error"
		ds.Details["api_status"] = "failed"
		ds.Details["error"] = reading.Message
	}
	return ds
}

func checkGovee(ctx context.Context, cfg *config.Config, logg *logger.Logger) DeviceStatus {
	ds := DeviceStatus{
		Name:        "Govee Device",
		Type:        "sensor",
		Address:     "openapi.api.govee.com",
		Details:     map[string]interface{}{},
		LastChecked: time.Now().UTC(),
	}

	client, err := govee.NewClient(cfg, logg)
	if err != nil {
		ds.Status = "error"
		ds.Details["error"] = err.Error()
		return ds
	}

	reading := client.DeviceState(ctx, false)
	if reading.Status == "success" {
		ds.Status = "online"
		ds.Details["api_status"] = "success"
		ds.Details["temperature"] = reading.Temperature
		ds.Details["humidity"] = reading.Humidity
		ds.Details["battery_level"] = reading.BatteryLevel
	} else {
		ds.Status = "error"
		ds.Details["api_status"] = "failed"
		ds.Details["error"] = reading.Message
	}
	return ds
}

func hasSensorCapability(d hubitat.Device) bool {
	for _, c := range d.Capabilities {
		if c == "TemperatureMeasurement" || c == "RelativeHumidityMeasurement" {
			return true
		}
	}
	return false
}

func checkPort(host string, port int, timeout time.Duration) (bool, map[string]interface{}) {
	addr := fmt.Sprintf("%s:%d", host, port)
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return false, map[string]interface{}{"host": host, "port": port, "status": "closed", "error": err.Error()}
	}
	conn.Close()
	return true, map[string]interface{}{"host": host, "port": port, "status": "open"}
}

func printResults(devices []DeviceStatus) {
	fmt.Println("DISCOVERY RESULTS")
	fmt.Println("==================================================")

	counts := map[string]int{}
	for _, d := range devices {
		counts[d.Status]++

		fmt.Printf("\n[%s] %s (%s)\n", d.Status, d.Name, d.Type)
		fmt.Printf("   Address: %s\n", d.Address)
		if errMsg, ok := d.Details["error"]; ok {
			fmt.Printf("   WARNING: %v\n", errMsg)
		}
		if count, ok := d.Details["device_count"]; ok {
			fmt.Printf("   Devices: %v\n", count)
		}
		if sensors, ok := d.Details["sensor_devices"].([]string); ok {
			for _, s := range sensors {
				fmt.Printf("   Sensor: %s\n", s)
			}
		}
	}

	fmt.Println("\nSUMMARY")
	fmt.Printf("Online: %d  Offline: %d  Errors: %d  Total: %d\n",
		counts["online"], counts["offline"], counts["error"], len(devices))

	if counts["online"] == len(devices) {
		fmt.Println("\nAll devices ready, proceed with service integration.")
	} else {
		fmt.Println("\nFix the items above and run discovery again before starting the services.")
	}
}
