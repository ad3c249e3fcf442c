// config.go: settings structs and configuration loading for wastenet-go.
package conf

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/hqnguyen/wastenet-go/internal/errors"
)

// LogConfig contains settings for a rotating log file.
type LogConfig struct {
	Enabled bool   // true to write a log file for the service
	Path    string // path to the log file
}

// MainSettings contains general application settings.
type MainSettings struct {
	Name string    // node name, included in submissions and logs
	Log  LogConfig // main log file settings
}

// WebServerSettings contains settings for the backend HTTP server.
type WebServerSettings struct {
	Enabled   bool   // true to enable the backend web server
	Port      string // port to listen on
	MediaPath string // directory for stored detection images
	Log       LogConfig
}

// SQLiteSettings contains SQLite database settings.
type SQLiteSettings struct {
	Enabled bool
	Path    string // path to the SQLite database file
}

// MySQLSettings contains MySQL database settings.
type MySQLSettings struct {
	Enabled  bool
	Username string
	Password string
	Database string
	Host     string
	Port     string
}

// OutputSettings groups the persistence backends; exactly one is expected
// to be enabled.
type OutputSettings struct {
	SQLite SQLiteSettings
	MySQL  MySQLSettings
}

// SerialSettings contains settings for the microcontroller link.
type SerialSettings struct {
	Port     string // serial device, e.g. /dev/ttyUSB0
	BaudRate int
}

// CameraSettings contains settings for still and preview frame capture.
type CameraSettings struct {
	Tool   string // capture binary, e.g. rpicam-still
	Width  int
	Height int
}

// PreviewSettings contains settings for the device MJPEG preview stream.
type PreviewSettings struct {
	Enabled bool
	Port    string
	FPS     int
}

// ClassifierSettings contains settings for the waste classifier model.
type ClassifierSettings struct {
	ModelPath string   // path to the .tflite model file
	Labels    []string // category labels in model output order
	Threads   int      // interpreter threads, 0 for automatic
}

// BackendSettings describe where the edge device submits detections.
type BackendSettings struct {
	URL     string        // ingest endpoint URL
	Timeout time.Duration // submission timeout
}

// RealtimeSettings contains settings for the edge detection loop.
type RealtimeSettings struct {
	SettleDelay time.Duration // pause between trigger and capture
	Serial      SerialSettings
	Camera      CameraSettings
	Preview     PreviewSettings
	Classifier  ClassifierSettings
	Backend     BackendSettings
}

// MQTTSettings contains settings for optional detection publication.
type MQTTSettings struct {
	Enabled  bool
	Broker   string // broker URL, e.g. tcp://localhost:1883
	Topic    string
	Username string
	Password string
	Retain   bool
}

// Settings is the root configuration of the application.
type Settings struct {
	Debug bool

	Main      MainSettings
	WebServer WebServerSettings
	Output    OutputSettings
	Realtime  RealtimeSettings
	MQTT      MQTTSettings
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Setting returns the current settings instance, or nil before Load.
func Setting() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Load reads the configuration file and environment into a Settings struct
// and stores it as the package-wide instance.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the
// configuration file, creating one with defaults if none exists.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return err
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if stderrors.As(err, &configFileNotFoundError) {
			return createDefaultConfig(configPaths)
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig writes the default configuration to the first config
// path so the next run has an editable file.
func createDefaultConfig(configPaths []string) error {
	if len(configPaths) == 0 {
		return errors.NewStd("no config paths available")
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")

	if err := os.MkdirAll(configPaths[0], 0o755); err != nil {
		return errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("path", configPaths[0]).
			Build()
	}

	content, err := yaml.Marshal(viper.AllSettings())
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("operation", "marshal-default-config").
			Build()
	}

	if err := os.WriteFile(configPath, content, 0o644); err != nil {
		return errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("path", configPath).
			Build()
	}

	return nil
}

// GetDefaultConfigPaths returns the OS specific config search paths, most
// specific first.
func GetDefaultConfigPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategorySystem).
			Context("operation", "get-home-directory").
			Build()
	}

	var configPaths []string
	switch runtime.GOOS {
	case "windows":
		configPaths = []string{
			filepath.Join(homeDir, "AppData", "Roaming", "wastenet-go"),
			".",
		}
	default:
		configPaths = []string{
			filepath.Join(homeDir, ".config", "wastenet-go"),
			"/etc/wastenet-go",
			".",
		}
	}

	return configPaths, nil
}

// GetBasePath expands a possibly relative directory against the working
// directory and ensures it exists.
func GetBasePath(path string) string {
	if path == "" {
		path = "."
	}
	if !filepath.IsAbs(path) {
		if wd, err := os.Getwd(); err == nil {
			path = filepath.Join(wd, path)
		}
	}
	_ = os.MkdirAll(path, 0o755)
	return path
}
