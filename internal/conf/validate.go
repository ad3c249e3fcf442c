package conf

import (
	"fmt"

	"github.com/hqnguyen/wastenet-go/internal/errors"
)

// ValidateSettings checks the loaded configuration for contradictions that
// would only surface later as runtime failures.
func ValidateSettings(settings *Settings) error {
	if settings.Output.SQLite.Enabled && settings.Output.MySQL.Enabled {
		return errors.NewStd("both sqlite and mysql outputs are enabled, pick one")
	}

	if settings.WebServer.Enabled {
		if settings.WebServer.Port == "" {
			return errors.NewStd("webserver.port must be set when the web server is enabled")
		}
		if !settings.Output.SQLite.Enabled && !settings.Output.MySQL.Enabled {
			return errors.NewStd("no database output enabled, the web server requires one")
		}
	}

	if len(settings.Realtime.Classifier.Labels) == 0 {
		return errors.NewStd("realtime.classifier.labels must not be empty")
	}

	if settings.Realtime.Backend.Timeout <= 0 {
		return fmt.Errorf("realtime.backend.timeout must be positive, got %v", settings.Realtime.Backend.Timeout)
	}

	if settings.Realtime.Serial.BaudRate <= 0 {
		return fmt.Errorf("realtime.serial.baudrate must be positive, got %d", settings.Realtime.Serial.BaudRate)
	}

	return nil
}
