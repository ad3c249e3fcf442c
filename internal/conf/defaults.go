// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "WasteNet-Go")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "wastenet.log")

	viper.SetDefault("webserver.enabled", true)
	viper.SetDefault("webserver.port", "8000")
	viper.SetDefault("webserver.mediapath", "media/waste_images")
	viper.SetDefault("webserver.log.enabled", true)
	viper.SetDefault("webserver.log.path", "webserver.log")

	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "wastenet.db")
	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "wastenet")
	viper.SetDefault("output.mysql.password", "secret")
	viper.SetDefault("output.mysql.database", "wastenet")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")

	viper.SetDefault("realtime.settledelay", 2*time.Second)
	viper.SetDefault("realtime.serial.port", "/dev/ttyUSB0")
	viper.SetDefault("realtime.serial.baudrate", 9600)
	viper.SetDefault("realtime.camera.tool", "rpicam-still")
	viper.SetDefault("realtime.camera.width", 640)
	viper.SetDefault("realtime.camera.height", 480)
	viper.SetDefault("realtime.preview.enabled", true)
	viper.SetDefault("realtime.preview.port", "5000")
	viper.SetDefault("realtime.preview.fps", 30)
	viper.SetDefault("realtime.classifier.modelpath", "model/mobilenetv3_waste.tflite")
	viper.SetDefault("realtime.classifier.labels", []string{"glass", "metal", "paper", "plastic"})
	viper.SetDefault("realtime.classifier.threads", 0)
	viper.SetDefault("realtime.backend.url", "http://localhost:8000/api/v2/records")
	viper.SetDefault("realtime.backend.timeout", 5*time.Second)

	viper.SetDefault("mqtt.enabled", false)
	viper.SetDefault("mqtt.broker", "tcp://localhost:1883")
	viper.SetDefault("mqtt.topic", "wastenet/detections")
	viper.SetDefault("mqtt.username", "")
	viper.SetDefault("mqtt.password", "")
	viper.SetDefault("mqtt.retain", false)
}
