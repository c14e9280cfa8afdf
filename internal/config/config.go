package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string
	MQTTClientIDDetector string
	MQTTClientIDConsole  string
	MQTTClientIDWeb      string
	MQTTClientIDDisplay  string

	// Topics
	TopicScore string
	TopicFall  string
	TopicIMU   string
	TopicGPS   string

	// IMU Hardware
	IMUI2CBus  string // periph bus name, "" for the first available bus
	IMUI2CAddr uint16 // 0x68 (AD0 low) or 0x69 (AD0 high)

	// IMU Sensor Ranges
	// Accelerometer: 0=±2g, 1=±4g, 2=±8g, 3=±16g
	IMUAccelRange byte
	// Gyroscope: 0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s
	IMUGyroRange byte

	// Sampling
	IMUSampleRateHz int
	UseMockIMU      bool // synthetic samples instead of hardware

	// Fuzzy inference
	FuzzyParamsFile string // optional YAML file; empty uses built-in params

	// Decision thresholds
	ScoreHigh       float64 // activation threshold
	ScoreLow        float64 // release threshold (hysteresis)
	ConfirmWindowMS int     // score averaging window for confirmation
	ImpactMinG      float64 // required acceleration peak in the window
	RefractorySec   float64 // minimum spacing between fall events

	// GPS
	GPSEnabled    bool
	GPSSerialPort string
	GPSBaudRate   int

	// Event store
	EventDBPath string

	// Web Server
	WebServerPort int
	WebStaticDir  string

	// Display
	DisplayI2CAddr        uint16
	DisplayUpdateInterval int // milliseconds
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: unexported (lowercase) so other packages cannot access it directly.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: RWMutex protects concurrent access. Write lock for initialization,
//     read lock for Get() allows multiple concurrent readers.
//
// External code must use InitGlobal() to set and Get() to read, ensuring thread safety.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := &Config{}
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_DETECTOR":
		c.MQTTClientIDDetector = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value

	// Topics
	case "TOPIC_SCORE":
		c.TopicScore = value
	case "TOPIC_FALL":
		c.TopicFall = value
	case "TOPIC_IMU":
		c.TopicIMU = value
	case "TOPIC_GPS":
		c.TopicGPS = value

	// IMU Hardware
	case "IMU_I2C_BUS":
		c.IMUI2CBus = value
	case "IMU_I2C_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid IMU_I2C_ADDR %q: %w", value, err)
		}
		if addr != 0x68 && addr != 0x69 {
			return fmt.Errorf("IMU_I2C_ADDR must be 0x68 or 0x69, got 0x%02X", addr)
		}
		c.IMUI2CAddr = uint16(addr)

	// IMU Sensor Ranges
	case "IMU_ACCEL_RANGE":
		rangeVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid IMU_ACCEL_RANGE %q: %w", value, err)
		}
		if rangeVal < 0 || rangeVal > 3 {
			return fmt.Errorf("IMU_ACCEL_RANGE must be 0-3 (0=±2g, 1=±4g, 2=±8g, 3=±16g), got %d", rangeVal)
		}
		c.IMUAccelRange = byte(rangeVal)
	case "IMU_GYRO_RANGE":
		rangeVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid IMU_GYRO_RANGE %q: %w", value, err)
		}
		if rangeVal < 0 || rangeVal > 3 {
			return fmt.Errorf("IMU_GYRO_RANGE must be 0-3 (0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s), got %d", rangeVal)
		}
		c.IMUGyroRange = byte(rangeVal)

	// Sampling
	case "IMU_SAMPLE_RATE_HZ":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid IMU_SAMPLE_RATE_HZ %q: %w", value, err)
		}
		if rate < 1 || rate > 1000 {
			return fmt.Errorf("IMU_SAMPLE_RATE_HZ must be 1-1000, got %d", rate)
		}
		c.IMUSampleRateHz = rate
	case "USE_MOCK_IMU":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid USE_MOCK_IMU %q: %w", value, err)
		}
		c.UseMockIMU = b

	// Fuzzy inference
	case "FUZZY_PARAMS_FILE":
		c.FuzzyParamsFile = value

	// Decision thresholds
	case "SCORE_HIGH":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid SCORE_HIGH %q: %w", value, err)
		}
		if v <= 0 || v > 1 {
			return fmt.Errorf("SCORE_HIGH must be in (0,1], got %g", v)
		}
		c.ScoreHigh = v
	case "SCORE_LOW":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid SCORE_LOW %q: %w", value, err)
		}
		if v < 0 || v > 1 {
			return fmt.Errorf("SCORE_LOW must be in [0,1], got %g", v)
		}
		c.ScoreLow = v
	case "CONFIRM_WINDOW_MS":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid CONFIRM_WINDOW_MS %q: %w", value, err)
		}
		if ms <= 0 {
			return fmt.Errorf("CONFIRM_WINDOW_MS must be positive, got %d", ms)
		}
		c.ConfirmWindowMS = ms
	case "IMPACT_MIN_G":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid IMPACT_MIN_G %q: %w", value, err)
		}
		c.ImpactMinG = v
	case "REFRACTORY_SECONDS":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid REFRACTORY_SECONDS %q: %w", value, err)
		}
		c.RefractorySec = v

	// GPS
	case "GPS_ENABLED":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid GPS_ENABLED %q: %w", value, err)
		}
		c.GPSEnabled = b
	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid GPS_BAUD_RATE %q: %w", value, err)
		}
		c.GPSBaudRate = rate

	// Event store
	case "EVENT_DB_PATH":
		c.EventDBPath = value

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port
	case "WEB_STATIC_DIR":
		c.WebStaticDir = value

	// Display
	case "DISPLAY_I2C_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_I2C_ADDR %q: %w", value, err)
		}
		c.DisplayI2CAddr = uint16(addr)
	case "DISPLAY_UPDATE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_UPDATE_INTERVAL %q: %w", value, err)
		}
		c.DisplayUpdateInterval = interval

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set and consistent.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.IMUI2CAddr == 0 && !c.UseMockIMU {
		return fmt.Errorf("IMU_I2C_ADDR is required")
	}
	if c.IMUSampleRateHz == 0 {
		return fmt.Errorf("IMU_SAMPLE_RATE_HZ is required")
	}
	if c.ScoreHigh == 0 {
		return fmt.Errorf("SCORE_HIGH is required")
	}
	if c.ScoreLow >= c.ScoreHigh {
		return fmt.Errorf("SCORE_LOW (%g) must be below SCORE_HIGH (%g)", c.ScoreLow, c.ScoreHigh)
	}
	if c.ConfirmWindowMS == 0 {
		return fmt.Errorf("CONFIRM_WINDOW_MS is required")
	}
	if c.GPSEnabled {
		if c.GPSSerialPort == "" {
			return fmt.Errorf("GPS_SERIAL_PORT is required when GPS_ENABLED=true")
		}
		if c.GPSBaudRate == 0 {
			return fmt.Errorf("GPS_BAUD_RATE is required when GPS_ENABLED=true")
		}
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
