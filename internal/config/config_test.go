package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fall_config.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const validConfig = `# test config
MQTT_BROKER=tcp://localhost:1883
MQTT_CLIENT_ID_DETECTOR=fall-detector

TOPIC_SCORE=fall/score
TOPIC_FALL=fall/alert
TOPIC_IMU=fall/imu

IMU_I2C_ADDR=0x68
IMU_ACCEL_RANGE=1
IMU_GYRO_RANGE=2
IMU_SAMPLE_RATE_HZ=50

SCORE_HIGH=0.7
SCORE_LOW=0.5
CONFIRM_WINDOW_MS=200
IMPACT_MIN_G=1.6
REFRACTORY_SECONDS=5
`

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, "tcp://localhost:1883", cfg.MQTTBroker)
	assert.Equal(t, uint16(0x68), cfg.IMUI2CAddr)
	assert.Equal(t, byte(1), cfg.IMUAccelRange)
	assert.Equal(t, byte(2), cfg.IMUGyroRange)
	assert.Equal(t, 50, cfg.IMUSampleRateHz)
	assert.Equal(t, 0.7, cfg.ScoreHigh)
	assert.Equal(t, 0.5, cfg.ScoreLow)
	assert.Equal(t, 200, cfg.ConfirmWindowMS)
	assert.Equal(t, 1.6, cfg.ImpactMinG)
	assert.Equal(t, 5.0, cfg.RefractorySec)
}

func TestLoadUnknownKey(t *testing.T) {
	_, err := Load(writeConfig(t, validConfig+"BOGUS_KEY=1\n"))
	assert.ErrorContains(t, err, "unknown config key")
}

func TestLoadInvalidLine(t *testing.T) {
	_, err := Load(writeConfig(t, validConfig+"not a key value pair\n"))
	assert.Error(t, err)
}

func TestLoadBadI2CAddr(t *testing.T) {
	bad := "MQTT_BROKER=tcp://localhost:1883\nIMU_I2C_ADDR=0x50\n"
	_, err := Load(writeConfig(t, bad))
	assert.ErrorContains(t, err, "0x68 or 0x69")
}

func TestLoadRangeBounds(t *testing.T) {
	_, err := Load(writeConfig(t, validConfig+"IMU_ACCEL_RANGE=4\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, validConfig+"IMU_GYRO_RANGE=-1\n"))
	assert.Error(t, err)
}

func TestValidateThresholdOrdering(t *testing.T) {
	bad := validConfig + "SCORE_LOW=0.8\n"
	_, err := Load(writeConfig(t, bad))
	assert.ErrorContains(t, err, "SCORE_LOW")
}

func TestValidateRequiresBroker(t *testing.T) {
	_, err := Load(writeConfig(t, "IMU_I2C_ADDR=0x68\nIMU_SAMPLE_RATE_HZ=50\nSCORE_HIGH=0.7\nCONFIRM_WINDOW_MS=200\n"))
	assert.ErrorContains(t, err, "MQTT_BROKER")
}

func TestValidateGPSFields(t *testing.T) {
	_, err := Load(writeConfig(t, validConfig+"GPS_ENABLED=true\n"))
	assert.ErrorContains(t, err, "GPS_SERIAL_PORT")

	_, err = Load(writeConfig(t, validConfig+"GPS_ENABLED=true\nGPS_SERIAL_PORT=/dev/ttyAMA0\n"))
	assert.ErrorContains(t, err, "GPS_BAUD_RATE")

	cfg, err := Load(writeConfig(t, validConfig+"GPS_ENABLED=true\nGPS_SERIAL_PORT=/dev/ttyAMA0\nGPS_BAUD_RATE=9600\n"))
	require.NoError(t, err)
	assert.Equal(t, 9600, cfg.GPSBaudRate)
}

func TestMockModeSkipsI2CAddr(t *testing.T) {
	content := `MQTT_BROKER=tcp://localhost:1883
USE_MOCK_IMU=true
IMU_SAMPLE_RATE_HZ=50
SCORE_HIGH=0.7
SCORE_LOW=0.5
CONFIRM_WINDOW_MS=200
`
	cfg, err := Load(writeConfig(t, content))
	require.NoError(t, err)
	assert.True(t, cfg.UseMockIMU)
	assert.Zero(t, cfg.IMUI2CAddr)
}

func TestShippedConfigCoversScoringRanges(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "fall_config.txt"))
	require.NoError(t, err)

	// The scoring universes reach 3.5 g and 600 °/s; the shipped ranges
	// must not clip below that (±2g and ±250°/s would).
	assert.Equal(t, byte(1), cfg.IMUAccelRange, "±4g")
	assert.Equal(t, byte(2), cfg.IMUGyroRange, "±1000°/s")
}

func TestCommentsAndBlankLines(t *testing.T) {
	cfg, err := Load(writeConfig(t, "# leading comment\n\n"+validConfig))
	require.NoError(t, err)
	assert.Equal(t, "fall-detector", cfg.MQTTClientIDDetector)
}
