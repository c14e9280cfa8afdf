package sensors

import (
	"github.com/relabs-tech/fall_detector/internal/config"
	"github.com/relabs-tech/fall_detector/internal/imu"
)

type imuSource struct {
	dev *MPU6050
}

// NewIMUSource initializes the MPU6050 from the global configuration and
// returns it as an imu.Source.
func NewIMUSource() (imu.Source, error) {
	cfg := config.Get()
	dev, err := NewMPU6050(cfg.IMUI2CBus, cfg.IMUI2CAddr, cfg.IMUAccelRange, cfg.IMUGyroRange)
	if err != nil {
		return nil, err
	}
	return &imuSource{dev: dev}, nil
}

func (s *imuSource) Next() (imu.Sample, error) {
	return s.dev.ReadSample()
}
