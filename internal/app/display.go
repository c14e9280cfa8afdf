package app

import (
	"encoding/json"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/fall_detector/internal/alert"
	"github.com/relabs-tech/fall_detector/internal/config"
	"github.com/relabs-tech/fall_detector/internal/detector"
)

// displayData holds the latest data for the status display.
type displayData struct {
	mu sync.RWMutex

	score     detector.Result
	haveScore bool

	lastFall     alert.FallAlert
	haveFall     bool
	fallBannerAt time.Time
}

// fallBannerDuration is how long the FALL banner stays on screen after an
// alert before the display returns to the live score view.
const fallBannerDuration = 10 * time.Second

func RunDisplay() error {
	cfg := config.Get()

	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	// Open I2C bus
	bus, err := i2creg.Open("")
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	// Initialize display
	addr := cfg.DisplayI2CAddr
	if addr == 0 {
		addr = 0x3C
	}
	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Printf("display: initialized at 0x%02X", addr)

	// Show splash screen
	if err := showSplash(dev); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	// Data storage
	data := &displayData{}

	// Connect to MQTT
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDDisplay)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("display: connected to MQTT broker at %s", cfg.MQTTBroker)

	// Subscribe to score stream
	scoreToken := client.Subscribe(cfg.TopicScore, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var r detector.Result
		if err := json.Unmarshal(msg.Payload(), &r); err != nil {
			log.Printf("display: score unmarshal error: %v", err)
			return
		}
		data.mu.Lock()
		data.score = r
		data.haveScore = true
		data.mu.Unlock()
	})
	scoreToken.Wait()
	if scoreToken.Error() != nil {
		return scoreToken.Error()
	}
	log.Printf("display: subscribed to %s", cfg.TopicScore)

	// Subscribe to fall alerts
	fallToken := client.Subscribe(cfg.TopicFall, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var a alert.FallAlert
		if err := json.Unmarshal(msg.Payload(), &a); err != nil {
			log.Printf("display: fall unmarshal error: %v", err)
			return
		}
		data.mu.Lock()
		data.lastFall = a
		data.haveFall = true
		data.fallBannerAt = time.Now()
		data.mu.Unlock()
	})
	fallToken.Wait()
	if fallToken.Error() != nil {
		return fallToken.Error()
	}
	log.Printf("display: subscribed to %s", cfg.TopicFall)

	// Display update loop
	interval := cfg.DisplayUpdateInterval
	if interval <= 0 {
		interval = 250
	}
	ticker := time.NewTicker(time.Duration(interval) * time.Millisecond)
	defer ticker.Stop()

	log.Println("display: starting update loop")

	for range ticker.C {
		data.mu.RLock()
		score := data.score
		haveScore := data.haveScore
		lastFall := data.lastFall
		showBanner := data.haveFall && time.Since(data.fallBannerAt) < fallBannerDuration
		data.mu.RUnlock()

		var err error
		if showBanner {
			err = updateFallDisplay(dev, lastFall)
		} else {
			err = updateScoreDisplay(dev, score, haveScore)
		}
		if err != nil {
			log.Printf("display: error updating display: %v", err)
		}
	}

	return nil
}

func updateScoreDisplay(dev *ssd1306.Dev, r detector.Result, haveData bool) error {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))

	// Blank image
	for i := 0; i < 1024; i++ {
		img.Pix[i] = 0
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	if !haveData {
		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte("Fall Detector"))
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte("Waiting..."))
	} else {
		drawer.Dot = fixed.P(0, 13)
		drawer.DrawBytes([]byte(fmt.Sprintf("Score: %.2f", r.Score)))

		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte(fmt.Sprintf("A: %5.2f g", r.AccelMag)))

		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte(fmt.Sprintf("W: %5.0f dps", r.GyroMag)))

		drawer.Dot = fixed.P(0, 52)
		if r.Active {
			drawer.DrawBytes([]byte("! ELEVATED !"))
		} else {
			drawer.DrawBytes([]byte("OK"))
		}
	}

	return dev.Draw(dev.Bounds(), img, image.Point{})
}

func updateFallDisplay(dev *ssd1306.Dev, a alert.FallAlert) error {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))

	// Blank image
	for i := 0; i < 1024; i++ {
		img.Pix[i] = 0
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	drawer.Dot = fixed.P(25, 13)
	drawer.DrawBytes([]byte("** FALL **"))

	drawer.Dot = fixed.P(0, 26)
	drawer.DrawBytes([]byte(a.Time.Format("15:04:05")))

	drawer.Dot = fixed.P(0, 39)
	drawer.DrawBytes([]byte(fmt.Sprintf("Impact %.2f g", a.ImpactG)))

	drawer.Dot = fixed.P(0, 52)
	if a.GPS != nil {
		drawer.DrawBytes([]byte(fmt.Sprintf("%.4f %.4f", a.GPS.Latitude, a.GPS.Longitude)))
	} else {
		drawer.DrawBytes([]byte(fmt.Sprintf("Score %.2f", a.Score)))
	}

	return dev.Draw(dev.Bounds(), img, image.Point{})
}

func showSplash(dev *ssd1306.Dev) error {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))

	// Blank image
	for i := 0; i < 1024; i++ {
		img.Pix[i] = 0
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	drawer.Dot = fixed.P(10, 26)
	drawer.DrawBytes([]byte("Fall Detector"))

	drawer.Dot = fixed.P(15, 43)
	drawer.DrawBytes([]byte("Starting..."))

	return dev.Draw(dev.Bounds(), img, image.Point{})
}
