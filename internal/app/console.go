package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/fall_detector/internal/alert"
	"github.com/relabs-tech/fall_detector/internal/config"
	"github.com/relabs-tech/fall_detector/internal/detector"
	"github.com/relabs-tech/fall_detector/internal/imu"
)

// RunConsole subscribes to the detector topics and prints live scores,
// raw samples and fall alerts to stdout.
func RunConsole() error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	// Subscribe to score stream
	scoreToken := client.Subscribe(cfg.TopicScore, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var r detector.Result
		if err := json.Unmarshal(msg.Payload(), &r); err != nil {
			log.Printf("console: score unmarshal error: %v", err)
			return
		}
		fmt.Printf("[SCORE] |a|=%6.3fg  |w|=%6.1f°/s  score=%.2f  active=%v\n",
			r.AccelMag, r.GyroMag, r.Score, r.Active)
	})
	scoreToken.Wait()
	if scoreToken.Error() != nil {
		return scoreToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicScore)

	// Subscribe to raw samples
	imuToken := client.Subscribe(cfg.TopicIMU, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s imu.Sample
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("console: imu unmarshal error: %v", err)
			return
		}
		fmt.Printf("[IMU]   ax=%+.3f ay=%+.3f az=%+.3f  gx=%+.1f gy=%+.1f gz=%+.1f\n",
			s.Ax, s.Ay, s.Az, s.Gx, s.Gy, s.Gz)
	})
	imuToken.Wait()
	if imuToken.Error() != nil {
		return imuToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicIMU)

	// Subscribe to fall alerts
	fallToken := client.Subscribe(cfg.TopicFall, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var a alert.FallAlert
		if err := json.Unmarshal(msg.Payload(), &a); err != nil {
			log.Printf("console: fall unmarshal error: %v", err)
			return
		}
		fmt.Printf("[FALL]  %s  score=%.2f  impact=%.2fg  omega=%.0f°/s",
			a.Time.Format("15:04:05.000"), a.Score, a.ImpactG, a.OmegaPeak)
		if a.GPS != nil {
			fmt.Printf("  at %.5f,%.5f", a.GPS.Latitude, a.GPS.Longitude)
		}
		fmt.Println()
	})
	fallToken.Wait()
	if fallToken.Error() != nil {
		return fallToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicFall)

	// Block until Ctrl+C
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	client.Disconnect(250)
	log.Println("console: disconnected")
	return nil
}
