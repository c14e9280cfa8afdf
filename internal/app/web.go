package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/relabs-tech/fall_detector/internal/alert"
	"github.com/relabs-tech/fall_detector/internal/config"
	"github.com/relabs-tech/fall_detector/internal/detector"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local dashboard, same device
	},
}

// maxEventHistory bounds the in-memory fall history kept for the API.
const maxEventHistory = 100

// eventLimit parses the "n" query parameter of the events API. Missing,
// invalid or non-positive values fall back to 20; the result never
// exceeds the stored history, so it is safe as a slice capacity.
func eventLimit(q string) int {
	n := 20
	if q != "" {
		if v, err := strconv.Atoi(q); err == nil && v > 0 {
			n = v
		}
	}
	if n > maxEventHistory {
		n = maxEventHistory
	}
	return n
}

// wsHub fans score payloads out to connected websocket clients.
type wsHub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]bool
}

func newWSHub() *wsHub {
	return &wsHub{conns: make(map[*websocket.Conn]bool)}
}

func (h *wsHub) add(c *websocket.Conn) {
	h.mu.Lock()
	h.conns[c] = true
	h.mu.Unlock()
}

func (h *wsHub) remove(c *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()
	c.Close()
}

func (h *wsHub) broadcast(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns {
		if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
			delete(h.conns, c)
			c.Close()
		}
	}
}

// RunWeb serves the local dashboard: latest score and fall history as
// JSON, a websocket with the live score stream, Prometheus metrics and
// static files.
func RunWeb() error {
	var (
		mu        sync.RWMutex
		lastScore detector.Result
		haveScore bool
		events    []alert.FallAlert
	)

	cfg := config.Get()
	hub := newWSHub()

	// 1) Connect to MQTT broker
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDWeb)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: connected to MQTT broker at %s", cfg.MQTTBroker)

	// 2) Subscribe to the score stream
	token := client.Subscribe(cfg.TopicScore, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var r detector.Result
		if err := json.Unmarshal(msg.Payload(), &r); err != nil {
			log.Printf("web: score unmarshal error: %v", err)
			return
		}
		mu.Lock()
		lastScore = r
		haveScore = true
		mu.Unlock()
		hub.broadcast(msg.Payload())
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: subscribed to %s", cfg.TopicScore)

	// 3) Subscribe to fall alerts, keep a bounded in-memory history
	fallToken := client.Subscribe(cfg.TopicFall, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var a alert.FallAlert
		if err := json.Unmarshal(msg.Payload(), &a); err != nil {
			log.Printf("web: fall unmarshal error: %v", err)
			return
		}
		mu.Lock()
		events = append(events, a)
		if len(events) > maxEventHistory {
			events = events[len(events)-maxEventHistory:]
		}
		mu.Unlock()
	})
	fallToken.Wait()
	if fallToken.Error() != nil {
		return fallToken.Error()
	}
	log.Printf("web: subscribed to %s", cfg.TopicFall)

	// 4) JSON API: latest score
	http.HandleFunc("/api/score", func(w http.ResponseWriter, r *http.Request) {
		mu.RLock()
		defer mu.RUnlock()

		if !haveScore {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(lastScore); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	// 5) JSON API: fall history, newest first
	http.HandleFunc("/api/events", func(w http.ResponseWriter, r *http.Request) {
		n := eventLimit(r.URL.Query().Get("n"))

		mu.RLock()
		out := make([]alert.FallAlert, 0, n)
		for i := len(events) - 1; i >= 0 && len(out) < n; i-- {
			out = append(out, events[i])
		}
		mu.RUnlock()

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(out); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	// 6) Websocket: live score stream
	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("web: websocket upgrade error: %v", err)
			return
		}
		hub.add(conn)
		log.Printf("web: websocket client connected from %s", r.RemoteAddr)

		// Drain client messages until disconnect
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					hub.remove(conn)
					return
				}
			}
		}()
	})

	// 7) Prometheus metrics
	http.Handle("/metrics", promhttp.Handler())

	// 8) Static files
	staticDir := cfg.WebStaticDir
	if staticDir == "" {
		staticDir = "web"
	}
	http.Handle("/", http.FileServer(http.Dir(staticDir)))

	port := cfg.WebServerPort
	if port == 0 {
		port = 8080
	}
	addr := fmt.Sprintf(":%d", port)
	log.Printf("web server listening on %s", addr)
	return http.ListenAndServe(addr, nil)
}
