// pad-bot is a scripted controller device for exercising a session server
// without a real phone: it connects, claims a slot, and mashes buttons.
package main

import (
	"encoding/json"
	"log"
	"math/rand"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"padlink/internal/config"
)

type keyMessage struct {
	Type    string `json:"type"`
	Control string `json:"control"`
	Pressed bool   `json:"pressed"`
}

type axisMessage struct {
	Type    string  `json:"type"`
	Control string  `json:"control"`
	Value   float64 `json:"value"`
}

var controls = []string{"up", "down", "left", "right", "a", "b"}

func main() {
	cfg, err := config.LoadBot()
	if err != nil {
		log.Fatal(err)
	}

	target, err := url.Parse(cfg.WSURL)
	if err != nil {
		log.Fatal(err)
	}
	q := target.Query()
	q.Set("nickname", cfg.Nickname)
	target.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(target.String(), nil)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	go func() {
		// Drain server frames; the bot only cares that the channel stays up.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if cfg.Claim {
		send(conn, keyMessage{Type: "key", Control: "claim", Pressed: true})
		send(conn, keyMessage{Type: "key", Control: "claim", Pressed: false})
	}

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	interval := time.Duration(cfg.IntervalMS) * time.Millisecond
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	held := map[string]bool{}
	for range ticker.C {
		control := controls[rnd.Intn(len(controls))]
		held[control] = !held[control]
		if err := send(conn, keyMessage{Type: "key", Control: control, Pressed: held[control]}); err != nil {
			return
		}
		if rnd.Intn(4) == 0 {
			if err := send(conn, axisMessage{Type: "axis", Control: "stick_x", Value: rnd.Float64()*2 - 1}); err != nil {
				return
			}
		}
	}
}

func send(conn *websocket.Conn, msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, payload)
}
