package ws

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 45 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 16
)

// EventSink receives transport events. The session registry implements it.
type EventSink interface {
	HandleReady()
	HandleConnect(deviceID int)
	HandleDisconnect(deviceID int)
	HandleMessage(deviceID int, payload []byte)
	HandleProfileChange(deviceID int)
}

type Client struct {
	conn     *websocket.Conn
	send     chan []byte
	id       int
	nickname string
}

// Server is the websocket device channel. It assigns device ids, feeds
// connect/disconnect/message/profile events into the sink, and fans the
// shared state document out to every connected device.
type Server struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	sink    EventSink
	clients map[int]*Client
	nextID  int
	ready   bool
}

func NewServer() *Server {
	return &Server{
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients:  map[int]*Client{},
	}
}

// Attach wires the event sink. Must happen before the first connection.
func (s *Server) Attach(sink EventSink) {
	s.mu.Lock()
	s.sink = sink
	s.mu.Unlock()
}

// Start marks the channel ready for broadcasts and notifies the sink so a
// deferred publish can flush.
func (s *Server) Start() {
	s.mu.Lock()
	if s.ready {
		s.mu.Unlock()
		return
	}
	s.ready = true
	sink := s.sink
	s.mu.Unlock()
	if sink != nil {
		sink.HandleReady()
	}
}

// Ready reports whether broadcasts can be carried yet.
func (s *Server) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// SetSharedState pushes the opaque state document to every device, framed
// as a state message. Slow clients are dropped rather than blocked on.
func (s *Server) SetSharedState(blob string) {
	msg, err := json.Marshal(StateMessage{Type: "state", State: json.RawMessage(blob)})
	if err != nil {
		log.Error().Err(err).Msg("frame state message failed")
		return
	}
	s.mu.Lock()
	for _, c := range s.clients {
		safeSend(c.send, msg)
	}
	s.mu.Unlock()
}

// DisconnectAll closes every device connection. Each close lands in the
// connection's read loop, which unregisters the client and reports the
// disconnect to the sink.
func (s *Server) DisconnectAll() {
	s.mu.Lock()
	clients := make([]*Client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()
	for _, c := range clients {
		safeClose(c.send)
		_ = c.conn.Close()
	}
	if len(clients) > 0 {
		log.Info().Int("count", len(clients)).Msg("device channels dropped")
	}
}

// Nickname returns the device's display name, empty when unknown.
func (s *Server) Nickname(deviceID int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.clients[deviceID]; ok {
		return c.nickname
	}
	return ""
}

// HandleWS upgrades a device connection, assigns it an id, and runs the
// read loop until the device goes away.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	s.mu.Lock()
	sink := s.sink
	s.nextID++
	client := &Client{
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		id:       s.nextID,
		nickname: strings.TrimSpace(r.URL.Query().Get("nickname")),
	}
	s.clients[client.id] = client
	s.mu.Unlock()

	if sink == nil {
		log.Error().Msg("websocket connection before sink attached")
		_ = conn.Close()
		return
	}

	go s.writeLoop(client)
	welcome, _ := json.Marshal(WelcomeMessage{Type: "welcome", DeviceID: client.id})
	safeSend(client.send, welcome)

	log.Info().Int("device_id", client.id).Str("nickname", client.nickname).Msg("device channel open")
	sink.HandleConnect(client.id)
	s.readLoop(client, sink)
}

func (s *Server) readLoop(c *Client, sink EventSink) {
	defer func() {
		s.unregister(c)
		sink.HandleDisconnect(c.id)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Int("device_id", c.id).Msg("device channel read error")
			}
			return
		}
		var base struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(msg, &base); err != nil {
			log.Debug().Int("device_id", c.id).Msg("unparsable device message")
			continue
		}
		switch base.Type {
		case msgKey, msgAxis:
			sink.HandleMessage(c.id, msg)
		case msgProfile:
			var profile ProfileMessage
			if err := json.Unmarshal(msg, &profile); err != nil {
				continue
			}
			s.mu.Lock()
			c.nickname = strings.TrimSpace(profile.Nickname)
			s.mu.Unlock()
			sink.HandleProfileChange(c.id)
		default:
			log.Debug().Int("device_id", c.id).Str("type", base.Type).Msg("unknown device message type")
		}
	}
}

func (s *Server) writeLoop(c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteControl(websocket.CloseMessage, nil, time.Now().Add(writeWait))
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) unregister(c *Client) {
	s.mu.Lock()
	if s.clients[c.id] == c {
		delete(s.clients, c.id)
	}
	s.mu.Unlock()
	safeClose(c.send)
	log.Info().Int("device_id", c.id).Msg("device channel closed")
}

func safeClose(ch chan []byte) {
	defer func() {
		_ = recover()
	}()
	close(ch)
}

func safeSend(ch chan []byte, msg []byte) {
	defer func() {
		_ = recover()
	}()
	select {
	case ch <- msg:
	default:
	}
}
