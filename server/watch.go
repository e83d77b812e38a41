package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jonwraymond/l1fee/cache"
	"github.com/jonwraymond/l1fee/fee"
	"github.com/jonwraymond/l1fee/observe"
)

// WatchConfig tunes the websocket watch stream.
type WatchConfig struct {
	PingInterval time.Duration `yaml:"ping_interval"`
	PongWait     time.Duration `yaml:"pong_wait"`
	WriteWait    time.Duration `yaml:"write_wait"`
	ReadLimit    int64         `yaml:"read_limit"`
}

// DefaultWatchConfig returns the default stream timings.
func DefaultWatchConfig() WatchConfig {
	return WatchConfig{
		PingInterval: 30 * time.Second,
		PongWait:     60 * time.Second,
		WriteWait:    10 * time.Second,
		ReadLimit:    64 << 10,
	}
}

func (c WatchConfig) withDefaults() WatchConfig {
	d := DefaultWatchConfig()
	if c.PingInterval <= 0 {
		c.PingInterval = d.PingInterval
	}
	if c.PongWait <= c.PingInterval {
		c.PongWait = 2 * c.PingInterval
	}
	if c.WriteWait <= 0 {
		c.WriteWait = d.WriteWait
	}
	if c.ReadLimit <= 0 {
		c.ReadLimit = d.ReadLimit
	}
	return c
}

// StatusRejected marks a client frame that could not be decoded.
const StatusRejected = "rejected"

// WatchFrame is one message sent to a watch subscriber.
type WatchFrame struct {
	Key    string  `json:"key,omitempty"`
	Status string  `json:"status"`
	L1Gas  fee.Fee `json:"l1Gas"`
	Error  string  `json:"error,omitempty"`
}

func frameOf(obs cache.Observation[fee.Fee]) WatchFrame {
	f := WatchFrame{Key: obs.Key.String(), Status: obs.Status.String(), L1Gas: obs.Value}
	if obs.Err != nil {
		f.Error = obs.Err.Error()
	}
	return f
}

// handleWatch upgrades to a websocket. Each text frame the client sends is
// a fee.Args; the server answers with a WatchFrame whenever the fee for the
// latest input settles.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) error {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		return nil
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	args := make(chan fee.Args)
	rejects := make(chan WatchFrame, 1)
	go s.readWatch(ctx, cancel, conn, args, rejects)

	s.writeWatch(ctx, conn, s.est.Watch(ctx, args), rejects)
	return nil
}

// readWatch feeds client frames into args until the connection fails.
func (s *Server) readWatch(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, args chan<- fee.Args, rejects chan<- WatchFrame) {
	defer cancel()
	defer close(args)

	conn.SetReadLimit(s.watch.ReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(s.watch.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(s.watch.PongWait))
	})

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug(ctx, "watch stream closed", observe.F("error", err))
			}
			return
		}
		a, err := decodeArgs(msg)
		if err != nil {
			select {
			case rejects <- WatchFrame{Status: StatusRejected, Error: err.Error()}:
			case <-ctx.Done():
				return
			}
			continue
		}
		select {
		case args <- a:
		case <-ctx.Done():
			return
		}
	}
}

func decodeArgs(msg []byte) (fee.Args, error) {
	var a fee.Args
	if err := ParseJSON(bytes.NewReader(msg), &a); err != nil {
		return fee.Args{}, err
	}
	if a.ChainID == 0 {
		return fee.Args{}, ErrMissingChain
	}
	return a, nil
}

// writeWatch is the only writer on conn.
func (s *Server) writeWatch(ctx context.Context, conn *websocket.Conn, obs <-chan cache.Observation[fee.Fee], rejects <-chan WatchFrame) {
	ticker := time.NewTicker(s.watch.PingInterval)
	defer ticker.Stop()

	write := func(frame *WatchFrame) error {
		_ = conn.SetWriteDeadline(time.Now().Add(s.watch.WriteWait))
		if frame == nil {
			return conn.WriteMessage(websocket.PingMessage, nil)
		}
		return conn.WriteJSON(frame)
	}

	for {
		var err error
		select {
		case o, ok := <-obs:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(s.watch.WriteWait))
				return
			}
			frame := frameOf(o)
			err = write(&frame)
		case frame := <-rejects:
			err = write(&frame)
		case <-ticker.C:
			err = write(nil)
		case <-ctx.Done():
			return
		}
		if err != nil {
			if !errors.Is(err, websocket.ErrCloseSent) {
				s.logger.Debug(ctx, "watch write failed", observe.F("error", err))
			}
			return
		}
	}
}
