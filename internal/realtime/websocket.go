package realtime

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/shared-todo/internal/model"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 16 * 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ParseFilter reads ?table=todos&event=INSERT. event defaults to "*".
func ParseFilter(q url.Values) (Filter, error) {
	f := Filter{Table: q.Get("table"), Type: model.EventType(strings.ToUpper(q.Get("event")))}
	switch f.Type {
	case "", model.EventAll, model.EventInsert, model.EventUpdate, model.EventDelete:
	default:
		return f, fmt.Errorf("unknown event type %q", f.Type)
	}
	if f.Type == "" {
		f.Type = model.EventAll
	}
	return f, nil
}

// ServeWS streams matching hub events to a websocket client until either side closes.
func ServeWS(hub *Hub, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := ParseFilter(r.URL.Query())
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("failed to upgrade the websocket", zap.Error(err))
			return
		}
		defer ws.Close()

		sub := hub.Subscribe(filter)
		defer sub.Close()
		logger.Info("Realtime client connected",
			zap.String("table", filter.Table),
			zap.String("event", string(filter.Type)),
		)

		// The read pump only exists to notice pongs and the client going away.
		gone := make(chan struct{})
		go func() {
			defer close(gone)
			ws.SetReadLimit(512)
			ws.SetReadDeadline(time.Now().Add(pongWait))
			ws.SetPongHandler(func(string) error {
				return ws.SetReadDeadline(time.Now().Add(pongWait))
			})
			for {
				if _, _, err := ws.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ping := time.NewTicker(pingPeriod)
		defer ping.Stop()

		for {
			select {
			case <-gone:
				logger.Info("Realtime client disconnected")
				return
			case <-r.Context().Done():
				return
			case e, ok := <-sub.C:
				if !ok {
					ws.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseGoingAway, "subscription closed"),
						time.Now().Add(writeWait))
					return
				}
				ws.SetWriteDeadline(time.Now().Add(writeWait))
				if err := ws.WriteJSON(e); err != nil {
					logger.Warn("Failed to write WebSocket JSON", zap.Error(err))
					return
				}
			case <-ping.C:
				if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			}
		}
	}
}

// Subscriber is the client end of ServeWS. It does not reconnect.
type Subscriber struct {
	URL    string
	Dialer *websocket.Dialer
	Logger *zap.Logger
}

// Run dials, reports connected=true, forwards events to out until the
// connection ends or ctx is cancelled, then reports connected=false.
func (s *Subscriber) Run(ctx context.Context, out chan<- model.ChangeEvent, status func(connected bool)) error {
	dialer := s.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	ws, _, err := dialer.DialContext(ctx, s.URL, nil)
	if err != nil {
		return fmt.Errorf("dial realtime: %w", err)
	}
	defer ws.Close()

	if status != nil {
		status(true)
		defer status(false)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-done:
		case <-ctx.Done():
			ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			ws.Close()
		}
	}()

	for {
		var e model.ChangeEvent
		if err := ws.ReadJSON(&e); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read realtime: %w", err)
		}
		select {
		case out <- e:
		case <-ctx.Done():
			return nil
		}
	}
}

// SubscribeURL turns an http(s) server base URL into the realtime endpoint.
func SubscribeURL(base, table string, event model.EventType) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/") + "/api/realtime")
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	q := u.Query()
	q.Set("table", table)
	q.Set("event", string(event))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
