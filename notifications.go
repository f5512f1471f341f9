package parley

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/parleyhq/parley-go/internal/requestconfig"
	"github.com/parleyhq/parley-go/option"
)

// Notification types pushed by the server over the room event feed.
const (
	NotificationRoomUpdated   = "room_updated"
	NotificationRoomStarted   = "room_started"
	NotificationRoomStopped   = "room_stopped"
	NotificationRoomCancelled = "room_cancelled"
)

// RoomNotification is a server-pushed room change. Data carries the touched
// fields of the room as a partial record, keyed by wire field name.
type RoomNotification struct {
	Type     string         `json:"type"`
	RoomUUID string         `json:"roomUUID"`
	Data     map[string]any `json:"data"`
}

// NotificationSocket is a live connection to the room event feed.
type NotificationSocket struct {
	conn           *websocket.Conn
	mu             sync.RWMutex
	closed         bool
	messageHandler func(RoomNotification)
	errorHandler   func(error)
}

func (ws *NotificationSocket) Close() error {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.closed {
		return nil
	}

	ws.closed = true
	return ws.conn.Close()
}

func (ws *NotificationSocket) SetMessageHandler(handler func(RoomNotification)) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.messageHandler = handler
}

func (ws *NotificationSocket) SetErrorHandler(handler func(error)) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.errorHandler = handler
}

// Listen reads notifications until the context is cancelled or the
// connection drops, dispatching each message to the registered handler.
func (ws *NotificationSocket) Listen(ctx context.Context) error {
	defer ws.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			var msg RoomNotification
			err := ws.conn.ReadJSON(&msg)
			if err != nil {
				ws.mu.RLock()
				onError := ws.errorHandler
				ws.mu.RUnlock()
				if onError != nil {
					onError(err)
				}
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					return fmt.Errorf("websocket read error: %w", err)
				}
				return err
			}

			ws.mu.RLock()
			handler := ws.messageHandler
			ws.mu.RUnlock()

			if handler != nil {
				handler(msg)
			}
		}
	}
}

// ConnectNotificationSocket dials the room event feed, reusing the client's
// configured base URL, headers and cookies.
func (c *Client) ConnectNotificationSocket(ctx context.Context, opts ...option.RequestOption) (*NotificationSocket, error) {
	opts = append(c.Options, opts...)

	cfg, err := requestconfig.NewRequestConfig(ctx, http.MethodGet, "", nil, nil, opts...)
	if err != nil {
		return nil, err
	}

	baseURL := cfg.BaseURL
	if baseURL == nil {
		baseURL = cfg.DefaultBaseURL
	}
	if baseURL == nil {
		return nil, fmt.Errorf("base URL is not configured")
	}

	// Convert http(s) to ws(s)
	wsURL := baseURL.String()
	if after, ok := strings.CutPrefix(wsURL, "https://"); ok {
		wsURL = "wss://" + after
	} else if after, ok := strings.CutPrefix(wsURL, "http://"); ok {
		wsURL = "ws://" + after
	}

	path := fmt.Sprintf("%s/rooms/notifications/ws", strings.TrimSuffix(wsURL, "/"))

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	headers := http.Header{}
	for key, values := range cfg.Request.Header {
		for _, value := range values {
			headers.Add(key, value)
		}
	}
	if cfg.BearerToken != "" {
		headers.Set("Authorization", "Bearer "+cfg.BearerToken)
	}

	conn, _, err := dialer.DialContext(ctx, path, headers)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to notification websocket: %w", err)
	}

	return &NotificationSocket{conn: conn}, nil
}
