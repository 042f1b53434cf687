package monitor

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	MessageTypeText   = websocket.TextMessage
	MessageTypeBinary = websocket.BinaryMessage
	MessageTypeClose  = websocket.CloseMessage
	MessageTypePing   = websocket.PingMessage
	MessageTypePong   = websocket.PongMessage
)

// how often the live feed pushes a fresh snapshot
const pushInterval = 2 * time.Second
