package ws

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/haihvite/printiful-bot/internal/logbus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// 面板和后端同源部署，简单放行即可。
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler 把 logbus 接到 WebSocket：连接先回放环形缓冲里的历史消息，
// 再持续推送新事件，前端无需轮询。
func Handler(bus *logbus.Bus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("ws: upgrade 失败: %v", err)
			return
		}
		defer conn.Close()

		for _, msg := range bus.Snapshot() {
			if err := writeMsg(conn, msg); err != nil {
				return
			}
		}

		ch, cancel := bus.Subscribe(128)
		defer cancel()

		// 客户端可能不发任何数据，读循环只用来感知断开。
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					cancel()
					return
				}
			}
		}()

		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if err := writeMsg(conn, msg); err != nil {
					return
				}
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}
}

func writeMsg(conn *websocket.Conn, msg logbus.Message) error {
	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteJSON(msg)
}
