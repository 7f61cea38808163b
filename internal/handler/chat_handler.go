package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"portfolio-go/internal/chat"
	"portfolio-go/internal/model"
	"portfolio-go/pkg/log"
)

var (
	upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true // 跨域由 CORS 中间件控制
		},
	}
)

// ChatHandler 负责访客聊天助手的 HTTP 与 WebSocket 接口。
type ChatHandler struct {
	engine *chat.Engine
}

// NewChatHandler 创建一个新的 ChatHandler。
func NewChatHandler(engine *chat.Engine) *ChatHandler {
	return &ChatHandler{engine: engine}
}

// ChatRequest 是 POST /chatbot 的请求体。
type ChatRequest struct {
	Message     string      `json:"message"`
	SessionID   string      `json:"sessionId"`
	Type        string      `json:"type"`
	ProjectData *model.Lead `json:"projectData"`
}

func replyTexts(res chat.Result) []string {
	out := make([]string, len(res.Replies))
	for i, r := range res.Replies {
		out[i] = r.Text
	}
	return out
}

// Post 处理一条访客消息，一次性返回所有回复。
// type=project_inquiry 且携带 projectData 时直接提交线索，不经过对话状态机。
func (h *ChatHandler) Post(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is required"})
		return
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	if req.Type == string(chat.ModeProjectInquiry) && req.ProjectData != nil {
		if err := h.engine.SubmitLead(c.Request.Context(), sessionID, *req.ProjectData); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"reply": "Project inquiry submitted!", "success": true})
		return
	}

	res, err := h.engine.Handle(c.Request.Context(), sessionID, req.Message, nil)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reply":     res.Text(),
		"replies":   replyTexts(res),
		"mode":      res.Mode,
		"step":      res.Step,
		"sessionId": sessionID,
	})
}

// Session 返回会话的当前状态和完整记录，新会话包含欢迎语。
func (h *ChatHandler) Session(c *gin.Context) {
	sessionID := c.Query("sessionId")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sessionId is required"})
		return
	}
	state, err := h.engine.State(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sessionId":  sessionID,
		"mode":       state.Mode,
		"step":       state.Step,
		"transcript": state.Transcript,
	})
}

// wsConn 封装一个连接的 JSON 写入。所有写入都发生在读循环所在的 goroutine 中。
type wsConn struct {
	conn *websocket.Conn
}

func (w wsConn) send(payload gin.H) bool {
	b, err := json.Marshal(payload)
	if err != nil {
		log.Error("序列化 WebSocket 消息失败", err)
		return false
	}
	if err := w.conn.WriteMessage(websocket.TextMessage, b); err != nil {
		log.Warnf("写入 WebSocket 消息失败: %v", err)
		return false
	}
	return true
}

func (w wsConn) typing(on bool) {
	w.send(gin.H{"type": "typing", "typing": on})
}

// sleep 等待 d，连接上下文取消时提前返回 false。
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// Stream 处理 WebSocket 聊天连接。客户端发送 {"message": "..."}，
// 服务端推送 typing、message 事件，每轮结束时推送 completion。
func (h *ChatHandler) Stream(c *gin.Context) {
	sessionID := c.Query("sessionId")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	defer conn.Close()
	ws := wsConn{conn: conn}
	ctx := c.Request.Context()

	log.Infow("聊天 WebSocket 连接已建立", "session", sessionID)
	if !ws.send(gin.H{"type": "session", "sessionId": sessionID}) {
		return
	}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warnf("从 WebSocket 读取消息失败: %v", err)
			}
			return
		}

		var in struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(raw, &in); err != nil || in.Message == "" {
			ws.send(gin.H{"type": "error", "error": "Message is required"})
			continue
		}

		res, err := h.engine.Handle(ctx, sessionID, in.Message, ws.typing)
		if err != nil {
			log.Errorw("处理聊天消息失败", "session", sessionID, "error", err)
			ws.send(gin.H{"type": "error", "error": "Please try again in a moment."})
			continue
		}

		for _, rep := range res.Replies {
			if rep.Delay > 0 {
				ws.typing(true)
				if !sleep(ctx, rep.Delay) {
					return
				}
				ws.typing(false)
			}
			if !ws.send(gin.H{"type": "message", "role": chat.RoleAssistant, "text": rep.Text}) {
				return
			}
		}
		ws.send(gin.H{
			"type":      "completion",
			"status":    "finished",
			"mode":      res.Mode,
			"step":      res.Step,
			"timestamp": time.Now().UnixMilli(),
		})
	}
}
