package channel

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"bankassist/internal/app"
	"bankassist/internal/chat"
	"bankassist/internal/domain"
	"bankassist/internal/metrics"
	"bankassist/internal/statement"
	"bankassist/internal/stats"
	"bankassist/internal/voice"
)

//go:embed web_assets/index.html
var indexHTML []byte

// WebConfig configures the embedded web client and its API.
type WebConfig struct {
	Host            string
	Port            int
	Stats           *stats.Adapter
	DefaultUserID   string
	Voice           voice.AudioProcessor // nil disables the voice socket
	Statement       *statement.Client    // nil disables statement analysis
	MetricsEnabled  bool
	MetricsEndpoint string
	Logger          *slog.Logger
}

// Web serves the browser client: static page, chat and statistics API, and
// the websocket endpoints for replies and voice.
type Web struct {
	cfg    WebConfig
	bus    domain.MessageBus
	router *app.Router
	logger *slog.Logger
	server *http.Server

	mu      sync.RWMutex
	clients map[string]*wsClient

	stagingMu sync.Mutex
	staging   map[string]*chat.Staging // per chat, at most one pending file
}

// wsClient tracks one connected reply socket.
type wsClient struct {
	conn   *websocket.Conn
	chatID string
	mu     sync.Mutex
}

// WSMessage is the JSON protocol on the reply socket.
type WSMessage struct {
	Type    string `json:"type"` // "message" | "status"
	Content string `json:"content,omitempty"`
	ChatID  string `json:"chat_id,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins (configure CORS for production)
	},
}

func NewWeb(cfg WebConfig) *Web {
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.MetricsEndpoint == "" {
		cfg.MetricsEndpoint = "/metrics"
	}
	return &Web{
		cfg:     cfg,
		router:  app.NewRouter(),
		logger:  cfg.Logger,
		clients: make(map[string]*wsClient),
		staging: make(map[string]*chat.Staging),
	}
}

func (w *Web) Name() string { return "web" }

// Start begins the HTTP server and blocks until the context is cancelled.
func (w *Web) Start(ctx context.Context, bus domain.MessageBus) error {
	w.bus = bus

	mux := http.NewServeMux()
	mux.HandleFunc("GET /", w.handleIndex)
	mux.HandleFunc("GET /healthz", w.handleHealth)
	mux.HandleFunc("POST /api/chat/send", w.handleChatSend)
	mux.HandleFunc("POST /api/chat/attach", w.handleChatAttach)
	mux.HandleFunc("GET /api/statistics", w.handleStatistics)
	mux.HandleFunc("GET /api/ui", w.handleUIState)
	mux.HandleFunc("POST /api/ui", w.handleUIChange)
	mux.HandleFunc("POST /api/ui/close", w.handleUIClose)
	mux.HandleFunc("/api/ws", w.handleReplySocket)
	if w.cfg.Statement != nil {
		mux.HandleFunc("POST /api/statement/analyze", w.handleStatementAnalyze)
	}
	if w.cfg.Voice != nil {
		mux.HandleFunc("/api/voice", w.handleVoiceSocket)
	}
	if w.cfg.MetricsEnabled {
		mux.HandleFunc("GET "+w.cfg.MetricsEndpoint, metrics.Collector.Handler())
	}

	w.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", w.cfg.Host, w.cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	bus.OnOutbound("web", func(msg domain.OutboundMessage) {
		w.broadcastToChat(msg.ChatID, WSMessage{
			Type:    "message",
			Content: msg.Content,
			ChatID:  msg.ChatID,
		})
	})

	w.logger.Info("web server starting", "addr", w.server.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := w.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		w.closeAllClients()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return w.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (w *Web) handleIndex(rw http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(rw, r)
		return
	}
	rw.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = rw.Write(indexHTML)
}

func (w *Web) handleHealth(rw http.ResponseWriter, r *http.Request) {
	writeJSON(rw, http.StatusOK, map[string]string{"status": "ok"})
}

type chatSendRequest struct {
	ChatID string `json:"chatId"`
	Text   string `json:"text"`
}

// handleChatSend enqueues one turn; the reply arrives on the chat's socket.
func (w *Web) handleChatSend(rw http.ResponseWriter, r *http.Request) {
	var req chatSendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(rw, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Text == "" {
		writeJSON(rw, http.StatusBadRequest, map[string]string{"error": "text is required"})
		return
	}
	if req.ChatID == "" {
		req.ChatID = "web-default"
	}

	msg := domain.InboundMessage{
		Channel:   "web",
		ChatID:    req.ChatID,
		SenderID:  "user",
		Content:   req.Text,
		Timestamp: time.Now(),
	}
	if sf := w.stagingFor(req.ChatID).Take(); sf != nil {
		ref := sf.Ref
		msg.File = &ref
		msg.FileData = sf.Data
	}

	w.bus.Publish(msg)
	writeJSON(rw, http.StatusAccepted, map[string]string{"status": "queued", "chatId": req.ChatID})
}

func (w *Web) stagingFor(chatID string) *chat.Staging {
	w.stagingMu.Lock()
	defer w.stagingMu.Unlock()
	s, ok := w.staging[chatID]
	if !ok {
		s = &chat.Staging{}
		w.staging[chatID] = s
	}
	return s
}

type attachResponse struct {
	Name    string `json:"name"`
	MIME    string `json:"mime"`
	Size    int64  `json:"size"`
	Preview string `json:"preview,omitempty"`
}

// handleChatAttach stages one file for the chat's next send. Attaching again
// before sending replaces the pending file.
func (w *Web) handleChatAttach(rw http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(rw, http.StatusBadRequest, map[string]string{"error": "file is required"})
		return
	}
	defer file.Close()

	chatID := r.FormValue("chatId")
	if chatID == "" {
		chatID = "web-default"
	}
	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = mime.TypeByExtension(filepath.Ext(header.Filename))
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	sf, err := w.stagingFor(chatID).Stage(header.Filename, mimeType, file)
	if err != nil {
		writeJSON(rw, http.StatusBadRequest, map[string]string{"error": "unreadable upload"})
		return
	}

	writeJSON(rw, http.StatusOK, attachResponse{
		Name:    sf.Ref.Name,
		MIME:    sf.Ref.MIME,
		Size:    sf.Ref.Size,
		Preview: sf.Preview,
	})
}

type statisticsResponse struct {
	Snapshot   *domain.StatisticsSnapshot `json:"snapshot"`
	Categories []stats.CategoryPoint      `json:"categories"`
	Comparison []stats.ComparisonRow      `json:"comparison"`
}

func (w *Web) handleStatistics(rw http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user")
	if userID == "" {
		userID = w.cfg.DefaultUserID
	}

	snap, err := w.cfg.Stats.Load(r.Context(), userID)
	if err != nil {
		w.logger.Error("statistics load failed", "user", userID, "err", err)
		writeJSON(rw, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(rw, http.StatusOK, statisticsResponse{
		Snapshot:   snap,
		Categories: stats.CategorySeries(snap.Category),
		Comparison: stats.ComparisonRows(snap.User),
	})
}

type uiState struct {
	View  string `json:"view"`
	Modal string `json:"modal"`
}

func (w *Web) handleUIState(rw http.ResponseWriter, r *http.Request) {
	writeJSON(rw, http.StatusOK, uiState{
		View:  w.router.View().String(),
		Modal: w.router.Modal().String(),
	})
}

// handleUIChange switches the active view or opens a modal. A view switch
// dismisses whatever modal was open; opening a modal replaces the current one.
func (w *Web) handleUIChange(rw http.ResponseWriter, r *http.Request) {
	var req uiState
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(rw, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.View != "" {
		view, ok := app.ParseView(req.View)
		if !ok {
			writeJSON(rw, http.StatusBadRequest, map[string]string{"error": "unknown view"})
			return
		}
		w.router.SetView(view)
	}
	if req.Modal != "" {
		modal, ok := app.ParseModal(req.Modal)
		if !ok {
			writeJSON(rw, http.StatusBadRequest, map[string]string{"error": "unknown modal"})
			return
		}
		w.router.OpenModal(modal)
	}
	w.handleUIState(rw, r)
}

func (w *Web) handleUIClose(rw http.ResponseWriter, r *http.Request) {
	w.router.CloseAll()
	w.handleUIState(rw, r)
}

// handleStatementAnalyze forwards an uploaded statement to the analysis
// backend and opens the analytics overlay on success.
func (w *Web) handleStatementAnalyze(rw http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("statement")
	if err != nil {
		writeJSON(rw, http.StatusBadRequest, map[string]string{"error": "statement file is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(rw, http.StatusBadRequest, map[string]string{"error": "unreadable upload"})
		return
	}

	analysis, err := w.cfg.Statement.AnalyzeStatement(r.Context(), header.Filename, data)
	if err != nil {
		w.logger.Error("statement analysis failed", "file", header.Filename, "err", err)
		writeJSON(rw, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}

	w.router.OpenModal(app.ModalAnalytics)
	writeJSON(rw, http.StatusOK, analysis)
}

func (w *Web) handleReplySocket(rw http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(rw, r, nil)
	if err != nil {
		w.logger.Error("websocket upgrade failed", "err", err)
		return
	}

	chatID := r.URL.Query().Get("chat_id")
	if chatID == "" {
		chatID = fmt.Sprintf("web-%d", time.Now().UnixNano())
	}

	client := &wsClient{conn: conn, chatID: chatID}
	clientID := fmt.Sprintf("%s-%p", chatID, conn)
	w.mu.Lock()
	w.clients[clientID] = client
	w.mu.Unlock()
	metrics.ActiveWebClients.Inc()

	w.logger.Info("web client connected", "client_id", clientID, "chat_id", chatID)
	client.send(WSMessage{Type: "status", Content: "connected", ChatID: chatID})

	defer func() {
		w.mu.Lock()
		delete(w.clients, clientID)
		w.mu.Unlock()
		metrics.ActiveWebClients.Dec()
		conn.Close()
		w.logger.Info("web client disconnected", "client_id", clientID)
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				w.logger.Error("websocket read error", "err", err)
			}
			return
		}

		var wsMsg WSMessage
		if err := json.Unmarshal(message, &wsMsg); err != nil {
			w.logger.Warn("invalid websocket message", "err", err)
			continue
		}
		if wsMsg.Type == "message" && wsMsg.Content != "" {
			w.bus.Publish(domain.InboundMessage{
				Channel:   "web",
				ChatID:    chatID,
				SenderID:  "user",
				Content:   wsMsg.Content,
				Timestamp: time.Now(),
			})
		}
	}
}

// handleVoiceSocket runs the realtime voice exchange: each binary frame is
// one complete utterance, answered with either a binary audio frame or a
// JSON text frame.
func (w *Web) handleVoiceSocket(rw http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(rw, r, nil)
	if err != nil {
		w.logger.Error("voice upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	for {
		msgType, audio, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.BinaryMessage || len(audio) == 0 {
			continue
		}

		reply, err := w.cfg.Voice.ProcessAudio(r.Context(), audio)
		if err != nil {
			w.logger.Warn("voice processing failed", "err", err)
			w.writeVoiceJSON(conn, WSMessage{Type: "status", Content: "Ошибка связи с AI"})
			continue
		}

		switch reply.Kind {
		case domain.AudioReplyBinary:
			if err := conn.WriteMessage(websocket.BinaryMessage, reply.Data); err != nil {
				return
			}
		case domain.AudioReplyURL:
			w.writeVoiceJSON(conn, WSMessage{Type: "audio_url", Content: reply.URL})
		default:
			w.writeVoiceJSON(conn, WSMessage{Type: "message", Content: reply.Text})
		}
	}
}

func (w *Web) writeVoiceJSON(conn *websocket.Conn, msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		w.logger.Debug("voice socket write failed", "err", err)
	}
}

func (w *Web) broadcastToChat(chatID string, msg WSMessage) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	for _, client := range w.clients {
		if client.chatID == chatID || chatID == "" {
			client.mu.Lock()
			err := client.conn.WriteMessage(websocket.TextMessage, data)
			client.mu.Unlock()
			if err != nil {
				w.logger.Debug("websocket write failed", "err", err)
			}
		}
	}
}

func (c *wsClient) send(msg WSMessage) {
	data, _ := json.Marshal(msg)
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.WriteMessage(websocket.TextMessage, data)
}

func (w *Web) closeAllClients() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for id, client := range w.clients {
		client.conn.Close()
		delete(w.clients, id)
	}
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}
