package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/palemoky/phase-ten/internal/config"
	"github.com/palemoky/phase-ten/internal/protocol"
	"github.com/palemoky/phase-ten/internal/storage"
)

// Server WebSocket 游戏服务器
type Server struct {
	config     *config.Config
	httpServer *http.Server
	upgrader   websocket.Upgrader

	clients   map[string]*Client
	clientsMu sync.RWMutex

	handler        *MessageHandler
	roomManager    *RoomManager
	sessionManager *SessionManager

	rateLimiter    *RateLimiter
	messageLimiter *MessageRateLimiter
	chatLimiter    *ChatRateLimiter
	originChecker  *OriginChecker
	ipFilter       *IPFilter

	redisClient *redis.Client
	leaderboard *storage.LeaderboardManager

	// 连接数信号量
	connSemaphore chan struct{}

	maintenance bool
	maintMu     sync.RWMutex
}

// NewServer 创建服务器
func NewServer(cfg *config.Config) *Server {
	s := &Server{
		config:        cfg,
		clients:       make(map[string]*Client),
		connSemaphore: make(chan struct{}, cfg.Server.MaxConnections),
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}

	// 安全组件
	s.rateLimiter = NewRateLimiter(
		cfg.Security.RateLimit.MaxPerSecond,
		cfg.Security.RateLimit.MaxPerMinute,
		cfg.Security.RateLimit.BanDurationTime(),
	)
	s.messageLimiter = NewMessageRateLimiter(cfg.Security.MessageLimit.MaxPerSecond)
	s.chatLimiter = NewChatRateLimiter(
		cfg.Security.ChatLimit.MaxPerSecond,
		cfg.Security.ChatLimit.MaxPerMinute,
		cfg.Security.ChatLimit.CooldownDuration(),
	)
	s.originChecker = NewOriginChecker(cfg.Security.AllowedOrigins)
	s.ipFilter = NewIPFilter()

	// Redis 排行榜，连不上时降级为不可用
	s.redisClient = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("⚠️ Redis 连接失败，排行榜功能不可用: %v", err)
	} else {
		s.leaderboard = storage.NewLeaderboardManager(s.redisClient)
		log.Println("✅ Redis 连接成功")
	}

	s.sessionManager = NewSessionManager()
	s.roomManager = NewRoomManager(s)
	s.handler = NewMessageHandler(s)

	return s
}

// Start 启动服务器
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go s.monitorStats()

	log.Printf("🚀 服务器监听 %s", addr)
	return s.httpServer.ListenAndServe()
}

// checkOrigin WebSocket 来源检查
func (s *Server) checkOrigin(r *http.Request) bool {
	return s.originChecker.Check(r)
}

// handleWebSocket 处理 WebSocket 连接请求
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	if !s.ipFilter.IsAllowed(ip) {
		log.Printf("🚫 拒绝被屏蔽的 IP: %s", ip)
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	if !s.rateLimiter.Allow(ip) {
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		return
	}

	s.maintMu.RLock()
	maintenance := s.maintenance
	s.maintMu.RUnlock()
	if maintenance {
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}

	// 连接数限制
	select {
	case s.connSemaphore <- struct{}{}:
	default:
		log.Printf("⚠️ 连接数已达上限 %d", s.config.Server.MaxConnections)
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		<-s.connSemaphore
		log.Printf("升级 WebSocket 失败: %v", err)
		return
	}

	client := NewClient(s, conn)
	client.IP = ip
	s.registerClient(client)

	go client.WritePump()
	go client.ReadPump()

	// 下发玩家身份和重连令牌
	session := s.sessionManager.CreateSession(client.ID, client.Name)
	client.SendMessage(protocol.MustNewMessage(protocol.MsgConnected, protocol.ConnectedPayload{
		PlayerID:       client.ID,
		PlayerName:     client.Name,
		ReconnectToken: session.ReconnectToken,
	}))

	log.Printf("🔌 新连接: %s (%s) IP: %s", client.Name, client.ID, ip)
}

// handleHealth 健康检查
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.clientsMu.RLock()
	clients := len(s.clients)
	s.clientsMu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":       "ok",
		"clients":      clients,
		"active_games": s.roomManager.GetActiveGamesCount(),
	})
}

// registerClient 注册客户端
func (s *Server) registerClient(client *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[client.ID] = client
}

// unregisterClient 注销客户端并释放连接配额
func (s *Server) unregisterClient(client *Client) {
	s.clientsMu.Lock()
	if s.clients[client.ID] == client {
		delete(s.clients, client.ID)
	}
	s.clientsMu.Unlock()

	<-s.connSemaphore
}

// rebindClient 重连时把新连接绑定到原玩家身份。
// 旧连接若还挂着则先关掉，避免同一身份双连。
func (s *Server) rebindClient(client *Client, playerID string) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	if old, ok := s.clients[playerID]; ok && old != client {
		old.Close()
	}

	delete(s.clients, client.ID)
	client.ID = playerID
	s.clients[playerID] = client
}

// isCurrentClient 该连接是否仍然代表其玩家身份
func (s *Server) isCurrentClient(client *Client) bool {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return s.clients[client.ID] == client
}

// GetClientCount 当前连接数
func (s *Server) GetClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// monitorStats 定期输出运行状态
func (s *Server) monitorStats() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		log.Printf("📊 在线 %d 人，进行中对局 %d 个", s.GetClientCount(), s.roomManager.GetActiveGamesCount())
	}
}

// GracefulShutdown 优雅关闭：进入维护模式，等进行中的对局结束
func (s *Server) GracefulShutdown(timeout time.Duration) {
	s.maintMu.Lock()
	s.maintenance = true
	s.maintMu.Unlock()

	log.Println("🛠️ 进入维护模式，不再接受新连接")
	s.broadcastAll(protocol.NewErrorMessage(protocol.ErrCodeServerMaintenance))

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if s.roomManager.GetActiveGamesCount() == 0 {
			break
		}
		log.Printf("⏳ 等待 %d 个对局结束...", s.roomManager.GetActiveGamesCount())
		time.Sleep(10 * time.Second)
	}

	s.Shutdown()
}

// Shutdown 立即关闭服务器
func (s *Server) Shutdown() {
	log.Println("🛑 服务器关闭中...")

	s.clientsMu.Lock()
	for _, client := range s.clients {
		client.Close()
	}
	s.clientsMu.Unlock()

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(ctx)
	}

	if s.redisClient != nil {
		s.redisClient.Close()
	}
}

// broadcastAll 广播给所有在线客户端
func (s *Server) broadcastAll(msg *protocol.Message) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for _, client := range s.clients {
		client.SendMessage(msg)
	}
}
