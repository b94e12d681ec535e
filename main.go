package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/qianlnk/houseguest/config"
	"github.com/qianlnk/houseguest/services"
	"github.com/qianlnk/houseguest/storage"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许所有跨域请求，生产环境中应该更严格
	},
}

func init() {
	// 设置日志格式，包含文件名和行号
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
}

func main() {
	configPath := flag.String("config", "", "YAML 配置文件路径")
	flag.Parse()

	if err := run(*configPath); err != nil {
		log.Fatal(err)
	}
}

// run 组装并启动服务，返回前会关闭存档存储
func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}

	tieBreaker, err := services.TieBreakerByName(cfg.Eviction.TieBreak)
	if err != nil {
		return fmt.Errorf("平票规则配置错误: %w", err)
	}
	rejectionPolicy, err := services.RejectionPolicyByName(cfg.Alliances.RejectionPolicy)
	if err != nil {
		return fmt.Errorf("联盟拒绝策略配置错误: %w", err)
	}

	store, err := storage.Open(context.Background(), storage.Options{
		Driver:        cfg.Storage.Driver,
		SQLitePath:    cfg.Storage.SQLitePath,
		MongoURI:      cfg.Storage.MongoURI,
		MongoDatabase: cfg.Storage.MongoDatabase,
	})
	if err != nil {
		return fmt.Errorf("打开存档存储失败: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("关闭存档存储失败: %v", err)
		}
	}()

	webSocketMgr := services.NewWebSocketManager()
	sessionMgr := services.NewSessionManager(services.SessionSettings{
		MinPlayers:      cfg.Game.MinPlayers,
		RosterSize:      cfg.Game.RosterSize,
		Seed:            cfg.Game.AISeed,
		TieBreaker:      tieBreaker,
		RejectionPolicy: rejectionPolicy,
	}, webSocketMgr)
	webSocketMgr.SetSessionManager(sessionMgr)

	srv := &server{
		sessions:     sessionMgr,
		saves:        services.NewSaveManager(store),
		webSocketMgr: webSocketMgr,
	}
	log.Printf("初始化完成: 存储驱动 %s, 平票规则 %s, 拒绝策略 %s",
		cfg.Storage.Driver, cfg.Eviction.TieBreak, cfg.Alliances.RejectionPolicy)

	r := gin.Default()
	r.Use(corsMiddleware())
	r.Use(newRateLimiter(cfg.Server.RateLimit, cfg.Server.Burst).middleware())
	srv.routes(r)

	// 启动服务器
	log.Printf("服务器启动在 %s", cfg.Server.Addr)
	if err := r.Run(cfg.Server.Addr); err != nil {
		return fmt.Errorf("服务器启动失败: %w", err)
	}
	return nil
}
