package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/fate-dice/internal/api"
	"github.com/wfunc/fate-dice/internal/config"
	"github.com/wfunc/fate-dice/internal/database"
	"github.com/wfunc/fate-dice/internal/dice"
	apperrors "github.com/wfunc/fate-dice/internal/errors"
	"github.com/wfunc/fate-dice/internal/logger"
	"github.com/wfunc/fate-dice/internal/service"
	ws "github.com/wfunc/fate-dice/internal/websocket"
	"go.uber.org/zap"
)

// 版本信息
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Server 服务器实例
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	hub        *ws.Hub
	services   *service.Services
	httpServer *http.Server

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func main() {
	var (
		configPath  = flag.String("config", "", "配置文件路径")
		showVersion = flag.Bool("version", false, "显示版本信息")
		showHelp    = flag.Bool("help", false, "显示帮助信息")
	)
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}
	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	if err := config.Init(*configPath); err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Get()

	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}

	setupSystem(&cfg.System)
	printStartInfo(cfg)

	server := NewServer(cfg)
	if err := server.Start(); err != nil {
		logger.Fatal("服务器启动失败", zap.Error(err))
	}

	server.WaitForShutdown()

	if err := server.Shutdown(); err != nil {
		logger.Error("服务器关闭失败", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("服务器已安全关闭")
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:    cfg,
		logger: logger.GetLogger(),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start 启动服务器
func (s *Server) Start() error {
	s.logger.Info("正在启动命运骰战役服务器...",
		zap.String("version", Version),
		zap.String("mode", s.cfg.Server.Mode),
	)

	if err := s.initComponents(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrUnknown, "初始化组件失败")
	}
	s.startServices()

	config.Watch(func(newCfg *config.Config) {
		s.logger.Info("配置已更新，正在重新加载...")
		s.reloadConfig(newCfg)
	})

	s.logger.Info("服务器启动成功", zap.String("http", s.cfg.Server.Addr()))
	return nil
}

// initComponents 初始化数据库、事件中心和服务
func (s *Server) initComponents() error {
	if err := s.initDatabase(); err != nil {
		return err
	}

	s.hub = ws.NewHub(ws.OptionsFrom(&s.cfg.WebSocket), logger.GetModuleLogger("websocket"))

	var roller dice.Roller
	if s.cfg.Game.Seed != 0 {
		s.logger.Warn("使用固定骰子种子，仅用于调试", zap.Int64("seed", s.cfg.Game.Seed))
		roller = dice.NewRoller(s.cfg.Game.Seed)
	}
	s.services = service.NewServices(database.GetDB(), service.ConfigFrom(s.cfg), s.hub, roller, logger.GetModuleLogger("service"))

	if s.cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(database.GetDB(), s.services, s.hub, &s.cfg.WebSocket, logger.GetModuleLogger("api"))

	s.httpServer = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      router.GetEngine(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}
	return nil
}

// initDatabase 连接、迁移并初始化管理员
func (s *Server) initDatabase() error {
	if err := database.Init(&s.cfg.Database); err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabaseConnect, "初始化数据库连接失败")
	}

	if s.cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(); err != nil {
			return apperrors.Wrap(err, apperrors.ErrDatabaseConnect, "数据库迁移失败")
		}
	}

	if _, err := database.SeedAdmin(database.GetDB(), &s.cfg.Admin); err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabaseInsert, "初始化管理员失败")
	}

	if !database.IsConnected() {
		return apperrors.New(apperrors.ErrDatabaseConnect, "数据库连接检查失败")
	}
	return nil
}

// startServices 启动事件中心与HTTP服务
func (s *Server) startServices() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.hub.Run(s.ctx)
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Fatal("HTTP服务异常退出", zap.Error(err))
		}
	}()
}

// WaitForShutdown 等待关闭信号
func (s *Server) WaitForShutdown() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	sig := <-sigCh
	s.logger.Info("收到退出信号", zap.String("signal", sig.String()))
}

// Shutdown 优雅关闭服务器
func (s *Server) Shutdown() error {
	s.logger.Info("正在优雅关闭服务器...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	// 先停止接收新请求，再关闭所有订阅连接
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("HTTP服务关闭超时", zap.Error(err))
	}
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("所有服务已正常关闭")
	case <-shutdownCtx.Done():
		s.logger.Warn("关闭超时，强制退出")
		return apperrors.New(apperrors.ErrTimeout, "关闭超时")
	}

	if err := database.Close(); err != nil {
		s.logger.Error("关闭数据库失败", zap.Error(err))
	}

	if err := logger.Sync(); err != nil {
		fmt.Printf("同步日志失败: %v\n", err)
	}
	return nil
}

// reloadConfig 日志级别支持热更新，其余配置需重启生效
func (s *Server) reloadConfig(newCfg *config.Config) {
	if newCfg.Log.Level != s.cfg.Log.Level {
		logger.SetLevel(newCfg.Log.Level)
		s.logger.Info("日志级别已更新", zap.String("level", newCfg.Log.Level))
	}
	s.cfg = newCfg
}

// setupSystem 设置系统参数
func setupSystem(cfg *config.SystemConfig) {
	if cfg.Timezone != "" {
		if loc, err := time.LoadLocation(cfg.Timezone); err == nil {
			time.Local = loc
		}
	}
	if cfg.MaxProcs > 0 {
		runtime.GOMAXPROCS(cfg.MaxProcs)
	}
}

// printVersion 打印版本信息
func printVersion() {
	fmt.Printf("命运骰战役服务器\n")
	fmt.Printf("版本: %s\n", Version)
	fmt.Printf("构建时间: %s\n", BuildTime)
	fmt.Printf("Git提交: %s\n", GitCommit)
	fmt.Printf("Go版本: %s\n", runtime.Version())
	fmt.Printf("操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

// printHelp 打印帮助信息
func printHelp() {
	fmt.Println("命运骰战役服务器")
	fmt.Println()
	fmt.Println("用法:")
	fmt.Println("  fate-dice-server [选项]")
	fmt.Println()
	fmt.Println("选项:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("环境变量:")
	fmt.Println("  FATE_DICE_SERVER_PORT            监听端口")
	fmt.Println("  FATE_DICE_DATABASE_DSN           数据库连接串")
	fmt.Println("  FATE_DICE_SECURITY_JWT_SECRET    令牌签名密钥")
	fmt.Println("  FATE_DICE_ADMIN_PASSWORD         初始管理员密码")
	fmt.Println()
	fmt.Println("示例:")
	fmt.Println("  fate-dice-server -config=config/config.yaml")
	fmt.Println("  fate-dice-server -version")
}

// printStartInfo 打印启动信息
func printStartInfo(cfg *config.Config) {
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println("  Fate Dice · 命运骰战役服务器")
	fmt.Printf("  版本: %s | 模式: %s | PID: %d\n", Version, cfg.Server.Mode, os.Getpid())
	fmt.Printf("  监听: %s | 数据库: %s\n", cfg.Server.Addr(), cfg.Database.Driver)
	fmt.Println("═══════════════════════════════════════════════════════════════")
}
