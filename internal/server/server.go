package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"devserver/internal/config"
	"devserver/internal/static"
)

// shutdownTimeout はグレースフルシャットダウンの待ち時間
const shutdownTimeout = 5 * time.Second

// Server はHTTPサーバーを管理する構造体
type Server struct {
	config     *config.Config
	resolver   *static.Resolver
	engine     *gin.Engine
	httpServer *http.Server

	ready chan struct{}
	addr  string
}

// New は新しいServerインスタンスを作成する
func New(cfg *config.Config) (*Server, error) {
	resolver, err := static.New(cfg.Static.Root,
		static.WithIndex(cfg.Static.Index),
		static.WithContentTypes(cfg.ContentTypes()),
	)
	if err != nil {
		return nil, fmt.Errorf("リゾルバーの作成に失敗: %w", err)
	}

	if gin.Mode() == gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()

	s := &Server{
		config:   cfg,
		resolver: resolver,
		engine:   engine,
		httpServer: &http.Server{
			Handler:      engine,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		ready: make(chan struct{}),
	}
	s.setupRoutes()

	return s, nil
}

// setupRoutes はミドルウェアとハンドラを設定する
func (s *Server) setupRoutes() {
	s.engine.Use(requestID(), requestLogger(), recovery())

	// ルートは登録せず、すべてのパスをファイル解決に回す
	s.engine.NoRoute(s.handleStatic)
}

// Handler はサーバーのHTTPハンドラを返す
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Ready はリッスン開始後にクローズされるチャンネルを返す
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr は実際にリッスンしているアドレスを返す
// Ready がクローズされる前は空文字列
func (s *Server) Addr() string {
	select {
	case <-s.ready:
		return s.addr
	default:
		return ""
	}
}

// Start はサーバーを起動する
// コンテキストのキャンセルかシグナル受信でシャットダウンする
// 一つのServerに対して一度だけ呼び出せる
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.config.ServerAddress())
	if err != nil {
		return fmt.Errorf("サーバーの起動に失敗: %w", err)
	}
	s.addr = listener.Addr().String()
	close(s.ready)

	logrus.Infof("Serving %s at http://%s/", s.resolver.Root(), s.addr)

	// シャットダウン用のチャンネル
	shutdownCh := make(chan error, 1)

	// サーバーを別ゴルーチンで起動
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			shutdownCh <- fmt.Errorf("サーバーの実行に失敗: %w", err)
		}
	}()

	// シグナルハンドリング
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	// コンテキストかシグナルを待つ
	select {
	case <-ctx.Done():
		logrus.Debug("コンテキストがキャンセルされました")
	case sig := <-sigCh:
		logrus.Infof("シグナルを受信しました: %v", sig)
	case err := <-shutdownCh:
		return err
	}

	// グレースフルシャットダウン
	return s.Shutdown()
}

// Shutdown はサーバーをグレースフルにシャットダウンする
func (s *Server) Shutdown() error {
	logrus.Info("サーバーをシャットダウンしています...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("サーバーのシャットダウンに失敗: %w", err)
	}

	logrus.Info("サーバーが正常にシャットダウンされました")
	return nil
}
