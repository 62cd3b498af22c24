package server

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"devserver/internal/config"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logrus.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// newTestConfig は index.html と style.css を持つルートの設定を作成する
func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	root := filepath.Join(t.TempDir(), "ui")
	if err := os.MkdirAll(filepath.Join(root, "empty"), 0o755); err != nil {
		t.Fatalf("ディレクトリの作成に失敗しました: %v", err)
	}
	files := map[string]string{
		"index.html": "<html>A</html>",
		"style.css":  "body{}",
		"app.js":     "console.log(1)",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(root, name), []byte(content), 0o644); err != nil {
			t.Fatalf("ファイルの作成に失敗しました: %v", err)
		}
	}

	cfg := config.Default()
	cfg.Server.Port = 0 // ランダムポートを使用
	cfg.Static.Root = root
	return cfg
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	srv, err := New(newTestConfig(t))
	if err != nil {
		t.Fatalf("サーバーの作成に失敗しました: %v", err)
	}
	return srv
}

// TestServerStartAndShutdown はサーバーの起動とシャットダウンをテストする
func TestServerStartAndShutdown(t *testing.T) {
	srv := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// サーバーを別ゴルーチンで起動
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	select {
	case <-srv.Ready():
	case err := <-errCh:
		t.Fatalf("サーバーの起動に失敗しました: %v", err)
	case <-time.After(3 * time.Second):
		t.Fatal("サーバーの起動がタイムアウトしました")
	}

	resp, err := http.Get(fmt.Sprintf("http://%s/style.css", srv.Addr()))
	if err != nil {
		t.Fatalf("HTTPリクエストでエラーが発生しました: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK || string(body) != "body{}" {
		t.Errorf("予期しない応答: status=%d body=%q", resp.StatusCode, body)
	}

	// コンテキストをキャンセルしてサーバーを停止
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("サーバーの起動/停止でエラーが発生しました: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("サーバーの停止がタイムアウトしました")
	}
}

// TestServerListenError は使用中のポートで起動に失敗することをテストする
func TestServerListenError(t *testing.T) {
	first := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = first.Start(ctx)
	}()
	<-first.Ready()

	cfg := newTestConfig(t)
	_, port, err := net.SplitHostPort(first.Addr())
	if err != nil {
		t.Fatalf("アドレスの解析に失敗しました: %v", err)
	}
	cfg.Server.Port, err = strconv.Atoi(port)
	if err != nil {
		t.Fatalf("ポートの解析に失敗しました: %v", err)
	}

	second, err := New(cfg)
	if err != nil {
		t.Fatalf("サーバーの作成に失敗しました: %v", err)
	}
	if err := second.Start(ctx); err == nil {
		t.Error("使用中のポートでエラーが期待されました")
	}
}

// TestServerEndpoints はファイル解決の応答をテストする
func TestServerEndpoints(t *testing.T) {
	srv := newTestServer(t)

	testCases := []struct {
		name        string
		method      string
		target      string
		status      int
		contentType string
		body        string
	}{
		{"ルート", http.MethodGet, "/", http.StatusOK, "text/html; charset=utf-8", "<html>A</html>"},
		{"CSS", http.MethodGet, "/style.css", http.StatusOK, "text/css; charset=utf-8", "body{}"},
		{"クエリ付きJS", http.MethodGet, "/app.js?v=2", http.StatusOK, "text/javascript; charset=utf-8", "console.log(1)"},
		{"SPAフォールバック", http.MethodGet, "/missing.js", http.StatusOK, "text/html; charset=utf-8", "<html>A</html>"},
		{"パストラバーサル", http.MethodGet, "/../../etc/passwd", http.StatusOK, "text/html; charset=utf-8", "<html>A</html>"},
		{"末尾スラッシュ付きのファイル", http.MethodGet, "/style.css/", http.StatusOK, "text/html; charset=utf-8", "<html>A</html>"},
		{"index.htmlのないディレクトリ", http.MethodGet, "/empty", http.StatusForbidden, "text/plain; charset=utf-8", "Forbidden"},
		{"POSTも同じく解決", http.MethodPost, "/style.css", http.StatusOK, "text/css; charset=utf-8", "body{}"},
		{"DELETEも同じく解決", http.MethodDelete, "/deep/route", http.StatusOK, "text/html; charset=utf-8", "<html>A</html>"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.target, nil)
			rec := httptest.NewRecorder()

			srv.Handler().ServeHTTP(rec, req)

			if rec.Code != tc.status {
				t.Errorf("予期しないステータスコード: got %d, want %d", rec.Code, tc.status)
			}
			if got := rec.Header().Get("Content-Type"); got != tc.contentType {
				t.Errorf("Content-Typeが一致しません: got %q, want %q", got, tc.contentType)
			}
			if rec.Body.String() != tc.body {
				t.Errorf("本文が一致しません: got %q, want %q", rec.Body.String(), tc.body)
			}
		})
	}
}

// TestServerNotFound はフォールバック文書がない場合の404をテストする
func TestServerNotFound(t *testing.T) {
	cfg := newTestConfig(t)
	if err := os.Remove(filepath.Join(cfg.Static.Root, "index.html")); err != nil {
		t.Fatalf("ファイルの削除に失敗しました: %v", err)
	}
	srv, err := New(cfg)
	if err != nil {
		t.Fatalf("サーバーの作成に失敗しました: %v", err)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))

	if rec.Code != http.StatusNotFound || rec.Body.String() != "Not found" {
		t.Errorf("404が期待されました: status=%d body=%q", rec.Code, rec.Body.String())
	}
}

// TestRequestID はリクエストIDの付与をテストする
func TestRequestID(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get(requestIDHeader) == "" {
		t.Error("リクエストIDが付与されていません")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get(requestIDHeader); got != "abc-123" {
		t.Errorf("クライアントのリクエストIDが引き継がれていません: got %q", got)
	}
}

// TestRecovery はパニックが500応答になることをテストする
func TestRecovery(t *testing.T) {
	engine := gin.New()
	engine.Use(requestID(), requestLogger(), recovery())
	engine.NoRoute(func(c *gin.Context) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("500が期待されました: got %d", rec.Code)
	}
	if rec.Body.String() != "Server error" {
		t.Errorf("本文が一致しません: got %q", rec.Body.String())
	}
}

// TestRequestPath はリクエストターゲットの取り出しをテストする
func TestRequestPath(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/a%20b.js?v=1", nil)
	if got := requestPath(req); got != "/a%20b.js?v=1" {
		t.Errorf("origin形式のターゲットが一致しません: got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "http://127.0.0.1:1430/app.js?v=1", nil)
	req.RequestURI = "http://127.0.0.1:1430/app.js?v=1"
	if got := requestPath(req); got != "/app.js?v=1" {
		t.Errorf("絶対形式のターゲットが一致しません: got %q", got)
	}
}

// TestServerContentTypes は設定で追加したContent-Typeが使われることをテストする
func TestServerContentTypes(t *testing.T) {
	cfg := newTestConfig(t)
	if err := os.WriteFile(filepath.Join(cfg.Static.Root, "heroes.wasm"), []byte("wasm"), 0o644); err != nil {
		t.Fatalf("ファイルの作成に失敗しました: %v", err)
	}
	cfg.Static.ContentTypes = map[string]string{".wasm": "application/wasm"}

	srv, err := New(cfg)
	if err != nil {
		t.Fatalf("サーバーの作成に失敗しました: %v", err)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/heroes.wasm", nil))

	if got := rec.Header().Get("Content-Type"); got != "application/wasm" {
		t.Errorf("Content-Typeが一致しません: got %q", got)
	}
	if rec.Body.String() != "wasm" {
		t.Errorf("本文が一致しません: got %q", rec.Body.String())
	}
}

// TestServedFileLog は配信したファイルのパスがデバッグログに出ることをテストする
func TestServedFileLog(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	level := logrus.GetLevel()
	logrus.SetLevel(logrus.DebugLevel)
	defer logrus.SetLevel(level)

	cfg := newTestConfig(t)
	srv, err := New(cfg)
	if err != nil {
		t.Fatalf("サーバーの作成に失敗しました: %v", err)
	}

	testCases := []struct {
		target string
		file   string
	}{
		{"/style.css", filepath.Join(cfg.Static.Root, "style.css")},
		{"/style.css/", filepath.Join(cfg.Static.Root, "index.html")},
		{"/missing", filepath.Join(cfg.Static.Root, "index.html")},
	}

	for _, tc := range testCases {
		hook.Reset()
		srv.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tc.target, nil))

		found := false
		for _, entry := range hook.AllEntries() {
			if file, ok := entry.Data["file"]; ok && entry.Level == logrus.DebugLevel {
				found = true
				if file != tc.file {
					t.Errorf("%s: ログのファイルが一致しません: got %v, want %s", tc.target, file, tc.file)
				}
			}
		}
		if !found {
			t.Errorf("%s: 配信ファイルのログが出力されていません", tc.target)
		}
	}
}
