package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"devserver/internal/static"
)

// 環境変数名
const (
	EnvPort       = "PORT"
	EnvRoot       = "DEV_SERVER_ROOT"
	EnvConfigFile = "DEV_SERVER_CONFIG"
	EnvLogLevel   = "LOG_LEVEL"
)

// デフォルト値
const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 1430
	DefaultDir  = "ui"
)

// Config はアプリケーション全体の設定を保持する構造体
type Config struct {
	Server ServerConfig `yaml:"server"`
	Static StaticConfig `yaml:"static"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig はHTTPサーバーの設定
type ServerConfig struct {
	Host string `yaml:"host"` // リッスンするホスト（ループバックのみ）
	Port int    `yaml:"port"` // リッスンするポート番号

	// タイムアウト設定
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // 読み込みタイムアウト
	WriteTimeout time.Duration `yaml:"write_timeout"` // 書き込みタイムアウト
}

// StaticConfig は配信するディレクトリの設定
type StaticConfig struct {
	Root  string `yaml:"root"`  // 配信するルートディレクトリ
	Index string `yaml:"index"` // フォールバック文書のファイル名

	// 標準の対応表に追加・上書きするContent-Type（例: ".wasm": "application/wasm"）
	ContentTypes map[string]string `yaml:"content_types"`
}

// LogConfig はログ出力の設定
type LogConfig struct {
	Level string `yaml:"level"` // logrusのログレベル
}

// Load は設定を読み込む
// デフォルト値、設定ファイル（DEV_SERVER_CONFIG）、環境変数の順に適用する
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Server.Port = getEnvAsIntOrDefault(EnvPort, cfg.Server.Port)
	cfg.Static.Root = getEnvOrDefault(EnvRoot, cfg.Static.Root)
	cfg.Log.Level = getEnvOrDefault(EnvLogLevel, cfg.Log.Level)

	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	// 設定の検証
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("設定の検証に失敗: %w", err)
	}

	return cfg, nil
}

// Default はデフォルト設定を返す
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         DefaultHost,
			Port:         DefaultPort,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 0, // 読み込みの遅いファイルも打ち切らない
		},
		Static: StaticConfig{
			Root:  defaultRoot(),
			Index: static.DefaultIndex,
		},
		Log: LogConfig{
			Level: logrus.InfoLevel.String(),
		},
	}
}

// mergeFile はYAMLファイルの内容を上書き適用する
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("設定ファイルの読み込みに失敗 path=%q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("設定ファイルの解析に失敗 path=%q: %w", path, err)
	}
	return nil
}

// normalize はルートディレクトリを絶対パスに変換する
func (c *Config) normalize() error {
	if c.Static.Root == "" {
		return nil
	}
	root, err := filepath.Abs(c.Static.Root)
	if err != nil {
		return fmt.Errorf("ルートディレクトリの解決に失敗: %w", err)
	}
	c.Static.Root = root
	return nil
}

// Validate は設定の妥当性を検証する
func (c *Config) Validate() error {
	// サーバー設定の検証
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("無効なポート番号: %d", c.Server.Port)
	}
	if !isLoopback(c.Server.Host) {
		return fmt.Errorf("ループバック以外のホストは指定できません: %q", c.Server.Host)
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 {
		return fmt.Errorf("タイムアウトに負の値は指定できません")
	}

	// 配信設定の検証
	if c.Static.Root == "" {
		return fmt.Errorf("ルートディレクトリが設定されていません")
	}
	if !filepath.IsAbs(c.Static.Root) {
		return fmt.Errorf("ルートディレクトリは絶対パスである必要があります: %s", c.Static.Root)
	}
	if c.Static.Index == "" || filepath.Base(c.Static.Index) != c.Static.Index {
		return fmt.Errorf("無効なインデックスファイル名: %q", c.Static.Index)
	}

	for ext, contentType := range c.Static.ContentTypes {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 || contentType == "" {
			return fmt.Errorf("無効なContent-Type設定: %q: %q", ext, contentType)
		}
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("無効なログレベル: %w", err)
	}

	return nil
}

// ServerAddress はサーバーのリッスンアドレスを返す
func (c *Config) ServerAddress() string {
	return net.JoinHostPort(c.Server.Host, fmt.Sprintf("%d", c.Server.Port))
}

// ContentTypes は標準の対応表に設定の追加分を適用したものを返す
func (c *Config) ContentTypes() static.ContentTypes {
	types := static.DefaultContentTypes()
	for ext, contentType := range c.Static.ContentTypes {
		types[strings.ToLower(ext)] = contentType
	}
	return types
}

// LogLevel はlogrusのログレベルを返す
// 検証済みの設定であれば失敗しない
func (c *Config) LogLevel() logrus.Level {
	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// defaultRoot は実行ファイルと同じディレクトリにある ui を返す
func defaultRoot() string {
	exe, err := os.Executable()
	if err != nil {
		return DefaultDir
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(exe), DefaultDir)
}

// isLoopback はホストがループバックインターフェースを指すか判定する
func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// getEnvOrDefault は環境変数を取得し、設定されていない場合はデフォルト値を返す
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault は環境変数を整数として取得し、設定されていない場合はデフォルト値を返す
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intVal int
		if _, err := fmt.Sscanf(value, "%d", &intVal); err == nil {
			return intVal
		}
	}
	return defaultValue
}
