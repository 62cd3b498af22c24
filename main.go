// Package main は開発用静的ファイルサーバー devserver のエントリポイントです
package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"devserver/internal/config"
	"devserver/internal/server"
)

func init() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.DateTime,
	})
	logrus.SetOutput(os.Stdout)
}

func main() {
	cmd := &cobra.Command{
		Use:           "devserver",
		Short:         "開発用の静的ファイルサーバー",
		Long:          "ui ディレクトリを配信し、見つからないパスには index.html を返す開発用サーバー",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context())
		},
	}

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		logrus.Fatal(err)
	}
}

func run(ctx context.Context) error {
	// .env は既に設定されている環境変数を上書きしない
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.Warnf(".env の読み込みに失敗しました: %v", err)
	}

	// 設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logrus.SetLevel(cfg.LogLevel())

	// サーバーを作成
	srv, err := server.New(cfg)
	if err != nil {
		return err
	}

	// サーバーを起動
	return srv.Start(ctx)
}
