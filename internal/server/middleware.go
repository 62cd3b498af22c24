package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"devserver/internal/static"
)

const (
	requestIDHeader = "X-Request-Id"
	requestIDKey    = "request_id"
)

// requestID はリクエストIDを付与する
// クライアントが指定した場合はそれを引き継ぐ
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// requestLogger はアクセスログを出力する
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		t0 := time.Now()
		c.Next()

		entry := logrus.WithFields(logrus.Fields{
			"request_id": c.GetString(requestIDKey),
			"method":     c.Request.Method,
			"uri":        c.Request.RequestURI,
			"status":     c.Writer.Status(),
			"latency":    time.Since(t0).Truncate(time.Microsecond),
			"bytes":      c.Writer.Size(),
		})

		if err := c.Errors.Last(); err != nil {
			entry.WithError(err.Err).Warn("リクエストの解決に失敗しました")
			return
		}
		entry.Info("リクエスト")
	}
}

// recovery はハンドラ内のパニックを500応答に変換する
func recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			e := recover()
			if e == nil {
				return
			}

			logrus.WithFields(logrus.Fields{
				"request_id": c.GetString(requestIDKey),
				"method":     c.Request.Method,
				"uri":        c.Request.RequestURI,
			}).Errorf("パニックが発生しました: %v", e)

			if !c.Writer.Written() {
				c.Data(http.StatusInternalServerError, static.ContentTypeText, []byte(static.BodyServerError))
			}
			c.Abort()
		}()

		c.Next()
	}
}
