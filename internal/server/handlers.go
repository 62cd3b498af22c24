package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// handleStatic はリクエストパスをファイルに解決して応答する
func (s *Server) handleStatic(c *gin.Context) {
	resp := s.resolver.Resolve(requestPath(c.Request))

	if resp.Escaped {
		logrus.WithFields(logrus.Fields{
			"request_id": c.GetString(requestIDKey),
			"uri":        c.Request.RequestURI,
		}).Warn("ルート外を指すパスをルートに置き換えました")
	}
	if resp.Err != nil {
		_ = c.Error(resp.Err)
	} else {
		logrus.WithFields(logrus.Fields{
			"request_id": c.GetString(requestIDKey),
			"file":       resp.File,
		}).Debug("ファイルを配信します")
	}

	c.Data(resp.Status, resp.ContentType, resp.Body)
}

// requestPath はデコード前のリクエストターゲットを返す
// 絶対形式（プロキシ向け）の場合はパスとクエリのみを取り出す
func requestPath(r *http.Request) string {
	if strings.HasPrefix(r.RequestURI, "/") {
		return r.RequestURI
	}
	return r.URL.RequestURI()
}
