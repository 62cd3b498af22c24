package static

import "strings"

// Content-Type の定数定義
const (
	ContentTypeHTML   = "text/html; charset=utf-8"
	ContentTypeText   = "text/plain; charset=utf-8"
	ContentTypeBinary = "application/octet-stream"
)

// ContentTypes は拡張子（ドット付き・小文字）からMIMEタイプへの対応表
type ContentTypes map[string]string

// DefaultContentTypes は開発サーバーが扱う標準の対応表を返す
// 呼び出しごとに新しいマップを返すので、呼び出し側で拡張してよい
func DefaultContentTypes() ContentTypes {
	return ContentTypes{
		".html":  ContentTypeHTML,
		".css":   "text/css; charset=utf-8",
		".js":    "text/javascript; charset=utf-8",
		".mjs":   "text/javascript; charset=utf-8",
		".json":  "application/json; charset=utf-8",
		".ico":   "image/x-icon",
		".png":   "image/png",
		".jpg":   "image/jpeg",
		".jpeg":  "image/jpeg",
		".svg":   "image/svg+xml",
		".webp":  "image/webp",
		".woff":  "font/woff",
		".woff2": "font/woff2",
	}
}

// Lookup は拡張子に対応するMIMEタイプを返す
// 大文字小文字は区別せず、未登録の拡張子は application/octet-stream になる
func (t ContentTypes) Lookup(ext string) string {
	if contentType, ok := t[strings.ToLower(ext)]; ok {
		return contentType
	}
	return ContentTypeBinary
}

// clone はキーを小文字に揃えた複製を作る
func (t ContentTypes) clone() ContentTypes {
	c := make(ContentTypes, len(t))
	for ext, contentType := range t {
		c[strings.ToLower(ext)] = contentType
	}
	return c
}
