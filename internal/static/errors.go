package static

import "errors"

// 解決失敗の分類
// Response.Err にラップされて格納され、ログ出力にのみ使われる
var (
	ErrNotFound  = errors.New("ファイルもフォールバック文書も見つかりません")
	ErrForbidden = errors.New("ディレクトリに index.html がありません")
	ErrRead      = errors.New("ファイルの読み込みに失敗")
)

// クライアントへ返すエラー本文
const (
	BodyNotFound    = "Not found"
	BodyForbidden   = "Forbidden"
	BodyServerError = "Server error"
)
