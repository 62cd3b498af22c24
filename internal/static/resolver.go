package static

import (
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// DefaultIndex はフォールバック文書およびディレクトリインデックスのファイル名
const DefaultIndex = "index.html"

// FileSystem は Resolver が利用するファイルシステム操作
type FileSystem interface {
	Stat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
}

// osFileSystem はOSのファイルシステムをそのまま使う実装
type osFileSystem struct{}

func (osFileSystem) Stat(name string) (fs.FileInfo, error) { return os.Stat(name) }
func (osFileSystem) ReadFile(name string) ([]byte, error)  { return os.ReadFile(name) }

// Response はリクエストパスの解決結果
type Response struct {
	Status      int    // HTTPステータスコード
	ContentType string // Content-Type ヘッダーの値
	Body        []byte // レスポンス本文

	File    string // 実際に読み込んだファイルのパス（エラー応答では空）
	Escaped bool   // ルート外を指していたためルートに置き換えたか
	Err     error  // 200以外の場合の原因（ログ用）
}

// Resolver はルートディレクトリを基準にリクエストパスを解決する
// 生成後は変更されないため、並行に使用してよい
type Resolver struct {
	root       string
	rootPrefix string
	index      string
	types      ContentTypes
	fsys       FileSystem
}

// Option は Resolver の生成オプション
type Option func(*Resolver)

// WithFileSystem はファイルシステムの実装を差し替える
func WithFileSystem(fsys FileSystem) Option {
	return func(r *Resolver) {
		r.fsys = fsys
	}
}

// WithContentTypes はContent-Typeの対応表を差し替える
func WithContentTypes(types ContentTypes) Option {
	return func(r *Resolver) {
		r.types = types.clone()
	}
}

// WithIndex はインデックス文書のファイル名を変更する
func WithIndex(name string) Option {
	return func(r *Resolver) {
		if name != "" {
			r.index = name
		}
	}
}

// New は新しいResolverを作成する
// root は絶対パスに変換され、以後変更されない
func New(root string, opts ...Option) (*Resolver, error) {
	if root == "" {
		return nil, fmt.Errorf("ルートディレクトリが指定されていません")
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("ルートディレクトリの解決に失敗: %w", err)
	}

	r := &Resolver{
		root:  absRoot,
		index: DefaultIndex,
		types: DefaultContentTypes(),
		fsys:  osFileSystem{},
	}
	for _, opt := range opts {
		opt(r)
	}

	r.rootPrefix = r.root
	if !strings.HasSuffix(r.rootPrefix, string(filepath.Separator)) {
		r.rootPrefix += string(filepath.Separator)
	}

	return r, nil
}

// Root はルートディレクトリの絶対パスを返す
func (r *Resolver) Root() string {
	return r.root
}

// Resolve はリクエストパスを解決し、返すべき応答を組み立てる
func (r *Resolver) Resolve(requestPath string) Response {
	rel := r.normalize(requestPath)
	candidate, escaped := r.contain(rel)

	resp := r.resolveCandidate(candidate, strings.HasSuffix(rel, "/"))
	resp.Escaped = escaped
	return resp
}

// dirOnly が真の場合、通常ファイルは存在しないものとして扱う
// 末尾スラッシュ付きのパス（/style.css/ など）がこれに当たる
func (r *Resolver) resolveCandidate(candidate string, dirOnly bool) Response {
	info, err := r.fsys.Stat(candidate)
	if err == nil && dirOnly && !info.IsDir() {
		err = fmt.Errorf("ディレクトリではありません: %s", candidate)
	}
	if err != nil {
		// SPAのクライアントサイドルーティング用に index.html を返す
		fallback := filepath.Join(r.root, r.index)
		data, readErr := r.fsys.ReadFile(fallback)
		if readErr != nil {
			return errorResponse(http.StatusNotFound, BodyNotFound,
				fmt.Errorf("%w: %s: %v", ErrNotFound, candidate, readErr))
		}
		return Response{
			Status:      http.StatusOK,
			ContentType: ContentTypeHTML,
			Body:        data,
			File:        fallback,
		}
	}

	if info.IsDir() {
		index := filepath.Join(candidate, r.index)
		data, readErr := r.fsys.ReadFile(index)
		if readErr != nil {
			return errorResponse(http.StatusForbidden, BodyForbidden,
				fmt.Errorf("%w: %s: %v", ErrForbidden, candidate, readErr))
		}
		return Response{
			Status:      http.StatusOK,
			ContentType: ContentTypeHTML,
			Body:        data,
			File:        index,
		}
	}

	contentType := r.types.Lookup(filepath.Ext(candidate))
	data, err := r.fsys.ReadFile(candidate)
	if err != nil {
		return errorResponse(http.StatusInternalServerError, BodyServerError,
			fmt.Errorf("%w: %s: %v", ErrRead, candidate, err))
	}

	return Response{
		Status:      http.StatusOK,
		ContentType: contentType,
		Body:        data,
		File:        candidate,
	}
}

// normalize はリクエストパスをルートからの相対パスに変換する
// クエリはデコード前に切り落とすため、%3F はファイル名の一部として残る
func (r *Resolver) normalize(requestPath string) string {
	p := requestPath
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}

	// 不正なエスケープはデコードせずにそのまま使う
	if decoded, err := url.PathUnescape(p); err == nil {
		p = decoded
	}

	p = strings.TrimLeft(p, "/")
	if p == "" {
		return r.index
	}
	return p
}

// contain はルートと相対パスを結合し、ルート外を指す場合はルート自身を返す
// シンボリックリンクは解決しない
func (r *Resolver) contain(rel string) (string, bool) {
	candidate := filepath.Join(r.root, filepath.FromSlash(rel))
	if candidate == r.root || strings.HasPrefix(candidate, r.rootPrefix) {
		return candidate, false
	}
	return r.root, true
}

func errorResponse(status int, body string, err error) Response {
	return Response{
		Status:      status,
		ContentType: ContentTypeText,
		Body:        []byte(body),
		Err:         err,
	}
}
