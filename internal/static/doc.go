// Package static はリクエストパスをルートディレクトリ配下のファイルに解決する
//
// # 責務
// - リクエストパスの正規化（クエリ除去・パーセントデコード・先頭スラッシュ除去）
// - ルート外へのパストラバーサルの封じ込め
// - 拡張子からのContent-Type決定
// - SPA向けの index.html フォールバック
//
// # 仕様
//   - 応答ステータスは 200 / 403 / 404 / 500 のいずれか
//   - ルートから逸脱するパスはエラーにせずルート自身として扱う
//   - Resolver は生成後に変更されないため、複数ゴルーチンから同時に使用できる
//   - ファイルシステムへのアクセスは読み込みのみ
package static
