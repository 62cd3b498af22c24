// Package server は、開発用の静的ファイルHTTPサーバーを管理します。
//
// このパッケージは、HTTPサーバーの起動と停止、リクエストログ、
// パニックからの復旧、および static.Resolver への委譲を担当します。
//
// 責務:
//   - ループバックアドレスでのHTTPサーバーの起動と管理
//   - すべてのリクエストを static.Resolver で解決して応答
//   - リクエストIDの付与とアクセスログの出力
//   - グレースフルシャットダウン
//
// 仕様:
//   - ルーティングにはginを使用し、ルートは登録せずNoRouteで受ける
//   - HTTPメソッドによる分岐はしない
//   - ログ出力にはlogrusを使用
package server
