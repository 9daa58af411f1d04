// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// IDプロバイダー（Clerk）のWebhookプッシュ、または初回認証リクエスト時の
// 遅延プロビジョニングのいずれかで作成される。
// clerk_user_idに対してレコードは常に1件のみ（DBの一意制約で保証）。
type User struct {
	ID          string
	ClerkUserID string
	Username    string
	Email       string
	ImageURL    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Role は認可判定に使用するロールを表す。
// 永続化せず、IDプロバイダーのセッションクレームからリクエストごとに解決する。
type Role string

const (
	// RoleUser は一般ユーザー。
	RoleUser Role = "user"
	// RoleAdmin は管理者。他ユーザーの記事・コメントの操作と注目記事の切替が可能。
	RoleAdmin Role = "admin"
)
