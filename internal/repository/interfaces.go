// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/inkwell/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByClerkID は外部ID参照でユーザーを検索する。見つからない場合はnilを返す。
	FindByClerkID(ctx context.Context, clerkUserID string) (*model.User, error)

	// FindByUsername はユーザー名でユーザーを検索する。見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// FindOrCreate は条件付きINSERT（ON CONFLICT DO NOTHING）と再読込で
	// 外部ID参照に対するユーザーを冪等に取得または作成する。
	// WebhookプッシュとAPI側の遅延プロビジョニングが同一コードパスを共有し、
	// 競合した挿入は再読込で吸収される。
	FindOrCreate(ctx context.Context, user *model.User) (*model.User, error)
}

// PostRepository は記事データの永続化インターフェース。
type PostRepository interface {
	// List は検索条件に合致する記事一覧を著者情報付きで返す。
	// 戻り値のboolは次ページが存在するかを示す。
	List(ctx context.Context, q model.PostListQuery) ([]model.PostWithAuthor, bool, error)

	// FindByID は指定IDの記事を著者情報付きで取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.PostWithAuthor, error)

	// FindBySlug はスラッグで記事を著者情報付きで取得する。見つからない場合はnilを返す。
	FindBySlug(ctx context.Context, slug string) (*model.PostWithAuthor, error)

	// Create は記事を作成する。スラッグの一意制約に違反した場合はErrDuplicateSlugを返す。
	Create(ctx context.Context, post *model.Post) error

	// Update は記事の可変フィールドを更新する。スラッグは変更しない。
	Update(ctx context.Context, post *model.Post) error

	// DeleteByID は指定IDの記事を無条件に削除する（管理者用）。
	// 削除対象が存在したかをboolで返す。
	DeleteByID(ctx context.Context, id string) (bool, error)

	// DeleteByIDAndUser は{id, 所有ユーザー}のスコープで記事を削除する。
	// 削除対象が存在したかをboolで返す。所有外と不存在は区別しない。
	DeleteByIDAndUser(ctx context.Context, id, userID string) (bool, error)

	// IncrementVisits はスラッグで指定した記事の訪問数を1増やす。
	// 冪等ではない。読み取りのたびに加算される。
	IncrementVisits(ctx context.Context, slug string) error

	// SetFeatured は注目フラグを設定し、更新後の記事を返す。
	// 記事が存在しない場合はnilを返す。
	SetFeatured(ctx context.Context, id string, featured bool) (*model.PostWithAuthor, error)
}

// CommentRepository はコメントデータの永続化インターフェース。
type CommentRepository interface {
	// ListByPost は記事のコメント一覧を著者情報付きで作成日時降順で返す。
	ListByPost(ctx context.Context, postID string) ([]model.CommentWithAuthor, error)

	// Create はコメントを作成する。
	Create(ctx context.Context, comment *model.Comment) error

	// DeleteByID は指定IDのコメントを無条件に削除する（管理者用）。
	// 削除対象が存在したかをboolで返す。
	DeleteByID(ctx context.Context, id string) (bool, error)

	// DeleteByIDAndUser は{id, 所有ユーザー}のスコープでコメントを削除する。
	// 削除対象が存在したかをboolで返す。所有外と不存在は区別しない。
	DeleteByIDAndUser(ctx context.Context, id, userID string) (bool, error)
}

// ContactRepository はお問い合わせデータの永続化インターフェース。
type ContactRepository interface {
	// Create はお問い合わせを作成する。
	Create(ctx context.Context, contact *model.Contact) error

	// UpdateStatus は処理状態を更新する。対象が存在したかをboolで返す。
	UpdateStatus(ctx context.Context, id string, status model.ContactStatus) (bool, error)

	// ListRecent は新しい順にお問い合わせ一覧を返す（運用照会用）。
	ListRecent(ctx context.Context, limit int) ([]model.Contact, error)
}
