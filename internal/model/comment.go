// Package model はドメインモデルを定義する。
package model

import "time"

// Comment は記事へのコメントを表す。
type Comment struct {
	ID        string
	UserID    string
	PostID    string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CommentWithAuthor はコメントと著者の表示用フィールドを結合したモデル。
// クライアントが再取得せずに表示できるよう、レスポンスに含める。
type CommentWithAuthor struct {
	Comment
	AuthorUsername string
	AuthorImageURL string
}
