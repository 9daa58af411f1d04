// Package model はドメインモデルを定義する。
package model

import "time"

// ContactStatus はお問い合わせの処理状態を表す。
type ContactStatus string

const (
	// ContactStatusUnread は未読状態（作成直後のデフォルト）。
	ContactStatusUnread ContactStatus = "unread"
	// ContactStatusRead は既読状態。
	ContactStatusRead ContactStatus = "read"
	// ContactStatusResponded は返信済み状態。
	ContactStatusResponded ContactStatus = "responded"
)

// Contact はお問い合わせフォームの送信内容を表す。
// 認証の有無を問わず作成できるため、ClerkUserIDとIPAddressは任意。
type Contact struct {
	ID          string
	Name        string
	Email       string
	Subject     string
	Message     string
	Status      ContactStatus
	ClerkUserID string
	IPAddress   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
