package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/inkwell/internal/model"
)

// PostgresContactRepo はPostgreSQLを使用したお問い合わせリポジトリ。
type PostgresContactRepo struct {
	db *sql.DB
}

// NewPostgresContactRepo はPostgresContactRepoを生成する。
func NewPostgresContactRepo(db *sql.DB) *PostgresContactRepo {
	return &PostgresContactRepo{db: db}
}

// Create はお問い合わせを作成する。
// ClerkUserIDとIPAddressは空文字の場合NULLで保存する。
func (r *PostgresContactRepo) Create(ctx context.Context, contact *model.Contact) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO contacts (id, name, email, subject, message, status,
			clerk_user_id, ip_address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''), $9, $10)`,
		contact.ID, contact.Name, contact.Email, contact.Subject, contact.Message,
		string(contact.Status), contact.ClerkUserID, contact.IPAddress,
		contact.CreatedAt, contact.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert contact: %w", err)
	}
	return nil
}

// UpdateStatus は処理状態を更新する。対象が存在したかをboolで返す。
func (r *PostgresContactRepo) UpdateStatus(ctx context.Context, id string, status model.ContactStatus) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE contacts SET status = $1, updated_at = now() WHERE id = $2`,
		string(status), id)
	if err != nil {
		if isInvalidTextRepresentation(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to update contact status: %w", err)
	}
	return affected(result)
}

// ListRecent は新しい順にお問い合わせ一覧を返す（運用照会用）。
func (r *PostgresContactRepo) ListRecent(ctx context.Context, limit int) ([]model.Contact, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, email, subject, message, status,
			COALESCE(clerk_user_id, ''), COALESCE(ip_address, ''),
			created_at, updated_at
		FROM contacts
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	var contacts []model.Contact
	for rows.Next() {
		var c model.Contact
		var status string
		err := rows.Scan(
			&c.ID, &c.Name, &c.Email, &c.Subject, &c.Message, &status,
			&c.ClerkUserID, &c.IPAddress, &c.CreatedAt, &c.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		c.Status = model.ContactStatus(status)
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contacts: %w", err)
	}

	return contacts, nil
}

// compile-time interface check
var _ ContactRepository = (*PostgresContactRepo)(nil)
