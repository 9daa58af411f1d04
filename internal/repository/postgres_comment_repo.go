package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/inkwell/internal/model"
)

// PostgresCommentRepo はPostgreSQLを使用したコメントリポジトリ。
type PostgresCommentRepo struct {
	db *sql.DB
}

// NewPostgresCommentRepo はPostgresCommentRepoを生成する。
func NewPostgresCommentRepo(db *sql.DB) *PostgresCommentRepo {
	return &PostgresCommentRepo{db: db}
}

// ListByPost は記事のコメント一覧を著者情報付きで作成日時降順で返す。
func (r *PostgresCommentRepo) ListByPost(ctx context.Context, postID string) ([]model.CommentWithAuthor, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.user_id, c.post_id, c.content, c.created_at, c.updated_at,
			u.username, u.image_url
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.post_id = $1
		ORDER BY c.created_at DESC`, postID)
	if err != nil {
		if isInvalidTextRepresentation(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []model.CommentWithAuthor
	for rows.Next() {
		var c model.CommentWithAuthor
		err := rows.Scan(
			&c.ID, &c.UserID, &c.PostID, &c.Content, &c.CreatedAt, &c.UpdatedAt,
			&c.AuthorUsername, &c.AuthorImageURL,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comments: %w", err)
	}

	return comments, nil
}

// Create はコメントを作成する。
func (r *PostgresCommentRepo) Create(ctx context.Context, comment *model.Comment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO comments (id, user_id, post_id, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		comment.ID, comment.UserID, comment.PostID, comment.Content,
		comment.CreatedAt, comment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	return nil
}

// DeleteByID は指定IDのコメントを無条件に削除する（管理者用）。
func (r *PostgresCommentRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		if isInvalidTextRepresentation(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to delete comment: %w", err)
	}
	return affected(result)
}

// DeleteByIDAndUser は{id, 所有ユーザー}のスコープでコメントを削除する。
func (r *PostgresCommentRepo) DeleteByIDAndUser(ctx context.Context, id, userID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM comments WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		if isInvalidTextRepresentation(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to delete comment: %w", err)
	}
	return affected(result)
}

// compile-time interface check
var _ CommentRepository = (*PostgresCommentRepo)(nil)
