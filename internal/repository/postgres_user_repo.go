package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/inkwell/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

const userColumns = `id, clerk_user_id, username, email, image_url, created_at, updated_at`

// scanUser は1行分のユーザーをスキャンする。
func scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(
		&user.ID, &user.ClerkUserID, &user.Username, &user.Email,
		&user.ImageURL, &user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// FindByClerkID は外部ID参照でユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByClerkID(ctx context.Context, clerkUserID string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE clerk_user_id = $1`, clerkUserID))
	if err != nil {
		return nil, fmt.Errorf("failed to find user by clerk ID: %w", err)
	}
	return user, nil
}

// FindByUsername はユーザー名でユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if err != nil {
		return nil, fmt.Errorf("failed to find user by username: %w", err)
	}
	return user, nil
}

// FindOrCreate は外部ID参照に対するユーザーを冪等に取得または作成する。
// ON CONFLICT DO NOTHINGの条件付きINSERTの後に再読込するため、
// WebhookプッシュとAPI側の遅延プロビジョニングが同時に挿入しても
// どちらか一方のレコードに収束する。
func (r *PostgresUserRepo) FindOrCreate(ctx context.Context, user *model.User) (*model.User, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, clerk_user_id, username, email, image_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (clerk_user_id) DO NOTHING`,
		user.ID, user.ClerkUserID, user.Username, user.Email,
		user.ImageURL, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	// 挿入の成否に関わらず確定した1件を読み直す
	created, err := r.FindByClerkID(ctx, user.ClerkUserID)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, fmt.Errorf("user not found after conditional insert: %s", user.ClerkUserID)
	}
	return created, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
