package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hitoshi/inkwell/internal/model"
)

// PostgresPostRepo はPostgreSQLを使用した記事リポジトリ。
type PostgresPostRepo struct {
	db *sql.DB
}

// NewPostgresPostRepo はPostgresPostRepoを生成する。
func NewPostgresPostRepo(db *sql.DB) *PostgresPostRepo {
	return &PostgresPostRepo{db: db}
}

// postWithAuthorColumns は記事とJOINした著者フィールドのSELECT句。
const postWithAuthorColumns = `
	p.id, p.user_id, p.title, p.slug, p.description, p.category, p.content,
	p.image_url, p.is_featured, p.visits, p.translations, p.created_at, p.updated_at,
	u.username, u.image_url, u.clerk_user_id`

// scanPostWithAuthor は1行分の記事（著者付き）をスキャンする。
func scanPostWithAuthor(scanner interface{ Scan(dest ...any) error }) (*model.PostWithAuthor, error) {
	p := &model.PostWithAuthor{}
	var translations []byte
	err := scanner.Scan(
		&p.ID, &p.UserID, &p.Title, &p.Slug, &p.Description, &p.Category, &p.Content,
		&p.ImageURL, &p.IsFeatured, &p.Visits, &translations, &p.CreatedAt, &p.UpdatedAt,
		&p.AuthorUsername, &p.AuthorImageURL, &p.AuthorClerkID,
	)
	if err != nil {
		return nil, err
	}
	if len(translations) > 0 {
		if err := json.Unmarshal(translations, &p.Translations); err != nil {
			return nil, fmt.Errorf("failed to decode translations: %w", err)
		}
	}
	return p, nil
}

// List は検索条件に合致する記事一覧を著者情報付きで返す。
// limit+1件を取得して次ページの有無を判定する。
func (r *PostgresPostRepo) List(ctx context.Context, q model.PostListQuery) ([]model.PostWithAuthor, bool, error) {
	var conds []string
	var args []any

	addArg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.Category != "" {
		conds = append(conds, "p.category = "+addArg(string(q.Category)))
	}
	if q.AuthorUserID != "" {
		conds = append(conds, "p.user_id = "+addArg(q.AuthorUserID))
	}
	if q.Search != "" {
		conds = append(conds, "p.title ILIKE "+addArg("%"+q.Search+"%"))
	}
	if q.FeaturedOnly {
		conds = append(conds, "p.is_featured = TRUE")
	}

	orderBy := "p.created_at DESC"
	switch q.Sort {
	case model.PostSortOldest:
		orderBy = "p.created_at ASC"
	case model.PostSortPopular:
		orderBy = "p.visits DESC"
	case model.PostSortTrending:
		orderBy = "p.visits DESC"
		conds = append(conds, "p.created_at >= now() - INTERVAL '7 days'")
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	limitArg := addArg(q.Limit + 1)
	offsetArg := addArg((q.Page - 1) * q.Limit)

	query := fmt.Sprintf(`
		SELECT %s
		FROM posts p
		JOIN users u ON u.id = p.user_id
		%s
		ORDER BY %s
		LIMIT %s OFFSET %s`,
		postWithAuthorColumns, where, orderBy, limitArg, offsetArg)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	var posts []model.PostWithAuthor
	for rows.Next() {
		p, err := scanPostWithAuthor(rows)
		if err != nil {
			return nil, false, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("failed to iterate posts: %w", err)
	}

	hasMore := len(posts) > q.Limit
	if hasMore {
		posts = posts[:q.Limit]
	}

	return posts, hasMore, nil
}

// FindByID は指定IDの記事を著者情報付きで取得する。見つからない場合はnilを返す。
func (r *PostgresPostRepo) FindByID(ctx context.Context, id string) (*model.PostWithAuthor, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+postWithAuthorColumns+`
		FROM posts p JOIN users u ON u.id = p.user_id
		WHERE p.id = $1`, id)

	p, err := scanPostWithAuthor(row)
	if err == sql.ErrNoRows || isInvalidTextRepresentation(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find post by ID: %w", err)
	}
	return p, nil
}

// FindBySlug はスラッグで記事を著者情報付きで取得する。見つからない場合はnilを返す。
func (r *PostgresPostRepo) FindBySlug(ctx context.Context, slug string) (*model.PostWithAuthor, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+postWithAuthorColumns+`
		FROM posts p JOIN users u ON u.id = p.user_id
		WHERE p.slug = $1`, slug)

	p, err := scanPostWithAuthor(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find post by slug: %w", err)
	}
	return p, nil
}

// Create は記事を作成する。スラッグの一意制約に違反した場合はErrDuplicateSlugを返す。
func (r *PostgresPostRepo) Create(ctx context.Context, post *model.Post) error {
	translations, err := marshalTranslations(post.Translations)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO posts (id, user_id, title, slug, description, category, content,
			image_url, is_featured, visits, translations, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		post.ID, post.UserID, post.Title, post.Slug, post.Description,
		string(post.Category), post.Content, post.ImageURL, post.IsFeatured,
		post.Visits, translations, post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateSlug
		}
		return fmt.Errorf("failed to insert post: %w", err)
	}
	return nil
}

// Update は記事の可変フィールドを更新する。スラッグは変更しない。
func (r *PostgresPostRepo) Update(ctx context.Context, post *model.Post) error {
	translations, err := marshalTranslations(post.Translations)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE posts
		SET title = $1, description = $2, category = $3, content = $4,
			image_url = $5, translations = $6, updated_at = now()
		WHERE id = $7`,
		post.Title, post.Description, string(post.Category), post.Content,
		post.ImageURL, translations, post.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	return nil
}

// DeleteByID は指定IDの記事を無条件に削除する（管理者用）。
func (r *PostgresPostRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		if isInvalidTextRepresentation(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to delete post: %w", err)
	}
	return affected(result)
}

// DeleteByIDAndUser は{id, 所有ユーザー}のスコープで記事を削除する。
func (r *PostgresPostRepo) DeleteByIDAndUser(ctx context.Context, id, userID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM posts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		if isInvalidTextRepresentation(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to delete post: %w", err)
	}
	return affected(result)
}

// IncrementVisits はスラッグで指定した記事の訪問数を1増やす。
func (r *PostgresPostRepo) IncrementVisits(ctx context.Context, slug string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE posts SET visits = visits + 1 WHERE slug = $1`, slug)
	if err != nil {
		return fmt.Errorf("failed to increment visits: %w", err)
	}
	return nil
}

// SetFeatured は注目フラグを設定し、更新後の記事を返す。
func (r *PostgresPostRepo) SetFeatured(ctx context.Context, id string, featured bool) (*model.PostWithAuthor, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE posts SET is_featured = $1, updated_at = now() WHERE id = $2`, featured, id)
	if err != nil {
		if isInvalidTextRepresentation(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to set featured flag: %w", err)
	}
	ok, err := affected(result)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return r.FindByID(ctx, id)
}

// marshalTranslations は翻訳マップをJSONBカラム用にエンコードする。
func marshalTranslations(m map[string]model.PostTranslation) ([]byte, error) {
	if m == nil {
		m = map[string]model.PostTranslation{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode translations: %w", err)
	}
	return b, nil
}

// affected はRowsAffectedが1以上かを返す。
func affected(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

// compile-time interface check
var _ PostRepository = (*PostgresPostRepo)(nil)
