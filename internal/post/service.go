// Package post は記事のサービス層を提供する。
//
// スラッグ生成と重複解消、カテゴリ検証、本文サニタイズ、
// 所有権に基づく認可判定を担う。永続化はrepositoryパッケージに委譲する。
package post

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/inkwell/internal/auth"
	"github.com/hitoshi/inkwell/internal/model"
	"github.com/hitoshi/inkwell/internal/repository"
)

// maxSlugAttempts はスラッグ重複解消の再試行上限。
// 上限到達はSLUG_CONFLICTエラーとして呼び出し側へ返す。
const maxSlugAttempts = 50

// maxTitleLength はタイトルの最大文字数（rune数）。
const maxTitleLength = 200

// Provisioner は書き込み操作の前にローカルユーザーを保証するインターフェース。
type Provisioner interface {
	EnsureUser(ctx context.Context, principal *auth.Principal) (*model.User, error)
}

// Sanitizer は記事本文のHTMLサニタイズのインターフェース。
type Sanitizer interface {
	Sanitize(rawHTML string) string
}

// MetricsCollector は記事関連のメトリクス記録のインターフェース。
type MetricsCollector interface {
	RecordPostCreated()
	RecordPostVisit()
}

// Service は記事サービス。
type Service struct {
	posts       repository.PostRepository
	users       repository.UserRepository
	provisioner Provisioner
	sanitizer   Sanitizer
	metrics     MetricsCollector
}

// NewService はServiceを生成する。metricsはnil許容。
func NewService(
	posts repository.PostRepository,
	users repository.UserRepository,
	provisioner Provisioner,
	sanitizer Sanitizer,
	metrics MetricsCollector,
) *Service {
	return &Service{
		posts:       posts,
		users:       users,
		provisioner: provisioner,
		sanitizer:   sanitizer,
		metrics:     metrics,
	}
}

// ListParams は記事一覧の検索パラメータ。
// AuthorUsernameはユーザー名であり、List内でユーザーIDへ解決される。
type ListParams struct {
	Page           int
	Limit          int
	Category       string
	AuthorUsername string
	Search         string
	FeaturedOnly   bool
	Sort           string
}

// ListResult は記事一覧とページング情報。
type ListResult struct {
	Posts   []model.PostWithAuthor
	HasMore bool
}

// List は検索条件に合致する記事一覧を返す。
// 未知の著者名が指定された場合はAUTHOR_NOT_FOUNDを返す。
// 無効なカテゴリはINVALID_CATEGORYを返す。
func (s *Service) List(ctx context.Context, p ListParams) (*ListResult, error) {
	q := model.PostListQuery{
		Page:         p.Page,
		Limit:        p.Limit,
		Search:       strings.TrimSpace(p.Search),
		FeaturedOnly: p.FeaturedOnly,
		Sort:         model.PostSortNewest,
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 10
	}

	if p.Category != "" {
		c := model.Category(p.Category)
		if !model.IsValidCategory(c) {
			return nil, model.NewInvalidCategoryError(p.Category)
		}
		q.Category = c
	}

	switch model.PostSort(p.Sort) {
	case model.PostSortOldest, model.PostSortPopular, model.PostSortTrending:
		q.Sort = model.PostSort(p.Sort)
	}

	if p.AuthorUsername != "" {
		author, err := s.users.FindByUsername(ctx, p.AuthorUsername)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve author: %w", err)
		}
		if author == nil {
			return nil, model.NewAuthorNotFoundError(p.AuthorUsername)
		}
		q.AuthorUserID = author.ID
	}

	posts, hasMore, err := s.posts.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	return &ListResult{Posts: posts, HasMore: hasMore}, nil
}

// GetBySlug はスラッグで記事を取得し、訪問数を1増やす。
// 冪等ではない。読み取りのたびに訪問数が加算される。
func (s *Service) GetBySlug(ctx context.Context, slug string) (*model.PostWithAuthor, error) {
	if err := s.posts.IncrementVisits(ctx, slug); err != nil {
		// 訪問数の加算失敗は読み取りを妨げない
		slog.Warn("failed to increment visits", slog.String("slug", slug), slog.String("error", err.Error()))
	} else if s.metrics != nil {
		s.metrics.RecordPostVisit()
	}

	found, err := s.posts.FindBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to find post by slug: %w", err)
	}
	if found == nil {
		return nil, model.NewPostNotFoundError()
	}

	return found, nil
}

// GetByID はIDで記事を取得する。訪問数は変化しない。
func (s *Service) GetByID(ctx context.Context, id string) (*model.PostWithAuthor, error) {
	found, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find post by id: %w", err)
	}
	if found == nil {
		return nil, model.NewPostNotFoundError()
	}
	return found, nil
}

// PostInput は記事の作成・更新の入力。
type PostInput struct {
	Title        string
	Description  string
	Category     string
	Content      string
	ImageURL     string
	Translations map[string]model.PostTranslation
}

// Create は記事を作成する。
// スラッグはタイトルから生成し、重複時は連番サフィックスで解消する。
func (s *Service) Create(ctx context.Context, principal *auth.Principal, input PostInput) (*model.PostWithAuthor, error) {
	user, err := s.provisioner.EnsureUser(ctx, principal)
	if err != nil {
		slog.Error("lazy provisioning failed", slog.String("clerk_user_id", principal.ClerkUserID), slog.String("error", err.Error()))
		return nil, model.NewProvisionFailedError()
	}

	category, apiErr := validateInput(&input)
	if apiErr != nil {
		return nil, apiErr
	}

	now := time.Now()
	p := &model.Post{
		ID:           uuid.New().String(),
		UserID:       user.ID,
		Title:        strings.TrimSpace(input.Title),
		Description:  strings.TrimSpace(input.Description),
		Category:     category,
		Content:      s.sanitizer.Sanitize(input.Content),
		ImageURL:     strings.TrimSpace(input.ImageURL),
		Translations: input.Translations,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if p.Description == "" {
		p.Description = Excerpt(p.Content)
	}

	if err := s.createWithUniqueSlug(ctx, p); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordPostCreated()
	}
	slog.Info("post created",
		slog.String("post_id", p.ID),
		slog.String("slug", p.Slug),
		slog.String("user_id", user.ID),
	)

	return s.GetByID(ctx, p.ID)
}

// createWithUniqueSlug はスラッグ重複時に連番サフィックスを付けて再試行する。
// 一意性は検査してから挿入するのではなく、DBの一意制約違反で検出する。
func (s *Service) createWithUniqueSlug(ctx context.Context, p *model.Post) error {
	base := Slugify(p.Title)
	if base == "" {
		base = "post"
	}

	for attempt := 1; attempt <= maxSlugAttempts; attempt++ {
		if attempt == 1 {
			p.Slug = base
		} else {
			p.Slug = fmt.Sprintf("%s-%d", base, attempt)
		}

		err := s.posts.Create(ctx, p)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicateSlug) {
			return fmt.Errorf("failed to create post: %w", err)
		}
	}

	return model.NewSlugConflictError(base)
}

// Update は記事の可変フィールドを更新する。スラッグは変更されない。
// 所有者または管理者のみ更新できる。
func (s *Service) Update(ctx context.Context, principal *auth.Principal, id string, input PostInput) (*model.PostWithAuthor, error) {
	existing, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}
	if existing == nil {
		return nil, model.NewPostNotFoundError()
	}

	if !principal.IsAdmin() && existing.AuthorClerkID != principal.ClerkUserID {
		return nil, model.NewForbiddenError("この記事を編集する権限がありません。")
	}

	category, apiErr := validateInput(&input)
	if apiErr != nil {
		return nil, apiErr
	}

	updated := existing.Post
	updated.Title = strings.TrimSpace(input.Title)
	updated.Description = strings.TrimSpace(input.Description)
	updated.Category = category
	updated.Content = s.sanitizer.Sanitize(input.Content)
	updated.ImageURL = strings.TrimSpace(input.ImageURL)
	updated.Translations = input.Translations
	updated.UpdatedAt = time.Now()
	if updated.Description == "" {
		updated.Description = Excerpt(updated.Content)
	}

	if err := s.posts.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}

	return s.GetByID(ctx, id)
}

// Delete は記事を削除する。
// 管理者は全記事を削除でき、それ以外は自分の記事のみ削除できる。
// 非管理者に対しては不存在と所有外を区別せずFORBIDDENを返す。
func (s *Service) Delete(ctx context.Context, principal *auth.Principal, id string) error {
	if principal.IsAdmin() {
		deleted, err := s.posts.DeleteByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to delete post: %w", err)
		}
		if !deleted {
			return model.NewPostNotFoundError()
		}
		return nil
	}

	user, err := s.provisioner.EnsureUser(ctx, principal)
	if err != nil {
		slog.Error("lazy provisioning failed", slog.String("clerk_user_id", principal.ClerkUserID), slog.String("error", err.Error()))
		return model.NewProvisionFailedError()
	}

	deleted, err := s.posts.DeleteByIDAndUser(ctx, id, user.ID)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if !deleted {
		return model.NewForbiddenError("この記事を削除する権限がありません。")
	}

	return nil
}

// Feature は記事の注目フラグを切り替える。管理者のみ実行できる。
func (s *Service) Feature(ctx context.Context, principal *auth.Principal, id string, featured bool) (*model.PostWithAuthor, error) {
	if !principal.IsAdmin() {
		return nil, model.NewForbiddenError("注目記事の設定は管理者のみ実行できます。")
	}

	updated, err := s.posts.SetFeatured(ctx, id, featured)
	if err != nil {
		return nil, fmt.Errorf("failed to set featured flag: %w", err)
	}
	if updated == nil {
		return nil, model.NewPostNotFoundError()
	}

	return updated, nil
}

// validateInput は作成・更新共通のバリデーションを行い、正規化済みカテゴリを返す。
func validateInput(input *PostInput) (model.Category, *model.APIError) {
	fields := map[string]string{}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		fields["title"] = "タイトルは必須です。"
	} else if len([]rune(title)) > maxTitleLength {
		fields["title"] = fmt.Sprintf("タイトルは%d文字以内で入力してください。", maxTitleLength)
	}

	if strings.TrimSpace(input.Content) == "" {
		fields["content"] = "本文は必須です。"
	}

	category := model.DefaultCategory
	if input.Category != "" {
		c := model.Category(input.Category)
		if !model.IsValidCategory(c) {
			return "", model.NewInvalidCategoryError(input.Category)
		}
		category = c
	}

	if len(fields) > 0 {
		return "", model.NewValidationError(fields)
	}

	return category, nil
}
