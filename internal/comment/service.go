// Package comment はコメントのサービス層を提供する。
package comment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/inkwell/internal/auth"
	"github.com/hitoshi/inkwell/internal/model"
	"github.com/hitoshi/inkwell/internal/repository"
)

// maxContentLength はコメント本文の最大文字数（rune数）。
const maxContentLength = 1000

// Provisioner は書き込み操作の前にローカルユーザーを保証するインターフェース。
type Provisioner interface {
	EnsureUser(ctx context.Context, principal *auth.Principal) (*model.User, error)
}

// Sanitizer はコメント本文のタグ除去のインターフェース。
type Sanitizer interface {
	SanitizePlainText(raw string) string
}

// MetricsCollector はコメント関連のメトリクス記録のインターフェース。
type MetricsCollector interface {
	RecordCommentCreated()
}

// Service はコメントサービス。
type Service struct {
	comments    repository.CommentRepository
	posts       repository.PostRepository
	provisioner Provisioner
	sanitizer   Sanitizer
	metrics     MetricsCollector
}

// NewService はServiceを生成する。metricsはnil許容。
func NewService(
	comments repository.CommentRepository,
	posts repository.PostRepository,
	provisioner Provisioner,
	sanitizer Sanitizer,
	metrics MetricsCollector,
) *Service {
	return &Service{
		comments:    comments,
		posts:       posts,
		provisioner: provisioner,
		sanitizer:   sanitizer,
		metrics:     metrics,
	}
}

// ListByPost は記事のコメント一覧を作成日時降順で返す。
// 記事が存在しない場合はPOST_NOT_FOUNDを返す。
func (s *Service) ListByPost(ctx context.Context, postID string) ([]model.CommentWithAuthor, error) {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}
	if post == nil {
		return nil, model.NewPostNotFoundError()
	}

	comments, err := s.comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	return comments, nil
}

// Create はコメントを作成し、著者情報付きで返す。
// 本文はタグ除去の上、1〜maxContentLength文字を要求する。
func (s *Service) Create(ctx context.Context, principal *auth.Principal, postID, content string) (*model.CommentWithAuthor, error) {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}
	if post == nil {
		return nil, model.NewPostNotFoundError()
	}

	content = s.sanitizer.SanitizePlainText(content)
	if strings.TrimSpace(content) == "" {
		return nil, model.NewValidationError(map[string]string{
			"content": "コメント本文は必須です。",
		})
	}
	if len([]rune(content)) > maxContentLength {
		return nil, model.NewValidationError(map[string]string{
			"content": fmt.Sprintf("コメントは%d文字以内で入力してください。", maxContentLength),
		})
	}

	user, err := s.provisioner.EnsureUser(ctx, principal)
	if err != nil {
		slog.Error("lazy provisioning failed", slog.String("clerk_user_id", principal.ClerkUserID), slog.String("error", err.Error()))
		return nil, model.NewProvisionFailedError()
	}

	now := time.Now()
	c := &model.Comment{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		PostID:    postID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.comments.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordCommentCreated()
	}
	slog.Info("comment created",
		slog.String("comment_id", c.ID),
		slog.String("post_id", postID),
		slog.String("user_id", user.ID),
	)

	// 著者情報はプロビジョニング済みユーザーから直接埋める。再取得は不要。
	return &model.CommentWithAuthor{
		Comment:        *c,
		AuthorUsername: user.Username,
		AuthorImageURL: user.ImageURL,
	}, nil
}

// Delete はコメントを削除する。
// 管理者は全コメントを削除でき、それ以外は自分のコメントのみ削除できる。
// 非管理者に対しては不存在と所有外を区別せずFORBIDDENを返す。
func (s *Service) Delete(ctx context.Context, principal *auth.Principal, id string) error {
	if principal.IsAdmin() {
		deleted, err := s.comments.DeleteByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to delete comment: %w", err)
		}
		if !deleted {
			return model.NewCommentNotFoundError()
		}
		return nil
	}

	user, err := s.provisioner.EnsureUser(ctx, principal)
	if err != nil {
		slog.Error("lazy provisioning failed", slog.String("clerk_user_id", principal.ClerkUserID), slog.String("error", err.Error()))
		return model.NewProvisionFailedError()
	}

	deleted, err := s.comments.DeleteByIDAndUser(ctx, id, user.ID)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	if !deleted {
		return model.NewForbiddenError("このコメントを削除する権限がありません。")
	}

	return nil
}
