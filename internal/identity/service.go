// Package identity は外部ID参照とローカルユーザーレコードの橋渡しを提供する。
//
// ユーザーレコードはIDプロバイダーのWebhookプッシュと、認証済みリクエストの
// 初回書き込み時の遅延プロビジョニングの2経路から作成されうる。
// 両経路は本パッケージの冪等なfind-or-create（条件付きINSERT）を共有し、
// 同一の外部ID参照に対して常に1レコードへ収束する。
package identity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/inkwell/internal/auth"
	"github.com/hitoshi/inkwell/internal/model"
)

// UserFinderCreator はユーザーの検索と冪等作成に必要なインターフェース。
// repository.UserRepositoryの部分集合として定義する。
type UserFinderCreator interface {
	FindByClerkID(ctx context.Context, clerkUserID string) (*model.User, error)
	FindOrCreate(ctx context.Context, user *model.User) (*model.User, error)
}

// Service はユーザープロビジョニングのサービス層。
type Service struct {
	users UserFinderCreator
}

// NewService はServiceを生成する。
func NewService(users UserFinderCreator) *Service {
	return &Service{users: users}
}

// EnsureUser は検証済みPrincipalに対応するローカルユーザーを返す。
// 存在しない場合はセッションクレームからユーザー名とメールを合成して作成する
// （遅延プロビジョニング）。Webhook経路と競合しても条件付きINSERTにより
// 既存レコードへ収束する。
func (s *Service) EnsureUser(ctx context.Context, principal *auth.Principal) (*model.User, error) {
	user, err := s.users.FindByClerkID(ctx, principal.ClerkUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user != nil {
		return user, nil
	}

	now := time.Now()
	candidate := &model.User{
		ID:          uuid.New().String(),
		ClerkUserID: principal.ClerkUserID,
		Username:    synthesizeUsername(principal.Username, principal.Email, principal.ClerkUserID),
		Email:       synthesizeEmail(principal.Email, principal.ClerkUserID),
		ImageURL:    principal.ImageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := s.users.FindOrCreate(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("failed to provision user: %w", err)
	}

	slog.Info("user provisioned lazily",
		slog.String("clerk_user_id", principal.ClerkUserID),
		slog.String("user_id", created.ID),
	)

	return created, nil
}

// SyncFromWebhook はWebhookのuser.createdイベントからユーザーを作成する。
// 遅延プロビジョニングと同一のfind-or-createと同一のクレーム合成を通るため、
// 到着順序に関わらず冪等で、ペイロードにユーザー名やメールが無くても
// 空文字のレコードにはならない。
func (s *Service) SyncFromWebhook(ctx context.Context, clerkUserID, username, email, imageURL string) (*model.User, error) {
	if clerkUserID == "" {
		return nil, fmt.Errorf("webhook event has no user id")
	}

	now := time.Now()
	candidate := &model.User{
		ID:          uuid.New().String(),
		ClerkUserID: clerkUserID,
		Username:    synthesizeUsername(username, email, clerkUserID),
		Email:       synthesizeEmail(email, clerkUserID),
		ImageURL:    imageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := s.users.FindOrCreate(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("failed to sync user from webhook: %w", err)
	}

	return created, nil
}

// synthesizeUsername はクレームからユーザー名を合成する。
// 優先順位: usernameクレーム → メールのローカル部 → 外部ID参照由来のフォールバック。
// 遅延プロビジョニングとWebhook同期の両経路で共有する。
func synthesizeUsername(username, email, clerkUserID string) string {
	if username != "" {
		return username
	}

	if email != "" {
		if local, _, found := strings.Cut(email, "@"); found && local != "" {
			return local
		}
	}

	// 外部ID参照は "user_<ランダム>" 形式。ランダム部をそのまま使う。
	if _, random, found := strings.Cut(clerkUserID, "_"); found && random != "" {
		return random
	}

	id := clerkUserID
	if len(id) > 8 {
		id = id[len(id)-8:]
	}
	return "user_" + id
}

// synthesizeEmail はメールクレームが無い場合にプレースホルダーを合成する。
func synthesizeEmail(email, clerkUserID string) string {
	if email != "" {
		return email
	}
	return clerkUserID + "@temp.com"
}
