package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/inkwell/internal/auth"
	"github.com/hitoshi/inkwell/internal/model"
)

// mockUserRepo はUserFinderCreatorのモック実装。
type mockUserRepo struct {
	findByClerkIDFn func(ctx context.Context, clerkUserID string) (*model.User, error)
	findOrCreateFn  func(ctx context.Context, user *model.User) (*model.User, error)
}

func (m *mockUserRepo) FindByClerkID(ctx context.Context, clerkUserID string) (*model.User, error) {
	return m.findByClerkIDFn(ctx, clerkUserID)
}

func (m *mockUserRepo) FindOrCreate(ctx context.Context, user *model.User) (*model.User, error) {
	return m.findOrCreateFn(ctx, user)
}

func TestEnsureUser_ReturnsExistingUser(t *testing.T) {
	existing := &model.User{ID: "u-1", ClerkUserID: "user_abc", Username: "alice"}
	repo := &mockUserRepo{
		findByClerkIDFn: func(ctx context.Context, clerkUserID string) (*model.User, error) {
			return existing, nil
		},
		findOrCreateFn: func(ctx context.Context, user *model.User) (*model.User, error) {
			t.Fatal("FindOrCreate should not be called for existing user")
			return nil, nil
		},
	}

	svc := NewService(repo)
	user, err := svc.EnsureUser(context.Background(), &auth.Principal{ClerkUserID: "user_abc"})
	if err != nil {
		t.Fatalf("EnsureUser() error = %v", err)
	}
	if user.ID != "u-1" {
		t.Errorf("user.ID = %q, want u-1", user.ID)
	}
}

func TestEnsureUser_ProvisionsMissingUser(t *testing.T) {
	var captured *model.User
	repo := &mockUserRepo{
		findByClerkIDFn: func(ctx context.Context, clerkUserID string) (*model.User, error) {
			return nil, nil
		},
		findOrCreateFn: func(ctx context.Context, user *model.User) (*model.User, error) {
			captured = user
			return user, nil
		},
	}

	svc := NewService(repo)
	principal := &auth.Principal{
		ClerkUserID: "user_2abcDEF",
		Username:    "alice",
		Email:       "alice@example.com",
		ImageURL:    "https://img.example.com/alice.png",
	}
	user, err := svc.EnsureUser(context.Background(), principal)
	if err != nil {
		t.Fatalf("EnsureUser() error = %v", err)
	}

	if captured == nil {
		t.Fatal("FindOrCreate was not called")
	}
	if user.Username != "alice" {
		t.Errorf("Username = %q, want alice", user.Username)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("Email = %q", user.Email)
	}
	if user.ID == "" {
		t.Error("ID should be generated")
	}
	if user.ClerkUserID != "user_2abcDEF" {
		t.Errorf("ClerkUserID = %q", user.ClerkUserID)
	}
}

func TestEnsureUser_PropagatesLookupError(t *testing.T) {
	repo := &mockUserRepo{
		findByClerkIDFn: func(ctx context.Context, clerkUserID string) (*model.User, error) {
			return nil, errors.New("connection refused")
		},
	}

	svc := NewService(repo)
	if _, err := svc.EnsureUser(context.Background(), &auth.Principal{ClerkUserID: "user_x"}); err == nil {
		t.Error("EnsureUser() should return error when lookup fails")
	}
}

func TestSynthesizeUsername_Priority(t *testing.T) {
	tests := []struct {
		name        string
		username    string
		email       string
		clerkUserID string
		want        string
	}{
		{
			name:        "usernameクレームを最優先",
			username:    "alice",
			email:       "bob@example.com",
			clerkUserID: "user_abc",
			want:        "alice",
		},
		{
			name:        "次にメールのローカル部",
			email:       "bob@example.com",
			clerkUserID: "user_abc",
			want:        "bob",
		},
		{
			name:        "最後に外部ID参照のランダム部",
			clerkUserID: "user_2kXYZ9",
			want:        "2kXYZ9",
		},
		{
			name:        "区切りの無いIDはフォールバック接頭辞付き",
			clerkUserID: "abcdef1234567890",
			want:        "user_34567890",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := synthesizeUsername(tt.username, tt.email, tt.clerkUserID); got != tt.want {
				t.Errorf("synthesizeUsername() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSynthesizeEmail_Fallback(t *testing.T) {
	if got := synthesizeEmail("", "user_abc"); got != "user_abc@temp.com" {
		t.Errorf("synthesizeEmail() = %q", got)
	}

	if got := synthesizeEmail("real@example.com", "user_abc"); got != "real@example.com" {
		t.Errorf("synthesizeEmail() = %q", got)
	}
}

func TestSyncFromWebhook_RequiresUserID(t *testing.T) {
	svc := NewService(&mockUserRepo{})
	if _, err := svc.SyncFromWebhook(context.Background(), "", "alice", "a@example.com", ""); err == nil {
		t.Error("SyncFromWebhook() should fail without user id")
	}
}

func TestSyncFromWebhook_FallsBackToEmailLocalPart(t *testing.T) {
	var captured *model.User
	repo := &mockUserRepo{
		findOrCreateFn: func(ctx context.Context, user *model.User) (*model.User, error) {
			captured = user
			return user, nil
		},
	}

	svc := NewService(repo)
	if _, err := svc.SyncFromWebhook(context.Background(), "user_hook", "", "hook@example.com", ""); err != nil {
		t.Fatalf("SyncFromWebhook() error = %v", err)
	}
	if captured.Username != "hook" {
		t.Errorf("Username = %q, want email local part", captured.Username)
	}
}

// ユーザー名もメールも無いペイロードでも、遅延プロビジョニングと同じ
// 合成規則によって空文字のレコードにはならないことを確認する。
func TestSyncFromWebhook_SynthesizesMissingClaims(t *testing.T) {
	var captured *model.User
	repo := &mockUserRepo{
		findOrCreateFn: func(ctx context.Context, user *model.User) (*model.User, error) {
			captured = user
			return user, nil
		},
	}

	svc := NewService(repo)
	if _, err := svc.SyncFromWebhook(context.Background(), "user_2kXYZ9", "", "", ""); err != nil {
		t.Fatalf("SyncFromWebhook() error = %v", err)
	}
	if captured.Username != "2kXYZ9" {
		t.Errorf("Username = %q, want id-derived fallback", captured.Username)
	}
	if captured.Email != "user_2kXYZ9@temp.com" {
		t.Errorf("Email = %q, want placeholder", captured.Email)
	}
}
