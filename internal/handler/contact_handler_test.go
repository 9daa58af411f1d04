package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/inkwell/internal/auth"
	"github.com/hitoshi/inkwell/internal/contact"
	"github.com/hitoshi/inkwell/internal/model"
)

// mockContactService はContactServiceInterfaceのモック実装。
type mockContactService struct {
	submitFn     func(ctx context.Context, input contact.SubmitInput) (*model.Contact, error)
	listRecentFn func(ctx context.Context, limit int) ([]model.Contact, error)
	markStatusFn func(ctx context.Context, id string, status model.ContactStatus) error
}

func (m *mockContactService) Submit(ctx context.Context, input contact.SubmitInput) (*model.Contact, error) {
	return m.submitFn(ctx, input)
}

func (m *mockContactService) ListRecent(ctx context.Context, limit int) ([]model.Contact, error) {
	return m.listRecentFn(ctx, limit)
}

func (m *mockContactService) MarkStatus(ctx context.Context, id string, status model.ContactStatus) error {
	return m.markStatusFn(ctx, id, status)
}

func TestSubmitContact_Returns201WithContactID(t *testing.T) {
	var captured contact.SubmitInput
	svc := &mockContactService{
		submitFn: func(ctx context.Context, input contact.SubmitInput) (*model.Contact, error) {
			captured = input
			return &model.Contact{ID: "contact-1"}, nil
		},
	}

	body := `{"name":"山田太郎","email":"taro@example.com","subject":"件名","message":"本文です。よろしくお願いします。"}`
	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(body))
	req.RemoteAddr = "203.0.113.9:4321"
	w := httptest.NewRecorder()
	NewContactHandler(svc).SubmitContact(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}

	var res contactResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if !res.Success || res.ContactID != "contact-1" {
		t.Errorf("body = %+v", res)
	}
	if captured.IPAddress != "203.0.113.9" {
		t.Errorf("IPAddress = %q, want client IP", captured.IPAddress)
	}
	if captured.ClerkUserID != "" {
		t.Errorf("ClerkUserID = %q, want empty for anonymous", captured.ClerkUserID)
	}
}

func TestSubmitContact_AttachesPrincipalWhenAuthenticated(t *testing.T) {
	var captured contact.SubmitInput
	svc := &mockContactService{
		submitFn: func(ctx context.Context, input contact.SubmitInput) (*model.Contact, error) {
			captured = input
			return &model.Contact{ID: "contact-2"}, nil
		},
	}

	body := `{"name":"山田太郎","email":"taro@example.com","subject":"件名","message":"本文です。よろしくお願いします。"}`
	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(body))
	req = withPrincipal(req, &auth.Principal{ClerkUserID: "user_abc"})
	w := httptest.NewRecorder()
	NewContactHandler(svc).SubmitContact(w, req)

	if captured.ClerkUserID != "user_abc" {
		t.Errorf("ClerkUserID = %q, want user_abc", captured.ClerkUserID)
	}
}

func TestSubmitContact_ValidationErrorReturnsFieldMap(t *testing.T) {
	svc := &mockContactService{
		submitFn: func(ctx context.Context, input contact.SubmitInput) (*model.Contact, error) {
			return nil, model.NewValidationError(map[string]string{"email": "メールアドレスの形式が正しくありません。"})
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(`{"name":"山田太郎"}`))
	w := httptest.NewRecorder()
	NewContactHandler(svc).SubmitContact(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	var res apiErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if res.Fields["email"] == "" {
		t.Errorf("fields = %v, want email message", res.Fields)
	}
}

func TestSubmitContact_InvalidBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(`{broken`))
	w := httptest.NewRecorder()
	NewContactHandler(&mockContactService{}).SubmitContact(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestListContacts_RequiresAdmin(t *testing.T) {
	handler := NewContactHandler(&mockContactService{})

	req := httptest.NewRequest(http.MethodGet, "/api/contacts", nil)
	req = withPrincipal(req, &auth.Principal{ClerkUserID: "user_abc", Role: model.RoleUser})
	w := httptest.NewRecorder()
	handler.ListContacts(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestListContacts_ReturnsItemsForAdmin(t *testing.T) {
	var capturedLimit int
	svc := &mockContactService{
		listRecentFn: func(ctx context.Context, limit int) ([]model.Contact, error) {
			capturedLimit = limit
			return []model.Contact{
				{ID: "contact-1", Name: "山田太郎", Status: model.ContactStatusUnread},
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/contacts?limit=10", nil)
	req = withPrincipal(req, &auth.Principal{ClerkUserID: "user_admin", Role: model.RoleAdmin})
	w := httptest.NewRecorder()
	NewContactHandler(svc).ListContacts(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if capturedLimit != 10 {
		t.Errorf("limit = %d, want 10", capturedLimit)
	}

	var items []contactItemResponse
	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if len(items) != 1 || items[0].ID != "contact-1" {
		t.Errorf("items = %+v", items)
	}
}

func TestUpdateContactStatus_MarksAsRead(t *testing.T) {
	var capturedID string
	var capturedStatus model.ContactStatus
	svc := &mockContactService{
		markStatusFn: func(ctx context.Context, id string, status model.ContactStatus) error {
			capturedID = id
			capturedStatus = status
			return nil
		},
	}

	r := chi.NewRouter()
	r.Patch("/api/contacts/{id}/status", NewContactHandler(svc).UpdateContactStatus)

	req := httptest.NewRequest(http.MethodPatch, "/api/contacts/contact-1/status", strings.NewReader(`{"status":"read"}`))
	req = withPrincipal(req, &auth.Principal{ClerkUserID: "user_admin", Role: model.RoleAdmin})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}
	if capturedID != "contact-1" || capturedStatus != model.ContactStatusRead {
		t.Errorf("MarkStatus(%q, %q)", capturedID, capturedStatus)
	}
}
