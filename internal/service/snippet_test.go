package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"testing"

	"github.com/arefin/snippetbin/internal/apperror"
	"github.com/arefin/snippetbin/internal/model"
)

// mockSnippetRepo is an in-memory stand-in for the SQLite repository. It
// mimics the database's ID behaviour: sequential, never reused.
type mockSnippetRepo struct {
	snippets map[int64]*model.Snippet
	order    []int64
	nextID   int64
}

func newMockRepo() *mockSnippetRepo {
	return &mockSnippetRepo{snippets: make(map[int64]*model.Snippet)}
}

func (m *mockSnippetRepo) Create(_ context.Context, snippet *model.Snippet) error {
	m.nextID++
	snippet.ID = m.nextID
	stored := *snippet
	m.snippets[snippet.ID] = &stored
	m.order = append(m.order, snippet.ID)
	return nil
}

func (m *mockSnippetRepo) GetByID(_ context.Context, id int64) (*model.Snippet, error) {
	snippet, ok := m.snippets[id]
	if !ok {
		return nil, apperror.NotFound("snippet", strconv.FormatInt(id, 10))
	}
	result := *snippet
	return &result, nil
}

func (m *mockSnippetRepo) List(_ context.Context) ([]model.Snippet, error) {
	result := make([]model.Snippet, 0, len(m.order))
	for _, id := range m.order {
		result = append(result, *m.snippets[id])
	}
	return result, nil
}

func (m *mockSnippetRepo) Update(_ context.Context, snippet *model.Snippet) error {
	if _, ok := m.snippets[snippet.ID]; !ok {
		return apperror.NotFound("snippet", strconv.FormatInt(snippet.ID, 10))
	}
	stored := *snippet
	m.snippets[snippet.ID] = &stored
	return nil
}

func (m *mockSnippetRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.snippets[id]; !ok {
		return apperror.NotFound("snippet", strconv.FormatInt(id, 10))
	}
	delete(m.snippets, id)
	for i, stored := range m.order {
		if stored == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func newTestService(t *testing.T, enforceOwner bool) (*SnippetService, *mockSnippetRepo) {
	t.Helper()
	repo := newMockRepo()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewSnippetService(repo, enforceOwner, logger), repo
}

// Caller IDs used across the ownership tests.
const (
	callerAlice int64 = 1
	callerBob   int64 = 2
	anonymous   int64 = 0
)

func TestCreate_OpenVariant_AnonymousAllowed(t *testing.T) {
	svc, repo := newTestService(t, false)

	snippet, err := svc.Create(context.Background(), "a = 1", anonymous)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if snippet.ID == 0 {
		t.Error("expected snippet to have an ID")
	}
	if snippet.OwnerID != 0 {
		t.Errorf("OwnerID = %d, want 0 in the open variant", snippet.OwnerID)
	}
	if len(repo.snippets) != 1 {
		t.Errorf("stored %d snippets, want 1", len(repo.snippets))
	}
}

func TestCreate_AuthVariant_AnonymousForbidden(t *testing.T) {
	svc, repo := newTestService(t, true)

	_, err := svc.Create(context.Background(), "abc = def", anonymous)
	if err == nil {
		t.Fatal("Create() should return ErrForbidden for anonymous caller")
	}
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("error = %v, want ErrForbidden", err)
	}
	if len(repo.snippets) != 0 {
		t.Errorf("stored %d snippets, want 0 after forbidden create", len(repo.snippets))
	}
}

func TestCreate_AuthVariant_SetsOwner(t *testing.T) {
	svc, _ := newTestService(t, true)

	snippet, err := svc.Create(context.Background(), "abc = def", callerAlice)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if snippet.OwnerID != callerAlice {
		t.Errorf("OwnerID = %d, want %d", snippet.OwnerID, callerAlice)
	}
	if snippet.Code != "abc = def" {
		t.Errorf("Code = %q, want %q", snippet.Code, "abc = def")
	}
}

func TestCreate_AssignsNextSequentialID(t *testing.T) {
	svc, _ := newTestService(t, false)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		snippet, err := svc.Create(ctx, "code", anonymous)
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if snippet.ID != want {
			t.Errorf("ID = %d, want %d", snippet.ID, want)
		}
	}
}

func TestCreate_CodeTooLong(t *testing.T) {
	svc, _ := newTestService(t, false)

	long := make([]byte, MaxCodeLength+1)
	_, err := svc.Create(context.Background(), string(long), anonymous)
	if err == nil {
		t.Fatal("Create() should error on oversized code")
	}
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	svc, _ := newTestService(t, false)

	_, err := svc.GetByID(context.Background(), 99)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestList_CreationOrder(t *testing.T) {
	svc, _ := newTestService(t, false)
	ctx := context.Background()

	svc.Create(ctx, "a = 1", anonymous)
	svc.Create(ctx, "b = 2", anonymous)
	svc.Create(ctx, "foo = \"bar\n\"", anonymous)

	snippets, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(snippets) != 3 {
		t.Fatalf("List() returned %d items, want 3", len(snippets))
	}
	if snippets[0].Code != "a = 1" || snippets[2].Code != "foo = \"bar\n\"" {
		t.Errorf("List() not in creation order: %q ... %q", snippets[0].Code, snippets[2].Code)
	}
}

func TestUpdate_OwnerCanUpdate(t *testing.T) {
	svc, _ := newTestService(t, true)

	created, _ := svc.Create(context.Background(), "a = 1", callerAlice)

	updated, err := svc.Update(context.Background(), created.ID, "c = 3", callerAlice)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Code != "c = 3" {
		t.Errorf("Code = %q, want %q", updated.Code, "c = 3")
	}
}

func TestUpdate_NonOwnerForbidden(t *testing.T) {
	svc, repo := newTestService(t, true)

	created, _ := svc.Create(context.Background(), "a = 1", callerAlice)

	_, err := svc.Update(context.Background(), created.ID, "hacked", callerBob)
	if err == nil {
		t.Fatal("Update() should return ErrForbidden for a non-owner")
	}
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("error = %v, want ErrForbidden", err)
	}

	// The record must be untouched.
	if repo.snippets[created.ID].Code != "a = 1" {
		t.Errorf("Code = %q, want unmodified %q", repo.snippets[created.ID].Code, "a = 1")
	}
}

func TestUpdate_AnonymousForbidden(t *testing.T) {
	svc, _ := newTestService(t, true)

	created, _ := svc.Create(context.Background(), "a = 1", callerAlice)

	_, err := svc.Update(context.Background(), created.ID, "x", anonymous)
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("error = %v, want ErrForbidden", err)
	}
}

// Unknown IDs return NotFound before any ownership check runs, for every
// caller including anonymous ones.
func TestUpdate_UnknownID_NotFoundBeforeForbidden(t *testing.T) {
	svc, _ := newTestService(t, true)

	for _, caller := range []int64{anonymous, callerAlice} {
		_, err := svc.Update(context.Background(), 99, "x", caller)
		if !errors.Is(err, apperror.ErrNotFound) {
			t.Errorf("caller %d: error = %v, want ErrNotFound", caller, err)
		}
	}
}

func TestUpdate_OpenVariant_AnyCaller(t *testing.T) {
	svc, _ := newTestService(t, false)

	created, _ := svc.Create(context.Background(), "a = 1", anonymous)

	if _, err := svc.Update(context.Background(), created.ID, "c = 3", anonymous); err != nil {
		t.Fatalf("Update() in open variant error = %v", err)
	}
}

func TestDelete_OwnerCanDelete(t *testing.T) {
	svc, repo := newTestService(t, true)

	created, _ := svc.Create(context.Background(), "bye", callerAlice)

	if err := svc.Delete(context.Background(), created.ID, callerAlice); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(repo.snippets) != 0 {
		t.Errorf("stored %d snippets after delete, want 0", len(repo.snippets))
	}
}

func TestDelete_NonOwnerForbidden(t *testing.T) {
	svc, repo := newTestService(t, true)

	created, _ := svc.Create(context.Background(), "mine", callerAlice)

	err := svc.Delete(context.Background(), created.ID, callerBob)
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("error = %v, want ErrForbidden", err)
	}
	if len(repo.snippets) != 1 {
		t.Errorf("stored %d snippets, want 1 after forbidden delete", len(repo.snippets))
	}
}

func TestDelete_UnknownID_NotFound(t *testing.T) {
	svc, _ := newTestService(t, true)

	err := svc.Delete(context.Background(), 99, callerAlice)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}
