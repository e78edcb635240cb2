package blog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	blogsvc "github.com/persibuloi/kamenic/internal/blog"
	"github.com/persibuloi/kamenic/internal/comments"
	"github.com/persibuloi/kamenic/internal/store"
	pkgerrors "github.com/persibuloi/kamenic/pkg/errors"
)

type stubPosts struct {
	posts map[string]blogsvc.Post
}

func (s stubPosts) List(ctx context.Context, f blogsvc.Filters) (blogsvc.Listing, error) {
	return blogsvc.Listing{}, nil
}

func (s stubPosts) Post(ctx context.Context, ref string) (blogsvc.Post, error) {
	if p, ok := s.posts[ref]; ok {
		return p, nil
	}
	return blogsvc.Post{}, pkgerrors.New(pkgerrors.CodeNotFound, "post not found")
}

func (s stubPosts) Categories(ctx context.Context) (blogsvc.CategoriesResult, error) {
	return blogsvc.CategoriesResult{}, nil
}

func (s stubPosts) Featured(ctx context.Context) (blogsvc.Listing, error) {
	return blogsvc.Listing{}, nil
}

func (s stubPosts) Status() store.Report { return store.Report{Name: "blog_posts"} }

func (s stubPosts) Refresh(ctx context.Context) (store.Report, error) {
	return store.Report{Name: "blog_posts"}, nil
}

func (s stubPosts) Store() *store.Store[blogsvc.Post] { return nil }

type stubComments struct {
	postID string
	input  comments.Input
}

func (s *stubComments) List(ctx context.Context, postID string) (comments.Thread, error) {
	s.postID = postID
	return comments.Thread{PostID: postID}, nil
}

func (s *stubComments) Add(ctx context.Context, postID string, in comments.Input) (comments.Submission, error) {
	s.postID, s.input = postID, in
	return comments.Submission{Pending: true}, nil
}

func withPostRef(req *http.Request, ref string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("postRef", ref)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestCommentCreateResolvesSlugToRecordID(t *testing.T) {
	posts := stubPosts{posts: map[string]blogsvc.Post{"notas-de-oud": {ID: "recPost1", Slug: "notas-de-oud"}}}
	svc := &stubComments{}
	body := `{"nombre":"Marta","email":"marta@example.com","comentario":"Me encanta"}`
	req := withPostRef(httptest.NewRequest(http.MethodPost, "/api/v1/blog/posts/notas-de-oud/comments", strings.NewReader(body)), "notas-de-oud")
	resp := httptest.NewRecorder()

	CommentCreate(posts, svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.postID != "recPost1" {
		t.Fatalf("expected record id to reach the comments service, got %q", svc.postID)
	}
	if !strings.Contains(resp.Body.String(), `"pending":true`) {
		t.Fatalf("expected pending submission, got %s", resp.Body.String())
	}
}

func TestCommentCreateUnknownPost(t *testing.T) {
	svc := &stubComments{}
	body := `{"nombre":"Marta","email":"marta@example.com","comentario":"Me encanta"}`
	req := withPostRef(httptest.NewRequest(http.MethodPost, "/api/v1/blog/posts/nope/comments", strings.NewReader(body)), "nope")
	resp := httptest.NewRecorder()

	CommentCreate(stubPosts{}, svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
	if svc.postID != "" {
		t.Fatalf("comments service must not be called for unknown posts")
	}
}

func TestCommentCreateRejectsInvalidEmail(t *testing.T) {
	posts := stubPosts{posts: map[string]blogsvc.Post{"recPost1": {ID: "recPost1"}}}
	body := `{"nombre":"Marta","email":"not-an-email","comentario":"Me encanta"}`
	req := withPostRef(httptest.NewRequest(http.MethodPost, "/api/v1/blog/posts/recPost1/comments", strings.NewReader(body)), "recPost1")
	resp := httptest.NewRecorder()

	CommentCreate(posts, &stubComments{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCommentListUsesRecordID(t *testing.T) {
	posts := stubPosts{posts: map[string]blogsvc.Post{"notas-de-oud": {ID: "recPost1"}}}
	svc := &stubComments{}
	req := withPostRef(httptest.NewRequest(http.MethodGet, "/api/v1/blog/posts/notas-de-oud/comments", nil), "notas-de-oud")
	resp := httptest.NewRecorder()

	CommentList(posts, svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK || svc.postID != "recPost1" {
		t.Fatalf("expected 200 with record id lookup, got %d postID=%q", resp.Code, svc.postID)
	}
}
