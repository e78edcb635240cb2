package comments

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/persibuloi/kamenic/internal/store"
	"github.com/persibuloi/kamenic/pkg/airtable"
	pkgerrors "github.com/persibuloi/kamenic/pkg/errors"
	"github.com/persibuloi/kamenic/pkg/logger"
)

const (
	storePrefix = "blog_comments:"
	sortField   = "Fecha_Comentario"
)

// Repository is the Airtable surface for comments.
type Repository interface {
	ListRecords(ctx context.Context, table string, q airtable.Query) ([]airtable.Record, error)
	CreateRecord(ctx context.Context, baseID, table string, fields map[string]any) (*airtable.Record, error)
}

type ServiceParams struct {
	Airtable Repository
	Table    string
	Logger   *logger.Logger
	Now      func() time.Time
}

// Thread is the approved comments of one post.
type Thread struct {
	PostID   string    `json:"postId"`
	Comments []Comment `json:"comments"`
	Total    int       `json:"total"`
	Stale    bool      `json:"stale"`
}

// Submission reports a created comment. It stays hidden until moderated.
type Submission struct {
	Comment Comment `json:"comment"`
	Pending bool    `json:"pending"`
	Thread  Thread  `json:"thread"`
}

type Service interface {
	List(ctx context.Context, postID string) (Thread, error)
	Add(ctx context.Context, postID string, in Input) (Submission, error)
}

type service struct {
	repo  Repository
	table string
	logg  *logger.Logger
	now   func() time.Time

	mu      sync.Mutex
	threads map[string]*store.Store[Comment]
}

func NewService(params ServiceParams) (Service, error) {
	table := strings.TrimSpace(params.Table)
	if table == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "comments table is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:    params.Airtable,
		table:   table,
		logg:    logg,
		now:     now,
		threads: make(map[string]*store.Store[Comment]),
	}, nil
}

// thread returns the store for postID, creating it idle on first use. Thread stores are
// not metered: their names are per post.
func (s *service) thread(postID string) *store.Store[Comment] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.threads[postID]; ok {
		return st
	}
	fetch := func(ctx context.Context) ([]Comment, error) {
		if s.repo == nil {
			return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "airtable credentials are not configured")
		}
		records, err := s.repo.ListRecords(ctx, s.table, airtable.Query{
			FilterByFormula: postFormula(postID),
			Sort:            []airtable.SortField{{Field: sortField, Direction: "desc"}},
		})
		if err != nil {
			return nil, err
		}
		now := s.now()
		out := make([]Comment, 0, len(records))
		for _, rec := range records {
			out = append(out, Transform(rec, now))
		}
		return out, nil
	}
	st := store.New(storePrefix+postID, fetch, store.Options{Logger: s.logg, Now: s.now})
	s.threads[postID] = st
	return st
}

func threadFrom(postID string, snap store.Snapshot[Comment]) Thread {
	visible := make([]Comment, 0, len(snap.Items))
	for _, c := range snap.Items {
		if c.Visible() {
			visible = append(visible, c)
		}
	}
	return Thread{PostID: postID, Comments: visible, Total: len(visible), Stale: snap.Stale}
}

func (s *service) List(ctx context.Context, postID string) (Thread, error) {
	postID = strings.TrimSpace(postID)
	if postID == "" {
		return Thread{}, pkgerrors.New(pkgerrors.CodeValidation, "post id is required")
	}
	snap := s.thread(postID).Ensure(ctx)
	if snap.Err != nil && len(snap.Items) == 0 {
		return Thread{}, snap.Err
	}
	return threadFrom(postID, snap), nil
}

// Add submits a pending comment, then refetches the thread. A failed refetch does not
// fail the submission.
func (s *service) Add(ctx context.Context, postID string, in Input) (Submission, error) {
	postID = strings.TrimSpace(postID)
	if postID == "" {
		return Submission{}, pkgerrors.New(pkgerrors.CodeValidation, "post id is required")
	}
	if s.repo == nil {
		return Submission{}, pkgerrors.New(pkgerrors.CodeConfiguration, "airtable credentials are not configured")
	}
	now := s.now()
	rec, err := s.repo.CreateRecord(ctx, "", s.table, Fields(postID, in, now))
	if err != nil {
		return Submission{}, err
	}
	created := Transform(*rec, now)

	logCtx := s.logg.WithFields(ctx, map[string]any{"post_id": postID, "comment_id": created.ID})
	s.logg.Info(logCtx, "comments.submitted")

	st := s.thread(postID)
	snap := st.Refetch(ctx)
	if snap.Err != nil {
		s.logg.Warn(s.logg.WithField(logCtx, "error", snap.Error), "comments.refetch_failed")
	}
	return Submission{Comment: created, Pending: created.Estado == EstadoPendiente, Thread: threadFrom(postID, snap)}, nil
}
