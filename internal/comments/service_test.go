package comments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/persibuloi/kamenic/pkg/airtable"
	pkgerrors "github.com/persibuloi/kamenic/pkg/errors"
)

var fixedNow = time.Date(2025, 5, 2, 18, 30, 0, 0, time.UTC)

type fakeRepo struct {
	records   []airtable.Record
	listErr   error
	lists     int
	queries   []airtable.Query
	created   []map[string]any
	createErr error
}

func (f *fakeRepo) ListRecords(_ context.Context, _ string, q airtable.Query) ([]airtable.Record, error) {
	f.lists++
	f.queries = append(f.queries, q)
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.records, nil
}

func (f *fakeRepo) CreateRecord(_ context.Context, _ string, _ string, fields map[string]any) (*airtable.Record, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, fields)
	return &airtable.Record{ID: "recNEW", Fields: map[string]any{
		"Post_ID": fields["Post_ID"],
		"Nombre":  fields["Nombre"],
		"Estado":  fields["Estado"],
	}}, nil
}

func newTestService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Airtable: repo, Table: "Blog_Comments", Now: func() time.Time { return fixedNow }})
	require.NoError(t, err)
	return svc
}

func TestListShowsOnlyApprovedComments(t *testing.T) {
	repo := &fakeRepo{records: []airtable.Record{
		{ID: "c1", Fields: map[string]any{"Post_ID": "recPost", "Nombre": "Ana", "Estado": "Aprobado"}},
		{ID: "c2", Fields: map[string]any{"Post_ID": "recPost", "Nombre": "Luis", "Estado": "Pendiente"}},
		{ID: "c3", Fields: map[string]any{"Post_ID": "recPost", "Nombre": "Spam", "Estado": "Aprobado", "Es_Spam": true}},
		{ID: "c4", Fields: map[string]any{"Post_ID": "recPost", "Nombre": "Sin estado"}},
	}}
	svc := newTestService(t, repo)

	thread, err := svc.List(context.Background(), "recPost")
	require.NoError(t, err)
	require.Len(t, thread.Comments, 1)
	assert.Equal(t, "c1", thread.Comments[0].ID)

	_, err = svc.List(context.Background(), "recPost")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.lists, "thread should load once")

	require.Len(t, repo.queries, 1)
	assert.Equal(t, `{Post_ID} = "recPost"`, repo.queries[0].FilterByFormula)
	assert.Equal(t, []airtable.SortField{{Field: "Fecha_Comentario", Direction: "desc"}}, repo.queries[0].Sort)
}

func TestAddCreatesPendingCommentAndRefetches(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(t, repo)

	sub, err := svc.Add(context.Background(), "recPost", Input{
		Nombre:     " Ana ",
		Email:      "ana@example.com",
		Comentario: "Me encantó",
		RespuestaA: "c1",
	})
	require.NoError(t, err)
	assert.True(t, sub.Pending)
	assert.Equal(t, "recNEW", sub.Comment.ID)
	assert.Equal(t, 1, repo.lists)

	require.Len(t, repo.created, 1)
	fields := repo.created[0]
	assert.Equal(t, "recPost", fields["Post_ID"])
	assert.Equal(t, "Ana", fields["Nombre"])
	assert.Equal(t, "2025-05-02", fields["Fecha_Comentario"])
	assert.Equal(t, EstadoPendiente, fields["Estado"])
	assert.Equal(t, "c1", fields["Respuesta_A"])
	assert.Equal(t, []string{"recPost"}, fields["Blog_Post"])
}

func TestAddOmitsEmptyReply(t *testing.T) {
	fields := Fields("recPost", Input{Nombre: "Ana", Email: "a@b.co", Comentario: "Hola"}, fixedNow)
	_, ok := fields["Respuesta_A"]
	assert.False(t, ok)
}

func TestAddSurvivesRefetchFailure(t *testing.T) {
	repo := &fakeRepo{listErr: errors.New("airtable down")}
	svc := newTestService(t, repo)

	sub, err := svc.Add(context.Background(), "recPost", Input{Nombre: "Ana", Email: "a@b.co", Comentario: "Hola"})
	require.NoError(t, err)
	assert.Empty(t, sub.Thread.Comments)
}

func TestAddPropagatesCreateFailure(t *testing.T) {
	repo := &fakeRepo{createErr: pkgerrors.New(pkgerrors.CodeDependency, "rejected")}
	svc := newTestService(t, repo)

	_, err := svc.Add(context.Background(), "recPost", Input{Nombre: "Ana", Email: "a@b.co", Comentario: "Hola"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	assert.Equal(t, 0, repo.lists)
}

func TestServiceWithoutAirtable(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.List(context.Background(), "recPost")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConfiguration))
	_, err = svc.Add(context.Background(), "recPost", Input{Nombre: "Ana", Email: "a@b.co", Comentario: "Hola"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConfiguration))
}

func TestPostFormulaEscapesQuotes(t *testing.T) {
	assert.Equal(t, `{Post_ID} = "a\"b"`, postFormula(`a"b`))
}
