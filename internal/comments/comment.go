package comments

import (
	"strings"
	"time"

	"github.com/persibuloi/kamenic/internal/catalog"
	"github.com/persibuloi/kamenic/pkg/airtable"
)

const (
	EstadoPendiente = "Pendiente"
	EstadoAprobado  = "Aprobado"
	EstadoRechazado = "Rechazado"
)

const (
	fieldPostID     = "Post_ID"
	fieldNombre     = "Nombre"
	fieldEmail      = "Email"
	fieldComentario = "Comentario"
	fieldFecha      = "Fecha_Comentario"
	fieldEstado     = "Estado"
	fieldRespuestaA = "Respuesta_A"
	fieldBlogPost   = "Blog_Post"
	fieldEsSpam     = "Es_Spam"
	fieldModerador  = "Moderador"
)

// Comment is one reader comment on a blog post. Email is kept server side.
type Comment struct {
	ID              string   `json:"id"`
	PostID          string   `json:"postId"`
	Nombre          string   `json:"nombre"`
	Email           string   `json:"-"`
	Comentario      string   `json:"comentario"`
	FechaComentario string   `json:"fechaComentario"`
	Estado          string   `json:"estado"`
	RespuestaA      string   `json:"respuestaA,omitempty"`
	BlogPost        []string `json:"blogPost,omitempty"`
	EsSpam          bool     `json:"esSpam"`
	Moderador       string   `json:"moderador,omitempty"`
}

// Visible reports whether the comment may be shown to readers.
func (c Comment) Visible() bool {
	return c.Estado == EstadoAprobado && !c.EsSpam
}

// Input is a reader's submission.
type Input struct {
	Nombre     string `json:"nombre" validate:"required,notblank,max=120"`
	Email      string `json:"email" validate:"required,email,max=254"`
	Comentario string `json:"comentario" validate:"required,notblank,max=4000"`
	RespuestaA string `json:"respuestaA,omitempty" validate:"omitempty,max=64"`
}

func linkedIDs(raw any) ([]string, bool) {
	list, ok := raw.([]any)
	if !ok || len(list) == 0 {
		return nil, false
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out, len(out) > 0
}

func checkbox(raw any) (bool, bool) {
	b, ok := raw.(bool)
	return b, ok
}

var (
	postIDFields     = catalog.Candidates(catalog.Text, fieldPostID)
	nombreFields     = catalog.Candidates(catalog.Text, fieldNombre)
	emailFields      = catalog.Candidates(catalog.Text, fieldEmail)
	comentarioFields = catalog.Candidates(catalog.Text, fieldComentario)
	fechaFields      = catalog.Candidates(catalog.Text, fieldFecha)
	estadoFields     = catalog.Candidates(catalog.Text, fieldEstado)
	respuestaFields  = catalog.Candidates(catalog.Text, fieldRespuestaA)
	blogPostFields   = catalog.Candidates(linkedIDs, fieldBlogPost)
	esSpamFields     = catalog.Candidates(checkbox, fieldEsSpam)
	moderadorFields  = catalog.Candidates(catalog.Text, fieldModerador)
)

// Transform maps one Blog_Comments record.
func Transform(rec airtable.Record, now time.Time) Comment {
	f := rec.Fields
	return Comment{
		ID:              rec.ID,
		PostID:          catalog.Resolve(f, postIDFields, ""),
		Nombre:          catalog.Resolve(f, nombreFields, ""),
		Email:           catalog.Resolve(f, emailFields, ""),
		Comentario:      catalog.Resolve(f, comentarioFields, ""),
		FechaComentario: catalog.Resolve(f, fechaFields, now.UTC().Format(time.RFC3339)),
		Estado:          catalog.Resolve(f, estadoFields, EstadoPendiente),
		RespuestaA:      catalog.Resolve(f, respuestaFields, ""),
		BlogPost:        catalog.Resolve(f, blogPostFields, nil),
		EsSpam:          catalog.Resolve(f, esSpamFields, false),
		Moderador:       catalog.Resolve(f, moderadorFields, ""),
	}
}

// Fields builds the pending record for a submission.
func Fields(postID string, in Input, now time.Time) map[string]any {
	fields := map[string]any{
		fieldPostID:     postID,
		fieldNombre:     strings.TrimSpace(in.Nombre),
		fieldEmail:      strings.TrimSpace(in.Email),
		fieldComentario: strings.TrimSpace(in.Comentario),
		fieldFecha:      now.Format("2006-01-02"),
		fieldEstado:     EstadoPendiente,
		fieldEsSpam:     false,
		fieldBlogPost:   []string{postID},
	}
	if reply := strings.TrimSpace(in.RespuestaA); reply != "" {
		fields[fieldRespuestaA] = reply
	}
	return fields
}

// postFormula filters comments by post. Quotes are escaped so an id cannot close the string.
func postFormula(postID string) string {
	escaped := strings.ReplaceAll(postID, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	return `{` + fieldPostID + `} = "` + escaped + `"`
}
