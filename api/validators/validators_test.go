package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/persibuloi/kamenic/pkg/errors"
)

type commentBody struct {
	Nombre string `json:"nombre" validate:"required,notblank,max=10"`
	Email  string `json:"email" validate:"required,email"`
	Tipo   string `json:"tipo,omitempty" validate:"omitempty,oneof=a b"`
}

func decode(body string) (commentBody, error) {
	var dest commentBody
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	err := DecodeJSONBody(httptest.NewRecorder(), req, &dest)
	return dest, err
}

func TestDecodeJSONBodyAcceptsValidPayload(t *testing.T) {
	got, err := decode(`{"nombre":"Ana","email":"ana@example.com"}`)
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.Nombre)
}

func TestDecodeJSONBodyReportsFieldsByJSONName(t *testing.T) {
	_, err := decode(`{"nombre":"   ","email":"nope","tipo":"c"}`)
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "is required", details["nombre"])
	assert.Equal(t, "must be a valid email", details["email"])
	assert.Equal(t, "must be one of a b", details["tipo"])
}

func TestDecodeJSONBodyRejectsUnknownFieldsAndEmptyBody(t *testing.T) {
	_, err := decode(`{"nombre":"Ana","email":"ana@example.com","admin":true}`)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = decode(``)
	require.Error(t, err)
	assert.Equal(t, "request body is required", pkgerrors.As(err).Message())
}

func TestQueryParsers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=2&min=10.5&offers=true&bad=x&q=%20%20perfume%20floral%20", nil)

	page, err := ParseQueryInt(req, "page", 1, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 2, page)

	def, err := ParseQueryInt(req, "pageSize", 12, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 12, def)

	_, err = ParseQueryInt(req, "bad", 1, 1, 100)
	assert.Error(t, err)

	min, err := ParseQueryFloat(req, "min")
	require.NoError(t, err)
	require.NotNil(t, min)
	assert.Equal(t, 10.5, *min)

	absent, err := ParseQueryFloat(req, "max")
	require.NoError(t, err)
	assert.Nil(t, absent)

	offers, err := ParseQueryBool(req, "offers")
	require.NoError(t, err)
	assert.True(t, offers)

	assert.Equal(t, "perfume", QueryString(req, "q", 7))
}

func TestSanitizeStringIsRuneSafe(t *testing.T) {
	assert.Equal(t, "Eau de", SanitizeString("Eau de Parfüm", 7))
	assert.Equal(t, "Parfü", SanitizeString("  Parfüm ", 5))
}
