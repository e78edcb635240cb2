package inquiries

import (
	"context"
	"strings"

	"github.com/persibuloi/kamenic/pkg/airtable"
	pkgerrors "github.com/persibuloi/kamenic/pkg/errors"
	"github.com/persibuloi/kamenic/pkg/logger"
)

const (
	KindMessage = "contact_message"
	KindLead    = "distributor_lead"

	LeadEstadoNuevo      = "Nuevo"
	LeadEstadoContactado = "Contactado"
	LeadEstadoCalificado = "Calificado"
	LeadEstadoDescartado = "Descartado"

	defaultOrigen = "web"
)

// Message is a contact form submission.
type Message struct {
	Name    string `json:"name" validate:"required,notblank,max=120"`
	Email   string `json:"email" validate:"required,email,max=254"`
	Phone   string `json:"phone,omitempty" validate:"omitempty,max=40"`
	Asunto  string `json:"asunto" validate:"required,notblank,max=200"`
	Mensaje string `json:"mensaje" validate:"required,notblank,max=5000"`
	Tipo    string `json:"tipo,omitempty" validate:"omitempty,max=40"`
}

// Lead is a distributor application.
type Lead struct {
	Name     string   `json:"name" validate:"required,notblank,max=120"`
	Email    string   `json:"email" validate:"required,email,max=254"`
	Phone    string   `json:"phone,omitempty" validate:"omitempty,max=40"`
	City     string   `json:"city,omitempty" validate:"omitempty,max=120"`
	Business *bool    `json:"business,omitempty"`
	Volume   string   `json:"volume,omitempty" validate:"omitempty,oneof=Bajo Medio Alto"`
	Brands   []string `json:"brands,omitempty" validate:"omitempty,max=50,dive,required,max=80"`
	Message  string   `json:"message,omitempty" validate:"omitempty,max=5000"`
	Origen   string   `json:"origen,omitempty" validate:"omitempty,max=200"`
	Estado   string   `json:"estado,omitempty" validate:"omitempty,oneof=Nuevo Contactado Calificado Descartado"`
}

// Receipt acknowledges a stored submission.
type Receipt struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	CreatedTime string `json:"createdTime,omitempty"`
}

// MessageFields maps a message to ContactMessages columns. Optional columns are omitted
// when empty.
func MessageFields(m Message) map[string]any {
	fields := map[string]any{
		"Name":    strings.TrimSpace(m.Name),
		"Email":   strings.TrimSpace(m.Email),
		"Asunto":  strings.TrimSpace(m.Asunto),
		"mensaje": strings.TrimSpace(m.Mensaje),
	}
	putText(fields, "Phone", m.Phone)
	putText(fields, "Tipo", m.Tipo)
	return fields
}

// LeadFields maps a lead to LeadsDistribuidores columns.
func LeadFields(l Lead) map[string]any {
	fields := map[string]any{
		"Name":  strings.TrimSpace(l.Name),
		"Email": strings.TrimSpace(l.Email),
	}
	putText(fields, "Phone", l.Phone)
	putText(fields, "City", l.City)
	if l.Business != nil {
		fields["Business"] = *l.Business
	}
	putText(fields, "Volume", l.Volume)
	brands := make([]string, 0, len(l.Brands))
	for _, b := range l.Brands {
		if b = strings.TrimSpace(b); b != "" {
			brands = append(brands, b)
		}
	}
	if len(brands) > 0 {
		fields["Brands"] = brands
	}
	putText(fields, "Message", l.Message)

	origen := strings.TrimSpace(l.Origen)
	if origen == "" {
		origen = defaultOrigen
	}
	fields["Origen"] = origen
	estado := strings.TrimSpace(l.Estado)
	if estado == "" {
		estado = LeadEstadoNuevo
	}
	fields["Estado"] = estado
	return fields
}

func putText(fields map[string]any, key, value string) {
	if value = strings.TrimSpace(value); value != "" {
		fields[key] = value
	}
}

// Creator is the Airtable write surface.
type Creator interface {
	CreateRecord(ctx context.Context, baseID, table string, fields map[string]any) (*airtable.Record, error)
}

type ServiceParams struct {
	Airtable      Creator
	MessagesTable string
	LeadsTable    string
	Logger        *logger.Logger
}

type Service interface {
	SubmitMessage(ctx context.Context, m Message) (Receipt, error)
	SubmitLead(ctx context.Context, l Lead) (Receipt, error)
}

type service struct {
	repo          Creator
	messagesTable string
	leadsTable    string
	logg          *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	messages := strings.TrimSpace(params.MessagesTable)
	leads := strings.TrimSpace(params.LeadsTable)
	if messages == "" || leads == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "inquiry tables are required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: params.Airtable, messagesTable: messages, leadsTable: leads, logg: logg}, nil
}

func (s *service) SubmitMessage(ctx context.Context, m Message) (Receipt, error) {
	return s.create(ctx, KindMessage, s.messagesTable, MessageFields(m))
}

// SubmitLead always writes to the primary base.
func (s *service) SubmitLead(ctx context.Context, l Lead) (Receipt, error) {
	return s.create(ctx, KindLead, s.leadsTable, LeadFields(l))
}

func (s *service) create(ctx context.Context, kind, table string, fields map[string]any) (Receipt, error) {
	if s.repo == nil {
		return Receipt{}, pkgerrors.New(pkgerrors.CodeConfiguration, "airtable credentials are not configured")
	}
	rec, err := s.repo.CreateRecord(ctx, "", table, fields)
	if err != nil {
		s.logg.Error(s.logg.WithField(ctx, "kind", kind), "inquiries.submit_failed", err)
		return Receipt{}, err
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"kind": kind, "record_id": rec.ID}), "inquiries.submitted")
	return Receipt{ID: rec.ID, Kind: kind, CreatedTime: rec.CreatedTime}, nil
}
