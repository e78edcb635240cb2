package contact

import (
	"context"
	"fmt"
	"strings"

	"github.com/persibuloi/kamenic/internal/catalog"
	"github.com/persibuloi/kamenic/internal/store"
	"github.com/persibuloi/kamenic/pkg/airtable"
	pkgerrors "github.com/persibuloi/kamenic/pkg/errors"
	"github.com/persibuloi/kamenic/pkg/logger"
	"github.com/persibuloi/kamenic/pkg/metrics"
)

const storeName = "contact"

// Info is the storefront's published contact card.
type Info struct {
	Name           string `json:"name,omitempty"`
	Address        string `json:"address,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Email          string `json:"email,omitempty"`
	InstagramURL   string `json:"instagramUrl,omitempty"`
	FacebookURL    string `json:"facebookUrl,omitempty"`
	WhatsAppNumber string `json:"whatsappNumber,omitempty"`
	WhatsAppLink   string `json:"whatsappLink,omitempty"`
	BusinessHours  string `json:"businessHours,omitempty"`
}

// loose reads trimmed strings, first array elements and {value} wrappers.
func loose(raw any) (string, bool) {
	if list, ok := raw.([]any); ok {
		if len(list) == 0 || list[0] == nil {
			return "", false
		}
		s := strings.TrimSpace(fmt.Sprint(list[0]))
		return s, s != ""
	}
	return catalog.Text(raw)
}

var (
	nameFields      = catalog.Candidates(loose, "Nombre", "Name", "nombre")
	addressFields   = catalog.Candidates(loose, "Dirección", "Direccion", "Address", "address")
	phoneFields     = catalog.Candidates(loose, "Teléfono", "Telefono", "Phone", "phone")
	emailFields     = catalog.Candidates(loose, "Email", "Correo", "correo")
	instagramFields = catalog.Candidates(loose, "Instagram", "instagram", "IG")
	facebookFields  = catalog.Candidates(loose, "Facebook", "facebook", "FB")
	whatsappFields  = catalog.Candidates(loose, "WhatsApp", "Whatsapp", "whatsapp", "WA")
	hoursFields     = catalog.Candidates(loose,
		"Horario", "Horarios", "Horario de Atención", "Horarios de Atención",
		"Horario de atencion", "Horarios de atencion", "Hours", "Opening Hours",
		"Business Hours", "businessHours",
	)
)

// Digits keeps only ASCII digits.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// WhatsAppLink builds the wa.me link for a phone number in any format.
func WhatsAppLink(number string) string {
	digits := Digits(number)
	if digits == "" {
		return ""
	}
	return "https://wa.me/" + digits
}

// Transform maps the contact record.
func Transform(rec airtable.Record) Info {
	f := rec.Fields
	info := Info{
		Name:           catalog.Resolve(f, nameFields, ""),
		Address:        catalog.Resolve(f, addressFields, ""),
		Phone:          catalog.Resolve(f, phoneFields, ""),
		Email:          catalog.Resolve(f, emailFields, ""),
		InstagramURL:   catalog.Resolve(f, instagramFields, ""),
		FacebookURL:    catalog.Resolve(f, facebookFields, ""),
		WhatsAppNumber: catalog.Resolve(f, whatsappFields, ""),
		BusinessHours:  catalog.Resolve(f, hoursFields, ""),
	}
	info.WhatsAppLink = WhatsAppLink(info.WhatsAppNumber)
	return info
}

type ServiceParams struct {
	Airtable catalog.RecordLister
	Table    string
	BaseID   string
	Logger   *logger.Logger
	Metrics  *metrics.StoreMetrics
}

// Result is the contact card; Info is nil when the table has no rows.
type Result struct {
	Info  *Info `json:"contact"`
	Stale bool  `json:"stale"`
}

type Service interface {
	Get(ctx context.Context) (Result, error)
	Status() store.Report
	Refresh(ctx context.Context) (store.Report, error)
	Store() *store.Store[Info]
}

type service struct {
	info *store.Store[Info]
}

// NewService builds the contact service. BaseID optionally points at a separate base.
func NewService(params ServiceParams) (Service, error) {
	table := strings.TrimSpace(params.Table)
	if table == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "contact table is required")
	}
	fetch := func(ctx context.Context) ([]Info, error) {
		if params.Airtable == nil {
			return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "airtable credentials are not configured for contact")
		}
		records, err := params.Airtable.ListRecords(ctx, table, airtable.Query{
			BaseID:     strings.TrimSpace(params.BaseID),
			MaxRecords: 1,
		})
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return []Info{}, nil
		}
		return []Info{Transform(records[0])}, nil
	}
	return &service{
		info: store.New(storeName, fetch, store.Options{Logger: params.Logger, Metrics: params.Metrics}),
	}, nil
}

func (s *service) Get(ctx context.Context) (Result, error) {
	snap := s.info.Ensure(ctx)
	if snap.Err != nil && len(snap.Items) == 0 {
		return Result{}, snap.Err
	}
	res := Result{Stale: snap.Stale}
	if len(snap.Items) > 0 {
		info := snap.Items[0]
		res.Info = &info
	}
	return res, nil
}

func (s *service) Status() store.Report {
	return s.info.Report()
}

func (s *service) Refresh(ctx context.Context) (store.Report, error) {
	err := s.info.Refresh(ctx)
	return s.info.Report(), err
}

func (s *service) Store() *store.Store[Info] {
	return s.info
}
