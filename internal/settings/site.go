package settings

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

const (
	siteStoreName = "site_settings"
	siteMaxRecord = 10

	EstadoActiva        = "Activa"
	EstadoMantenimiento = "Mantenimiento"
	EstadoCerrada       = "Cerrada"
)

// Site holds the storefront banner and status switches.
type Site struct {
	MostrarBarraAnuncio bool   `json:"mostrarBarraAnuncio"`
	TextoBarraAnuncio   string `json:"textoBarraAnuncio,omitempty"`
	EstadoTienda        string `json:"estadoTienda"`
	MensajeWhatsApp     string `json:"mensajeWhatsApp,omitempty"`
	MapsURL             string `json:"mapsURL,omitempty"`
	Horario             string `json:"horario,omitempty"`
}

func looseText(raw any) (string, bool) {
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
	barraFields   = catalog.Candidates(catalog.Flag, "Mostrar Barra Anuncio", "MostrarBarraAnuncio", "mostrarBarraAnuncio")
	textoFields   = catalog.Candidates(looseText, "Texto Barra Anuncio", "TextoBarraAnuncio", "textoBarraAnuncio")
	estadoFields  = catalog.Candidates(looseText, "Estado Tienda", "EstadoTienda", "estadoTienda")
	mensajeFields = catalog.Candidates(looseText, "Mensaje WhatsApp", "MensajeWhatsApp", "mensajeWhatsApp")
	mapsFields    = catalog.Candidates(looseText, "Maps URL", "MapsURL", "Ubicación Maps URL", "mapsURL")
	horarioFields = catalog.Candidates(looseText, "Horario", "horario")
	activoFields  = catalog.Candidates(catalog.Flag, "Activo", "Active", "active")
)

// TransformSite maps one SiteSettings record.
func TransformSite(rec airtable.Record) Site {
	f := rec.Fields
	return Site{
		MostrarBarraAnuncio: catalog.Resolve(f, barraFields, false),
		TextoBarraAnuncio:   catalog.Resolve(f, textoFields, ""),
		EstadoTienda:        catalog.Resolve(f, estadoFields, EstadoActiva),
		MensajeWhatsApp:     catalog.Resolve(f, mensajeFields, ""),
		MapsURL:             catalog.Resolve(f, mapsFields, ""),
		Horario:             catalog.Resolve(f, horarioFields, ""),
	}
}

// PickActive returns the first record flagged active, else the first record.
func PickActive(records []airtable.Record) (airtable.Record, bool) {
	for _, rec := range records {
		if catalog.Resolve(rec.Fields, activoFields, false) {
			return rec, true
		}
	}
	if len(records) == 0 {
		return airtable.Record{}, false
	}
	return records[0], true
}

type SiteParams struct {
	Airtable catalog.RecordLister
	Table    string
	BaseID   string
	Logger   *logger.Logger
	Metrics  *metrics.StoreMetrics
}

// SiteResult is nil-able: a table without rows yields no settings.
type SiteResult struct {
	Settings *Site `json:"settings"`
	Stale    bool  `json:"stale"`
}

type SiteService interface {
	Get(ctx context.Context) (SiteResult, error)
	Status() store.Report
	Refresh(ctx context.Context) (store.Report, error)
	Store() *store.Store[Site]
}

type siteService struct {
	site *store.Store[Site]
}

func NewSiteService(params SiteParams) (SiteService, error) {
	table := strings.TrimSpace(params.Table)
	if table == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "site settings table is required")
	}
	fetch := func(ctx context.Context) ([]Site, error) {
		if params.Airtable == nil {
			return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "airtable credentials are not configured for site settings")
		}
		records, err := params.Airtable.ListRecords(ctx, table, airtable.Query{
			BaseID:     strings.TrimSpace(params.BaseID),
			MaxRecords: siteMaxRecord,
		})
		if err != nil {
			return nil, err
		}
		rec, ok := PickActive(records)
		if !ok {
			return []Site{}, nil
		}
		return []Site{TransformSite(rec)}, nil
	}
	return &siteService{
		site: store.New(siteStoreName, fetch, store.Options{Logger: params.Logger, Metrics: params.Metrics}),
	}, nil
}

func (s *siteService) Get(ctx context.Context) (SiteResult, error) {
	snap := s.site.Ensure(ctx)
	if snap.Err != nil && len(snap.Items) == 0 {
		return SiteResult{}, snap.Err
	}
	res := SiteResult{Stale: snap.Stale}
	if len(snap.Items) > 0 {
		site := snap.Items[0]
		res.Settings = &site
	}
	return res, nil
}

func (s *siteService) Status() store.Report {
	return s.site.Report()
}

func (s *siteService) Refresh(ctx context.Context) (store.Report, error) {
	err := s.site.Refresh(ctx)
	return s.site.Report(), err
}

func (s *siteService) Store() *store.Store[Site] {
	return s.site
}
