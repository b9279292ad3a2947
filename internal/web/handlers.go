package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"urbfisc/internal/export"
	"urbfisc/internal/mapview"
	"urbfisc/internal/occurrence"
	"urbfisc/internal/report"
	"urbfisc/internal/summary"
	"urbfisc/internal/telegram"
)

const (
	storeUnavailableMsg = "Não foi possível acessar o banco de dados. Tente novamente mais tarde."
	nothingPendingMsg   = "Nenhuma ocorrência pendente."
	notifyTimeout       = 30 * time.Second
	maxFormBytes        = 1 << 20
	xlsxContentType     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func (s *Server) handleMapPage(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.ListAll(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	page, err := renderMapPage(mapview.Build(records), len(records))
	if err != nil {
		s.logger.Error("❌ Failed to render map page", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

func (s *Server) handleGeoJSON(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.ListAll(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	body, err := mapview.GeoJSON(records)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	_, _ = w.Write(body)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.ListAll(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if records == nil {
		records = []occurrence.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	sub, err := decodeSubmission(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	externalID, err := s.store.Insert(r.Context(), sub)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.metrics.IncrementOccurrencesCreated()
	s.logger.Info("✓ Occurrence registered", zap.String("external_id", externalID))

	if s.notifier.Enabled() {
		s.notifyAsync("occurrence "+externalID, func(ctx context.Context) error {
			rec, err := s.store.Get(ctx, externalID)
			if err != nil {
				return err
			}
			_, err = s.notifier.SendOccurrenceMessage(ctx, rec)
			return err
		})
	}

	w.Header().Set("Location", "/api/occurrences/"+externalID)
	writeJSON(w, http.StatusCreated, map[string]string{"external_id": externalID})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	externalID, ok := protocolParam(w, r)
	if !ok {
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxFormBytes)).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	if err := s.store.UpdateStatus(r.Context(), externalID, body.Status); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookup(w, r)
	if !ok {
		return
	}

	start := time.Now()
	res := s.renderer.Render(rec)
	s.metrics.ObserveRender(res.OK(), time.Since(start))

	if !res.OK() {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write(res.Bytes())
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("inline", map[string]string{"filename": report.Filename(rec)}))
	_, _ = w.Write(res.Document)
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	s.serveExport(w, r, "xlsx", xlsxContentType, s.exporter.XLSX)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	s.serveExport(w, r, "csv", "text/csv; charset=utf-8", s.exporter.CSV)
}

func (s *Server) serveExport(w http.ResponseWriter, r *http.Request, format, contentType string,
	write func(io.Writer, []occurrence.Record) error) {
	records, err := s.store.ListAll(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := write(&buf, records); err != nil {
		s.logger.Error("❌ Export failed", zap.String("format", format), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "export failed"})
		return
	}
	s.metrics.IncrementExports(format)

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": export.BaseName + "." + format}))
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleSummaryImage(w http.ResponseWriter, r *http.Request) {
	png, ok := s.renderSummary(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

func (s *Server) handleSendSummary(w http.ResponseWriter, r *http.Request) {
	if !s.notifier.Enabled() {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "Telegram não configurado."})
		return
	}
	png, ok := s.renderSummary(w, r)
	if !ok {
		return
	}
	now := s.now()
	s.notifyAsync("summary", func(ctx context.Context) error {
		return s.notifier.SendPhoto(ctx, png, "Ocorrências pendentes - "+now.Format("02/01/2006"))
	})
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) renderSummary(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	records, err := s.store.ListAll(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	png, err := s.summary.Render(records, s.now())
	if errors.Is(err, summary.ErrNothingPending) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: nothingPendingMsg})
		return nil, false
	}
	if err != nil {
		s.logger.Error("❌ Summary image failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "summary image failed"})
		return nil, false
	}
	return png, true
}

// lookup resolves the {seq}/{year} path parameters to a stored record,
// writing the error response when it fails.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (occurrence.Record, bool) {
	externalID, ok := protocolParam(w, r)
	if !ok {
		return occurrence.Record{}, false
	}
	rec, err := s.store.Get(r.Context(), externalID)
	if err != nil {
		s.writeError(w, r, err)
		return occurrence.Record{}, false
	}
	return rec, true
}

// protocolParam rebuilds the canonical protocol id, so /1/2026 and
// /001/2026 address the same record.
func protocolParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := chi.URLParam(r, "seq") + "/" + chi.URLParam(r, "year")
	n, year, err := occurrence.ParseProtocol(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return "", false
	}
	return occurrence.FormatProtocol(n, year), true
}

// notifyAsync queues send on the notification workers. Failures are only
// logged.
func (s *Server) notifyAsync(name string, send func(context.Context) error) {
	if s.dispatch == nil {
		return
	}
	s.dispatch.Submit(telegram.Job{Name: name, Send: send})
}

// decodeSubmission reads a JSON body or an HTML form post.
func decodeSubmission(r *http.Request) (occurrence.Submission, error) {
	var sub occurrence.Submission

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(io.LimitReader(r.Body, maxFormBytes)).Decode(&sub); err != nil {
			return sub, fmt.Errorf("invalid request body: %w", err)
		}
		return sub, nil
	}

	if err := r.ParseForm(); err != nil {
		return sub, fmt.Errorf("invalid form: %w", err)
	}
	f := r.PostForm
	sub = occurrence.Submission{
		Origin:         f.Get("origem"),
		Type:           f.Get("tipo"),
		ReferralNumber: f.Get("num_encaminhamento"),
		Street:         f.Get("rua"),
		Number:         f.Get("numero"),
		Neighborhood:   f.Get("bairro"),
		Zone:           f.Get("zona"),
		ReferencePoint: f.Get("ponto_referencia"),
		MapsLink:       f.Get("link_maps"),
		Description:    f.Get("descricao"),
		Observations:   f.Get("observacoes"),
		ReceivedBy:     f.Get("quem_recebeu"),
		NightAction:    formBool(f.Get("acao_noturna")),
	}
	var err error
	if sub.Latitude, err = formFloat("latitude", f.Get("latitude")); err != nil {
		return sub, err
	}
	if sub.Longitude, err = formFloat("longitude", f.Get("longitude")); err != nil {
		return sub, err
	}
	return sub, nil
}

// formFloat accepts "." or "," as decimal separator. Empty means not provided.
func formFloat(name, v string) (*float64, error) {
	v = strings.TrimSpace(strings.Replace(v, ",", ".", 1))
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid number %q", name, v)
	}
	return &f, nil
}

func formBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1", "sim":
		return true
	}
	return false
}
