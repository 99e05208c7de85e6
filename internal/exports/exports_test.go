package exports

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fdg312/insulin-calc/internal/blob"
	"github.com/fdg312/insulin-calc/internal/config"
	"github.com/fdg312/insulin-calc/internal/dose"
	"github.com/fdg312/insulin-calc/internal/storage/memory"
	"github.com/fdg312/insulin-calc/internal/userctx"
	"github.com/sirupsen/logrus/hooks/test"
)

func newTestSession(t *testing.T) *dose.Session {
	t.Helper()
	logger, _ := test.NewNullLogger()
	repo := dose.NewRepository(memory.NewKVMemoryStorage(), config.DoseConfig{InitialTargetBG: 130, ResetTargetBG: 100})
	s := dose.NewSession(repo, logger)
	s.Load(context.Background())

	edits := []dose.Edit{
		{Field: dose.FieldTotalDailyDose, Value: "50"},
		{Field: dose.FieldBloodGlucose, Value: "250"},
		{Field: dose.FieldCarbGrams, Value: "45"},
	}
	for _, e := range edits {
		if _, err := s.Apply(context.Background(), e); err != nil {
			t.Fatalf("apply %s: %v", e.Field, err)
		}
	}
	return s
}

func newTestHandlers(t *testing.T, store blob.Store) (*Handlers, *dose.Session) {
	t.Helper()
	session := newTestSession(t)
	logger, _ := test.NewNullLogger()
	service := NewService(memory.NewExportsMemoryStorage(), session, store, 900, logger)
	return NewHandlers(service, 10), session
}

func createExport(t *testing.T, h *Handlers, format string, headers map[string]string) ExportDTO {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/exports", strings.NewReader(`{"format":"`+format+`"}`))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.HandleCreate(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	var dto ExportDTO
	if err := json.NewDecoder(w.Body).Decode(&dto); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	return dto
}

func download(t *testing.T, h *Handlers, id, query string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/v1/exports/"+id+"/download"+query, nil)
	req.SetPathValue("id", id)
	w := httptest.NewRecorder()
	h.HandleDownload(w, req)
	return w
}

func TestCreateCSVExportLocal(t *testing.T) {
	h, _ := newTestHandlers(t, nil)

	dto := createExport(t, h, "csv", map[string]string{"Accept-Language": "th"})
	if dto.Format != FormatCSV || dto.Language != "th" || dto.SizeBytes == 0 {
		t.Fatalf("unexpected export dto: %+v", dto)
	}
	if !strings.HasSuffix(dto.DownloadURL, "/v1/exports/"+dto.ID.String()+"/download") {
		t.Fatalf("unexpected download url %q", dto.DownloadURL)
	}

	w := download(t, h, dto.ID.String(), "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("expected text/csv, got %q", ct)
	}

	records, err := csv.NewReader(bytes.NewReader(w.Body.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("parse csv failed: %v", err)
	}
	if records[0][0] != "กรัม" {
		t.Fatalf("expected thai header, got %v", records[0])
	}
	// header + 6 table rows + bolus, correction, total, basal
	if len(records) != 11 {
		t.Fatalf("expected 11 records, got %d", len(records))
	}
	if got := records[4]; got[0] != "45" || got[1] != "3" || got[2] != "5" {
		t.Fatalf("unexpected table row for 3 units: %v", got)
	}
	if records[9][1] != "8" {
		t.Fatalf("expected total 8, got %v", records[9])
	}
	if records[10][1] != "20 - 25" {
		t.Fatalf("expected basal band 20 - 25, got %v", records[10])
	}
}

func TestCreatePDFExport(t *testing.T) {
	h, _ := newTestHandlers(t, nil)

	dto := createExport(t, h, "pdf", nil)
	w := download(t, h, dto.ID.String(), "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")) {
		t.Fatal("expected PDF payload")
	}
}

func TestCreateExportInvalidFormat(t *testing.T) {
	h, _ := newTestHandlers(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/exports", strings.NewReader(`{"format":"xlsx"}`))
	w := httptest.NewRecorder()
	h.HandleCreate(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
}

func TestExportsBlobMode(t *testing.T) {
	store := blob.NewMemoryStore()
	h, _ := newTestHandlers(t, store)

	dto := createExport(t, h, "csv", nil)

	data, err := store.GetObject(context.Background(), "exports/"+dto.ID.String()+".csv")
	if err != nil || len(data) == 0 {
		t.Fatalf("expected export object in blob store, err=%v", err)
	}

	w := download(t, h, dto.ID.String(), "?proxy=1")
	if w.Code != http.StatusOK {
		t.Fatalf("expected proxied download 200, got %d", w.Code)
	}
	if !bytes.Equal(w.Body.Bytes(), data) {
		t.Fatal("proxied body differs from stored object")
	}
}

func TestListAndDeleteExports(t *testing.T) {
	h, _ := newTestHandlers(t, nil)

	first := createExport(t, h, "csv", nil)
	createExport(t, h, "pdf", nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/exports?limit=100", nil)
	w := httptest.NewRecorder()
	h.HandleList(w, req)
	var list ExportsResponse
	if err := json.NewDecoder(w.Body).Decode(&list); err != nil {
		t.Fatalf("decode list failed: %v", err)
	}
	if len(list.Exports) != 2 {
		t.Fatalf("expected 2 exports, got %d", len(list.Exports))
	}

	req = httptest.NewRequest(http.MethodDelete, "/v1/exports/"+first.ID.String(), nil)
	req.SetPathValue("id", first.ID.String())
	w = httptest.NewRecorder()
	h.HandleDelete(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", w.Code)
	}

	if w := download(t, h, first.ID.String(), ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", w.Code)
	}
	if w := download(t, h, "not-a-uuid", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", w.Code)
	}
}

func TestCreateExportLogsSubject(t *testing.T) {
	logger, hook := test.NewNullLogger()
	service := NewService(memory.NewExportsMemoryStorage(), newTestSession(t), nil, 900, logger)

	ctx := userctx.WithUserID(context.Background(), "dev-user")
	export, err := service.CreateExport(ctx, "CSV", "")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	entry := hook.LastEntry()
	if entry == nil || entry.Message != "export created" {
		t.Fatalf("expected export created log entry, got %+v", entry)
	}
	if entry.Data["user_id"] != "dev-user" || entry.Data["format"] != FormatCSV {
		t.Fatalf("unexpected log fields: %v", entry.Data)
	}
	if entry.Data["export_id"] != export.ID.String() {
		t.Fatalf("expected export_id %s, got %v", export.ID, entry.Data["export_id"])
	}
}
