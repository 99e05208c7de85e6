package dose

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fdg312/insulin-calc/internal/storage/memory"
	"github.com/sirupsen/logrus/hooks/test"
)

func newTestHandler(t *testing.T) (*Handler, *memory.KVMemoryStorage) {
	t.Helper()
	kv := memory.NewKVMemoryStorage()
	logger, _ := test.NewNullLogger()
	return NewHandler(NewSession(NewRepository(kv, testDoseConfig), logger)), kv
}

func doRequest(t *testing.T, fn http.HandlerFunc, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	fn(w, req)
	return w
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) View {
	t.Helper()
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var v View
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	return v
}

func TestHandleGetInitialView(t *testing.T) {
	h, _ := newTestHandler(t)

	v := decodeView(t, doRequest(t, h.HandleGet, http.MethodGet, "/v1/dose", "", nil))

	if v.Inputs.TargetBloodGlucose != "130" {
		t.Fatalf("expected target 130, got %q", v.Inputs.TargetBloodGlucose)
	}
	if v.Display.Bolus != "-" || v.Display.Correction != "-" || v.Display.Total != "-" {
		t.Fatalf("expected placeholders, got %+v", v.Display)
	}
	if len(v.Table) != 6 {
		t.Fatalf("expected 6 table rows, got %d", len(v.Table))
	}
	for i, d := range v.Display.TableDoses {
		if d != "-" {
			t.Fatalf("row %d: expected placeholder dose without TDD, got %q", i, d)
		}
	}
	if v.BasalRecommendation != nil {
		t.Fatal("expected no basal recommendation without TDD")
	}
	if v.Labels["title"] != "Insulin Dose Calculator" {
		t.Fatalf("unexpected title label %q", v.Labels["title"])
	}
}

func TestHandleGetAcceptLanguage(t *testing.T) {
	h, _ := newTestHandler(t)

	v := decodeView(t, doRequest(t, h.HandleGet, http.MethodGet, "/v1/dose", "",
		map[string]string{"Accept-Language": "th-TH,th;q=0.9"}))
	if v.Language != "th" {
		t.Fatalf("expected th from Accept-Language, got %s", v.Language)
	}

	// a stored choice overrides the header
	decodeView(t, doRequest(t, h.HandleSetLanguage, http.MethodPut, "/v1/dose/language", `{"language":"en"}`, nil))
	v = decodeView(t, doRequest(t, h.HandleGet, http.MethodGet, "/v1/dose", "",
		map[string]string{"Accept-Language": "th"}))
	if v.Language != "en" {
		t.Fatalf("expected stored en, got %s", v.Language)
	}
}

func TestHandlePatchInputs(t *testing.T) {
	h, kv := newTestHandler(t)

	decodeView(t, doRequest(t, h.HandlePatchInputs, http.MethodPatch, "/v1/dose/inputs", `{"field":"total_daily_dose","value":50}`, nil))
	decodeView(t, doRequest(t, h.HandlePatchInputs, http.MethodPatch, "/v1/dose/inputs", `{"field":"blood_glucose","value":"250"}`, nil))
	v := decodeView(t, doRequest(t, h.HandlePatchInputs, http.MethodPatch, "/v1/dose/inputs", `{"field":"carb_units","value":"3"}`, nil))

	if v.Inputs.CarbGrams != "45" || v.Inputs.CarbMode.String() != "units" {
		t.Fatalf("expected derived grams 45 in units mode, got %+v", v.Inputs)
	}
	if v.Display.Bolus != "5" || v.Display.Correction != "3" || v.Display.Total != "8" {
		t.Fatalf("unexpected display: %+v", v.Display)
	}
	if got := v.Display.TableDoses; len(got) != 6 || got[0] != "0" || got[5] != "8" {
		t.Fatalf("unexpected table doses: %v", got)
	}

	raw, found, _ := kv.Get(t.Context(), InputsKey)
	if !found || raw != `{"tdd":"50","basal":"","targetBg":"130"}` {
		t.Fatalf("unexpected persisted record %q", raw)
	}
}

func TestHandlePatchInputsErrors(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"field":`},
		{"not an object", `["carb_grams"]`},
		{"missing field", `{"value":"1"}`},
		{"unknown field", `{"field":"insulin_type","value":"1"}`},
		{"carb units too high", `{"field":"carb_units","value":"12"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, h.HandlePatchInputs, http.MethodPatch, "/v1/dose/inputs", tt.body, nil)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", w.Code)
			}
			var resp ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("decode error response failed: %v", err)
			}
			if resp.Error.Code != "invalid_request" {
				t.Fatalf("expected invalid_request, got %q", resp.Error.Code)
			}
		})
	}
}

func TestHandleRefreshAndToggles(t *testing.T) {
	h, kv := newTestHandler(t)

	decodeView(t, doRequest(t, h.HandlePatchInputs, http.MethodPatch, "/v1/dose/inputs", `{"field":"total_daily_dose","value":"50"}`, nil))

	v := decodeView(t, doRequest(t, h.HandleToggleRatios, http.MethodPost, "/v1/dose/ratios/toggle", "", nil))
	if !v.ShowRatios || v.Ratios == nil || v.Ratios.ICR != 10 {
		t.Fatalf("expected visible ratios, got %+v", v.Ratios)
	}

	v = decodeView(t, doRequest(t, h.HandleToggleLanguage, http.MethodPost, "/v1/dose/language/toggle", "", nil))
	if v.Language != "th" || v.Labels["refresh"] != "รีเซ็ต" {
		t.Fatalf("expected thai view, got %s / %q", v.Language, v.Labels["refresh"])
	}

	v = decodeView(t, doRequest(t, h.HandleRefresh, http.MethodPost, "/v1/dose/refresh", "", nil))
	if v.Inputs.TotalDailyDose != "" || v.Inputs.TargetBloodGlucose != "100" {
		t.Fatalf("unexpected inputs after refresh: %+v", v.Inputs)
	}
	if _, found, _ := kv.Get(t.Context(), InputsKey); found {
		t.Fatal("expected record removed by refresh")
	}
	if v.Language != "th" {
		t.Fatalf("refresh must keep language, got %s", v.Language)
	}
}

func TestHandleCalculateStateless(t *testing.T) {
	h, kv := newTestHandler(t)

	body := `{"total_daily_dose":"50","blood_glucose":250,"target_blood_glucose":"130","carb_units":3}`
	w := doRequest(t, h.HandleCalculate, http.MethodPost, "/v1/dose/calculate", body, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp CalculateResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	if resp.CarbGrams != 45 {
		t.Fatalf("expected 45 g from 3 units, got %v", resp.CarbGrams)
	}
	if resp.Recommendation.Bolus != 5 || resp.Recommendation.Correction != 3 || resp.Recommendation.Total != 8 {
		t.Fatalf("unexpected recommendation %+v", resp.Recommendation)
	}
	if resp.BasalRecommendation == nil || resp.BasalRecommendation.Low != 20 {
		t.Fatalf("unexpected basal %+v", resp.BasalRecommendation)
	}
	if _, found, _ := kv.Get(t.Context(), InputsKey); found {
		t.Fatal("calculate must not persist anything")
	}

	w = doRequest(t, h.HandleCalculate, http.MethodPost, "/v1/dose/calculate", `{"carb_units":"20"}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for out of range units, got %d", w.Code)
	}
}

func TestHandleCalculateBelowTarget(t *testing.T) {
	h, _ := newTestHandler(t)

	w := doRequest(t, h.HandleCalculate, http.MethodPost, "/v1/dose/calculate",
		`{"total_daily_dose":50,"blood_glucose":40,"target_blood_glucose":150,"carb_grams":0}`, nil)

	var resp CalculateResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	if resp.Recommendation.Correction != -3 || resp.Recommendation.Total != -3 {
		t.Fatalf("expected negative correction -3, got %+v", resp.Recommendation)
	}
}
