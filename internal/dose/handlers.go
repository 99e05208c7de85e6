package dose

import (
	"encoding/json"
	"io"
	"net/http"
	"slices"

	"github.com/fdg312/insulin-calc/internal/dosecalc"
	"github.com/fdg312/insulin-calc/internal/i18n"
	"github.com/tidwall/gjson"
)

const maxBodyBytes = 1 << 16

type Handler struct {
	session *Session
}

func NewHandler(session *Session) *Handler {
	return &Handler{session: session}
}

// HandleGet GET /v1/dose
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	writeView(w, r, h.session.Snapshot(r.Context()))
}

// HandlePatchInputs PATCH /v1/dose/inputs
// Body: {"field":"carb_grams","value":"45"}; value may be a string or a number.
func (h *Handler) HandlePatchInputs(w http.ResponseWriter, r *http.Request) {
	doc, ok := readJSON(w, r)
	if !ok {
		return
	}

	field := doc.Get("field")
	if field.Type != gjson.String {
		writeError(w, http.StatusBadRequest, "invalid_request", "field is required")
		return
	}

	edit := Edit{Field: Field(field.Str), Value: rawValue(doc.Get("value"))}
	st, err := h.session.Apply(r.Context(), edit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	writeView(w, r, st)
}

// HandleRefresh POST /v1/dose/refresh
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	writeView(w, r, h.session.Refresh(r.Context()))
}

// HandleToggleLanguage POST /v1/dose/language/toggle
func (h *Handler) HandleToggleLanguage(w http.ResponseWriter, r *http.Request) {
	writeView(w, r, h.session.ToggleLanguage(r.Context()))
}

// HandleSetLanguage PUT /v1/dose/language
func (h *Handler) HandleSetLanguage(w http.ResponseWriter, r *http.Request) {
	var req SetLanguageRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	writeView(w, r, h.session.SetLanguage(r.Context(), i18n.ParseLanguage(req.Language)))
}

// HandleToggleRatios POST /v1/dose/ratios/toggle
func (h *Handler) HandleToggleRatios(w http.ResponseWriter, r *http.Request) {
	writeView(w, r, h.session.ToggleRatios(r.Context()))
}

// HandleCalculate POST /v1/dose/calculate
// Stateless: the session is neither read nor written.
func (h *Handler) HandleCalculate(w http.ResponseWriter, r *http.Request) {
	doc, ok := readJSON(w, r)
	if !ok {
		return
	}

	units := doc.Get("carb_units")
	if units.Exists() {
		if err := (Edit{Field: FieldCarbUnits, Value: rawValue(units)}).Validate(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
	}

	// Grams win when both are sent.
	var carbs dosecalc.CarbConverter
	if grams := rawValue(doc.Get("carb_grams")); grams != "" {
		carbs.EditGrams(dosecalc.ParseQuantity(grams))
	} else if units.Exists() {
		carbs.EditUnits(dosecalc.ParseQuantity(rawValue(units)))
	}

	tdd := dosecalc.Coerce(rawValue(doc.Get("total_daily_dose")))
	ratios := dosecalc.DeriveRatios(tdd)
	resp := CalculateResponse{
		Ratios:    ratios,
		CarbGrams: carbs.Grams.Float(),
		Recommendation: dosecalc.Calculate(ratios,
			carbs.Grams.Float(),
			dosecalc.Coerce(rawValue(doc.Get("blood_glucose"))),
			dosecalc.Coerce(rawValue(doc.Get("target_blood_glucose"))),
		),
		Table: slices.Collect(dosecalc.Table(ratios)),
	}
	if band, ok := dosecalc.BasalRange(tdd); ok {
		resp.BasalRecommendation = &band
	}

	writeJSON(w, http.StatusOK, resp)
}

func readJSON(w http.ResponseWriter, r *http.Request) (gjson.Result, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil || !gjson.ValidBytes(body) {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return gjson.Result{}, false
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return gjson.Result{}, false
	}
	return doc, true
}

// rawValue turns a JSON string or number into form text. null and missing are "".
func rawValue(res gjson.Result) string {
	switch res.Type {
	case gjson.String:
		return res.Str
	case gjson.Number:
		return res.Raw
	default:
		return ""
	}
}

func writeView(w http.ResponseWriter, r *http.Request, st State) {
	writeJSON(w, http.StatusOK, RenderView(st, r.Header.Get("Accept-Language")))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}
