package dose

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fdg312/insulin-calc/internal/config"
	"github.com/fdg312/insulin-calc/internal/dosecalc"
	"github.com/fdg312/insulin-calc/internal/i18n"
	"github.com/fdg312/insulin-calc/internal/storage"
	"github.com/tidwall/gjson"
)

// Storage keys. They match what the browser build kept in local storage so
// exported records stay interchangeable.
const (
	InputsKey   = "insulinDoseInputs"
	LanguageKey = "insulinDoseLang"
)

// ErrCorruptRecord is returned by Load when the stored record cannot be read.
var ErrCorruptRecord = errors.New("persisted inputs record is corrupt")

// PersistedState is the subset of inputs kept between sessions.
type PersistedState struct {
	TotalDailyDose     dosecalc.Quantity
	BasalDose          dosecalc.Quantity
	TargetBloodGlucose dosecalc.Quantity
}

type persistedRecord struct {
	TDD      string `json:"tdd"`
	Basal    string `json:"basal"`
	TargetBG string `json:"targetBg"`
}

// Repository reads and writes PersistedState and the UI language through a KVStore.
type Repository struct {
	kv       storage.KVStore
	defaults config.DoseConfig
}

func NewRepository(kv storage.KVStore, defaults config.DoseConfig) *Repository {
	if defaults.InitialTargetBG <= 0 {
		defaults.InitialTargetBG = 130
	}
	if defaults.ResetTargetBG <= 0 {
		defaults.ResetTargetBG = 100
	}
	return &Repository{kv: kv, defaults: defaults}
}

// Load always returns a usable state. A missing record or missing fields
// yield the initial defaults; a storage failure or unreadable record yields
// the reset defaults together with the error.
func (r *Repository) Load(ctx context.Context) (PersistedState, error) {
	raw, found, err := r.kv.Get(ctx, InputsKey)
	if err != nil {
		return r.resetState(), fmt.Errorf("load inputs: %w", err)
	}
	if !found {
		raw = "{}"
	}

	if !gjson.Valid(raw) {
		return r.resetState(), ErrCorruptRecord
	}
	doc := gjson.Parse(raw)
	if doc.Type == gjson.Null {
		return r.resetState(), ErrCorruptRecord
	}

	state := PersistedState{
		TotalDailyDose:     quantityFromResult(doc.Get("tdd")),
		BasalDose:          quantityFromResult(doc.Get("basal")),
		TargetBloodGlucose: quantityFromResult(doc.Get("targetBg")),
	}
	if state.TargetBloodGlucose.IsEmpty() {
		state.TargetBloodGlucose = dosecalc.QuantityOf(r.defaults.InitialTargetBG)
	}
	return state, nil
}

// Save overwrites the record. Values are written as strings.
func (r *Repository) Save(ctx context.Context, state PersistedState) error {
	data, err := json.Marshal(persistedRecord{
		TDD:      state.TotalDailyDose.String(),
		Basal:    state.BasalDose.String(),
		TargetBG: state.TargetBloodGlucose.String(),
	})
	if err != nil {
		return fmt.Errorf("encode inputs: %w", err)
	}
	if err := r.kv.Set(ctx, InputsKey, string(data)); err != nil {
		return fmt.Errorf("save inputs: %w", err)
	}
	return nil
}

// Remove deletes the record. The language key is left alone.
func (r *Repository) Remove(ctx context.Context) error {
	if err := r.kv.Remove(ctx, InputsKey); err != nil {
		return fmt.Errorf("remove inputs: %w", err)
	}
	return nil
}

// LoadLanguage returns the stored language. found is false when nothing is
// stored; an unsupported stored value reads as English.
func (r *Repository) LoadLanguage(ctx context.Context) (lang i18n.Language, found bool, err error) {
	raw, found, err := r.kv.Get(ctx, LanguageKey)
	if err != nil {
		return i18n.Default, false, fmt.Errorf("load language: %w", err)
	}
	if !found {
		return i18n.Default, false, nil
	}
	return i18n.ParseLanguage(raw), true, nil
}

func (r *Repository) SaveLanguage(ctx context.Context, lang i18n.Language) error {
	if err := r.kv.Set(ctx, LanguageKey, string(i18n.ParseLanguage(string(lang)))); err != nil {
		return fmt.Errorf("save language: %w", err)
	}
	return nil
}

// resetState is the state after an explicit refresh.
func (r *Repository) resetState() PersistedState {
	return PersistedState{
		TargetBloodGlucose: dosecalc.QuantityOf(r.defaults.ResetTargetBG),
	}
}

func (r *Repository) resetTargetBG() float64 {
	return r.defaults.ResetTargetBG
}

// quantityFromResult reads a form value stored as a string or a number.
// Falsy values (missing, null, "", 0, false) read as empty.
func quantityFromResult(res gjson.Result) dosecalc.Quantity {
	switch res.Type {
	case gjson.String:
		return dosecalc.ParseQuantity(res.Str)
	case gjson.Number:
		if res.Num == 0 {
			return dosecalc.Empty()
		}
		return dosecalc.QuantityOf(res.Num)
	case gjson.True, gjson.JSON:
		return dosecalc.QuantityOf(dosecalc.Coerce(res.Raw))
	default:
		return dosecalc.Empty()
	}
}
