// Package i18n holds the calculator's label tables and language selection.
package i18n

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Language is a supported UI language code.
type Language string

const (
	English Language = "en"
	Thai    Language = "th"
)

// Default is used whenever a stored or requested language is not supported.
const Default = English

//go:embed locales/*.yaml
var localeFS embed.FS

// Labels maps label keys (title, bolus, refresh, ...) to display text.
type Labels map[string]string

// Label returns the text for key, or the key itself when missing.
func (l Labels) Label(key string) string {
	if v, ok := l[key]; ok {
		return v
	}
	return key
}

var (
	loadOnce sync.Once
	tables   map[Language]Labels
	loadErr  error

	matcher = language.NewMatcher([]language.Tag{language.English, language.Thai})
)

func load() {
	tables = make(map[Language]Labels, 2)
	for _, lang := range []Language{English, Thai} {
		data, err := localeFS.ReadFile("locales/" + string(lang) + ".yaml")
		if err != nil {
			loadErr = fmt.Errorf("read locale %s: %w", lang, err)
			return
		}
		var labels Labels
		if err := yaml.Unmarshal(data, &labels); err != nil {
			loadErr = fmt.Errorf("parse locale %s: %w", lang, err)
			return
		}
		tables[lang] = labels
	}
}

// Validate reports whether the embedded tables loaded and share the same keys.
func Validate() error {
	loadOnce.Do(load)
	if loadErr != nil {
		return loadErr
	}
	en := tables[English]
	for lang, labels := range tables {
		for key := range en {
			if _, ok := labels[key]; !ok {
				return fmt.Errorf("locale %s: missing label %q", lang, key)
			}
		}
	}
	return nil
}

// For returns the label table of lang. Unsupported languages get English.
func For(lang Language) Labels {
	loadOnce.Do(load)
	if labels, ok := tables[ParseLanguage(string(lang))]; ok {
		return labels
	}
	return Labels{}
}

// ParseLanguage accepts exactly "en" or "th"; anything else is English.
func ParseLanguage(s string) Language {
	switch Language(s) {
	case English, Thai:
		return Language(s)
	default:
		return Default
	}
}

// Match picks a supported language from an Accept-Language header.
func Match(acceptLanguage string) Language {
	if strings.TrimSpace(acceptLanguage) == "" {
		return Default
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Default
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default
	}
	if idx == 1 {
		return Thai
	}
	return English
}

// Toggle switches between English and Thai.
func Toggle(lang Language) Language {
	if ParseLanguage(string(lang)) == English {
		return Thai
	}
	return English
}
