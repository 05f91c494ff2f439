package report

import (
	"embed"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tartampluch/go-bazi/internal/config"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// Translator localizes report labels and chart vocabulary.
type Translator struct {
	bundle    *i18n.Bundle
	localizer *i18n.Localizer

	// Lang is the language actually selected after matching.
	Lang string

	// Languages lists the locales found in the embedded files.
	Languages []string
}

// NewTranslator loads the embedded locales and selects the best match for
// lang. Unknown languages fall back to English.
func NewTranslator(lang string) *Translator {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)
	tr := &Translator{bundle: bundle}

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		slog.Error(config.ErrLocalesAccess,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyError, err,
		)
		tr.Lang = config.DefaultLanguage
		tr.localizer = i18n.NewLocalizer(bundle, tr.Lang)
		return tr
	}

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "active.") || !strings.HasSuffix(name, ".json") {
			slog.Debug(config.MsgLocaleSkip,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		langCode := strings.TrimSuffix(strings.TrimPrefix(name, "active."), ".json")
		if langCode == "" {
			slog.Warn(config.MsgLocaleBadName,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		if _, err := bundle.LoadMessageFileFS(localeFS, "locales/"+name); err != nil {
			slog.Error(config.ErrLocaleLoad,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
				config.LogKeyError, err,
			)
			continue
		}
		tr.Languages = append(tr.Languages, langCode)
		slog.Debug(config.MsgLocaleLoaded,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyLang, langCode,
			config.LogKeyFile, name,
		)
	}

	tr.Lang = tr.match(lang)
	tr.localizer = i18n.NewLocalizer(bundle, tr.Lang)
	return tr
}

// match maps a requested tag such as "zh-Hans-CN" onto a loaded locale.
func (t *Translator) match(lang string) string {
	tags := t.bundle.LanguageTags()
	if len(tags) == 0 {
		return config.DefaultLanguage
	}
	_, idx, conf := language.NewMatcher(tags).Match(language.Make(lang))
	if conf == language.No {
		return config.DefaultLanguage
	}
	base, _ := tags[idx].Base()
	return base.String()
}

// Msg translates key, returning the key itself when no message exists.
func (t *Translator) Msg(key string) string {
	return t.lookup(key, key, nil)
}

// Msgf translates key with template data.
func (t *Translator) Msgf(key string, data map[string]any) string {
	return t.lookup(key, key, data)
}

func (t *Translator) lookup(key, fallback string, data map[string]any) string {
	if t == nil || t.localizer == nil {
		return fallback
	}
	msg, err := t.localizer.Localize(&i18n.LocalizeConfig{MessageID: key, TemplateData: data})
	if err != nil {
		slog.Debug(config.MsgTransMissing,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyKey, key,
			config.LogKeyError, err,
		)
		return fallback
	}
	return msg
}

// Term translates a vocabulary word stored under prefix+slug(value). Values
// without a message are returned unchanged, so custom rule markers still
// print.
func (t *Translator) Term(prefix, value string) string {
	return t.lookup(prefix+slug(value), value, nil)
}

func slug(v string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(v)), " ", "_")
}
