// Package i18n renders the user facing status strings.
package i18n

import (
	"embed"
	"fmt"
	"sync"

	"github.com/BurntSushi/toml"
	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.toml
var localeFS embed.FS

var localeFiles = []string{
	"locales/active.en.toml",
	"locales/active.es.toml",
}

var (
	bundleOnce sync.Once
	bundle     *goi18n.Bundle
	bundleErr  error

	mu        sync.RWMutex
	localizer *goi18n.Localizer
)

func loadBundle() (*goi18n.Bundle, error) {
	bundleOnce.Do(func() {
		b := goi18n.NewBundle(language.English)
		b.RegisterUnmarshalFunc("toml", toml.Unmarshal)
		for _, path := range localeFiles {
			if _, err := b.LoadMessageFileFS(localeFS, path); err != nil {
				bundleErr = fmt.Errorf("load locale %s: %w", path, err)
				return
			}
		}
		bundle = b
	})
	return bundle, bundleErr
}

// SetLanguage selects the language used by T. Unknown tags fall back to
// English.
func SetLanguage(lang string) error {
	b, err := loadBundle()
	if err != nil {
		return err
	}
	mu.Lock()
	localizer = goi18n.NewLocalizer(b, lang, language.English.String())
	mu.Unlock()
	return nil
}

func current() *goi18n.Localizer {
	mu.RLock()
	l := localizer
	mu.RUnlock()
	if l != nil {
		return l
	}
	if err := SetLanguage(language.English.String()); err != nil {
		return nil
	}
	mu.RLock()
	defer mu.RUnlock()
	return localizer
}

// T renders message id with data. The id itself is returned when the
// message cannot be rendered.
func T(id string, data map[string]interface{}) string {
	return render(&goi18n.LocalizeConfig{MessageID: id, TemplateData: data})
}

// N renders a message with plural forms selected by count. count is also
// available to the template as .Count.
func N(id string, count int, data map[string]interface{}) string {
	if data == nil {
		data = map[string]interface{}{}
	}
	data["Count"] = count
	return render(&goi18n.LocalizeConfig{MessageID: id, TemplateData: data, PluralCount: count})
}

func render(cfg *goi18n.LocalizeConfig) string {
	l := current()
	if l == nil {
		return cfg.MessageID
	}
	msg, err := l.Localize(cfg)
	if err != nil {
		return cfg.MessageID
	}
	return msg
}
