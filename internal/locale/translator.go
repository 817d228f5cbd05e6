package locale

import (
	"embed"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
)

//go:embed locales/*.toml
var localeFS embed.FS

const defaultLocale = "en"

// Translator resolves message keys against an embedded TOML locale table
type Translator struct {
	logger   *zap.Logger
	messages map[string]string
}

// NewTranslator loads the table for the given locale, falling back to
// English when the locale is unknown
func NewTranslator(logger *zap.Logger, locale string) *Translator {
	messages, err := loadTable(locale)
	if err != nil {
		if locale != defaultLocale {
			logger.Warn("Locale not available, falling back to English",
				zap.String("locale", locale), zap.Error(err))
			messages, err = loadTable(defaultLocale)
		}
		if err != nil {
			logger.Error("Failed to load locale table", zap.Error(err))
			messages = map[string]string{}
		}
	}
	return &Translator{logger: logger, messages: messages}
}

// Translate returns the message for key with $1..$n placeholders replaced
// by the given substitutions. Unknown keys return the key itself so a
// missing translation never blanks the UI.
func (t *Translator) Translate(key string, substitutions ...string) string {
	msg, ok := t.messages[key]
	if !ok {
		t.logger.Debug("Missing translation", zap.String("key", key))
		return key
	}
	for i, sub := range substitutions {
		msg = strings.ReplaceAll(msg, "$"+strconv.Itoa(i+1), sub)
	}
	return msg
}

func loadTable(locale string) (map[string]string, error) {
	data, err := localeFS.ReadFile("locales/" + locale + ".toml")
	if err != nil {
		return nil, err
	}
	var messages map[string]string
	if err := toml.Unmarshal(data, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}
