package i18n

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/text/language"
)

// Fallback - язык, ключами которого дополняются все остальные
const Fallback = "en"

// Loader загружает словари <dir>/<lang>.json и накладывает их поверх английского
type Loader struct {
	log       *slog.Logger
	dir       string
	supported []string
	matcher   language.Matcher

	mu      sync.RWMutex
	bundles map[string]map[string]any
}

// NewLoader - supported перечисляет языки витрины, первым должен идти английский
func NewLoader(log *slog.Logger, dir string, supported ...string) *Loader {
	if len(supported) == 0 {
		supported = []string{Fallback, "fr", "ar"}
	}
	tags := make([]language.Tag, 0, len(supported))
	for _, s := range supported {
		tags = append(tags, language.Make(s))
	}
	return &Loader{
		log:       log.With(slog.String("component", "i18n")),
		dir:       dir,
		supported: supported,
		matcher:   language.NewMatcher(tags),
		bundles:   make(map[string]map[string]any),
	}
}

// Negotiate выбирает язык по заголовку Accept-Language
func (l *Loader) Negotiate(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Fallback
	}
	_, idx, conf := l.matcher.Match(tags...)
	if conf == language.No {
		return Fallback
	}
	return l.supported[idx]
}

// Supported - поддерживается ли язык (точное совпадение кода)
func (l *Loader) Supported(lang string) bool {
	for _, s := range l.supported {
		if s == lang {
			return true
		}
	}
	return false
}

// Bundle возвращает словарь lang, дополненный английскими ключами.
// Неизвестный или битый словарь - только английский
func (l *Loader) Bundle(lang string) map[string]any {
	if !l.Supported(lang) {
		lang = Fallback
	}

	l.mu.RLock()
	b, ok := l.bundles[lang]
	l.mu.RUnlock()
	if ok {
		return b
	}

	base, err := l.read(Fallback)
	if err != nil {
		l.log.Error("fallback locale unavailable", slog.Any("error", err))
		base = map[string]any{}
	}

	merged := base
	if lang != Fallback {
		loc, err := l.read(lang)
		if err != nil {
			l.log.Warn("locale unavailable, using fallback", slog.String("lang", lang), slog.Any("error", err))
		} else {
			merged = Merge(base, loc)
		}
	}

	l.mu.Lock()
	l.bundles[lang] = merged
	l.mu.Unlock()
	return merged
}

func (l *Loader) read(lang string) (map[string]any, error) {
	raw, err := os.ReadFile(filepath.Join(l.dir, lang+".json"))
	if err != nil {
		return nil, fmt.Errorf("read locale %s: %w", lang, err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode locale %s: %w", lang, err)
	}
	if out == nil {
		return nil, errors.New("empty locale " + lang)
	}
	return out, nil
}

// Merge - глубокое слияние: значения over побеждают, вложенные объекты сливаются.
// Аргументы не меняются
func Merge(base, over map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		bv, okBase := out[k].(map[string]any)
		ov, okOver := v.(map[string]any)
		if okBase && okOver {
			out[k] = Merge(bv, ov)
			continue
		}
		out[k] = v
	}
	return out
}
