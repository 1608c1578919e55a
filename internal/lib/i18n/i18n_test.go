package i18n_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/linemk/damio-storefront/internal/lib/i18n"
	"github.com/linemk/damio-storefront/internal/lib/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLocales(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestBundle_MergesOverEnglish(t *testing.T) {
	dir := writeLocales(t, map[string]string{
		"en.json": `{"cart":{"title":"Cart","empty":"Your cart is empty"},"home":"Home"}`,
		"fr.json": `{"cart":{"title":"Panier"}}`,
	})
	l := i18n.NewLoader(logger.Discard(), dir)

	b := l.Bundle("fr")
	cart := b["cart"].(map[string]any)
	assert.Equal(t, "Panier", cart["title"])
	assert.Equal(t, "Your cart is empty", cart["empty"])
	assert.Equal(t, "Home", b["home"])
}

func TestBundle_BrokenLocaleFallsBack(t *testing.T) {
	dir := writeLocales(t, map[string]string{
		"en.json": `{"home":"Home"}`,
		"ar.json": `{broken`,
	})
	l := i18n.NewLoader(logger.Discard(), dir)

	assert.Equal(t, "Home", l.Bundle("ar")["home"])
	assert.Equal(t, "Home", l.Bundle("de")["home"], "неподдерживаемый язык - английский")
}

func TestNegotiate(t *testing.T) {
	l := i18n.NewLoader(logger.Discard(), t.TempDir())

	assert.Equal(t, "fr", l.Negotiate("fr-DZ,fr;q=0.9,en;q=0.8"))
	assert.Equal(t, "ar", l.Negotiate("ar-DZ"))
	assert.Equal(t, "en", l.Negotiate("ja"))
	assert.Equal(t, "en", l.Negotiate(""))
}

func TestMerge_DoesNotMutate(t *testing.T) {
	base := map[string]any{"a": map[string]any{"x": "1"}}
	over := map[string]any{"a": map[string]any{"y": "2"}}

	out := i18n.Merge(base, over)
	assert.Len(t, out["a"].(map[string]any), 2)
	assert.Len(t, base["a"].(map[string]any), 1)
}
