package takkencrawler

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "東京都 千代田区 1-2-3", normalizeText("  東京都\n千代田区  1-2-3 "))
	assert.Equal(t, "", normalizeText(" \t\n "))
	assert.Equal(t, "株式会社 山田", normalizeText("株式会社　山田"))
}

func TestCompactText(t *testing.T) {
	assert.Equal(t, "商号又は名称", compactText(" 商号 又は\n名称 "))
}

func TestGetBaseUrl(t *testing.T) {
	base, err := getBaseUrl("https://etsuran2.mlit.go.jp/TAKKEN/kensetuKensaku.do?x=1")
	require.NoError(t, err)
	assert.Equal(t, "https://etsuran2.mlit.go.jp", base)

	_, err = getBaseUrl("not a url")
	assert.Error(t, err)
}

func TestGenerateFilename(t *testing.T) {
	name := generateFilename("https://example.com/a?b=c")
	assert.True(t, strings.HasSuffix(name, "_https___example.com_a_b=c.html"))
	assert.NotContains(t, name, "/")
}

func TestWritePageContentToFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "html")
	require.NoError(t, writePageContentToFile(dir, "<p>hi</p>", "https://example.com", "boom"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Page Url: https://example.com")
	assert.Contains(t, string(data), "boom\n<p>hi</p>")

	assert.NoError(t, writePageContentToFile("", "<p>hi</p>", "u", "m"))
}

func TestShouldBlockResource(t *testing.T) {
	engine := Engine{BlockedURLs: []string{"googletagmanager.com"}}

	assert.True(t, shouldBlockResource(engine, "image", "https://example.com/a.png"))
	assert.True(t, shouldBlockResource(engine, "script", "https://www.googletagmanager.com/gtm.js"))
	assert.False(t, shouldBlockResource(engine, "document", "https://example.com/"))
}
