package i18n_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/mtw-recovery/internal/config"
	"github/chapool/mtw-recovery/internal/i18n"
	"golang.org/x/text/language"
)

func newService(t *testing.T, dir string) *i18n.Service {
	t.Helper()

	svc, err := i18n.New(config.I18n{DefaultLanguage: language.English, BundleDirAbs: dir})
	require.NoError(t, err)

	return svc
}

func TestTranslate(t *testing.T) {
	svc := newService(t, "")

	assert.Equal(t, "no valid wallet found", svc.Translate(language.English, "NoWalletFound"))
	assert.Equal(t, "keine gültige Wallet gefunden", svc.Translate(language.German, "NoWalletFound"))
	assert.Equal(t, "Unexpected error: boom", svc.Translate(language.English, "UnexpectedError", map[string]interface{}{"Detail": "boom"}))

	// unsupported languages fall back to the default
	assert.Equal(t, "no valid wallet found", svc.Translate(language.Japanese, "NoWalletFound"))

	assert.Equal(t, "DoesNotExist", svc.Translate(language.English, "DoesNotExist"))
}

func TestTranslatePlural(t *testing.T) {
	svc := newService(t, "")

	assert.Equal(t, "Recovered funds from 1 wallet", svc.TranslatePlural(language.English, "RecoveryFinished", 1, nil))
	assert.Equal(t, "Recovered funds from 3 wallets", svc.TranslatePlural(language.English, "RecoveryFinished", 3, nil))
	assert.Equal(t, "Guthaben aus 2 Wallets wiederhergestellt", svc.TranslatePlural(language.German, "RecoveryFinished", 2, nil))
}

func TestParseAcceptLanguage(t *testing.T) {
	svc := newService(t, "")

	assert.Equal(t, language.German, svc.ParseAcceptLanguage("de-DE,de;q=0.9,en;q=0.8"))
	assert.Equal(t, language.English, svc.ParseAcceptLanguage("en-US"))
	assert.Equal(t, language.English, svc.ParseAcceptLanguage("fr-FR"))
	assert.Equal(t, language.English, svc.ParseAcceptLanguage(""))
}

func TestBundleDirOverride(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "active.en.toml"), []byte("[RecoveryRunning]\nother = \"Working on it\"\n"), 0o600)
	require.NoError(t, err)

	svc := newService(t, dir)
	assert.Equal(t, "Working on it", svc.Translate(language.English, "RecoveryRunning"))
	assert.Equal(t, "no valid wallet found", svc.Translate(language.English, "NoWalletFound"))
}

func TestBundleDirMissing(t *testing.T) {
	_, err := i18n.New(config.I18n{DefaultLanguage: language.English, BundleDirAbs: "/does/not/exist"})
	require.Error(t, err)
}
