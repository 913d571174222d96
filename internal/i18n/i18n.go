package i18n

import (
	"embed"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	accept "github.com/timewasted/go-accept-headers"
	"github/chapool/mtw-recovery/internal/config"
	"golang.org/x/text/language"
)

//go:embed messages/*.toml
var embeddedMessages embed.FS

// Service translates user facing messages.
type Service struct {
	bundle  *i18n.Bundle
	matcher language.Matcher
}

// New loads the embedded message files and, if configured, every *.toml file of
// config.BundleDirAbs on top.
func New(cfg config.I18n) (*Service, error) {
	bundle := i18n.NewBundle(cfg.DefaultLanguage)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	err := fs.WalkDir(embeddedMessages, "messages", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}

		buf, err := embeddedMessages.ReadFile(path)
		if err != nil {
			return err
		}

		_, err = bundle.ParseMessageFileBytes(buf, path)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load embedded messages")
	}

	if cfg.BundleDirAbs != "" {
		files, err := os.ReadDir(cfg.BundleDirAbs)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read i18n bundle dir %q", cfg.BundleDirAbs)
		}

		for _, file := range files {
			if file.IsDir() || !strings.HasSuffix(file.Name(), ".toml") {
				continue
			}

			if _, err := bundle.LoadMessageFile(filepath.Join(cfg.BundleDirAbs, file.Name())); err != nil {
				return nil, errors.Wrapf(err, "failed to load message file %q", file.Name())
			}
		}
	}

	// the default language must come first, it is the matcher's fallback
	tags := []language.Tag{cfg.DefaultLanguage}
	for _, tag := range bundle.LanguageTags() {
		if tag != cfg.DefaultLanguage {
			tags = append(tags, tag)
		}
	}

	return &Service{
		bundle:  bundle,
		matcher: language.NewMatcher(tags),
	}, nil
}

// Translate localizes msgID for lang. Unknown ids are returned as is.
func (s *Service) Translate(lang language.Tag, msgID string, data ...map[string]interface{}) string {
	cfg := &i18n.LocalizeConfig{MessageID: msgID}
	if len(data) > 0 {
		cfg.TemplateData = data[0]
	}

	return s.localize(lang, cfg)
}

// TranslatePlural localizes msgID choosing the plural form for count.
func (s *Service) TranslatePlural(lang language.Tag, msgID string, count int, data map[string]interface{}) string {
	if data == nil {
		data = map[string]interface{}{}
	}
	data["Count"] = count

	return s.localize(lang, &i18n.LocalizeConfig{MessageID: msgID, PluralCount: count, TemplateData: data})
}

func (s *Service) localize(lang language.Tag, cfg *i18n.LocalizeConfig) string {
	localizer := i18n.NewLocalizer(s.bundle, lang.String())

	msg, err := localizer.Localize(cfg)
	if err != nil {
		log.Debug().Err(err).Str("messageId", cfg.MessageID).Str("lang", lang.String()).Msg("Failed to translate message")
		return cfg.MessageID
	}

	return msg
}

// ParseAcceptLanguage returns the supported language best matching an Accept-Language header.
func (s *Service) ParseAcceptLanguage(header string) language.Tag {
	var tags []language.Tag
	for _, a := range accept.Parse(header) {
		tag, err := language.Parse(a.Type)
		if err != nil {
			continue
		}
		tags = append(tags, tag)
	}

	if len(tags) == 0 {
		tags, _, _ = language.ParseAcceptLanguage(header)
	}

	tag, _, _ := s.matcher.Match(tags...)
	base, _ := tag.Base()

	return language.Make(base.String())
}

// Tags returns every language with messages.
func (s *Service) Tags() []language.Tag {
	return s.bundle.LanguageTags()
}
