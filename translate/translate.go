// Package translate formats user-facing messages through a locale aware
// printer.
package translate

import (
	"github.com/jeandeaual/go-locale"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Translator formats en-US Sprintf() style keys for one language.
type Translator struct {
	tag     language.Tag
	printer *message.Printer
}

// New creates a translator for the best match among the tags.
// With no tags, en-US is used.
func New(tags ...string) (tr *Translator) {
	if len(tags) == 0 {
		tags = []string{"en-US"}
	}

	tag := message.MatchLanguage(tags...)
	tr = &Translator{
		tag:     tag,
		printer: message.NewPrinter(tag),
	}

	return
}

// Language returns the language the translator formats for.
func (tr *Translator) Language() language.Tag {
	return tr.tag
}

// Sprintf formats the key with args.
func (tr *Translator) Sprintf(key message.Reference, args ...any) string {
	return tr.printer.Sprintf(key, args...)
}

var host *Translator

func init() {
	locales, err := locale.GetLocales()
	if err != nil {
		logrus.Debugf("translate: locale: %v", err)
	}

	host = New(locales...)
}

// Host returns the translator for the host locale, chosen at start up.
func Host() *Translator {
	return host
}

// From an en-US Sprintf() format, translate to string using the host locale.
func From(key message.Reference, args ...any) string {
	return host.Sprintf(key, args...)
}
