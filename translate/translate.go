// Package translate localizes the diagnostic text produced by the assembler,
// the execution engine and the syscall layer.
package translate

import (
	"log"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	printer *message.Printer
	current language.Tag
)

func init() {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("plp: locale: %v", err)
	}

	SetLocale(locales...)
}

// SetLocale selects the printer for the best match among locales.
// An empty list falls back to en-US.
func SetLocale(locales ...string) {
	if len(locales) == 0 {
		locales = []string{"en-US"}
	}

	current = message.MatchLanguage(locales...)
	printer = message.NewPrinter(current)
}

// Tag returns the language currently used for diagnostics.
func Tag() language.Tag {
	return current
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}
