package translation

import "errors"

var (
	// ErrNoTranslator is returned when translating without a configured translator.
	ErrNoTranslator = errors.New("no translator configured")

	// ErrNoSourceLocale is returned when a record has no locale and no default is configured.
	ErrNoSourceLocale = errors.New("no source locale")
)
