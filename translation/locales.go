package translation

import "slices"

// Locales is the locale configuration of the application.
type Locales struct {
	// Default is the locale source content is written in unless a record says otherwise.
	Default string `mapstructure:"default" validate:"required"`

	// Available lists every locale content is offered in, including Default.
	Available []string `mapstructure:"available"`
}

// SourceOf returns the source locale of content written in locale.
func (l Locales) SourceOf(locale string) string {
	if locale == "" {
		return l.Default
	}
	return locale
}

// Targets returns the locales to translate into from source: the
// requested ones or every available locale, without source and duplicates.
func (l Locales) Targets(source string, requested []string) []string {
	candidates := requested
	if len(candidates) == 0 {
		candidates = l.Available
	}
	targets := make([]string, 0, len(candidates))
	for _, locale := range candidates {
		if locale == "" || locale == source || slices.Contains(targets, locale) {
			continue
		}
		targets = append(targets, locale)
	}
	return targets
}
