package translation

import (
	"context"
	"slices"
	"strings"

	"github.com/poiesic/enricher/core"
	"github.com/poiesic/enricher/storage"
)

// Missing lists the locales a record has no translation for.
type Missing struct {
	Ref     core.Ref
	Locales []string
}

// FindMissing returns the records of def that have default-locale content
// but no translation for one of locales, or for any available locale other
// than the default when locales is empty. Results are ordered by key.
func FindMissing(ctx context.Context, records storage.RecordRepository, def *core.ModelDef, cfg Locales, locales []string) ([]Missing, error) {
	check := cfg.Targets(cfg.Default, locales)
	if len(check) == 0 {
		return nil, nil
	}

	var missing []Missing
	err := records.ForEachRecord(ctx, def.Table, func(r *core.Record) error {
		if cfg.SourceOf(r.Locale) != cfg.Default || !hasContent(r, def.TranslatableFields) {
			return nil
		}
		var absent []string
		for _, locale := range check {
			if !r.HasTranslation(locale) {
				absent = append(absent, locale)
			}
		}
		if len(absent) > 0 {
			missing = append(missing, Missing{Ref: r.Ref(), Locales: absent})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(missing, func(a, b Missing) int {
		return strings.Compare(a.Ref.Key, b.Ref.Key)
	})
	return missing, nil
}

func hasContent(r *core.Record, fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(r.Fields[f]) != "" {
			return true
		}
	}
	return false
}
