package ai

import "strings"

var languageNames = map[string]string{
	"ar": "Arabic",
	"bg": "Bulgarian",
	"cs": "Czech",
	"da": "Danish",
	"de": "German",
	"el": "Greek",
	"en": "English",
	"es": "Spanish",
	"et": "Estonian",
	"fi": "Finnish",
	"fr": "French",
	"hu": "Hungarian",
	"id": "Indonesian",
	"it": "Italian",
	"ja": "Japanese",
	"ko": "Korean",
	"lt": "Lithuanian",
	"lv": "Latvian",
	"nb": "Norwegian",
	"nl": "Dutch",
	"pl": "Polish",
	"pt": "Portuguese",
	"ro": "Romanian",
	"ru": "Russian",
	"sk": "Slovak",
	"sl": "Slovenian",
	"sv": "Swedish",
	"tr": "Turkish",
	"uk": "Ukrainian",
	"zh": "Chinese",
}

// LanguageName returns the English name of a locale such as "it" or "pt_BR",
// or the locale itself when it is not known.
func LanguageName(locale string) string {
	base, region, _ := strings.Cut(strings.ReplaceAll(locale, "-", "_"), "_")
	name, ok := languageNames[strings.ToLower(base)]
	if !ok {
		return locale
	}
	if region != "" {
		return name + " (" + strings.ToUpper(region) + ")"
	}
	return name
}
