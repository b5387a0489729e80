package policy

// Site defaults for onecompany.global. Internal locale "ua" is published
// under the "uk" hreflang tag.
var (
	DefaultLocales = []string{"ua", "en"}

	DefaultPublicPrefixes = []string{
		"/auto",
		"/moto",
		"/brands",
		"/blog",
		"/contact",
		"/about",
		"/partnership",
		"/choice",
		"/privacy",
		"/terms",
		"/cookies",
		"/categories",
	}

	DefaultStaticSlugs = []string{
		"",
		"/auto",
		"/moto",
		"/brands",
		"/brands/moto",
		"/brands/europe",
		"/brands/usa",
		"/brands/oem",
		"/brands/racing",
		"/about",
		"/contact",
		"/partnership",
		"/choice",
		"/blog",
		"/privacy",
		"/terms",
		"/cookies",
		"/categories",
	}

	DefaultNoindexPrefixes = []string{"/admin", "/api", "/telegram-app"}

	DefaultIndexablePatterns = []string{
		`^/(ua|en)$`,
		`^/(ua|en)/(?:auto|moto|brands|blog|contact|about|partnership|choice|privacy|terms|cookies|categories)(?:/[a-z0-9-]+)*$`,
	}

	DefaultNoindexPatterns = []string{
		`^/admin(?:/.*)?$`,
		`^/api(?:/.*)?$`,
		`^/telegram-app(?:/.*)?$`,
	}
)

// DefaultConfig returns the built-in site policy.
func DefaultConfig() Config {
	return Config{
		Locales:           append([]string(nil), DefaultLocales...),
		DefaultLocale:     "ua",
		HreflangTags:      map[string]string{"ua": "uk", "en": "en"},
		IndexablePatterns: append([]string(nil), DefaultIndexablePatterns...),
		NoindexPatterns:   append([]string(nil), DefaultNoindexPatterns...),
		StaticSlugs:       append([]string(nil), DefaultStaticSlugs...),
		PublicPrefixes:    append([]string(nil), DefaultPublicPrefixes...),
		NoindexPrefixes:   append([]string(nil), DefaultNoindexPrefixes...),
	}
}

// Default compiles DefaultConfig. The built-in patterns are known to compile.
func Default() *Policy {
	p, err := New(DefaultConfig())
	if err != nil {
		panic(err)
	}
	return p
}
