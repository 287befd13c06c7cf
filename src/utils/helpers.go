package utils

import (
	"agencia/src/config"
	"slices"
	"time"
)

// NormalizeLang maps a form-submitted language to a supported locale,
// falling back to the site default (fr) like the public pages do.
func NormalizeLang(lang string) string {
	if slices.Contains(config.SUPPORTED_LOCALES, lang) {
		return lang
	}
	return config.DEFAULT_LOCALE
}

// ParseTravelDate parses a form date; nil when absent or malformed. The
// travel date on a paid reservation is display information, the payment
// gate does not depend on it.
func ParseTravelDate(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	parsed, err := time.Parse(config.DATE_PARSE_FORMAT, raw)
	if err != nil {
		return nil
	}
	return &parsed
}
