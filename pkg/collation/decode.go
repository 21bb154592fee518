package collation

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// ErrUnknownCollation is returned when a collation name cannot be mapped to a
// locale.
var ErrUnknownCollation = errors.New("unknown collation")

// locales maps the locale part of SQL Server collation names to BCP 47 tags.
var locales = map[string]string{
	"Latin1_General":      "en",
	"French":              "fr",
	"German_PhoneBook":    "de-u-co-phonebk",
	"Japanese":            "ja",
	"Turkish":             "tr",
	"Chinese_PRC":         "zh",
	"Finnish_Swedish":     "sv",
	"Danish_Norwegian":    "da",
	"Greek":               "el",
	"Cyrillic_General":    "ru",
	"Modern_Spanish":      "es",
	"Traditional_Spanish": "es-u-co-trad",
	"Korean_Wansung":      "ko",
	"Polish":              "pl",
	"Czech":               "cs",
	"Hungarian":           "hu",
	"Arabic":              "ar",
	"Hebrew":              "he",
}

// lcids maps Windows locale ids to the locale part of a collation name.
var lcids = map[int]string{
	1029: "Czech",
	1030: "Danish_Norwegian",
	1031: "German_PhoneBook",
	1032: "Greek",
	1033: "Latin1_General",
	1036: "French",
	1038: "Hungarian",
	1041: "Japanese",
	1042: "Korean_Wansung",
	1045: "Polish",
	1049: "Cyrillic_General",
	1053: "Finnish_Swedish",
	1055: "Turkish",
	2052: "Chinese_PRC",
	3082: "Modern_Spanish",
}

// flags collects the comparison style suffixes of a collation name.
type flags struct {
	binary            bool
	caseInsensitive   bool
	accentInsensitive bool
	widthSensitive    bool
}

// Decode maps a SQL Server collation name to an ordering policy.
//
// The name is split into its locale part and its style suffixes:
//   - CI/CS select case (in)sensitivity; names without CI are case sensitive
//   - AI/AS select accent (in)sensitivity
//   - WS makes the comparison width sensitive
//   - BIN and BIN2 select ordinal comparison
//
// Code page (CP1, CP1253), version (90, 100, 140) and SC/UTF8 tokens are ignored,
// as is the legacy SQL_ prefix.
//
// Example:
//
//	p, err := collation.Decode("SQL_Latin1_General_CP1_CI_AS")
//	if err != nil {
//		return err
//	}
//
//	p.Compare("orders", "ORDERS") // 0
//	p.Compare("café", "cafe")     // 1
func Decode(name string) (Policy, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.Wrap(ErrUnknownCollation, "empty collation name")
	}

	tokens := strings.Split(name, "_")
	if strings.EqualFold(tokens[0], "SQL") {
		tokens = tokens[1:]
	}

	var (
		f      flags
		locale []string
	)
	for _, tok := range tokens {
		switch strings.ToUpper(tok) {
		case "CI":
			f.caseInsensitive = true
		case "CS":
			f.caseInsensitive = false
		case "AI":
			f.accentInsensitive = true
		case "AS", "KS", "SC", "UTF8", "VSS":
		case "WS":
			f.widthSensitive = true
		case "BIN", "BIN2":
			f.binary = true
		default:
			if isCodePage(tok) || isNumber(tok) {
				continue
			}
			locale = append(locale, tok)
		}
	}

	if f.binary {
		return ordinal{name: name}, nil
	}

	tag, err := localeTag(locale)
	if err != nil {
		return nil, errors.Wrapf(err, "collation %s", name)
	}

	var opts []collate.Option
	if f.caseInsensitive {
		if !f.widthSensitive {
			opts = append(opts, collate.IgnoreWidth)
		}
		opts = append(opts, collate.IgnoreCase)
	}
	if f.accentInsensitive {
		opts = append(opts, collate.IgnoreDiacritics)
	}

	return &collator{name: name, c: collate.New(tag, opts...)}, nil
}

// NameForLCID returns the case-insensitive, accent-sensitive collation name for a
// Windows locale id, e.g. 1033 -> Latin1_General_CI_AS.
func NameForLCID(lcid int) (string, bool) {
	locale, ok := lcids[lcid]
	if !ok {
		return "", false
	}
	return locale + "_CI_AS", true
}

// localeTag resolves the locale tokens, trying the longest prefix first so that
// e.g. Japanese_XJIS falls back to Japanese.
func localeTag(tokens []string) (language.Tag, error) {
	for n := len(tokens); n > 0; n-- {
		if bcp, ok := locales[strings.Join(tokens[:n], "_")]; ok {
			return language.MustParse(bcp), nil
		}
	}
	return language.Und, errors.Wrapf(ErrUnknownCollation, "no locale for %q", strings.Join(tokens, "_"))
}

func isCodePage(tok string) bool {
	return len(tok) > 2 && strings.EqualFold(tok[:2], "CP") && isNumber(tok[2:])
}

func isNumber(tok string) bool {
	_, err := strconv.Atoi(tok)
	return err == nil
}
