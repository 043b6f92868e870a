package catalog

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// placeholders are the textual spellings of a missing value.
var placeholders = map[string]struct{}{
	"nan":  {},
	"none": {},
	"null": {},
}

// Field is an optional text value parsed at the ingestion boundary.
// The zero Field is missing.
type Field struct {
	value string
	valid bool
}

// ParseField trims raw and collapses every missing representation
// (empty, whitespace-only, nan/none/null in any case) into the missing Field.
func ParseField(raw string) Field {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Field{}
	}
	if _, ok := placeholders[strings.ToLower(s)]; ok {
		return Field{}
	}
	return Field{value: s, valid: true}
}

// Valid reports whether the field carries a value.
func (f Field) Valid() bool { return f.valid }

// String returns the value, or "" when missing.
func (f Field) String() string { return f.value }

// Rating is a parsed rating. Text keeps the display form.
type Rating struct {
	Text  string
	Value float64
	Valid bool
}

// ParseRating parses a rating field. Non-numeric, NaN and infinite values
// are invalid and sort below every valid rating.
func ParseRating(f Field) Rating {
	r := Rating{Text: f.String()}
	if !f.Valid() {
		return r
	}
	v, err := strconv.ParseFloat(f.String(), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return r
	}
	r.Value = v
	r.Valid = true
	return r
}

// Less orders ratings descending with invalid ratings last.
// It reports whether r should sort before other.
func (r Rating) Less(other Rating) bool {
	if r.Valid != other.Valid {
		return r.Valid
	}
	return r.Valid && r.Value > other.Value
}

// isSeparator reports whether c delimits list-valued fields.
func isSeparator(c rune) bool {
	return c == ';' || c == ',' || c == '/' || c == '|'
}

// SplitMulti splits a list-valued field on ';', ',', '/' and '|'.
// Consecutive separators merge and tokens are trimmed; empty tokens drop.
func SplitMulti(s string) []string {
	f := ParseField(s)
	if !f.Valid() {
		return nil
	}
	parts := strings.FieldsFunc(f.String(), isSeparator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// NormalizeTitle lowercases title, collapses whitespace runs to one space
// and trims. Placeholder titles normalize to "".
func NormalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(ParseField(title).String())), " ")
}

// PrettyGenres renders a genre field as " | "-joined tokens.
func PrettyGenres(genres string) string {
	return strings.Join(SplitMulti(genres), " | ")
}

// TopActors returns the first two actors, underscores replaced by spaces,
// title-cased.
func TopActors(actors string) []string {
	tokens := SplitMulti(actors)
	if len(tokens) > 2 {
		tokens = tokens[:2]
	}
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, TitleCase(strings.ReplaceAll(t, "_", " ")))
	}
	return out
}

// TitleCase upper-cases every letter that follows a non-letter and
// lower-cases the rest, so "o'neil" becomes "O'Neil".
func TitleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, c := range s {
		if unicode.IsLetter(c) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(c))
			} else {
				b.WriteRune(unicode.ToUpper(c))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(c)
		prevLetter = false
	}
	return b.String()
}

// NormalizeStats counts rows seen and dropped by Normalize.
type NormalizeStats struct {
	Raw            int
	Kept           int
	EmptyTitle     int
	DuplicateTitle int
	EmptyText      int
}

// Dropped returns the number of excluded rows.
func (s NormalizeStats) Dropped() int {
	return s.EmptyTitle + s.DuplicateTitle + s.EmptyText
}

// Normalize turns raw rows into indexable records.
//
// Rows are silently excluded, in this order, when the title is missing,
// when the display title repeats an earlier row, or when story, genres and
// actors are all missing. Kept records are numbered by Row in catalog order.
func Normalize(raw []RawRecord) ([]Record, NormalizeStats) {
	stats := NormalizeStats{Raw: len(raw)}
	seen := make(map[string]struct{}, len(raw))
	records := make([]Record, 0, len(raw))

	for _, rr := range raw {
		title := ParseField(rr.Get(ColumnTitle))
		if !title.Valid() {
			stats.EmptyTitle++
			continue
		}
		if _, dup := seen[title.String()]; dup {
			stats.DuplicateTitle++
			continue
		}
		seen[title.String()] = struct{}{}

		story := ParseField(rr.Get(ColumnStory)).String()
		genres := ParseField(rr.Get(ColumnGenres)).String()
		actors := ParseField(rr.Get(ColumnActors)).String()

		combined := ParseField(story + " " + genres + " " + actors)
		if !combined.Valid() {
			stats.EmptyText++
			continue
		}

		records = append(records, Record{
			Row:          len(records),
			Title:        title.String(),
			TitleNorm:    NormalizeTitle(title.String()),
			Story:        story,
			GenresRaw:    genres,
			Genres:       SplitMulti(genres),
			GenresPretty: PrettyGenres(genres),
			ActorsRaw:    actors,
			Actors:       SplitMulti(actors),
			TopActors:    TopActors(actors),
			Rating:       ParseRating(ParseField(rr.Get(ColumnRating))),
			ReleaseDate:  ParseField(rr.Get(ColumnReleaseDate)).String(),
			CombinedText: combined.String(),
		})
	}

	stats.Kept = len(records)
	return records, stats
}
