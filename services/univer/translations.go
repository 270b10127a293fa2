package univer

import (
	"context"
	"errors"
	"univer-backend/lib/htmlutil"
	"univer-backend/lib/textutil"

	"github.com/PuerkitoBio/goquery"
)

// errInconsistentPlan means the three language renditions of the
// education plan listed different subject counts, so rows cannot be
// zipped positionally.
var errInconsistentPlan = errors.New("univer: inconsistent education plan across languages")

// TranslationTable maps a subject name in any portal language onto its
// Translation. Lookups are whitespace- and case-insensitive.
type TranslationTable struct {
	bySubject map[string]Translation
}

// Find returns the translation for a subject name in any language.
func (t *TranslationTable) Find(subject string) (Translation, bool) {
	if t == nil {
		return Translation{}, false
	}
	tr, ok := t.bySubject[textutil.NormalizeName(subject)]
	return tr, ok
}

// In translates a subject into lang, echoing the input back when the
// table has no entry for it. Pages occasionally list subjects the
// education plan does not.
func (t *TranslationTable) In(subject, lang string) string {
	tr, ok := t.Find(subject)
	if !ok {
		return subject
	}
	if name := tr.In(lang); name != "" {
		return name
	}
	return subject
}

func (t *TranslationTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.bySubject)
}

// Each visits every known subject key with its translation.
func (t *TranslationTable) Each(fn func(subject string, tr Translation)) {
	if t == nil {
		return
	}
	for subject, tr := range t.bySubject {
		fn(subject, tr)
	}
}

// Translations builds the subject translation table for one student by
// reading their education plan in all three portal languages. The
// result is cached per identity for the life of the client; on failure
// a nil table (echo everything) is cached instead.
func (c *Client) Translations(ctx context.Context, token Token, identity string) *TranslationTable {
	return c.translations.Get(ctx, identity, func(ctx context.Context) (*TranslationTable, error) {
		return c.fetchTranslations(ctx, token)
	}, nil)
}

func (c *Client) fetchTranslations(ctx context.Context, token Token) (*TranslationTable, error) {
	ctx, span := tracer.Start(ctx, "client:fetchTranslations")
	defer span.End()

	if c.urls.EducationPlan == "" {
		return nil, nil
	}

	// the language switch is per-session server side, so the three
	// fetches must not interleave
	var ru, kk, en []string
	for _, page := range []struct {
		lang string
		out  *[]string
	}{
		{"ru", &ru},
		{"kk", &kk},
		{"en", &en},
	} {
		doc, err := c.fetchLocalized(ctx, token, c.urls.EducationPlan, page.lang)
		if err != nil {
			return nil, err
		}
		*page.out = parseEducationPlanSubjects(doc)
	}

	if len(ru) == 0 || len(ru) != len(kk) || len(ru) != len(en) {
		return nil, errInconsistentPlan
	}

	table := &TranslationTable{bySubject: make(map[string]Translation, len(ru)*3)}
	for i := range ru {
		tr := Translation{Ru: ru[i], Kk: kk[i], En: en[i]}
		for _, name := range []string{ru[i], kk[i], en[i]} {
			table.bySubject[textutil.NormalizeName(name)] = tr
		}
	}
	return table, nil
}

func parseEducationPlanSubjects(doc *goquery.Document) []string {
	var subjects []string
	doc.Find("table.inner tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		subject := htmlutil.Text(cells.Eq(1))
		if subject == "" {
			return
		}
		subjects = append(subjects, subjectFromLine(subject))
	})
	return subjects
}
