package univer

import (
	"context"
	"strconv"
	"strings"
	"univer-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// Attestation scrapes the current attestation table: one row per
// subject, one column per grading component, a sum column, and three
// trailing service columns.
func (c *Client) Attestation(ctx context.Context, token Token, lang string) ([]Attestation, error) {
	ctx, span := tracer.Start(ctx, "client:Attestation")
	defer span.End()

	doc, err := c.fetchLocalized(ctx, token, c.urls.Attestation, lang)
	if err != nil {
		return nil, err
	}
	return parseAttestation(doc), nil
}

func parseAttestation(doc *goquery.Document) []Attestation {
	rows := doc.Find("#tools + table + table .mid table.inner > tr")
	if rows.Length() < 1 {
		return nil
	}

	var headers []string
	rows.First().Find("th").Each(func(_ int, th *goquery.Selection) {
		headers = append(headers, htmlutil.Text(th))
	})
	// layout: subject, hours, mark..., sum, retake, exam date, note
	if len(headers) < 6 {
		return nil
	}
	markHeaders := headers[2 : len(headers)-4]
	sumHeader := headers[len(headers)-4]

	var attestations []Attestation
	rows.Slice(1, rows.Length()-1).Each(func(_ int, row *goquery.Selection) {
		var cells []string
		row.Find("td").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, htmlutil.Text(td))
		})
		if len(cells) != len(headers) {
			return
		}

		markCells := cells[2 : len(cells)-4]
		marks := make([]Mark, 0, len(markCells))
		for i, cell := range markCells {
			value, _ := strconv.Atoi(cell)
			marks = append(marks, Mark{
				Title: strings.ReplaceAll(markHeaders[i], "*", ""),
				Value: value,
			})
		}

		sum, _ := strconv.Atoi(cells[len(cells)-4])
		attestations = append(attestations, Attestation{
			Subject: strings.TrimSpace(cells[0]),
			Marks:   marks,
			Sum:     Mark{Title: sumHeader, Value: sum},
		})
	})
	return attestations
}
