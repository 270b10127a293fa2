package univer

import (
	"context"
	"strconv"
	"strings"
	"univer-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// Transcript scrapes the cumulative transcript table along with the
// GPA line the portal prints underneath it.
func (c *Client) Transcript(ctx context.Context, token Token, lang string) (Transcript, error) {
	ctx, span := tracer.Start(ctx, "client:Transcript")
	defer span.End()

	doc, err := c.fetchLocalized(ctx, token, c.urls.Transcript, lang)
	if err != nil {
		return Transcript{}, err
	}
	return parseTranscript(doc), nil
}

func parseTranscript(doc *goquery.Document) Transcript {
	var transcript Transcript

	doc.Find("table.inner tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 5 {
			return
		}
		subject := htmlutil.Text(cells.Eq(1))
		if subject == "" {
			return
		}

		credits, err := strconv.Atoi(htmlutil.Text(cells.Eq(2)))
		if err != nil {
			// header or section divider row
			return
		}
		score, _ := strconv.Atoi(htmlutil.Text(cells.Eq(3)))

		transcript.Rows = append(transcript.Rows, TranscriptRow{
			Subject: subject,
			Credits: credits,
			Score:   score,
			Grade:   htmlutil.Text(cells.Eq(4)),
		})
	})

	doc.Find("p, b, strong").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := htmlutil.Text(sel)
		if !strings.Contains(text, "GPA") {
			return true
		}
		if _, value, found := strings.Cut(text, ":"); found {
			transcript.GPA = strings.TrimSpace(value)
			return false
		}
		return true
	})

	return transcript
}
