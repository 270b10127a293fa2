package univer

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"
	"univer-backend/lib/htmlutil"
	"univer-backend/lib/timezone"

	"github.com/PuerkitoBio/goquery"
)

// Exams scrapes the exam schedule. Rows with an id attribute are exam
// entries; the row right before each carries its date and time.
func (c *Client) Exams(ctx context.Context, token Token, lang string) ([]Exam, error) {
	ctx, span := tracer.Start(ctx, "client:Exams")
	defer span.End()

	doc, err := c.fetchLocalized(ctx, token, c.urls.Exams, lang)
	if err != nil {
		return nil, err
	}
	return parseExams(doc), nil
}

func parseExams(doc *goquery.Document) []Exam {
	rows := doc.Find("#scheduleList tr")
	if rows.Length() < 1 {
		return nil
	}

	var exams []Exam
	rows.Each(func(index int, row *goquery.Selection) {
		if _, hasId := row.Attr("id"); !hasId {
			return
		}

		cells := row.Find("td")
		if cells.Length() < 4 {
			return
		}

		prev := index - 1
		if prev < 0 {
			prev = 0
		}
		date, ok := parseExamDate(rows.Eq(prev).Text())
		if !ok {
			return
		}

		audience := htmlutil.Text(cells.Eq(3))
		if i := strings.LastIndex(audience, ":"); i >= 0 {
			audience = strings.TrimSpace(audience[i+1:])
		}

		exams = append(exams, Exam{
			Subject:  htmlutil.Text(cells.Eq(0)),
			Teacher:  htmlutil.Text(cells.Eq(1)),
			Audience: audience,
			Date:     date,
		})
	})

	sort.Slice(exams, func(i, j int) bool {
		return exams[i].Date.Before(exams[j].Date)
	})
	return exams
}

// parseExamDate reads a "dd.mm.yyyy hh:mm" (separator varies) date
// header line.
func parseExamDate(text string) (time.Time, bool) {
	line := strings.TrimSpace(strings.Split(strings.TrimSpace(text), "\n")[0])
	datePart, timePart, found := strings.Cut(line, " ")
	if !found {
		return time.Time{}, false
	}

	separator := ""
	for _, s := range []string{"-", "/", "."} {
		if strings.Contains(datePart, s) {
			separator = s
			break
		}
	}
	if separator == "" {
		return time.Time{}, false
	}

	dateFields := strings.Split(datePart, separator)
	timeFields := strings.Split(timePart, ":")
	if len(dateFields) != 3 || len(timeFields) < 2 {
		return time.Time{}, false
	}

	day, err1 := strconv.Atoi(dateFields[0])
	month, err2 := strconv.Atoi(dateFields[1])
	year, err3 := strconv.Atoi(dateFields[2])
	hour, err4 := strconv.Atoi(timeFields[0])
	minute, err5 := strconv.Atoi(timeFields[1])
	for _, err := range []error{err1, err2, err3, err4, err5} {
		if err != nil {
			return time.Time{}, false
		}
	}

	return time.Date(year, time.Month(month), day, hour, minute, 0, 0, timezone.Location), true
}
