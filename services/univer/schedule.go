package univer

import (
	"context"
	"strings"
	"time"
	"univer-backend/lib/htmlutil"
	"univer-backend/lib/timezone"

	"github.com/PuerkitoBio/goquery"
)

// firstWeekMonday anchors the odd/even week factor the schedule page
// alternates on.
var firstWeekMonday = time.Date(2024, time.September, 2, 0, 0, 0, 0, timezone.Location)

// Schedule scrapes the weekly schedule grid. Lessons without an
// explicit week factor run on both week parities and are expanded into
// two entries, matching how the portal renders them.
func (c *Client) Schedule(ctx context.Context, token Token, lang string) (Schedule, error) {
	ctx, span := tracer.Start(ctx, "client:Schedule")
	defer span.End()

	doc, err := c.fetch(ctx, token, c.urls.Schedule, c.urls.Lang(lang))
	if err != nil {
		return Schedule{}, err
	}

	lessons := parseSchedule(doc)
	if len(lessons) == 0 {
		// the schedule page silently renders empty for a dead session
		return Schedule{}, ErrAuthorizationExpired
	}

	expanded := make([]Lesson, 0, len(lessons))
	for _, lesson := range lessons {
		if lesson.Factor == nil {
			even, odd := lesson, lesson
			even.Factor = boolPtr(true)
			odd.Factor = boolPtr(false)
			expanded = append(expanded, even, odd)
			continue
		}
		expanded = append(expanded, lesson)
	}

	week := currentWeek(timezone.Now())
	return Schedule{
		Lessons: expanded,
		Week:    week,
		Factor:  week%2 == 0,
	}, nil
}

func parseSchedule(doc *goquery.Document) []Lesson {
	var lessons []Lesson

	rows := doc.Find(".schedule tr")
	rows.Slice(1, rows.Length()).Each(func(_ int, row *goquery.Selection) {
		timeLabel := htmlutil.Text(row.Find(".time").First())

		row.Find("td.field").Each(func(day int, field *goquery.Selection) {
			cells := field.Find("div[style]")
			count := cells.Length()
			if count < 1 {
				return
			}

			cells.Each(func(index int, cell *goquery.Selection) {
				subject := cell.Find("p").First()
				lesson := Lesson{
					Subject:  normalizeSubjectTitle(htmlutil.Text(subject)),
					Teacher:  htmlutil.NextSiblingText(subject),
					Audience: htmlutil.NextSiblingText(cell.Find(".aud_faculty").First()),
					Period:   htmlutil.Text(cell.Find(".dateStartLbl").First()),
					Day:      day,
					Time:     timeLabel,
				}
				if count > 1 {
					// stacked cells alternate by week parity
					lesson.Factor = boolPtr(index == 0)
				}
				lessons = append(lessons, lesson)
			})
		})
	})
	return lessons
}

// normalizeSubjectTitle reinstates the space the portal drops before
// the parenthesized lesson kind.
func normalizeSubjectTitle(title string) string {
	title = strings.ReplaceAll(title, "(", " (")
	return strings.ReplaceAll(title, "  (", " (")
}

func currentWeek(now time.Time) int {
	days := int(now.Sub(firstWeekMonday).Hours() / 24)
	week := days/7 + 1
	if now.Weekday() == time.Saturday || now.Weekday() == time.Sunday {
		week++
	}
	return week
}

func boolPtr(b bool) *bool {
	return &b
}
