package univer

import (
	"context"
	"strconv"
	"strings"
	"unicode"
	"univer-backend/lib/htmlutil"
	"univer-backend/lib/textutil"

	"github.com/PuerkitoBio/goquery"
)

// Attendance scrapes the full attendance page. The page interleaves,
// per subject: a "top" header row, one button row and one marks table
// per teaching period, and a free-text summary row right before the
// next subject's header.
func (c *Client) Attendance(ctx context.Context, token Token, lang string) ([]Attendance, error) {
	ctx, span := tracer.Start(ctx, "client:Attendance")
	defer span.End()

	doc, err := c.fetchLocalized(ctx, token, c.urls.Attendance, lang)
	if err != nil {
		return nil, err
	}
	return parseAttendance(doc), nil
}

func parseAttendance(doc *goquery.Document) []Attendance {
	rows := doc.Find("#tools + table + table tr")
	if rows.Length() < 2 {
		return nil
	}
	rows = rows.Slice(1, rows.Length())

	var attendances []Attendance
	current := Attendance{}
	part := AttendancePart{}
	ignore := true

	rowClass := func(row *goquery.Selection) string {
		class, _ := row.Attr("class")
		if class == "" {
			return "mid"
		}
		return strings.Fields(class)[0]
	}

	rows.Each(func(index int, row *goquery.Selection) {
		class := rowClass(row)
		if class == "top" {
			ignore = false
		}
		if ignore {
			return
		}

		if class == "top" {
			current.Subject = subjectFromLine(row.Text())
			return
		}

		if button := row.Find("a"); button.Length() > 0 {
			part.Type = capitalize(subjectFromLine(button.Text()))
			return
		}

		if table := row.Find("table"); table.Length() > 0 {
			label, marks, ok := parsePartTable(table.First())
			if !ok {
				return
			}
			part.Label = label
			part.Marks = marks
			if part.Type == "" && len(current.Parts) > 0 {
				part.Type = current.Parts[len(current.Parts)-1].Type
			}
			current.Parts = append(current.Parts, part)
			part = AttendancePart{}
			return
		}

		// the summary row is the one right before the next subject's
		// header (or the closing "bot" row)
		next := rows.Eq((index + 1) % rows.Length())
		if nextClass := rowClass(next); nextClass == "top" || nextClass == "bot" {
			current.Summary = parseSummary(row.Text())
			attendances = append(attendances, current)
			current = Attendance{}
			part = AttendancePart{}
		}
	})

	return attendances
}

// subjectFromLine strips the trailing parenthesized credit info from a
// "Subject Name (x/y/z)" line.
func subjectFromLine(line string) string {
	if i := strings.Index(line, "("); i >= 0 {
		line = line[:i]
	}
	return textutil.CollapseSpaces(line)
}

func capitalize(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// parsePartTable reads one period's inner table: th[0] is the period
// label, remaining th/td pairs are date → mark, where a mark is a
// score or an absence letter.
func parsePartTable(table *goquery.Selection) (string, []Mark, bool) {
	headings := table.Find("th")
	if headings.Length() == 0 {
		return "", nil, false
	}
	values := table.Find("td")

	var marks []Mark
	n := headings.Length() - 1
	if values.Length()-1 < n {
		n = values.Length() - 1
	}
	for i := 0; i < n; i++ {
		value := htmlutil.Text(values.Eq(i))
		if value == "" {
			continue
		}
		mark := Mark{Title: htmlutil.Text(headings.Eq(i + 1))}
		if isAlpha(value) {
			mark.Text = value
		} else {
			mark.Value, _ = strconv.Atoi(value)
		}
		marks = append(marks, mark)
	}
	return htmlutil.Text(headings.Eq(0)), marks, true
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return len(s) > 0
}

// parseSummary reads the free-text per-subject summary block of
// "Component (detail): score" lines.
func parseSummary(text string) []Mark {
	var marks []Mark
	for _, line := range strings.Split(text, "\n") {
		line = strings.ReplaceAll(line, " ", "")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		title, valueStr, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value, err := strconv.Atoi(strings.TrimSpace(valueStr))
		if err != nil {
			continue
		}
		marks = append(marks, Mark{
			Title: subjectFromLine(strings.TrimSpace(title)),
			Value: value,
		})
	}
	return marks
}
