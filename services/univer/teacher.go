package univer

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"univer-backend/lib/htmlutil"
	"univer-backend/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/antzucaro/matchr"
)

// teacherSimilarityFloor is the Jaro-Winkler score below which a staff
// directory hit is not considered the same person.
const teacherSimilarityFloor = 0.88

// ResolveTeacher maps the abbreviated "Surname F.P." form the schedule
// prints onto a staff directory profile. Results, including failed
// resolutions, are cached for the life of the client: the directory is
// slow and teacher names change rarely.
func (c *Client) ResolveTeacher(ctx context.Context, name string) Teacher {
	name = textutil.CollapseSpaces(name)
	fallback := Teacher{DisplayName: name}
	if name == "" || c.urls.StaffSearch == "" {
		return fallback
	}

	return c.teachers.Get(ctx, textutil.NormalizeName(name), func(ctx context.Context) (Teacher, error) {
		return c.searchStaff(ctx, name)
	}, fallback)
}

func (c *Client) searchStaff(ctx context.Context, name string) (Teacher, error) {
	ctx, span := tracer.Start(ctx, "client:searchStaff")
	defer span.End()

	// the directory matches on surname only
	surname, _, _ := strings.Cut(name, " ")

	res, err := c.http.R().
		SetContext(ctx).
		Get(fmt.Sprintf(c.urls.StaffSearch, url.QueryEscape(surname)))
	if err != nil {
		return Teacher{}, fmt.Errorf("staff search: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return Teacher{}, err
	}

	best := Teacher{DisplayName: name}
	bestScore := 0.0
	doc.Find("article a[href], .entry-title a[href]").Each(func(_ int, link *goquery.Selection) {
		full := htmlutil.Text(link)
		href, _ := link.Attr("href")
		if full == "" || href == "" {
			return
		}

		initials := textutil.ToInitials(full)
		if textutil.EqualIgnoringSpaces(name, initials) {
			best = Teacher{DisplayName: full, ProfileUrl: href}
			bestScore = 1
			return
		}
		score := matchr.JaroWinkler(textutil.NormalizeName(name), textutil.NormalizeName(initials), true)
		if score > bestScore && score >= teacherSimilarityFloor {
			best = Teacher{DisplayName: full, ProfileUrl: href}
			bestScore = score
		}
	})

	return best, nil
}
