package univer

import (
	"context"
	"net/url"
	"univer-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// Materials scrapes the course materials page: one block per subject,
// each holding the teacher name and the list of downloadable files.
func (c *Client) Materials(ctx context.Context, token Token, lang string) ([]CourseMaterial, error) {
	ctx, span := tracer.Start(ctx, "client:Materials")
	defer span.End()

	if c.urls.Materials == "" {
		return nil, nil
	}

	doc, err := c.fetchLocalized(ctx, token, c.urls.Materials, lang)
	if err != nil {
		return nil, err
	}
	return parseMaterials(doc, c.urls.Materials), nil
}

func parseMaterials(doc *goquery.Document, baseUrl string) []CourseMaterial {
	var materials []CourseMaterial

	doc.Find("table.inner").Each(func(_ int, table *goquery.Selection) {
		subject := htmlutil.Text(table.Find("th").First())
		if subject == "" {
			return
		}
		subject = subjectFromLine(subject)
		teacher := htmlutil.Text(table.Find(".teacher, .fio").First())

		table.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
			href, _ := link.Attr("href")
			title := htmlutil.Text(link)
			if title == "" || href == "" {
				return
			}
			materials = append(materials, CourseMaterial{
				Subject: subject,
				Teacher: teacher,
				Title:   title,
				Href:    absoluteHref(baseUrl, href),
			})
		})
	})
	return materials
}

func absoluteHref(baseUrl, href string) string {
	base, err := url.Parse(baseUrl)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
