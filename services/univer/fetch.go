package univer

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

// fetch performs an authorized GET and parses the response. The portal
// answers every request with HTTP 200; an expired session is detected
// by the login form being rendered instead of the page.
func (c *Client) fetch(ctx context.Context, token Token, url, referer string) (*goquery.Document, error) {
	ctx, span := tracer.Start(ctx, "fetch")
	defer span.End()

	req := c.http.R().SetContext(ctx)
	for name, value := range token.Cookies {
		req.SetCookie(&http.Cookie{Name: name, Value: value})
	}
	if referer != "" {
		req.SetHeader("referer", referer)
	}

	res, err := req.Get(url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "portal request failed")
		return nil, fmt.Errorf("%w: %s", ErrTimeout, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse portal html")
		return nil, err
	}

	if doc.Find("#login_form").Length() > 0 {
		span.SetStatus(codes.Error, ErrAuthorizationExpired.Error())
		return nil, ErrAuthorizationExpired
	}
	return doc, nil
}

// fetchLocalized requests a language-switch endpoint with the target
// page as referer. The portal switches the session language and then
// renders the referer page in it, which is the only reliable way to get
// a page in a specific language.
func (c *Client) fetchLocalized(ctx context.Context, token Token, pageUrl, lang string) (*goquery.Document, error) {
	return c.fetch(ctx, token, c.urls.Lang(lang), pageUrl)
}
