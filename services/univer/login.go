package univer

import (
	"context"
	"fmt"
	"univer-backend/lib/timezone"

	"go.opentelemetry.io/otel/codes"
)

const authCookie = ".ASPXAUTH"
const sessionCookie = "ASP.NET_SessionId"

// Login authenticates against the institution's auth endpoint and
// returns the issued session cookies. The endpoint takes credentials as
// query parameters and signals success purely through the cookies it
// sets.
func (c *Client) Login(ctx context.Context, cred Credential) (Token, error) {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"login":    cred.Username,
			"password": cred.Password,
		}).
		Get(c.urls.Login)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login request failed")
		return Token{}, fmt.Errorf("%w: %s", ErrTimeout, err)
	}

	cookies := map[string]string{}
	for _, cookie := range res.Cookies() {
		cookies[cookie.Name] = cookie.Value
	}
	if _, ok := cookies[authCookie]; !ok {
		span.SetStatus(codes.Error, "no auth cookie in login response")
		return Token{}, ErrInvalidCredential
	}
	cookies["user_login"] = cred.Username

	return Token{
		Cookies:  cookies,
		IssuedAt: timezone.Now(),
	}, nil
}
