package univer

import (
	"net/http/cookiejar"
	"time"
	"univer-backend/lib/lookup"
	"univer-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("services/univer")

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// Client scrapes one institution's portal. It is stateless with
// respect to users: session cookies are passed per call, so a single
// Client serves every student of that institution.
type Client struct {
	institution string
	urls        Urls

	http *resty.Client

	teachers     *lookup.Cache[Teacher]
	translations *lookup.Cache[*TranslationTable]
}

type ClientOptions struct {
	Institution string
	// Timeout for any single portal request. Defaults to 30s.
	Timeout time.Duration
}

func NewClient(opts ClientOptions) (*Client, error) {
	urls, err := InstitutionUrls(opts.Institution)
	if err != nil {
		return nil, err
	}
	if opts.Timeout == 0 {
		opts.Timeout = time.Second * 30
	}

	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.SetHeader("user-agent", userAgent)
	client.SetTimeout(opts.Timeout)
	// the login endpoint sits behind cloudflare
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	telemetry.InstrumentResty(client, "services/univer/http")

	return &Client{
		institution:  opts.Institution,
		urls:         urls,
		http:         client,
		teachers:     lookup.NewCache[Teacher](),
		translations: lookup.NewCache[*TranslationTable](),
	}, nil
}

func (c *Client) Institution() string {
	return c.institution
}

func (c *Client) Urls() Urls {
	return c.urls
}
