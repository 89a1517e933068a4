package scraperutil

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"time"

	"marketdigest/internal/components/telemetry"
	"marketdigest/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const BrowserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.114 Safari/537.36"

const DefaultTimeout = 15 * time.Second

type ClientOptions struct {
	// Name prefixes the files written when http dumps are enabled.
	Name    string
	BaseUrl string
	Timeout time.Duration
	// Browser makes the client look like a desktop browser, for upstreams that reject
	// non-browser clients.
	Browser bool
	// Cookies keeps a cookie jar across requests of the same client.
	Cookies bool
	// RequestsPerSecond caps the request rate, zero means 2 per second.
	RequestsPerSecond float64
}

// NewClient creates an instrumented resty client with a bounded timeout.
func NewClient(opts ClientOptions, tel telemetry.API) (*resty.Client, error) {
	httpClient := resty.New()
	if opts.BaseUrl != "" {
		httpClient.SetBaseURL(opts.BaseUrl)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient.SetTimeout(timeout)

	if opts.Cookies {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		httpClient.SetCookieJar(jar)
	}

	if opts.Browser {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}
	httpClient.SetHeader("user-agent", BrowserUserAgent)

	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	// max burst >= 1 just means that no requests will be dropped
	rateLimiter := rate.NewLimiter(rate.Limit(rps), 1)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(httpClient, tel)
	if dumpOutput != nil {
		name := opts.Name
		if name == "" {
			name = "http"
		}
		restyutil.Dump(httpClient, name, dumpOutput)
	}

	return httpClient, nil
}

var dumpOutput restyutil.Output

// SetDumpOutput makes every client created afterwards write its http exchanges to `output`.
func SetDumpOutput(output restyutil.Output) {
	dumpOutput = output
}

var ErrBadStatus = errors.New("unexpected response status")

// CheckResponse turns a transport error or a non-200 status into an error.
func CheckResponse(res *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if res.StatusCode() != http.StatusOK {
		return fmt.Errorf("%w: %s %s", ErrBadStatus, res.Request.URL, res.Status())
	}
	return nil
}

// CacheBuster is the millisecond timestamp some upstreams expect in the `_` query parameter.
func CacheBuster(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10)
}
