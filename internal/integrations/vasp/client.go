package vasp

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const DefaultAPIBase = "https://www.vaspexpresso.pt/api/TrackAndTrace/?term="

// Response is the raw provider reply: HTTP status and body.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports a 2xx status.
func (r Response) OK() bool {
	return r.StatusCode/100 == 2
}

// Fetcher performs one GET for a code and returns status + body or a typed
// failure (ErrTimeout, ErrConnection, ErrTransport).
type Fetcher interface {
	Fetch(ctx context.Context, code string) (Response, error)
}

type Client struct {
	apiBase string
	httpc   *http.Client
}

func New(apiBase string, timeout time.Duration) *Client {
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		apiBase: apiBase,
		httpc: &http.Client{
			Timeout: timeout,
		},
	}
}

// URL дописывает код к базе, как того ожидает TrackAndTrace (?term=).
func (c *Client) URL(code string) string {
	return c.apiBase + strings.TrimSpace(code)
}

func (c *Client) Fetch(ctx context.Context, code string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(code), nil)
	if err != nil {
		return Response{}, errors.Wrap(ErrTransport, "new request: "+err.Error())
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return Response{}, classify(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, classify(err)
	}

	return Response{StatusCode: resp.StatusCode, Body: body}, nil
}
