package when2meet

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"guildkeeper/internal/domain"
)

// DefaultBaseURL is the public scheduling website.
const DefaultBaseURL = "https://www.when2meet.com"

const createPath = "/SaveNewEvent.php"

type httpClient struct {
	client  *http.Client
	baseURL string
	logger  *slog.Logger
}

// NewClient returns a SchedulerClient that creates events by posting the site's "new event" form.
func NewClient(client *http.Client, baseURL string, logger *slog.Logger) domain.SchedulerClient {
	if client == nil {
		client = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &httpClient{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

func (c *httpClient) CreateEvent(ctx context.Context, r domain.SchedulingRequest) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	form := EncodeForm(r)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+createPath, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &domain.TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &domain.TransportError{StatusCode: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &domain.TransportError{Err: fmt.Errorf("read response: %w", err)}
	}

	link, err := c.eventURL(body)
	if err != nil {
		c.logger.Error("scheduler response format changed",
			"err", err,
			"status", resp.StatusCode,
			"event_name", r.EventName,
			"body_bytes", len(body),
		)
		return "", err
	}
	c.logger.Info("scheduler event created", "url", link, "dates", len(r.PossibleDates))
	return link, nil
}

// EncodeForm builds the new-event form for r.
func EncodeForm(r domain.SchedulingRequest) url.Values {
	dates := make([]string, len(r.PossibleDates))
	for i, d := range r.PossibleDates {
		dates[i] = d.String()
	}
	return url.Values{
		"NewEventName":  {r.EventName},
		"DateTypes":     {"SpecificDates"},
		"PossibleDates": {strings.Join(dates, "|")},
		"NoEarlierThan": {strconv.Itoa(r.EarliestHour)},
		"NoLaterThan":   {strconv.Itoa(r.LatestHour)},
		"TimeZone":      {r.Timezone},
	}
}

// eventURL reads the redirect target out of the body onload handler, which
// looks like window.location='./?12345-abcde'.
func (c *httpClient) eventURL(body []byte) (string, error) {
	onload, ok := bodyOnload(body)
	if !ok {
		return "", &domain.UpstreamFormatChangedError{Reason: "no body onload attribute"}
	}
	parts := strings.Split(onload, "/")
	last := parts[len(parts)-1]
	if len(last) < 2 {
		return "", &domain.UpstreamFormatChangedError{Reason: fmt.Sprintf("onload target %q too short", last)}
	}
	if q := last[len(last)-1]; q != '\'' && q != '"' {
		return "", &domain.UpstreamFormatChangedError{Reason: fmt.Sprintf("onload target %q is not quoted", last)}
	}
	return c.baseURL + "/" + last[:len(last)-1], nil
}

func bodyOnload(body []byte) (string, bool) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", false
	}
	var find func(n *html.Node) (string, bool)
	find = func(n *html.Node) (string, bool) {
		if n.Type == html.ElementNode && n.Data == "body" {
			for _, a := range n.Attr {
				if a.Key == "onload" {
					return a.Val, true
				}
			}
			return "", false
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if v, ok := find(child); ok {
				return v, true
			}
		}
		return "", false
	}
	return find(doc)
}
