// Package http is the transport used to submit signup forms.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"sattelclub/internal/core"
	"sattelclub/internal/signup"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "sattelclub/1.0"
)

// Options configures a Client. Zero values fall back to the defaults.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Debug     *DebugLogger
}

// Client posts signup forms. It is safe for concurrent use.
type Client struct {
	http   *resty.Client
	debug  *DebugLogger
	tracer trace.Tracer
}

var _ signup.Transport = (*Client)(nil)

func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	client := resty.New()
	client.SetTimeout(opts.Timeout)
	client.SetHeader("User-Agent", opts.UserAgent)
	client.SetHeader("Accept", "application/json")

	return &Client{
		http:   client,
		debug:  opts.Debug,
		tracer: otel.Tracer("sattelclub/internal/http"),
	}
}

// PostForm submits fields form-encoded to url. Any HTTP status is returned
// as a response; only failures without a response are errors.
func (c *Client) PostForm(ctx context.Context, url string, fields map[string]string) (*signup.Response, error) {
	participant := core.ParticipantFromContext(ctx)

	ctx, span := c.tracer.Start(ctx, "signup.post",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", http.MethodPost),
			attribute.String("http.url", url),
			attribute.String("signup.slug", fields["slug"]),
		),
	)
	defer span.End()

	c.debug.LogRequest(participant, http.MethodPost, url, fields)

	start := time.Now()
	res, err := c.http.R().
		SetContext(ctx).
		SetFormData(fields).
		Post(url)
	duration := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		c.debug.LogError(participant, err.Error(), duration)
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.status_code", res.StatusCode()))
	if res.IsError() {
		span.SetStatus(codes.Error, res.Status())
	}
	c.debug.LogResponse(participant, res.StatusCode(), res.Header(), res.Body(), duration)

	return &signup.Response{
		StatusCode: res.StatusCode(),
		Body:       res.Body(),
	}, nil
}
