package uploader

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/tesenso/tb-import/internal/infrastructure/logging"
	"github.com/tesenso/tb-import/internal/telemetry"
)

// telemetryPath is the fixed ingestion API path. The device access token
// is interpolated between the version segment and the suffix.
const telemetryPath = "/api/v1/%s/telemetry"

// Client uploads telemetry batches over HTTP.
//
// A Client is configured once and may serve any number of streams within
// a run; it holds no per-stream state.
type Client struct {
	rest   *resty.Client
	base   string
	delay  time.Duration
	strict bool
	log    *logging.Logger
}

// Options configures a Client.
type Options struct {
	// BaseURL is the endpoint root, e.g. "https://tesenso.io".
	// Trailing slashes are stripped.
	BaseURL string

	// Delay is the pause between consecutive batches of one stream.
	Delay time.Duration

	// Strict turns non-2xx responses into errors.
	Strict bool

	// Logger receives per-request diagnostics. Required.
	Logger *logging.Logger
}

// New creates a Client ready for use.
func New(opts Options) *Client {
	return &Client{
		rest:   resty.New().SetHeader("Content-Type", "application/json"),
		base:   strings.TrimRight(opts.BaseURL, "/"),
		delay:  opts.Delay,
		strict: opts.Strict,
		log:    opts.Logger,
	}
}

// TelemetryURL builds the full ingestion URL for a device token.
func (c *Client) TelemetryURL(token string) string {
	return c.base + fmt.Sprintf(telemetryPath, token)
}

// UploadStream sends one device's batches in order.
//
// Each batch is serialized to a JSON array of points and posted
// synchronously. After every batch except the last, execution pauses for
// the configured delay; the context cancels both the request in flight
// and the pause, so an interrupt lands between batches.
//
// Parameters:
//   - ctx: Context for cancellation
//   - token: Device access token, used in the URL path
//   - batches: Ordered batches for this device
//
// Returns:
//   - error: Transport failure, context cancellation, or (strict mode
//     only) ErrUpstreamStatus on a non-2xx response
func (c *Client) UploadStream(ctx context.Context, token string, batches [][]telemetry.Point) error {
	url := c.TelemetryURL(token)

	for i, batch := range batches {
		c.log.Debug("uploading batch",
			"batch", i+1,
			"batches", len(batches),
			"points", len(batch),
			"payload", batch,
		)

		resp, err := c.rest.R().
			SetContext(ctx).
			SetBody(batch).
			Post(url)
		if err != nil {
			return fmt.Errorf("uploader: posting batch %d of %d: %w", i+1, len(batches), err)
		}

		c.log.Debug("upload response", "status", resp.StatusCode())

		if c.strict && !resp.IsSuccess() {
			return fmt.Errorf("%w: HTTP %d on batch %d of %d",
				ErrUpstreamStatus, resp.StatusCode(), i+1, len(batches))
		}

		if i < len(batches)-1 {
			if err := pause(ctx, c.delay); err != nil {
				return err
			}
		}
	}

	return nil
}

// pause blocks for d or until the context is cancelled.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
