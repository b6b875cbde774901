// Package upload sends recorded clips to the sign-to-text backend.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Timeout bounds every upload. It is not configurable.
const Timeout = 120 * time.Second

const (
	fieldName     = "video"
	fileName      = "sign.mp4"
	fileType      = "video/mp4"
	maxErrorBody  = 64 << 10
	maxResultBody = 1 << 20
)

// Translation is the backend result, passed through unchanged.
type Translation struct {
	TranslatedText       string
	UnrecognizedGestures int
	ProcessingTime       float64
}

type predictResponse struct {
	Success           bool    `json:"success"`
	Error             string  `json:"error"`
	ProcessedText     string  `json:"processedText"`
	UnrecognizedCount int     `json:"unrecognizedCount"`
	ProcessingTime    float64 `json:"processingTime"`
}

// Options configures a Client.
type Options struct {
	BaseURL     string
	PredictPath string
	UserAgent   string
	// Token returns a bearer token, or "" to send none.
	Token      func() string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client posts clips to {BaseURL}{PredictPath}.
type Client struct {
	endpoint  string
	userAgent string
	token     func() string
	http      *http.Client
	logger    *slog.Logger
	tracer    trace.Tracer
	timeout   time.Duration
}

// New constructs a Client.
func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		endpoint:  strings.TrimRight(opts.BaseURL, "/") + opts.PredictPath,
		userAgent: opts.UserAgent,
		token:     opts.Token,
		http:      httpClient,
		logger:    opts.Logger,
		tracer:    otel.Tracer("github.com/rbright/signa/internal/upload"),
		timeout:   Timeout,
	}
}

// Endpoint returns the resolved predict URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Request is one outstanding upload.
type Request struct {
	FilePath string
	ID       string

	deadline time.Time
	cancel   context.CancelCauseFunc
	done     chan struct{}

	once   sync.Once
	result Translation
	err    error
}

// Cancel aborts the upload with ErrCancelled. Calls after the first, or after
// the request settled, do nothing.
func (r *Request) Cancel() {
	r.cancel(ErrCancelled)
}

// Deadline is when the request times out.
func (r *Request) Deadline() time.Time {
	return r.deadline
}

// Done closes when the request settles.
func (r *Request) Done() <-chan struct{} {
	return r.done
}

// Result blocks until the request settles.
func (r *Request) Result() (Translation, error) {
	<-r.done
	return r.result, r.err
}

// Upload sends filePath and waits for the translation.
func (c *Client) Upload(ctx context.Context, filePath string) (Translation, error) {
	return c.Begin(ctx, filePath).Result()
}

// Begin starts the upload in the background. Timeout and Cancel share one
// cancellation signal; its cause decides the reported error.
func (c *Client) Begin(ctx context.Context, filePath string) *Request {
	ctx, cancel := context.WithCancelCause(ctx)
	req := &Request{
		FilePath: filePath,
		ID:       uuid.NewString(),
		deadline: time.Now().Add(c.timeout),
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	timer := time.AfterFunc(c.timeout, func() { cancel(ErrTimedOut) })
	if c.logger != nil {
		c.logger.Debug("upload started",
			"request_id", req.ID,
			"endpoint", c.Endpoint(),
			"deadline", req.Deadline().Format(time.RFC3339),
		)
	}

	go func() {
		result, err := c.send(ctx, req)
		timer.Stop()
		req.settle(result, err)
		cancel(nil)
	}()
	return req
}

func (r *Request) settle(result Translation, err error) {
	r.once.Do(func() {
		r.result = result
		r.err = err
		close(r.done)
	})
}

func (c *Client) send(ctx context.Context, req *Request) (result Translation, err error) {
	ctx, span := c.tracer.Start(ctx, "upload.predict",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("signa.request_id", req.ID),
			attribute.String("http.url", c.endpoint),
		),
	)
	started := time.Now()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		c.log(req, started, err)
	}()

	body, contentType, err := encodeClip(req.FilePath)
	if err != nil {
		return Translation{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return Translation{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("X-Request-ID", req.ID)
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	if c.token != nil {
		if token := c.token(); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Translation{}, cancellationReason(ctx, fmt.Errorf("send video: %w", err))
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if readErr != nil {
			if reason := cancellationReason(ctx, nil); reason != nil {
				return Translation{}, reason
			}
		}
		return Translation{}, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var payload predictResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResultBody)).Decode(&payload); err != nil {
		return Translation{}, cancellationReason(ctx, fmt.Errorf("decode response: %w", err))
	}
	if !payload.Success {
		message := payload.Error
		if message == "" {
			message = unknownServerError
		}
		return Translation{}, &ServerError{Message: message}
	}

	return Translation{
		TranslatedText:       payload.ProcessedText,
		UnrecognizedGestures: payload.UnrecognizedCount,
		ProcessingTime:       payload.ProcessingTime,
	}, nil
}

// cancellationReason returns the tagged cause when ctx was cancelled, or
// fallback otherwise. Parent cancellation surfaces as the parent's cause.
func cancellationReason(ctx context.Context, fallback error) error {
	if ctx.Err() == nil {
		return fallback
	}
	cause := context.Cause(ctx)
	switch {
	case errors.Is(cause, ErrTimedOut):
		return ErrTimedOut
	case errors.Is(cause, ErrCancelled):
		return ErrCancelled
	default:
		return cause
	}
}

func encodeClip(path string) (io.Reader, string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open clip: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, fieldName, fileName))
	header.Set("Content-Type", fileType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create multipart part: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", fmt.Errorf("read clip: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}

func (c *Client) log(req *Request, started time.Time, err error) {
	if c.logger == nil {
		return
	}
	attrs := []any{
		"request_id", req.ID,
		"clip", req.FilePath,
		"duration_ms", time.Since(started).Milliseconds(),
	}
	if err != nil {
		c.logger.Warn("upload failed", append(attrs, "error", err.Error())...)
		return
	}
	c.logger.Info("upload complete", attrs...)
}
