// Package render converts CV HTML into a PDF and appends document
// attachments, using a Gotenberg instance (headless Chromium plus a PDF
// engine) reachable over HTTP.
//
// One export makes one or two calls:
//
//	POST {base}/forms/chromium/convert/html   index.html -> cv.pdf
//	POST {base}/forms/pdfengines/merge        cv.pdf + attachments -> result
//
// The merge call is skipped when there are no attachments.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/portfolio-backend/internal/config"
	"github.com/tbourn/portfolio-backend/internal/observability"
	"github.com/tbourn/portfolio-backend/internal/services"
)

var (
	// ErrNotPDF means an attachment could not be parsed as a PDF document.
	ErrNotPDF = errors.New("attachment is not a readable PDF")
	// ErrUpstream means the conversion service failed or answered with an error.
	ErrUpstream = errors.New("pdf conversion failed")
)

// maxOutputBytes caps the PDF read back from the conversion service.
const maxOutputBytes = 64 << 20

// Gotenberg implements services.Renderer.
type Gotenberg struct {
	base string
	http *http.Client
}

// NewGotenberg returns a renderer for cfg, or nil when no URL is configured.
func NewGotenberg(cfg config.RendererConfig) *Gotenberg {
	if cfg.URL == "" {
		return nil
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Gotenberg{
		base: strings.TrimRight(cfg.URL, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

var _ services.Renderer = (*Gotenberg)(nil)

// Render converts html to PDF and appends every attachment in order. Each
// attachment is parsed locally first so a broken file fails fast.
func (g *Gotenberg) Render(ctx context.Context, html string, attachments []services.Attachment) ([]byte, error) {
	tr := otel.Tracer("render/Gotenberg")
	ctx, span := tr.Start(ctx, "Render",
		trace.WithAttributes(attribute.Int("attachments", len(attachments))),
	)
	defer span.End()

	for _, a := range attachments {
		n, err := PageCount(a.Data)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("%s: %w", a.Path, err)
		}
		span.AddEvent("attachment", trace.WithAttributes(
			attribute.String("path", a.Path),
			attribute.Int("pages", n),
		))
	}

	cv, err := g.post(ctx, "/forms/chromium/convert/html", []part{{name: "index.html", data: []byte(html)}})
	if err != nil {
		observability.Fail(span, err, "convert failed")
		return nil, err
	}
	if len(attachments) == 0 {
		return cv, nil
	}

	// The merge route orders files by name.
	parts := make([]part, 0, len(attachments)+1)
	parts = append(parts, part{name: "000.pdf", data: cv})
	for i, a := range attachments {
		parts = append(parts, part{name: fmt.Sprintf("%03d.pdf", i+1), data: a.Data})
	}
	out, err := g.post(ctx, "/forms/pdfengines/merge", parts)
	if err != nil {
		observability.Fail(span, err, "merge failed")
		return nil, err
	}
	return out, nil
}

type part struct {
	name string
	data []byte
}

func (g *Gotenberg) post(ctx context.Context, route string, parts []part) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, p := range parts {
		w, err := mw.CreateFormFile("files", p.name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(p.data); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.base+route, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := g.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxOutputBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read: %v", ErrUpstream, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s: status %d", ErrUpstream, route, resp.StatusCode)
	}
	if !bytes.HasPrefix(raw, []byte("%PDF-")) {
		return nil, fmt.Errorf("%w: %s: response is not a PDF", ErrUpstream, route)
	}
	return raw, nil
}

// PageCount parses data as a PDF and returns its number of pages. Documents
// with no pages are rejected.
func PageCount(data []byte) (n int, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if rec := recover(); rec != nil {
			n, err = 0, ErrNotPDF
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNotPDF, err)
	}
	n = r.NumPage()
	if n < 1 {
		return 0, ErrNotPDF
	}
	return n, nil
}
