// Package services – CV customization and export
//
// CustomizeService tailors the admin's CV to a job posting with a text
// generator. Untrusted fields are run through the prompt-injection sanitizer
// before they are placed into the prompt.
//
// ExportService assembles a PDF from rendered HTML plus attachment PDFs. Every
// attachment path passes the allow-list before any file is opened, and files
// are opened through an os.Root so nothing outside the attachments directory
// is reachable.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/portfolio-backend/internal/llm"
	"github.com/tbourn/portfolio-backend/internal/observability"
	"github.com/tbourn/portfolio-backend/internal/security"
)

// MaxCVMarkdownLen caps the CV text sent for customization, in runes.
const MaxCVMarkdownLen = 50000

// CustomizeRequest is the input of one customization.
type CustomizeRequest struct {
	CVMarkdown         string
	JobDescription     string
	CustomInstructions string
	Language           string // optional BCP 47 tag
}

// CustomizeResult is a tailored CV. Redactions counts the injection
// patterns removed from the untrusted fields (CV, job description and
// instructions).
type CustomizeResult struct {
	Content    string
	Model      string
	Redactions int
}

// CustomizeService produces tailored CVs.
type CustomizeService struct {
	Generator llm.Generator
	Sanitizer *security.Sanitizer

	JobDescriptionMaxLen int
	InstructionsMaxLen   int
}

// Customize sanitizes every caller-supplied text field, builds the prompt and
// calls the generator.
func (s *CustomizeService) Customize(ctx context.Context, req CustomizeRequest) (*CustomizeResult, error) {
	tr := otel.Tracer("services/CustomizeService")
	ctx, span := tr.Start(ctx, "Customize",
		trace.WithAttributes(
			attribute.Int("job_description.runes", utf8.RuneCountInString(req.JobDescription)),
			attribute.Int("custom_instructions.runes", utf8.RuneCountInString(req.CustomInstructions)),
		),
	)
	defer span.End()

	cv := strings.TrimSpace(req.CVMarkdown)
	if cv == "" {
		return nil, fmt.Errorf("%w: cv_markdown is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(cv) > MaxCVMarkdownLen {
		return nil, fmt.Errorf("%w: cv_markdown exceeds %d characters", ErrInvalidInput, MaxCVMarkdownLen)
	}
	tag, err := llm.ParseLanguage(req.Language)
	if err != nil {
		return nil, fmt.Errorf("%w: language is not a valid language tag", ErrInvalidInput)
	}

	san := s.Sanitizer
	if san == nil {
		san = security.NewSanitizer()
	}
	cv, n0 := san.SanitizeCount(cv, MaxCVMarkdownLen)
	job, n1 := san.SanitizeCount(req.JobDescription, s.JobDescriptionMaxLen)
	instr, n2 := san.SanitizeCount(req.CustomInstructions, s.InstructionsMaxLen)
	redactions := n0 + n1 + n2
	span.SetAttributes(attribute.Int("sanitizer.redactions", redactions))
	if cv == "" {
		return nil, fmt.Errorf("%w: cv_markdown is required", ErrInvalidInput)
	}
	if job == "" {
		return nil, fmt.Errorf("%w: job_description is required", ErrInvalidInput)
	}

	if s.Generator == nil {
		return nil, ErrGeneratorUnavailable
	}
	prompt := llm.BuildCustomizationPrompt(llm.CustomizationInput{
		CVMarkdown:         cv,
		JobDescription:     job,
		CustomInstructions: instr,
		Language:           tag,
	})
	res, err := s.Generator.Generate(ctx, prompt)
	if err != nil {
		observability.Fail(span, err, "generate failed")
		if errors.Is(err, llm.ErrUnavailable) {
			return nil, ErrGeneratorUnavailable
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return &CustomizeResult{Content: res.Content, Model: res.Model, Redactions: redactions}, nil
}

// Attachment is one PDF file to append after the rendered CV.
type Attachment struct {
	Path string
	Data []byte
}

// Renderer turns HTML plus attachments into one PDF document.
type Renderer interface {
	Render(ctx context.Context, html string, attachments []Attachment) ([]byte, error)
}

// InvalidAttachmentError names the attachment path that failed the allow-list.
type InvalidAttachmentError struct {
	Path string
}

func (e *InvalidAttachmentError) Error() string {
	return fmt.Sprintf("%s: %q", security.ErrInvalidAttachment, e.Path)
}

// Unwrap makes errors.Is(err, security.ErrInvalidAttachment) hold.
func (e *InvalidAttachmentError) Unwrap() error { return security.ErrInvalidAttachment }

// MaxAttachments bounds how many files one export may append.
const MaxAttachments = 10

// DefaultMaxAttachmentBytes caps each attachment read from disk.
const DefaultMaxAttachmentBytes = 20 << 20

// ExportService renders CV PDFs.
type ExportService struct {
	// Dir is the directory attachment paths resolve under.
	Dir       string
	AllowList *security.AttachmentAllowList
	Renderer  Renderer
	// MaxAttachmentBytes rejects larger files. Zero means
	// DefaultMaxAttachmentBytes.
	MaxAttachmentBytes int64
}

// Export validates every attachment path, reads the files and renders the PDF.
func (s *ExportService) Export(ctx context.Context, html string, paths []string) ([]byte, error) {
	tr := otel.Tracer("services/ExportService")
	ctx, span := tr.Start(ctx, "Export",
		trace.WithAttributes(attribute.Int("attachments", len(paths))),
	)
	defer span.End()

	if strings.TrimSpace(html) == "" {
		return nil, fmt.Errorf("%w: html is required", ErrInvalidInput)
	}
	if len(paths) > MaxAttachments {
		return nil, fmt.Errorf("%w: at most %d attachments", ErrInvalidInput, MaxAttachments)
	}

	allow := s.AllowList
	if allow == nil {
		allow = security.NewAttachmentAllowList()
	}
	// All paths are checked before the first file is opened.
	for _, p := range paths {
		if !allow.IsValid(p) {
			return nil, &InvalidAttachmentError{Path: p}
		}
	}

	if s.Renderer == nil {
		return nil, ErrRendererUnavailable
	}

	atts, err := s.readAttachments(paths, allow)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	pdf, err := s.Renderer.Render(ctx, html, atts)
	if err != nil {
		observability.Fail(span, err, "render failed")
		return nil, err
	}
	return pdf, nil
}

func (s *ExportService) readAttachments(paths []string, allow *security.AttachmentAllowList) ([]Attachment, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	root, err := os.OpenRoot(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("open attachments dir: %w", err)
	}
	defer root.Close()

	limit := s.MaxAttachmentBytes
	if limit <= 0 {
		limit = DefaultMaxAttachmentBytes
	}
	out := make([]Attachment, 0, len(paths))
	for _, p := range paths {
		name := strings.TrimPrefix(allow.Normalize(p), "/")
		data, err := readFile(root, name, limit)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrAttachmentMissing, p)
			}
			return nil, err
		}
		out = append(out, Attachment{Path: p, Data: data})
	}
	return out, nil
}

// readFile reads name under root and fails when it is larger than limit
// rather than passing on a truncated document.
func readFile(root *os.Root, name string, limit int64) ([]byte, error) {
	f, err := root.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: attachment %s exceeds %d bytes", ErrInvalidInput, name, limit)
	}
	return data, nil
}
