// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case. Generic codes mirror HTTP status semantics;
// domain codes name failures that status alone does not convey. Clients are
// expected to branch on these codes.
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthenticated"
	ErrCodeForbidden        = "forbidden"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternal         = "internal_error"

	// Domain-specific:
	ErrCodeInvalidAttachment    = "invalid_attachment"
	ErrCodeAttachmentMissing    = "attachment_missing"
	ErrCodeGeneratorUnavailable = "generator_unavailable"
	ErrCodeGenerationFailed     = "generation_failed"
	ErrCodeRendererUnavailable  = "renderer_unavailable"
	ErrCodeRendererFailed       = "renderer_failed"
	ErrCodeInvalidPDF           = "invalid_pdf"
	ErrCodeExportFailed         = "export_failed"
	ErrCodeListFailed           = "list_failed"
	ErrCodeSaveFailed           = "save_failed"
)
