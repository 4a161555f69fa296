// Package services defines the business logic behind the admin and AI
// endpoints: site settings, share links, CV customization and PDF export.
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import "errors"

var (
	// ErrNotFound indicates that the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned when a request fails validation. Callers
	// wrap it with a message naming the offending field.
	ErrInvalidInput = errors.New("invalid input")

	// ErrGeneratorUnavailable is returned when no text generator is configured.
	ErrGeneratorUnavailable = errors.New("text generation is not available")

	// ErrGenerationFailed is returned when the text generator failed.
	ErrGenerationFailed = errors.New("text generation failed")

	// ErrAttachmentMissing is returned when an allowed attachment path does
	// not exist on disk.
	ErrAttachmentMissing = errors.New("attachment not found")

	// ErrRendererUnavailable is returned when no PDF renderer is configured.
	ErrRendererUnavailable = errors.New("pdf rendering is not available")
)
