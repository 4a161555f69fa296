package security

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidAttachment is returned by callers that surface a rejected
// attachment path as an error.
var ErrInvalidAttachment = errors.New("invalid attachment path")

// KnownAttachments are the attachment paths accepted without pattern matching.
var KnownAttachments = []string{
	"/working-life/documents/Certificates.pdf",
	"/working-life/documents/CV.pdf",
	"/working-life/documents/Recommendations.pdf",
}

// attachmentPattern is one documents directory and a plain ASCII file name.
var attachmentPattern = regexp.MustCompile(`^/working-life/documents/[A-Za-z0-9_-]+\.pdf$`)

// AttachmentAllowList classifies PDF attachment paths. Anything not
// explicitly known or matching the safe file-name pattern is rejected.
type AttachmentAllowList struct {
	known map[string]struct{}
}

// NewAttachmentAllowList builds an allow-list from KnownAttachments plus any
// extra exact paths.
func NewAttachmentAllowList(extra ...string) *AttachmentAllowList {
	l := &AttachmentAllowList{known: make(map[string]struct{}, len(KnownAttachments)+len(extra))}
	for _, p := range append(append([]string{}, KnownAttachments...), extra...) {
		l.known[normalizeAttachment(p)] = struct{}{}
	}
	return l
}

var defaultAttachments = NewAttachmentAllowList()

// IsValidAttachmentPath reports whether path may be read for PDF merging,
// using the default allow-list.
func IsValidAttachmentPath(path string) bool { return defaultAttachments.IsValid(path) }

// IsValid accepts a known path or a path matching the safe file-name
// pattern. A raw input containing ".." or a backslash is rejected whatever
// else it matches.
func (l *AttachmentAllowList) IsValid(path string) bool {
	if hasTraversal(path) {
		return false
	}
	norm := normalizeAttachment(path)
	if _, ok := l.known[norm]; ok {
		return true
	}
	return attachmentPattern.MatchString(norm)
}

// Normalize returns the leading-slash form of path used for comparisons.
func (l *AttachmentAllowList) Normalize(path string) string { return normalizeAttachment(path) }

func hasTraversal(raw string) bool {
	return strings.Contains(raw, "..") || strings.Contains(raw, `\`)
}

func normalizeAttachment(p string) string {
	if !strings.HasPrefix(p, "/") {
		return "/" + p
	}
	return p
}
