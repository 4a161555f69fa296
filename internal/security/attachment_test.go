package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidAttachmentPath_KnownPaths(t *testing.T) {
	for _, p := range KnownAttachments {
		assert.Truef(t, IsValidAttachmentPath(p), "known path %s rejected", p)
		assert.Truef(t, IsValidAttachmentPath(strings.TrimPrefix(p, "/")), "relative form of %s rejected", p)
	}
}

func TestIsValidAttachmentPath_PatternMatches(t *testing.T) {
	for _, p := range []string{
		"/working-life/documents/Portfolio.pdf",
		"/working-life/documents/my_cv-2024.pdf",
		"working-life/documents/A1.pdf",
	} {
		assert.Truef(t, IsValidAttachmentPath(p), "%s should be accepted", p)
	}
}

func TestIsValidAttachmentPath_Rejects(t *testing.T) {
	for _, p := range []string{
		"",
		"/",
		"/etc/passwd",
		"/working-life/documents/../secret.pdf",
		"/working-life/documents/..%2fsecret.pdf",
		"../working-life/documents/CV.pdf",
		"/working-life/documents/CV.pdf/..",
		`/working-life/documents\CV.pdf`,
		`..\..\windows\win.ini`,
		"/working-life/documents/sub/CV.pdf",
		"/working-life/documents/.pdf",
		"/working-life/documents/CV.PDF",
		"/working-life/documents/CV.pdf.exe",
		"/working-life/documents/CV.pdf/",
		"/working-life/documents/my cv.pdf",
		"/working-life/documents/résumé.pdf",
		"/working-life/documents/CV.pdf\x00",
		"//working-life/documents/CV.pdf",
		"/working-life/CV.pdf",
		"/WORKING-LIFE/documents/CV.pdf",
	} {
		assert.Falsef(t, IsValidAttachmentPath(p), "%q should be rejected", p)
	}
}

func TestAttachmentAllowList_Extra(t *testing.T) {
	l := NewAttachmentAllowList("press/kit.pdf")
	assert.True(t, l.IsValid("/press/kit.pdf"))
	assert.True(t, l.IsValid("press/kit.pdf"))
	assert.True(t, l.IsValid("/working-life/documents/CV.pdf"))
	assert.False(t, l.IsValid("/press/../press/kit.pdf"))
	assert.False(t, l.IsValid("/press/other.pdf"))

	assert.False(t, IsValidAttachmentPath("/press/kit.pdf"), "default list must not see extras")
}

func TestAttachmentAllowList_Normalize(t *testing.T) {
	l := NewAttachmentAllowList()
	assert.Equal(t, "/a/b.pdf", l.Normalize("a/b.pdf"))
	assert.Equal(t, "/a/b.pdf", l.Normalize("/a/b.pdf"))
}

func FuzzIsValidAttachmentPath_TraversalRejected(f *testing.F) {
	for _, seed := range []string{"/working-life/documents/CV.pdf", "..", `a\b`, "/working-life/documents/x..pdf"} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, p string) {
		ok := IsValidAttachmentPath(p)
		if ok && (strings.Contains(p, "..") || strings.Contains(p, `\`)) {
			t.Fatalf("traversal path accepted: %q", p)
		}
		if ok && !strings.HasSuffix(p, ".pdf") {
			t.Fatalf("non-pdf accepted: %q", p)
		}
	})
}
