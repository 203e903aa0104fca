package htmlsanitize_test

import (
	"strings"
	"testing"

	"github.com/dalemusser/villahub/internal/app/system/htmlsanitize"
)

func TestSanitize_Empty(t *testing.T) {
	if got := htmlsanitize.Sanitize(""); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestSanitize_PlainText(t *testing.T) {
	if got := htmlsanitize.Sanitize("Pool closed Monday"); got != "Pool closed Monday" {
		t.Errorf("expected plain text unchanged, got %q", got)
	}
}

func TestSanitize_SafeHTML(t *testing.T) {
	input := "<p><strong>Bold</strong> and <em>italic</em></p>"
	if got := htmlsanitize.Sanitize(input); got != input {
		t.Errorf("expected safe HTML preserved, got %q", got)
	}
}

func TestSanitize_RemovesScript(t *testing.T) {
	input := "<p>Hello</p><script>alert('xss')</script>"
	if got := htmlsanitize.Sanitize(input); got != "<p>Hello</p>" {
		t.Errorf("expected script removed, got %q", got)
	}
}

func TestSanitize_RemovesOnclick(t *testing.T) {
	got := htmlsanitize.Sanitize(`<p onclick="alert('xss')">Click</p>`)
	if strings.Contains(got, "onclick") {
		t.Errorf("expected onclick stripped, got %q", got)
	}
}

func TestSanitize_RemovesJavascriptHref(t *testing.T) {
	got := htmlsanitize.Sanitize(`<a href="javascript:alert('xss')">Click</a>`)
	if strings.Contains(got, "javascript:") {
		t.Errorf("expected javascript: href removed, got %q", got)
	}
}

func TestSanitize_AllowsSafeLinks(t *testing.T) {
	got := htmlsanitize.Sanitize(`<a href="https://example.com">Link</a>`)
	if !strings.Contains(got, "https://example.com") {
		t.Errorf("expected safe link preserved, got %q", got)
	}
}

func TestSanitize_AllowsLists(t *testing.T) {
	input := "<ul><li>Item 1</li><li>Item 2</li></ul>"
	if got := htmlsanitize.Sanitize(input); got != input {
		t.Errorf("expected list preserved, got %q", got)
	}
}

func TestSanitize_KeepsTableClass(t *testing.T) {
	got := htmlsanitize.Sanitize(`<table class="fees"><tr><td>Dues</td></tr></table>`)
	if !strings.Contains(got, `class="fees"`) {
		t.Errorf("expected class attribute preserved, got %q", got)
	}
}

func TestSanitize_RemovesIframe(t *testing.T) {
	got := htmlsanitize.Sanitize(`<p>Content</p><iframe src="https://evil.com"></iframe>`)
	if strings.Contains(got, "iframe") {
		t.Error("expected iframe to be removed")
	}
	if !strings.Contains(got, "Content") {
		t.Error("expected safe content to be preserved")
	}
}

func TestSanitizeToHTML(t *testing.T) {
	got := htmlsanitize.SanitizeToHTML("<p>Hello</p><script>x()</script>")
	if string(got) != "<p>Hello</p>" {
		t.Errorf("got %q", got)
	}
}

func TestStripTags(t *testing.T) {
	if got := htmlsanitize.StripTags("  <b>Gate</b> code  "); got != "Gate code" {
		t.Errorf("got %q", got)
	}
}

func TestIsPlainText(t *testing.T) {
	if !htmlsanitize.IsPlainText("") || !htmlsanitize.IsPlainText("no tags here") {
		t.Error("expected plain text")
	}
	if htmlsanitize.IsPlainText("<p>Hello</p>") {
		t.Error("expected markup to be detected")
	}
}

func TestIsPlainText_Comparisons(t *testing.T) {
	if !htmlsanitize.IsPlainText("5 < 10") || !htmlsanitize.IsPlainText("5 > 3") {
		t.Error("a lone angle bracket is plain text")
	}
}

func TestPlainTextToHTML(t *testing.T) {
	if got := htmlsanitize.PlainTextToHTML("Line 1\nLine 2"); got != "<p>Line 1<br>Line 2</p>" {
		t.Errorf("got %q", got)
	}
	if got := htmlsanitize.PlainTextToHTML("A & B"); got != "<p>A &amp; B</p>" {
		t.Errorf("got %q", got)
	}
}

func TestPrepare(t *testing.T) {
	if got := htmlsanitize.Prepare("Water off\nat noon"); got != "<p>Water off<br>at noon</p>" {
		t.Errorf("plain text: got %q", got)
	}
	if got := htmlsanitize.Prepare("<p>Hi</p><script>x()</script>"); got != "<p>Hi</p>" {
		t.Errorf("markup: got %q", got)
	}
}
