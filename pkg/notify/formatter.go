package notify

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"
)

// DigestData is the content of one reader's weekly digest.
type DigestData struct {
	Email       string
	Topics      []string
	Content     string // markdown from the generator
	GeneratedAt time.Time
}

// FormatDigest renders a digest as a message addressed to its reader, with
// a plain markdown body and an HTML body for email.
func FormatDigest(data DigestData) Message {
	subtitle := data.GeneratedAt.UTC().Format("January 2, 2006")
	if len(data.Topics) > 0 {
		subtitle += " · " + strings.Join(data.Topics, ", ")
	}

	var sb strings.Builder
	sb.WriteString(EmailWrapperOpen())
	sb.WriteString(EmailHeader("📰 Your Weekly News Digest", subtitle, "#1e88e5", "#3949ab"))
	sb.WriteString(`
<tr><td style="background-color:#1a1a2e;padding:28px 40px;">
`)
	sb.WriteString(MarkdownToHTML(data.Content))
	sb.WriteString(`
</td></tr>
`)
	sb.WriteString(EmailFooter("NewsPulse", "news from the sources you follow", "#1e88e5"))
	sb.WriteString(EmailWrapperClose())

	var to []string
	if data.Email != "" {
		to = []string{data.Email}
	}
	return Message{
		Title:    "Your Weekly News Digest",
		Body:     data.Content,
		HTMLBody: sb.String(),
		Format:   "markdown",
		To:       to,
	}
}

// EmailHeader renders the gradient header section of an HTML email.
func EmailHeader(title, subtitle string, gradientFrom, gradientTo string) string {
	return fmt.Sprintf(`
<tr><td style="background:linear-gradient(135deg,%s 0%%,%s 100%%);border-radius:16px 16px 0 0;padding:32px 40px;text-align:center;">
  <h1 style="margin:0;font-size:28px;font-weight:800;color:#ffffff;letter-spacing:-0.5px;">%s</h1>
  <p style="margin:8px 0 0;font-size:15px;color:rgba(255,255,255,0.85);font-weight:500;">%s</p>
</td></tr>
`, gradientFrom, gradientTo, html.EscapeString(title), html.EscapeString(subtitle))
}

// EmailWrapperOpen renders the opening HTML for an email body.
func EmailWrapperOpen() string {
	return `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><meta name="viewport" content="width=device-width, initial-scale=1.0"></head>
<body style="margin:0;padding:0;background-color:#0f0f23;font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,'Helvetica Neue',Arial,sans-serif;">
<table role="presentation" width="100%" cellpadding="0" cellspacing="0" style="background-color:#0f0f23;">
<tr><td align="center" style="padding:20px 10px;">
<table role="presentation" width="640" cellpadding="0" cellspacing="0" style="max-width:640px;width:100%;">
`
}

// EmailWrapperClose renders the closing HTML for an email body.
func EmailWrapperClose() string {
	return `
</table>
</td></tr>
</table>
</body>
</html>`
}

// EmailFooter renders the footer section.
func EmailFooter(productName, tagline string, accentColor string) string {
	return fmt.Sprintf(`
<tr><td style="background-color:#12121f;border-radius:0 0 16px 16px;padding:24px 40px;text-align:center;">
  <p style="margin:0;font-size:12px;color:#505070;line-height:1.6;">
    <strong style="color:%s;">%s</strong> · %s
  </p>
</td></tr>
`, accentColor, html.EscapeString(productName), html.EscapeString(tagline))
}

var (
	boldRe    = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicRe  = regexp.MustCompile(`\*([^*]+)\*`)
	headingRe = regexp.MustCompile(`(?m)^#{1,4}\s+`)
)

// MarkdownToHTML converts simple markdown to inline HTML for email bodies.
// Handles **bold**, *italic*, # headings and -/* bullet lists. Input text is
// escaped first.
func MarkdownToHTML(md string) string {
	if md == "" {
		return ""
	}

	var sb strings.Builder
	for _, line := range strings.Split(md, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		bullet := false
		if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") || strings.HasPrefix(line, "• ") {
			_, line, _ = strings.Cut(line, " ")
			bullet = true
		}

		line = ConvertMarkdownInline(html.EscapeString(line))

		switch {
		case strings.HasPrefix(line, "### "):
			line = fmt.Sprintf(`<strong style="color:#e0e0e0;font-size:13px;">%s</strong>`, line[4:])
		case strings.HasPrefix(line, "## "):
			line = fmt.Sprintf(`<strong style="color:#e0e0e0;font-size:14px;">%s</strong>`, line[3:])
		case strings.HasPrefix(line, "# "):
			line = fmt.Sprintf(`<strong style="color:#f0f0f0;font-size:15px;">%s</strong>`, line[2:])
		}
		if bullet {
			line = `<span style="color:#808090;">•</span> ` + line
		}

		sb.WriteString(fmt.Sprintf(`<p style="margin:4px 0;font-size:14px;line-height:1.6;color:#a0a0b8;">%s</p>`, line))
	}
	return sb.String()
}

// ConvertMarkdownInline converts **bold** and *italic* to HTML.
func ConvertMarkdownInline(s string) string {
	s = boldRe.ReplaceAllString(s, `<strong style="color:#e0e0e0;">$1</strong>`)
	return italicRe.ReplaceAllString(s, `<em>$1</em>`)
}

// StripMarkdown removes markdown formatting for plain text output.
func StripMarkdown(s string) string {
	s = boldRe.ReplaceAllString(s, "$1")
	s = italicRe.ReplaceAllString(s, "$1")
	return headingRe.ReplaceAllString(s, "")
}
