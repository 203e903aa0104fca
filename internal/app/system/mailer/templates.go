// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// MembershipRequestData fills the coordinator notification.
type MembershipRequestData struct {
	SiteName      string
	Coordinator   string
	RequesterName string
	GroupName     string
	ReviewURL     string
}

// BuildMembershipRequestEmail tells a coordinator someone asked to join.
// The caller sets To.
func BuildMembershipRequestEmail(d MembershipRequestData) Email {
	return Email{
		Subject:  fmt.Sprintf("[%s] New request to join %s", d.SiteName, d.GroupName),
		TextBody: membershipText(d),
		HTMLBody: membershipHTML(d),
	}
}

func membershipText(d MembershipRequestData) string {
	var buf bytes.Buffer
	if d.Coordinator != "" {
		fmt.Fprintf(&buf, "Hello %s,\n\n", d.Coordinator)
	}
	fmt.Fprintf(&buf, "%s has asked to join %s.\n\n", d.RequesterName, d.GroupName)
	if d.ReviewURL != "" {
		buf.WriteString("Review pending requests:\n")
		buf.WriteString(d.ReviewURL + "\n\n")
	}
	buf.WriteString("Membership is not granted until the request is approved.\n")
	return buf.String()
}

var membershipTmpl = template.Must(template.New("membership").Parse(membershipHTMLTemplate))

func membershipHTML(d MembershipRequestData) string {
	var buf bytes.Buffer
	_ = membershipTmpl.Execute(&buf, d)
	return buf.String()
}

const membershipHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>Membership request</title>
</head>
<body style="margin: 0; padding: 24px; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 520px; margin: 0 auto; background-color: #ffffff; border-radius: 8px;">
    <tr>
      <td style="padding: 24px 32px; border-bottom: 1px solid #e5e7eb;">
        <h1 style="margin: 0; font-size: 20px; color: #0f766e;">{{.SiteName}}</h1>
      </td>
    </tr>
    <tr>
      <td style="padding: 24px 32px; font-size: 15px; color: #374151; line-height: 1.5;">
        {{if .Coordinator}}<p style="margin: 0 0 16px;">Hello {{.Coordinator}},</p>{{end}}
        <p style="margin: 0 0 16px;"><strong>{{.RequesterName}}</strong> has asked to join <strong>{{.GroupName}}</strong>.</p>
        {{if .ReviewURL}}<p style="margin: 0 0 16px;"><a href="{{.ReviewURL}}" style="color: #0f766e;">Review pending requests</a></p>{{end}}
        <p style="margin: 0; font-size: 13px; color: #6b7280;">Membership is not granted until the request is approved.</p>
      </td>
    </tr>
  </table>
</body>
</html>
`
