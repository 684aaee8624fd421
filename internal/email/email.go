// Package email sends invitation and password reset emails.
//
// Sending is fire and forget from the caller's point of view: a failure is
// reported as apperr.ErrExternalService but never undoes the data change that
// triggered the email.
package email

import (
	"context"
	"fmt"
	"html/template"
	"net/url"
	"strings"
)

// Sender delivers transactional emails.
type Sender interface {
	SendInvitation(ctx context.Context, inv Invitation) error
	SendPasswordReset(ctx context.Context, to, toName, token string) error
}

// Invitation is the content of an invitation email.
type Invitation struct {
	To          string
	ToName      string
	InviterName string
	FamilyName  string
	Token       string
}

// message is a rendered email.
type message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// link builds an absolute app link carrying the token.
func link(baseURL, path, token string) string {
	return fmt.Sprintf("%s%s?token=%s", strings.TrimRight(baseURL, "/"), path, url.QueryEscape(token))
}

var invitationHTML = template.Must(template.New("invitation").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
	<p>Hi {{.ToName}},</p>
	<p>{{.InviterName}} invited you to plan the <strong>{{.FamilyName}}</strong> family budget together.</p>
	<p><a href="{{.Link}}">Accept the invitation</a></p>
	<p style="font-size: 12px; color: #666;">{{.Link}}</p>
	<p>This link expires in 7 days.</p>
</body>
</html>
`))

var resetHTML = template.Must(template.New("reset").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
	<p>Hi {{.ToName}},</p>
	<p>We received a request to reset your password.</p>
	<p><a href="{{.Link}}">Reset your password</a></p>
	<p style="font-size: 12px; color: #666;">{{.Link}}</p>
	<p><strong>This link will expire in 1 hour.</strong></p>
	<p>If you didn't request a password reset, you can safely ignore this email.</p>
</body>
</html>
`))

// render executes an HTML template. Names come from members, so they are
// always escaped.
func render(tmpl *template.Template, data any) (string, error) {
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("failed to render %s email: %w", tmpl.Name(), err)
	}
	return b.String(), nil
}

func invitationMessage(baseURL string, inv Invitation) (message, error) {
	acceptLink := link(baseURL, "/accept-invite", inv.Token)
	subject := fmt.Sprintf("%s invited you to the %s family budget", inv.InviterName, inv.FamilyName)

	html, err := render(invitationHTML, struct {
		Invitation
		Link string
	}{inv, acceptLink})
	if err != nil {
		return message{}, err
	}

	text := fmt.Sprintf(`Hi %s,

%s invited you to plan the %s family budget together.

Accept the invitation:
%s

This link expires in 7 days.
`, inv.ToName, inv.InviterName, inv.FamilyName, acceptLink)

	return message{To: inv.To, Subject: subject, HTML: html, Text: text}, nil
}

func resetMessage(baseURL, to, toName, token string) (message, error) {
	resetLink := link(baseURL, "/reset-password", token)

	html, err := render(resetHTML, struct {
		ToName string
		Link   string
	}{toName, resetLink})
	if err != nil {
		return message{}, err
	}

	text := fmt.Sprintf(`Hi %s,

We received a request to reset your password.

Reset your password:
%s

This link will expire in 1 hour.

If you didn't request a password reset, you can safely ignore this email.
`, toName, resetLink)

	return message{To: to, Subject: "Reset your Family Budget password", HTML: html, Text: text}, nil
}
