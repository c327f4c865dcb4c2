package mail

import (
	"bytes"
	"fmt"
	"html/template"
)

// ResetPasswordSubject is the subject line of password recovery emails
const ResetPasswordSubject = "ShopIT Password Recovery"

var resetPasswordHTML = template.Must(template.New("reset_password").Parse(`<p>Hello {{.Name}},</p>
<p>Your password reset token is as follows:</p>
<p><a href="{{.URL}}">{{.URL}}</a></p>
<p>If you have not requested this email, then ignore it.</p>
`))

// ResetPasswordMessage renders the password recovery email for a user
func ResetPasswordMessage(to, name, resetURL string) (Message, error) {
	var html bytes.Buffer
	data := struct {
		Name string
		URL  string
	}{Name: name, URL: resetURL}
	if err := resetPasswordHTML.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("failed to render reset password email: %w", err)
	}

	text := fmt.Sprintf("Your password reset token is as follows:\n\n%s\n\nIf you have not requested this email, then ignore it.", resetURL)

	return Message{
		To:      to,
		Subject: ResetPasswordSubject,
		Text:    text,
		HTML:    html.String(),
	}, nil
}
