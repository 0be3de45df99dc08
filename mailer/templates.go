package mailer

import (
	"bytes"
	"net/url"
	"strings"
	"text/template"
)

const (
	PasswordResetSubject = "Password reset"
	RegistrationSubject  = "Complete your registration"
)

// LinkData feeds the plain text templates
type LinkData struct {
	Email string
	Name  string
	Link  string
}

var passwordResetTemplate = template.Must(template.New("password_reset").Parse(
	`Hi {{if .Name}}{{.Name}}{{else}}{{.Email}}{{end}},

Someone has requested a link to reset the password for {{.Email}}.
If this was you, open the link below within the next hour:

{{.Link}}

If you did not request a password reset you can ignore this email.
Your password will not change until you set a new one.
`))

var registrationTemplate = template.Must(template.New("user_registration").Parse(
	`Hi {{.Email}},

You have been invited to create an account. Open the link below
within the next 4 hours to choose your name and password:

{{.Link}}
`))

// PasswordResetLink builds the link embedded in the reset email
func PasswordResetLink(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/reset-password?reset_token=" + url.QueryEscape(token)
}

// RegistrationLink builds the link embedded in the invite email
func RegistrationLink(baseURL, userID, token string) string {
	return strings.TrimRight(baseURL, "/") + "/register/" + url.PathEscape(userID) + "/" + url.PathEscape(token)
}

func RenderPasswordReset(data LinkData) (string, error) {
	return render(passwordResetTemplate, data)
}

func RenderRegistration(data LinkData) (string, error) {
	return render(registrationTemplate, data)
}

func render(tpl *template.Template, data LinkData) (string, error) {
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
