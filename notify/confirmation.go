package notify

import (
	"strings"
	"text/template"
)

const confirmationBody = `Hello {{.Name}},

Thank you for getting in touch. We received your message from {{.Place}}:

{{.Message}}

We will contact you at {{.Phone}} or reply to this address soon.
`

var confirmationTmpl = template.Must(template.New("confirmation").Parse(confirmationBody))

// Confirmation holds the fields rendered into a submission confirmation.
type Confirmation struct {
	Name    string
	Phone   string
	Email   string
	Place   string
	Message string
}

// ConfirmationMessage renders the confirmation mail for c.
func ConfirmationMessage(subject string, c Confirmation) (Message, error) {
	var body strings.Builder
	if err := confirmationTmpl.Execute(&body, c); err != nil {
		return Message{}, err
	}
	return Message{To: c.Email, Subject: subject, Body: body.String()}, nil
}
