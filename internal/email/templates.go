package email

import "fmt"

// contactTextTemplate is the plain-text body of a contact email. The
// surrounding newlines and indentation are part of the delivered format.
const contactTextTemplate = "\n" +
	"            Name: %s\n" +
	"            Email: %s\n" +
	"\n" +
	"            Message:\n" +
	"            %s\n" +
	"        "

// ContactEmailText returns the plain-text body for a contact form email.
func ContactEmailText(name, email, message string) string {
	return fmt.Sprintf(contactTextTemplate, name, email, message)
}
