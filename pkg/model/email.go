package model

// Template names of the seeded e-mail templates
const (
	ForgotPasswordTemplate = "ForgotPassword"
	ExceptionTemplate      = "Exception Email"
)

// EmailTemplate is a stored subject/body pair used for outbound mail
type EmailTemplate struct {
	TemplateID   int    `db:"template_id" json:"template_id"`
	TemplateName string `db:"template_name" json:"template_name"`
	Subject      string `db:"subject" json:"subject"`
	Body         string `db:"body" json:"body"`
}
