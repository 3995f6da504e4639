package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"basecode-go/pkg/model"
)

type EmailTemplateRepository struct {
	db *sqlx.DB
}

func NewEmailTemplateRepository(db *sqlx.DB) *EmailTemplateRepository {
	return &EmailTemplateRepository{db: db}
}

// FindByTemplateName returns ErrNotFound when no template has the name
func (r *EmailTemplateRepository) FindByTemplateName(ctx context.Context, name string) (*model.EmailTemplate, error) {
	var tmpl model.EmailTemplate
	err := r.db.GetContext(ctx, &tmpl, `
        SELECT template_id, template_name, subject, body
        FROM email_templates WHERE template_name = $1
    `, name)
	if err != nil {
		return nil, classify("find email template", err)
	}
	return &tmpl, nil
}
