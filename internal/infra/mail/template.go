package mail

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"github.com/xavierca1/ligue-reviews/internal/entity"
)

//go:embed templates/*
var templateFS embed.FS

const reviewRequestSubject = "How did we do? We'd love your feedback"

type TemplateRenderer struct {
	reviewHTML *htmltemplate.Template
	reviewText *texttemplate.Template
}

func NewTemplateRenderer() (*TemplateRenderer, error) {
	html, err := htmltemplate.ParseFS(templateFS, "templates/review_request.html")
	if err != nil {
		return nil, fmt.Errorf("parse review request html template: %w", err)
	}
	text, err := texttemplate.ParseFS(templateFS, "templates/review_request.txt")
	if err != nil {
		return nil, fmt.Errorf("parse review request text template: %w", err)
	}
	return &TemplateRenderer{reviewHTML: html, reviewText: text}, nil
}

func (r *TemplateRenderer) ReviewRequestEmail(displayName, link string) (entity.EmailContent, error) {
	data := ReviewRequestEmailData{DisplayName: displayName, ReviewLink: link}

	var html, text bytes.Buffer
	if err := r.reviewHTML.Execute(&html, data); err != nil {
		return entity.EmailContent{}, fmt.Errorf("render review request html: %w", err)
	}
	if err := r.reviewText.Execute(&text, data); err != nil {
		return entity.EmailContent{}, fmt.Errorf("render review request text: %w", err)
	}

	return entity.EmailContent{
		Subject: reviewRequestSubject,
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}
