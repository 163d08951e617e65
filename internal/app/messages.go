package app

import (
	"bytes"
	"embed"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"review_hero/internal/domain"
)

//go:embed emails/*
var emailFS embed.FS

var (
	requestHTML = htmltemplate.Must(htmltemplate.ParseFS(emailFS, "emails/review_request.html"))
	requestText = texttemplate.Must(texttemplate.ParseFS(emailFS, "emails/review_request.txt"))
)

type requestEmailData struct {
	ClientFirstName   string
	BusinessName      string
	BusinessFirstName string
	URL               string
	Reminder          bool
}

func firstWord(s string) string {
	if f := strings.Fields(s); len(f) > 0 {
		return f[0]
	}
	return s
}

func reviewRequestSubject(businessName string) string {
	return "Quick feedback for " + firstWord(businessName) + "?"
}

func reviewLink(appURL, token string) string {
	return strings.TrimRight(appURL, "/") + "/r/" + token
}

// renderReviewRequest builds the request email, or a reminder when nudge > 0.
func renderReviewRequest(kind domain.EmailKind, to, replyTo, clientName, businessName, link string, nudge int) (domain.Email, error) {
	data := requestEmailData{
		ClientFirstName:   firstWord(clientName),
		BusinessName:      businessName,
		BusinessFirstName: firstWord(businessName),
		URL:               link,
		Reminder:          nudge > 0,
	}
	var html, text bytes.Buffer
	if err := requestHTML.Execute(&html, data); err != nil {
		return domain.Email{}, err
	}
	if err := requestText.Execute(&text, data); err != nil {
		return domain.Email{}, err
	}
	subject := reviewRequestSubject(businessName)
	if nudge > 0 {
		subject = "Re: " + subject
	}
	return domain.Email{
		Kind:    kind,
		To:      to,
		ReplyTo: replyTo,
		Subject: subject,
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}
