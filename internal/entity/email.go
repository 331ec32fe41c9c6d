package entity

type EmailContent struct {
	Subject string
	HTML    string
	Text    string
}

type EmailMessage struct {
	From string
	To   string
	EmailContent
}
