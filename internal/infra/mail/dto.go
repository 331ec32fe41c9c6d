package mail

type ReviewRequestEmailData struct {
	DisplayName string
	ReviewLink  string
}

type SMTPSender struct {
	Host     string
	Port     int
	User     string
	Password string
	// MessageIDDomain is the right-hand side of generated Message-ID headers.
	MessageIDDomain string
}
