package mail

import "fmt"

// SendPasswordReset notifies the operations mailbox of a reset request.
// Accounts carry no mail address, so the single-use link goes to the
// configured operators, who hand it to the user out of band.
func SendPasswordReset(sender MailSender, siteName string, baseURL string, to string, username string, token string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", baseURL, token)
	body := fmt.Sprintf(
		"A password reset was requested for the %s account %q.\n\n"+
			"Hand the link below to the account owner. It is single use and expires shortly.\n\n"+
			"%s\n\n"+
			"If nobody requested this, no action is needed; the link lapses on its own.\n",
		siteName, username, link)
	return sender.Send(&Message{
		To:      []string{to},
		Subject: fmt.Sprintf("%s password reset requested for %s", siteName, username),
		Body:    body,
	})
}
