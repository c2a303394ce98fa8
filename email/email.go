package email

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
)

func configured() bool {
	return os.Getenv("SMTP_HOST") != "" && os.Getenv("SMTP_PORT") != "" &&
		os.Getenv("SMTP_USER") != "" && os.Getenv("SMTP_PASS") != ""
}

func send(to, subject, body string) error {
	host := os.Getenv("SMTP_HOST")
	port := os.Getenv("SMTP_PORT")
	user := os.Getenv("SMTP_USER")
	pass := os.Getenv("SMTP_PASS")
	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = user
	}
	addr := fmt.Sprintf("%s:%s", host, port)
	auth := smtp.PlainAuth("", user, pass, host)
	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", from, to, subject, body))
	return smtp.SendMail(addr, auth, from, []string{to}, msg)
}

// SendWelcome greets a new account. When SMTP is unconfigured it is a logged
// no-op so registration never depends on a mail server.
func SendWelcome(to, name string) error {
	if !configured() {
		log.Printf("[email][skip] smtp not configured, welcome to %s dropped", to)
		return nil
	}
	subject := "Welcome to StayGuide"
	body := fmt.Sprintf("Hi %s,\n\nThanks for signing up. Create your first guide and share it with your guests!\n\nThe StayGuide team", name)
	if err := send(to, subject, body); err != nil {
		return err
	}
	log.Printf("[email] welcome sent to %s", to)
	return nil
}
