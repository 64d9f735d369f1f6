package email

import (
	"fmt"
	"net/smtp"

	"github.com/shopspring/decimal"
)

// Service handles email sending via SMTP
type Service struct {
	host     string
	port     string
	from     string
	currency string
	send     func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewService creates a new email service
func NewService(host, port, from, currency string) *Service {
	return &Service{
		host:     host,
		port:     port,
		from:     from,
		currency: currency,
		send:     smtp.SendMail,
	}
}

// SendOrderConfirmation sends an order confirmation email
func (s *Service) SendOrderConfirmation(to, orderID string, total decimal.Decimal, items []OrderItem) error {
	subject := fmt.Sprintf("Order confirmed: thank you for your order (%s)", shortID(orderID))
	body := BuildOrderConfirmationBody(orderID, s.currency, total, items)
	return s.deliver(to, subject, body)
}

// SendPaymentConfirmation sends a payment receipt email
func (s *Service) SendPaymentConfirmation(to, orderID string, amount decimal.Decimal) error {
	subject := fmt.Sprintf("Payment received for order %s", shortID(orderID))
	body := BuildPaymentConfirmationBody(orderID, s.currency, amount)
	return s.deliver(to, subject, body)
}

func (s *Service) deliver(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return s.send(addr, nil, s.from, []string{to}, []byte(msg))
}

func shortID(orderID string) string {
	if len(orderID) > 8 {
		return orderID[:8]
	}
	return orderID
}
