package service

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"mime"
	"net/mail"
	"net/smtp"
	"strings"

	"github.com/nike-storefront/internal/config"
	"github.com/nike-storefront/internal/constants"
	"github.com/nike-storefront/internal/models"
)

// EmailService 邮件发送服务
type EmailService struct {
	cfg  *config.EmailConfig
	send func(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	s := &EmailService{cfg: cfg}
	s.send = s.dispatch
	return s
}

// Enabled 是否启用邮件
func (s *EmailService) Enabled() bool {
	return s != nil && s.cfg != nil && s.cfg.Enabled
}

// OrderEmailInput 订单邮件内容
type OrderEmailInput struct {
	OrderNo  string
	Status   string
	Items    []models.OrderItem
	Subtotal models.Money
	Delivery models.Money
	Total    models.Money
	Currency string
	IsGuest  bool
}

// NewOrderEmailInput 从订单构建邮件内容
func NewOrderEmailInput(order *models.Order) OrderEmailInput {
	return OrderEmailInput{
		OrderNo:  order.OrderNo,
		Status:   order.Status,
		Items:    order.Items,
		Subtotal: order.SubtotalAmount,
		Delivery: order.DeliveryFee,
		Total:    order.TotalAmount,
		Currency: strings.ToUpper(order.Currency),
		IsGuest:  order.UserID == nil,
	}
}

// SendOrderConfirmation 发送下单确认邮件
func (s *EmailService) SendOrderConfirmation(toEmail string, input OrderEmailInput) error {
	subject, body := buildOrderConfirmationContent(input)
	return s.sendTextEmail(toEmail, subject, body)
}

// SendOrderStatusEmail 发送订单状态通知
func (s *EmailService) SendOrderStatusEmail(toEmail string, input OrderEmailInput) error {
	subject, body := buildOrderStatusContent(input)
	return s.sendTextEmail(toEmail, subject, body)
}

func (s *EmailService) sendTextEmail(toEmail, subject, body string) error {
	if !s.Enabled() {
		return ErrEmailServiceDisabled
	}
	if s.cfg.Host == "" || s.cfg.Port == 0 || s.cfg.From == "" {
		return ErrEmailServiceNotConfigured
	}
	if _, err := mail.ParseAddress(toEmail); err != nil {
		return ErrInvalidEmail
	}

	from := buildFromAddress(s.cfg.From, s.cfg.FromName)
	msg := buildEmailMessage(from, toEmail, subject, body)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" || s.cfg.Password != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	return normalizeEmailSendError(s.send(addr, auth, s.cfg.Host, s.cfg.From, []string{toEmail}, []byte(msg)))
}

func (s *EmailService) dispatch(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	switch {
	case s.cfg.UseSSL:
		return sendMailWithSSL(addr, auth, host, from, to, msg)
	case s.cfg.UseTLS:
		return sendMailWithStartTLS(addr, auth, host, from, to, msg)
	default:
		return sendMailPlain(addr, auth, host, from, to, msg)
	}
}

var orderStatusLabels = map[string]string{
	constants.OrderStatusPending:   "Pending",
	constants.OrderStatusPaid:      "Paid",
	constants.OrderStatusShipped:   "Shipped",
	constants.OrderStatusDelivered: "Delivered",
	constants.OrderStatusCancelled: "Cancelled",
}

func statusLabel(status string) string {
	if label, ok := orderStatusLabels[strings.ToLower(strings.TrimSpace(status))]; ok {
		return label
	}
	return status
}

func buildOrderConfirmationContent(input OrderEmailInput) (string, string) {
	subject := fmt.Sprintf("Order confirmed: %s", input.OrderNo)
	var b strings.Builder
	b.WriteString("Thanks for your order! We have received your payment.\n\n")
	fmt.Fprintf(&b, "Order No: %s\n\n", input.OrderNo)
	for _, item := range input.Items {
		fmt.Fprintf(&b, "%d x %s", item.Quantity, item.ProductName)
		if variant := strings.TrimSpace(strings.Join(nonEmpty(item.Color, item.Size), " / ")); variant != "" {
			fmt.Fprintf(&b, " (%s)", variant)
		}
		fmt.Fprintf(&b, " @ %s %s\n", item.PriceAtPurchase.String(), input.Currency)
	}
	fmt.Fprintf(&b, "\nSubtotal: %s %s\n", input.Subtotal.String(), input.Currency)
	fmt.Fprintf(&b, "Delivery: %s %s\n", input.Delivery.String(), input.Currency)
	fmt.Fprintf(&b, "Total: %s %s", input.Total.String(), input.Currency)
	return subject, appendGuestTip(input, b.String())
}

func buildOrderStatusContent(input OrderEmailInput) (string, string) {
	label := statusLabel(input.Status)
	subject := fmt.Sprintf("Order status updated: %s", label)
	var body string
	switch strings.ToLower(strings.TrimSpace(input.Status)) {
	case constants.OrderStatusShipped:
		body = fmt.Sprintf("Good news, your order is on its way.\n\nOrder No: %s\nStatus: %s", input.OrderNo, label)
	case constants.OrderStatusDelivered:
		body = fmt.Sprintf("Delivery completed. Enjoy your gear!\n\nOrder No: %s\nStatus: %s", input.OrderNo, label)
	case constants.OrderStatusCancelled:
		body = fmt.Sprintf("The order has been cancelled. Any payment will be refunded to the original method.\n\nOrder No: %s\nStatus: %s\nAmount: %s %s",
			input.OrderNo, label, input.Total.String(), input.Currency)
	default:
		body = fmt.Sprintf("Order No: %s\nStatus: %s\nAmount: %s %s", input.OrderNo, label, input.Total.String(), input.Currency)
	}
	return subject, appendGuestTip(input, body)
}

func appendGuestTip(input OrderEmailInput, body string) string {
	if !input.IsGuest {
		return body
	}
	return body + "\n\nCreate an account with this email to track future orders from your profile."
}

func buildFromAddress(from, name string) string {
	if strings.TrimSpace(name) == "" {
		return from
	}
	encoded := mime.QEncoding.Encode("UTF-8", name)
	return (&mail.Address{Name: encoded, Address: from}).String()
}

func buildEmailMessage(from, to, subject, body string) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("From: %s\r\n", from))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", to))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", subject)))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(body)
	return buf.String()
}

func sendMailWithSSL(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: host})
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}

	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	_, err = w.Write(msg)
	if err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func sendMailWithStartTLS(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
		return err
	}

	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}

	return sendSMTPData(client, from, to, msg)
}

func sendMailPlain(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}

	return sendSMTPData(client, from, to, msg)
}

func sendSMTPData(client *smtp.Client, from string, to []string, msg []byte) error {
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func normalizeEmailSendError(err error) error {
	if err == nil {
		return nil
	}
	if isEmailRecipientRejected(err) {
		return ErrEmailRecipientRejected
	}
	return err
}

func isEmailRecipientRejected(err error) bool {
	if err == nil {
		return false
	}
	message := strings.ToLower(strings.TrimSpace(err.Error()))
	if message == "" {
		return false
	}
	directKeywords := []string{
		"no such recipient",
		"no such user",
		"recipient not found",
		"recipient address rejected",
		"invalid recipient",
		"user unknown",
		"unknown user",
		"unknown mailbox",
		"mailbox unavailable",
	}
	for _, keyword := range directKeywords {
		if strings.Contains(message, keyword) {
			return true
		}
	}
	if strings.Contains(message, "550") {
		hints := []string{"recipient", "user", "mailbox", "address", "rcpt"}
		for _, hint := range hints {
			if strings.Contains(message, hint) {
				return true
			}
		}
	}
	return false
}
