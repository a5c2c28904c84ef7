package services

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
	"time"

	model "github.com/brightpathbh/qmportal/models"
	"gorm.io/gorm"
)

// NotificationService sends best-effort assignment emails. The notification
// row is persisted whatever happens on the wire, so delivery failures are
// visible without failing the operation that triggered them.
type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// NotifyAssignment records and (best-effort) emails an assignment notice.
// kind is "checkpoint" or "capa"; itemTitle and dueDate fill the template.
func (s *NotificationService) NotifyAssignment(orgID, recipient, kind, itemTitle string, dueDate time.Time) {
	subject := fmt.Sprintf("You have been assigned a %s item: %s", kind, itemTitle)
	body := fmt.Sprintf(`
	<html>
	<body>
		<h2>New Assignment</h2>
		<p>You have been assigned the following %s item:</p>
		<ul>
			<li><strong>Item:</strong> %s</li>
			<li><strong>Due Date:</strong> %s</li>
		</ul>
		<p>Please sign in to the compliance portal to review it.</p>
	</body>
	</html>
`, kind, itemTitle, dueDate.Format("January 2, 2006"))

	n := model.Notification{
		OrgID:     orgID,
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		Kind:      kind,
	}
	if err := s.db.Create(&n).Error; err != nil {
		log.Printf("[NotifyAssignment] failed to persist notification: %v", err)
		return
	}

	if err := s.sendMail(recipient, subject, body); err != nil {
		log.Printf("[NotifyAssignment] email to %s failed (kept as unsent): %v", recipient, err)
		return
	}

	now := time.Now()
	if err := s.db.Model(&n).Updates(map[string]interface{}{"sent": true, "sent_at": &now}).Error; err != nil {
		log.Printf("[NotifyAssignment] failed to mark notification sent: %v", err)
	}
}

func (s *NotificationService) sendMail(to, subject, body string) error {
	from := os.Getenv("SMTP_FROM")
	password := os.Getenv("SMTP_PASSWORD")
	host := os.Getenv("SMTP_HOST")
	port := os.Getenv("SMTP_PORT")
	if from == "" || password == "" || host == "" || port == "" {
		return fmt.Errorf("email provider not configured")
	}

	message := []byte("Subject: " + subject + "\r\n" +
		"From: " + from + "\r\n" +
		"To: " + to + "\r\n" +
		"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
		body)

	auth := smtp.PlainAuth("", from, password, host)
	return smtp.SendMail(host+":"+port, auth, from, []string{to}, message)
}
