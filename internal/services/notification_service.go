package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"medicine_chatbot/internal/models"
	"medicine_chatbot/internal/notify"
	"strings"
)

const signature = "- Ranjan Medicine Team"

// Queue accepts messages for background delivery.
type Queue interface {
	Enqueue(msg notify.Message) bool
}

// NotificationService turns lifecycle events into outbound messages. It only
// enqueues; delivery happens on the dispatcher's workers.
type NotificationService struct {
	queue    Queue
	opsEmail string
	whatsapp bool
}

func NewNotificationService(queue Queue, opsEmail string, whatsapp bool) *NotificationService {
	return &NotificationService{queue: queue, opsEmail: opsEmail, whatsapp: whatsapp}
}

func (n *NotificationService) toOps(subject, text string) {
	if n == nil || n.opsEmail == "" {
		return
	}
	n.queue.Enqueue(notify.Message{Channel: notify.ChannelEmail, To: n.opsEmail, Subject: subject, Text: text})
}

func (n *NotificationService) toUser(u *models.User, subject, text, html string) {
	if n == nil || u == nil {
		return
	}
	if u.Email != "" {
		n.queue.Enqueue(notify.Message{Channel: notify.ChannelEmail, To: u.Email, Subject: subject, Text: text, HTML: html})
	}
	if n.whatsapp && u.Phone != "" {
		n.queue.Enqueue(notify.Message{Channel: notify.ChannelWhatsApp, To: u.Phone, Subject: subject, Text: text})
	}
}

func noun(t *models.Transaction) string {
	if t.Type() == models.TypeAppointment {
		return "Appointment"
	}
	return "Order"
}

func medicineLines(d *models.MedicineDetails, bullet string) string {
	lines := make([]string, len(d.Medicines))
	for i, m := range d.Medicines {
		lines[i] = fmt.Sprintf("%s%s - %s", bullet, m.Name, m.Quantity)
	}
	return strings.Join(lines, "\n")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func details(t *models.Transaction) string {
	switch d := t.Details.(type) {
	case *models.MedicineDetails:
		return fmt.Sprintf("Medicines:\n%s\nDelivery: %s\nAddress: %s\nPayment: %s",
			medicineLines(d, "  - "), d.DeliveryOption, orDefault(d.Address, "Pickup from shop"), d.PaymentMethod)
	case *models.AppointmentDetails:
		return fmt.Sprintf("Doctor: %s\nDate: %s\nTime: %s\nPatient: %s",
			d.DoctorName, d.Date, d.Time, d.PatientName)
	}
	return ""
}

func (n *NotificationService) Welcome(u *models.User) {
	n.toOps("New user registered - "+u.Name,
		fmt.Sprintf("New user registered\nName: %s\nPhone: %s\nEmail: %s\nLanguage: %s",
			u.Name, u.Phone, orDefault(u.Email, "N/A"), u.Language))

	html, err := render(welcomeTmpl, u)
	if err != nil {
		log.Printf("notify: welcome template: %v", err)
	}
	n.toUser(u, "Welcome to Ranjan Medicine",
		fmt.Sprintf("Hi %s,\n\nWelcome to Ranjan Medicine! You can now order medicines and book doctor appointments.\n\n%s", u.Name, signature),
		html)
}

func (n *NotificationService) OrderPlaced(u *models.User, t *models.Transaction) {
	d, ok := t.Medicine()
	if !ok {
		return
	}
	n.toOps("New Medicine Order - "+u.Name,
		fmt.Sprintf("New Medicine Order\nUser: %s\nPhone: %s\nMedicines:\n%s\nDelivery: %s\nAddress: %s\nPayment: %s\nNotes: %s",
			u.Name, u.Phone, medicineLines(d, "  - "), d.DeliveryOption,
			orDefault(d.Address, "Pickup from shop"), d.PaymentMethod, orDefault(d.Notes, "None")))

	html, err := render(orderTmpl, struct {
		Name  string
		Order *models.MedicineDetails
	}{u.Name, d})
	if err != nil {
		log.Printf("notify: order template: %v", err)
	}
	n.toUser(u, "Your Medicine Order is Received",
		fmt.Sprintf("Hi %s,\n\nYour medicine order has been received at Ranjan Medicine!\n\nOrder Details:\n%s\nNotes: %s\n\n%s",
			u.Name, details(t), orDefault(d.Notes, "Not provided"), signature),
		html)
}

func (n *NotificationService) AppointmentBooked(u *models.User, t *models.Transaction) {
	d, ok := t.Appointment()
	if !ok {
		return
	}
	n.toOps("New Appointment - "+u.Name,
		fmt.Sprintf("New Appointment\nUser: %s\nPhone: %s\nDoctor: %s\nDate: %s %s\nPatient: %s\nAge: %d\nGender: %s\nProblem: %s",
			u.Name, u.Phone, d.DoctorName, d.Date, d.Time, d.PatientName, d.Age, d.Gender, d.Problem))
	n.toUser(u, "Appointment Confirmed",
		fmt.Sprintf("Hi %s,\n\nYour appointment with %s on %s at %s is successfully booked.\n\n%s",
			u.Name, d.DoctorName, d.Date, d.Time, signature), "")
}

func (n *NotificationService) Edited(u *models.User, t *models.Transaction, before, after map[string]any) {
	n.toOps(fmt.Sprintf("%s Edited - %s", noun(t), u.Name),
		fmt.Sprintf("%s Edited\nUser: %s\nPhone: %s\nID: %s\nBefore: %s\nAfter: %s",
			noun(t), u.Name, u.Phone, t.ID, pretty(before), pretty(after)))
	n.toUser(u, noun(t)+" Updated",
		fmt.Sprintf("Hi %s,\n\nYour %s has been updated.\n\nID: %s\n%s\n\n%s",
			u.Name, strings.ToLower(noun(t)), t.ID, details(t), signature), "")
}

func (n *NotificationService) Cancelled(u *models.User, t *models.Transaction) {
	n.toOps(fmt.Sprintf("%s Cancelled - %s", noun(t), u.Name),
		fmt.Sprintf("%s Cancelled\nUser: %s\nPhone: %s\nID: %s", noun(t), u.Name, u.Phone, t.ID))
	n.toUser(u, noun(t)+" Cancelled",
		fmt.Sprintf("Hi %s,\n\nYour %s has been cancelled.\n\nID: %s\n\n%s",
			u.Name, strings.ToLower(noun(t)), t.ID, signature), "")
}

func (n *NotificationService) Restored(u *models.User, t *models.Transaction) {
	n.toOps(fmt.Sprintf("%s Restored - %s", noun(t), u.Name),
		fmt.Sprintf("%s Restored\nUser: %s\nPhone: %s\nID: %s", noun(t), u.Name, u.Phone, t.ID))
	n.toUser(u, noun(t)+" Restored",
		fmt.Sprintf("Hi %s,\n\nYour cancelled %s has been restored.\n\nID: %s\n\n%s",
			u.Name, strings.ToLower(noun(t)), t.ID, signature), "")
}

func (n *NotificationService) HardDeleted(u *models.User, t *models.Transaction, by models.Actor) {
	n.toOps(fmt.Sprintf("%s Hard Deleted - %s", noun(t), u.Name),
		fmt.Sprintf("%s Hard Deleted\nUser: %s\nPhone: %s\nID: %s\nBy Admin: %s", noun(t), u.Name, u.Phone, t.ID, by.ID))
	n.toUser(u, fmt.Sprintf("Your %s was permanently deleted by admin", strings.ToLower(noun(t))),
		fmt.Sprintf("Hello %s,\n\nAn admin has permanently deleted your %s (ID: %s).\nIf you believe this was a mistake, contact us.\n\n%s",
			u.Name, strings.ToLower(noun(t)), t.ID, signature), "")
}

func (n *NotificationService) EditedByAdmin(u *models.User, t *models.Transaction) {
	n.toUser(u, fmt.Sprintf("Your %s was edited by admin", strings.ToLower(noun(t))),
		fmt.Sprintf("Hello %s,\n\nAn admin has updated your %s (ID: %s).\n\nUpdated details:\n%s\nStatus: %s\n\nIf you have questions, please contact us.\n\n%s",
			u.Name, strings.ToLower(noun(t)), t.ID, details(t), t.Status, signature), "")
}

func (n *NotificationService) StatusChanged(u *models.User, t *models.Transaction) {
	subject := fmt.Sprintf("Medicine Order Status Update - %s", t.Status)
	what := "medicine order"
	if t.Type() == models.TypeAppointment {
		subject = fmt.Sprintf("Appointment Status Update - %s", t.Status)
		what = "appointment"
	}
	n.toUser(u, subject,
		fmt.Sprintf("Hi %s,\n\nYour %s status has been updated to: %s\n\n%s\n\nThank you for choosing Ranjan Medicine!\n\n%s",
			u.Name, what, t.Status, details(t), signature), "")
}

func pretty(m map[string]any) string {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Sprint(m)
	}
	return string(b)
}

var welcomeTmpl = template.Must(template.New("welcome").Parse(`<!DOCTYPE html>
<html>
<body>
  <h2>Hi {{.Name}},</h2>
  <p>Welcome to <strong>Ranjan Medicine</strong>!</p>
  <ul>
    <li>Medicine orders</li>
    <li>Doctor appointments</li>
    <li>Home delivery</li>
  </ul>
  <p>- Ranjan Medicine Team</p>
</body>
</html>`))

var orderTmpl = template.Must(template.New("order").Parse(`<!DOCTYPE html>
<html>
<head><title>Order Confirmation</title></head>
<body>
  <h2>Hi {{.Name}},</h2>
  <p>Your medicine order has been received at Ranjan Medicine!</p>
  <h3>Order Details:</h3>
  <table border="1" style="border-collapse: collapse; width: 100%; max-width: 400px;">
    <tr style="background-color: #f2f2f2;">
      <th style="padding: 8px; text-align: left;">Medicine</th>
      <th style="padding: 8px; text-align: left;">Quantity</th>
    </tr>
    {{- range .Order.Medicines}}
    <tr><td style="padding: 8px;">{{.Name}}</td><td style="padding: 8px;">{{.Quantity}}</td></tr>
    {{- end}}
  </table>
  <p><strong>Delivery:</strong> {{.Order.DeliveryOption}}</p>
  <p><strong>Address:</strong> {{if .Order.Address}}{{.Order.Address}}{{else}}Pickup from shop{{end}}</p>
  <p><strong>Payment Method:</strong> {{.Order.PaymentMethod}}</p>
  <p><strong>Notes:</strong> {{if .Order.Notes}}{{.Order.Notes}}{{else}}Not provided{{end}}</p>
  <p>Stay healthy!</p>
  <p>- Ranjan Medicine Team</p>
</body>
</html>`))

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
