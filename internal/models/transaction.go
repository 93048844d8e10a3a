package models

import (
	"encoding/json"
	"fmt"
	"time"
)

type TransactionType string

const (
	TypeMedicine    TransactionType = "medicine"
	TypeAppointment TransactionType = "appointment"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusShipped   = "shipped"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
	StatusCanceled  = "canceled"
)

// IsCancellation reports whether status is one of the two cancellation spellings.
func IsCancellation(status string) bool {
	return status == StatusCancelled || status == StatusCanceled
}

const (
	DeliveryPickup = "pickup"
	DeliveryHome   = "home delivery"

	PaymentCOD = "COD"
	PaymentUPI = "UPI"
)

// Details is the variant part of a Transaction. Only MedicineDetails and
// AppointmentDetails implement it.
type Details interface {
	Type() TransactionType
	// Snapshot returns the fields the lifecycle engine manages for this variant.
	Snapshot() map[string]any
	clone() Details
}

type MedicineItem struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
}

// UnmarshalJSON accepts the quantity as either a JSON string or number.
func (m *MedicineItem) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name     string          `json:"name"`
		Quantity json.RawMessage `json:"quantity"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Name = raw.Name
	m.Quantity = ""
	if len(raw.Quantity) == 0 || string(raw.Quantity) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw.Quantity, &s); err == nil {
		m.Quantity = s
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(raw.Quantity, &n); err != nil {
		return fmt.Errorf("invalid quantity %s", raw.Quantity)
	}
	m.Quantity = n.String()
	return nil
}

type MedicineDetails struct {
	Medicines      []MedicineItem `json:"medicines"`
	Address        string         `json:"address"`
	DeliveryOption string         `json:"deliveryOption"`
	PaymentMethod  string         `json:"paymentMethod"`
	Notes          string         `json:"notes"`
}

func (*MedicineDetails) Type() TransactionType { return TypeMedicine }

func (d *MedicineDetails) Snapshot() map[string]any {
	items := make([]map[string]any, 0, len(d.Medicines))
	for _, m := range d.Medicines {
		items = append(items, map[string]any{"name": m.Name, "quantity": m.Quantity})
	}
	return map[string]any{
		"medicines":      items,
		"address":        d.Address,
		"deliveryOption": d.DeliveryOption,
		"paymentMethod":  d.PaymentMethod,
		"notes":          d.Notes,
	}
}

func (d *MedicineDetails) clone() Details {
	c := *d
	c.Medicines = append([]MedicineItem(nil), d.Medicines...)
	return &c
}

type AppointmentDetails struct {
	PatientName string `json:"patientName"`
	DoctorName  string `json:"doctorName"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Age         int    `json:"age"`
	Gender      string `json:"gender"`
	Problem     string `json:"problem"`
}

func (*AppointmentDetails) Type() TransactionType { return TypeAppointment }

func (d *AppointmentDetails) Snapshot() map[string]any {
	return map[string]any{
		"patientName": d.PatientName,
		"doctorName":  d.DoctorName,
		"date":        d.Date,
		"time":        d.Time,
		"age":         d.Age,
		"gender":      d.Gender,
		"problem":     d.Problem,
	}
}

func (d *AppointmentDetails) clone() Details {
	c := *d
	return &c
}

// StartsAt combines Date and Time into a single instant in loc.
func (d *AppointmentDetails) StartsAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", d.Date+" "+d.Time, loc)
}

// Transaction is a medicine order or an appointment owned by exactly one User.
type Transaction struct {
	ID        string
	UserID    string
	Status    string
	Feedback  string
	Deleted   bool
	DeletedAt *time.Time
	DeletedBy *Actor
	CreatedAt time.Time
	UpdatedAt time.Time
	History   []AuditEntry
	Details   Details
}

func (t *Transaction) Type() TransactionType {
	if t.Details == nil {
		return ""
	}
	return t.Details.Type()
}

func (t *Transaction) Medicine() (*MedicineDetails, bool) {
	d, ok := t.Details.(*MedicineDetails)
	return d, ok
}

func (t *Transaction) Appointment() (*AppointmentDetails, bool) {
	d, ok := t.Details.(*AppointmentDetails)
	return d, ok
}

// Clone returns a deep copy whose Details and History can be mutated freely.
func (t *Transaction) Clone() *Transaction {
	c := *t
	if t.Details != nil {
		c.Details = t.Details.clone()
	}
	c.History = append([]AuditEntry(nil), t.History...)
	if t.DeletedBy != nil {
		by := *t.DeletedBy
		c.DeletedBy = &by
	}
	if t.DeletedAt != nil {
		at := *t.DeletedAt
		c.DeletedAt = &at
	}
	return &c
}

// Snapshot captures the whole record, minus its history, for admin audit entries.
func (t *Transaction) Snapshot() map[string]any {
	s := map[string]any{
		"id":       t.ID,
		"type":     string(t.Type()),
		"status":   t.Status,
		"feedback": t.Feedback,
		"deleted":  t.Deleted,
	}
	if t.Details != nil {
		for k, v := range t.Details.Snapshot() {
			s[k] = v
		}
	}
	return s
}

// MarshalJSON flattens the envelope and the variant fields into one object.
func (t Transaction) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"id":        t.ID,
		"userId":    t.UserID,
		"type":      t.Type(),
		"status":    t.Status,
		"feedback":  t.Feedback,
		"deleted":   t.Deleted,
		"createdAt": t.CreatedAt,
		"updatedAt": t.UpdatedAt,
		"history":   t.History,
	}
	if t.History == nil {
		out["history"] = []AuditEntry{}
	}
	if t.DeletedAt != nil {
		out["deletedAt"] = t.DeletedAt
	}
	if t.DeletedBy != nil {
		out["deletedBy"] = t.DeletedBy
	}
	switch d := t.Details.(type) {
	case *MedicineDetails:
		out["medicines"] = d.Medicines
		out["address"] = d.Address
		out["deliveryOption"] = d.DeliveryOption
		out["paymentMethod"] = d.PaymentMethod
		out["notes"] = d.Notes
	case *AppointmentDetails:
		out["patientName"] = d.PatientName
		out["doctorName"] = d.DoctorName
		out["date"] = d.Date
		out["time"] = d.Time
		out["age"] = d.Age
		out["gender"] = d.Gender
		out["problem"] = d.Problem
	}
	return json.Marshal(out)
}
