package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestMedicineItemQuantity(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"string", `{"name":"Paracetamol","quantity":"2 strips"}`, "2 strips", false},
		{"number", `{"name":"Paracetamol","quantity":3}`, "3", false},
		{"null", `{"name":"Paracetamol","quantity":null}`, "", false},
		{"missing", `{"name":"Paracetamol"}`, "", false},
		{"object", `{"name":"Paracetamol","quantity":{}}`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var item MedicineItem
			err := json.Unmarshal([]byte(tt.input), &item)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && item.Quantity != tt.want {
				t.Errorf("Quantity = %q, want %q", item.Quantity, tt.want)
			}
		})
	}
}

func TestTransactionMarshalFlattensDetails(t *testing.T) {
	created := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	tx := Transaction{
		ID:        "tx-1",
		UserID:    "u-1",
		Status:    StatusPending,
		CreatedAt: created,
		UpdatedAt: created,
		Details: &AppointmentDetails{
			PatientName: "Asha",
			DoctorName:  "Dr. Sharma",
			Date:        "2026-10-05",
			Time:        "10:00",
			Age:         34,
		},
	}

	data, err := json.Marshal(tx)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if out["type"] != "appointment" {
		t.Errorf("type = %v, want appointment", out["type"])
	}
	if out["doctorName"] != "Dr. Sharma" || out["time"] != "10:00" {
		t.Errorf("appointment fields not flattened: %s", data)
	}
	if _, ok := out["medicines"]; ok {
		t.Errorf("medicine fields leaked into appointment: %s", data)
	}
	if h, ok := out["history"].([]any); !ok || len(h) != 0 {
		t.Errorf("history = %v, want empty array", out["history"])
	}
	if _, ok := out["deletedAt"]; ok {
		t.Errorf("deletedAt present on live record")
	}

	// Pointer and value must encode the same way.
	ptr, _ := json.Marshal(&tx)
	if string(ptr) != string(data) {
		t.Errorf("pointer encoding differs:\n%s\n%s", ptr, data)
	}
}

func TestTransactionCloneIsDeep(t *testing.T) {
	at := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	orig := &Transaction{
		ID:        "tx-1",
		Status:    StatusCancelled,
		Deleted:   true,
		DeletedAt: &at,
		DeletedBy: &Actor{ID: "u-1", Role: RoleUser},
		History:   []AuditEntry{NewAuditEntry(Actor{ID: "u-1", Role: RoleUser}, ActionCancelled, at, nil, nil)},
		Details:   &MedicineDetails{Medicines: []MedicineItem{{Name: "Crocin", Quantity: "1"}}},
	}

	c := orig.Clone()
	med, _ := c.Medicine()
	med.Medicines[0].Name = "Dolo"
	med.Address = "changed"
	c.History = append(c.History, AuditEntry{Action: ActionRestored})
	c.DeletedBy.ID = "admin"
	*c.DeletedAt = at.Add(time.Hour)

	origMed, _ := orig.Medicine()
	if origMed.Medicines[0].Name != "Crocin" || origMed.Address != "" {
		t.Errorf("clone shares details with original")
	}
	if len(orig.History) != 1 {
		t.Errorf("clone shares history with original")
	}
	if orig.DeletedBy.ID != "u-1" || !orig.DeletedAt.Equal(at) {
		t.Errorf("clone shares deletion marker with original")
	}
}

func TestTransactionRecordRoundTrip(t *testing.T) {
	at := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	tx := &Transaction{
		ID:        "tx-2",
		UserID:    "u-1",
		Status:    StatusPending,
		CreatedAt: at,
		UpdatedAt: at,
		DeletedBy: &Actor{ID: "admin-1", Role: RoleAdmin},
		Details:   &AppointmentDetails{DoctorName: "Dr. Verma", Date: "2026-10-05", Time: "11:30"},
	}

	rec, err := NewTransactionRecord(tx)
	if err != nil {
		t.Fatalf("NewTransactionRecord() error = %v", err)
	}
	if rec.DoctorName != "Dr. Verma" || rec.Type != "appointment" {
		t.Errorf("record = %+v", rec)
	}
	rec.Audit = []AuditRecord{NewAuditRecord(tx.ID, 0, NewAuditEntry(Actor{ID: "admin-1", Role: RoleAdmin}, ActionEditedByAdmin, at, map[string]any{"time": "11:00"}, map[string]any{"time": "11:30"}))}

	back, err := rec.Transaction()
	if err != nil {
		t.Fatalf("Transaction() error = %v", err)
	}
	appt, ok := back.Appointment()
	if !ok || appt.Time != "11:30" {
		t.Fatalf("details = %#v", back.Details)
	}
	if back.DeletedBy == nil || back.DeletedBy.Role != RoleAdmin {
		t.Errorf("DeletedBy = %v", back.DeletedBy)
	}
	if len(back.History) != 1 || back.History[0].Action != ActionEditedByAdmin || back.History[0].After["time"] != "11:30" {
		t.Errorf("History = %+v", back.History)
	}

	if _, err := NewTransactionRecord(&Transaction{ID: "x"}); err == nil {
		t.Error("NewTransactionRecord() without details should fail")
	}
	if _, err := DecodeDetails("refund", []byte(`{}`)); err == nil {
		t.Error("DecodeDetails() with unknown type should fail")
	}
}

func TestAppointmentStartsAt(t *testing.T) {
	d := &AppointmentDetails{Date: "2026-10-05", Time: "09:15"}
	got, err := d.StartsAt(time.UTC)
	if err != nil {
		t.Fatalf("StartsAt() error = %v", err)
	}
	if want := time.Date(2026, 10, 5, 9, 15, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("StartsAt() = %v, want %v", got, want)
	}
	if !IsCancellation(StatusCanceled) || !IsCancellation(StatusCancelled) || IsCancellation(StatusPending) {
		t.Error("IsCancellation() mismatch")
	}
}
