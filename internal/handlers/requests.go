package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"medicine_chatbot/internal/models"
	"medicine_chatbot/internal/services"
)

// flexInt accepts a JSON number or a numeric string.
type flexInt int

func (n *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return fmt.Errorf("invalid number %s", data)
		}
		v = int(f)
	}
	*n = flexInt(v)
	return nil
}

type registerRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Language string `json:"language"`
}

type loginRequest struct {
	Phone string `json:"phone"`
}

type adminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type createOrderRequest struct {
	Phone          string                `json:"phone"`
	Medicines      []models.MedicineItem `json:"medicines"`
	Address        string                `json:"address"`
	DeliveryOption string                `json:"deliveryOption"`
	PaymentMethod  string                `json:"paymentMethod"`
	Notes          string                `json:"notes"`
}

type createAppointmentRequest struct {
	PatientName string  `json:"patientName"`
	DoctorName  string  `json:"doctorName"`
	Date        string  `json:"date"`
	Time        string  `json:"time"`
	Age         flexInt `json:"age"`
	Gender      string  `json:"gender"`
	Problem     string  `json:"problem"`
}

// editRequest carries every field either variant may change. Absent fields
// stay nil.
type editRequest struct {
	Medicines      []models.MedicineItem `json:"medicines"`
	Address        *string               `json:"address"`
	DeliveryOption *string               `json:"deliveryOption"`
	PaymentMethod  *string               `json:"paymentMethod"`
	Notes          *string               `json:"notes"`

	PatientName *string  `json:"patientName"`
	DoctorName  *string  `json:"doctorName"`
	Date        *string  `json:"date"`
	Time        *string  `json:"time"`
	Age         *flexInt `json:"age"`
	Gender      *string  `json:"gender"`
	Problem     *string  `json:"problem"`

	Status *string `json:"status"`
}

func (r editRequest) medicinePatch() services.MedicineOrderPatch {
	return services.MedicineOrderPatch{
		Medicines:      r.Medicines,
		Address:        r.Address,
		DeliveryOption: r.DeliveryOption,
		PaymentMethod:  r.PaymentMethod,
		Notes:          r.Notes,
	}
}

func (r editRequest) appointmentPatch() services.AppointmentPatch {
	p := services.AppointmentPatch{
		PatientName: r.PatientName,
		DoctorName:  r.DoctorName,
		Date:        r.Date,
		Time:        r.Time,
		Gender:      r.Gender,
		Problem:     r.Problem,
	}
	if r.Age != nil {
		age := int(*r.Age)
		p.Age = &age
	}
	return p
}

func (r editRequest) adminInput() services.AdminEditInput {
	return services.AdminEditInput{
		Medicine:    r.medicinePatch(),
		Appointment: r.appointmentPatch(),
		Status:      r.Status,
	}
}

type statusRequest struct {
	UserID  string `json:"userId"`
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

type feedbackRequest struct {
	UserID   string `json:"userId"`
	OrderID  string `json:"orderId"`
	Feedback string `json:"feedback"`
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}
