package services

import (
	"fmt"
	"math"
	"medicine_chatbot/internal/models"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	nameRe  = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9\s]{2,}$`)
	phoneRe = regexp.MustCompile(`^\d{10}$`)
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	timeRe  = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):([0-5][0-9])$`)
)

const dateLayout = "2006-01-02"

var allowedStatuses = []string{
	models.StatusPending,
	models.StatusConfirmed,
	models.StatusShipped,
	models.StatusDelivered,
	models.StatusCanceled,
	models.StatusCancelled,
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if !nameRe.MatchString(name) {
		return "", validationErr("Name must start with a letter and be at least 3 characters")
	}
	return name, nil
}

func validatePhone(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if !phoneRe.MatchString(phone) {
		return "", validationErr("Phone number must be 10 digits")
	}
	return phone, nil
}

// validateEmail accepts an empty address; email is optional.
func validateEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email != "" && !emailRe.MatchString(email) {
		return "", validationErr("Invalid email address")
	}
	return email, nil
}

func normalizeLanguage(lang string) (models.Language, error) {
	switch models.Language(strings.ToLower(strings.TrimSpace(lang))) {
	case "", models.English:
		return models.English, nil
	case models.Hindi:
		return models.Hindi, nil
	}
	return "", validationErr("Language must be english or hindi")
}

func normalizeMedicines(items []models.MedicineItem) ([]models.MedicineItem, error) {
	if len(items) == 0 {
		return nil, validationErr("Please provide at least one medicine with quantity")
	}
	out := make([]models.MedicineItem, 0, len(items))
	for _, item := range items {
		name := strings.TrimSpace(item.Name)
		qty := strings.TrimSpace(item.Quantity)
		n, err := strconv.ParseFloat(qty, 64)
		if name == "" || err != nil || math.IsNaN(n) || math.IsInf(n, 0) || n <= 0 {
			return nil, validationErr("Each medicine must have a valid name and quantity (>0)")
		}
		out = append(out, models.MedicineItem{Name: name, Quantity: qty})
	}
	return out, nil
}

func normalizeDelivery(opt string) (string, error) {
	switch o := strings.ToLower(strings.TrimSpace(opt)); o {
	case "":
		return models.DeliveryPickup, nil
	case models.DeliveryPickup, models.DeliveryHome:
		return o, nil
	}
	return "", validationErr("Delivery option must be pickup or home delivery")
}

func normalizePayment(method string) (string, error) {
	switch m := strings.ToUpper(strings.TrimSpace(method)); m {
	case "":
		return models.PaymentCOD, nil
	case models.PaymentCOD, models.PaymentUPI:
		return m, nil
	}
	return "", validationErr("Payment method must be COD or UPI")
}

func normalizeDate(date string) (string, error) {
	date = strings.TrimSpace(date)
	if _, err := time.Parse(dateLayout, date); err != nil {
		return "", validationErr("Invalid date, expected YYYY-MM-DD")
	}
	return date, nil
}

// normalizeTime validates HH:MM (hours 0-23) and zero-pads the hour.
func normalizeTime(t string) (string, error) {
	m := timeRe.FindStringSubmatch(strings.TrimSpace(t))
	if m == nil {
		return "", validationErr("Invalid time format (HH:MM)")
	}
	h, _ := strconv.Atoi(m[1])
	return fmt.Sprintf("%02d:%s", h, m[2]), nil
}

func validateAge(age int) error {
	if age < 1 || age > 120 {
		return validationErr("Age must be between 1-120")
	}
	return nil
}

func normalizeGender(g string) (string, error) {
	switch v := strings.ToLower(strings.TrimSpace(g)); v {
	case "male", "female", "other":
		return v, nil
	}
	return "", validationErr("Gender must be male, female, or other")
}

func normalizeStatus(status string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(status))
	for _, allowed := range allowedStatuses {
		if s == allowed {
			return s, nil
		}
	}
	return "", validationErr("Invalid status. Allowed: %s", strings.Join(allowedStatuses, ", "))
}
