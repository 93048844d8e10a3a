package handlers

import (
	"fmt"

	"medicine_chatbot/internal/models"
)

func registeredReply(u *models.User) string {
	if u.Language == models.Hindi {
		return fmt.Sprintf("Namaste %s! Aap register ho gaye hain.\n\nKripya option chunen:\n1. Dawa order karein\n2. Doctor appointment book karein\n3. Meri orders dekhein\n4. Contact Us", u.Name)
	}
	return fmt.Sprintf("Hello %s! You are registered successfully.\n\nPlease choose an option:\n1. Order Medicine\n2. Book Appointment\n3. My Orders\n4. Contact Us", u.Name)
}

func loginReply(u *models.User) string {
	if u.Language == models.Hindi {
		return fmt.Sprintf("Swagat hai wapas %s!", u.Name)
	}
	return fmt.Sprintf("Welcome back %s!", u.Name)
}

func userDataReply(u *models.User) string {
	if u.Language == models.Hindi {
		return "Ye aapka data hai:"
	}
	return "Here is your data:"
}

func orderPlacedReply(u *models.User) string {
	if u.Language == models.Hindi {
		return "Aapka order receive ho gaya hai. Hum jald contact karenge.\n1. Main Menu"
	}
	return "Your order is received. We will contact you soon.\n1. Main Menu"
}

func appointmentBookedReply(u *models.User, d *models.AppointmentDetails) string {
	if u.Language == models.Hindi {
		return fmt.Sprintf("Aapki appointment book ho gayi hai %s ke saath.\n%s %s\n\n1. Main Menu", d.DoctorName, d.Date, d.Time)
	}
	return fmt.Sprintf("Your appointment is booked with %s.\n%s %s\n\n1. Main Menu", d.DoctorName, d.Date, d.Time)
}
