package services

import (
	"fmt"
	"medicine_chatbot/internal/models"
)

var chatText = map[models.Language]map[string]string{
	models.English: {
		"welcome":         "Welcome to Ranjan Medicine Chatbot",
		"guestMenu":       "1. Register\n2. Login\nType the number to continue.",
		"menu":            "Hi %s! Choose an option. Type the number:\n1. Order Medicine\n2. Book Appointment\n3. My Orders\n4. My Appointments\n5. Contact Us\nType \"exit\" to leave.",
		"registerFirst":   "Please register or login first.",
		"whichLanguage":   "Which language do you prefer? Type \"English\" or \"Hindi\".",
		"invalidLanguage": "Please select a valid language. Type \"English\" or \"Hindi\".",
		"enterName":       "What is your full name?",
		"enterPhone":      "Please enter your 10-digit phone number.",
		"enterEmail":      "Please enter your email, or type \"skip\".",
		"profileCreated":  "Registered successfully.",
		"loggedIn":        "Welcome back, %s.",
		"enterItems":      "Which medicines do you need? Send them as name:quantity, separated by commas (eg: Paracetamol:2, ORS:5).",
		"invalidItems":    "Could not read that list. Use name:quantity, separated by commas.",
		"enterDelivery":   "Delivery option?\n1. Pickup\n2. Home delivery",
		"enterAddress":    "Please enter your delivery address.",
		"enterPayment":    "Payment method?\n1. COD\n2. UPI",
		"enterNotes":      "Any notes for the pharmacist? Type \"skip\" for none.",
		"confirmOrder":    "Please confirm your order:\n%s\nType \"yes\" to place it or \"no\" to cancel.",
		"orderPlaced":     "Your order is received. We will contact you soon.\n0. Main Menu",
		"chooseDoctor":    "Choose a doctor:\n%s",
		"invalidChoice":   "Please choose one of the listed numbers.",
		"enterDate":       "Which date? (YYYY-MM-DD)",
		"enterTime":       "What time? (HH:MM, 24-hour)",
		"enterAge":        "Patient age?",
		"enterGender":     "Patient gender? (male, female, other)",
		"enterProblem":    "Briefly describe the problem.",
		"enterPatient":    "Patient name? Type \"skip\" to use your own name.",
		"confirmAppt":     "Please confirm your appointment:\n%s\nType \"yes\" to book it or \"no\" to cancel.",
		"apptBooked":      "Your appointment is booked with %s.\n%s %s\n0. Main Menu",
		"slotTaken":       "Doctor busy at %s. Suggested next available: %s. Please enter another time.",
		"noOrders":        "No orders found.",
		"noAppointments":  "No appointments found.",
		"contact":         "Ranjan Medicine\nPhone: +91 8369242977\nEmail: support@ranjanmedicine.in",
		"cancelled":       "Okay, cancelled.\n0. Main Menu",
		"bye":             "Thank you for visiting Ranjan Medicine. Stay healthy!",
		"unknown":         "Sorry, I did not understand. Type \"menu\" to see the options.",
		"error":           "An error occurred. Please try again.",
	},
	models.Hindi: {
		"welcome":         "रंजन मेडिसिन चैटबॉट में आपका स्वागत है",
		"guestMenu":       "1. रजिस्टर\n2. लॉगिन\nआगे बढ़ने के लिए संख्या टाइप करें।",
		"menu":            "नमस्ते %s! एक विकल्प चुनें, संख्या टाइप करें:\n1. दवा ऑर्डर\n2. अपॉइंटमेंट बुक करें\n3. मेरे ऑर्डर\n4. मेरी अपॉइंटमेंट\n5. संपर्क करें\nबाहर जाने के लिए \"exit\" टाइप करें।",
		"registerFirst":   "कृपया पहले रजिस्टर या लॉगिन करें।",
		"whichLanguage":   "कृपया भाषा चुनें: \"English\" या \"Hindi\"",
		"invalidLanguage": "कृपया एक वैध भाषा चुनें। \"English\" या \"Hindi\" टाइप करें।",
		"enterName":       "अपना पूरा नाम बताइए",
		"enterPhone":      "कृपया अपना 10 अंकों का फ़ोन नंबर दें",
		"enterEmail":      "कृपया अपना ईमेल दें, या \"skip\" टाइप करें",
		"profileCreated":  "आप सफलतापूर्वक पंजीकृत हो गए हैं।",
		"loggedIn":        "फिर से स्वागत है, %s।",
		"enterItems":      "कौन सी दवाइयाँ चाहिए? नाम:मात्रा लिखें, कॉमा से अलग करें (उदा: Paracetamol:2, ORS:5)",
		"invalidItems":    "सूची समझ नहीं आई। नाम:मात्रा लिखें, कॉमा से अलग करें।",
		"enterDelivery":   "डिलीवरी विकल्प?\n1. पिकअप\n2. होम डिलीवरी",
		"enterAddress":    "कृपया डिलीवरी पता लिखें।",
		"enterPayment":    "भुगतान का तरीका?\n1. COD\n2. UPI",
		"enterNotes":      "कोई नोट? नहीं तो \"skip\" टाइप करें।",
		"confirmOrder":    "कृपया अपने ऑर्डर की पुष्टि करें:\n%s\nऑर्डर देने के लिए \"yes\" या रद्द करने के लिए \"no\" टाइप करें।",
		"orderPlaced":     "आपका ऑर्डर मिल गया है। हम जल्द संपर्क करेंगे।\n0. मेन्यू",
		"chooseDoctor":    "डॉक्टर चुनें:\n%s",
		"invalidChoice":   "कृपया दी गई संख्याओं में से चुनें।",
		"enterDate":       "कौन सी तारीख? (YYYY-MM-DD)",
		"enterTime":       "कितने बजे? (HH:MM, 24 घंटे)",
		"enterAge":        "मरीज की उम्र?",
		"enterGender":     "मरीज का लिंग? (male, female, other)",
		"enterProblem":    "समस्या संक्षेप में बताइए।",
		"enterPatient":    "मरीज का नाम? अपना नाम रखने के लिए \"skip\" टाइप करें।",
		"confirmAppt":     "कृपया अपॉइंटमेंट की पुष्टि करें:\n%s\nबुक करने के लिए \"yes\" या रद्द करने के लिए \"no\" टाइप करें।",
		"apptBooked":      "आपकी अपॉइंटमेंट %s के साथ बुक हो गई है।\n%s %s\n0. मेन्यू",
		"slotTaken":       "डॉक्टर %s पर व्यस्त हैं। अगला उपलब्ध समय: %s। कृपया दूसरा समय लिखें।",
		"noOrders":        "कोई ऑर्डर नहीं मिला।",
		"noAppointments":  "कोई अपॉइंटमेंट नहीं मिली।",
		"contact":         "रंजन मेडिसिन\nफ़ोन: +91 8369242977\nईमेल: support@ranjanmedicine.in",
		"cancelled":       "ठीक है, रद्द कर दिया।\n0. मेन्यू",
		"bye":             "रंजन मेडिसिन पर आने के लिए धन्यवाद। स्वस्थ रहें!",
		"unknown":         "माफ़ कीजिए, समझ नहीं आया। विकल्प देखने के लिए \"menu\" टाइप करें।",
		"error":           "एक त्रुटि हुई। कृपया पुनः प्रयास करें।",
	},
}

// say looks up key in lang, falling back to English.
func say(lang models.Language, key string, args ...any) string {
	text, ok := chatText[lang][key]
	if !ok {
		text, ok = chatText[models.English][key]
	}
	if !ok {
		return key
	}
	if len(args) == 0 {
		return text
	}
	return fmt.Sprintf(text, args...)
}
