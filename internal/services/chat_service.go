package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"medicine_chatbot/internal/models"
	"medicine_chatbot/internal/redis"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ChatSessionStore persists dialogue state between messages. *redis.Client
// satisfies it.
type ChatSessionStore interface {
	GetSession(ctx context.Context, sessionID string) (*redis.SessionData, error)
	SetSession(ctx context.Context, sessionID string, data *redis.SessionData, ttl time.Duration) error
	DeleteSession(ctx context.Context, sessionID string) error
}

type ChatReply struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
	Token     string `json:"token,omitempty"`
	Flow      string `json:"flow"`
	Done      bool   `json:"done,omitempty"`
}

const (
	flowIdle        = "menu"
	flowRegister    = "register"
	flowLogin       = "login"
	flowOrder       = "order"
	flowAppointment = "appointment"
)

const (
	stepLanguage = iota
	stepName
	stepPhone
	stepEmail
)

const (
	stepItems = iota
	stepDelivery
	stepAddress
	stepPayment
	stepNotes
	stepConfirmOrder
)

const (
	stepDoctor = iota
	stepDate
	stepTime
	stepAge
	stepGender
	stepProblem
	stepPatient
	stepConfirmAppointment
)

// ChatService sequences the guided chat dialogue. It holds no business rules
// of its own; every mutation goes through UserService or TransactionService.
type ChatService struct {
	store   ChatSessionStore
	users   UserService
	txs     TransactionService
	doctors []string
	ttl     time.Duration
	now     Clock
}

func NewChatService(store ChatSessionStore, users UserService, txs TransactionService, doctors []string, ttl time.Duration, clock Clock) *ChatService {
	if clock == nil {
		clock = defaultClock
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &ChatService{
		store:   store,
		users:   users,
		txs:     txs,
		doctors: doctors,
		ttl:     ttl,
		now:     clock,
	}
}

// Handle advances the conversation identified by sessionID with one user
// message. An empty sessionID starts a new conversation.
func (s *ChatService) Handle(ctx context.Context, sessionID, message string) (*ChatReply, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	sess, err := s.store.GetSession(ctx, sessionID)
	if errors.Is(err, redis.ErrSessionNotFound) {
		sess = &redis.SessionData{
			SessionID: sessionID,
			Language:  string(models.English),
			Flow:      flowIdle,
			Data:      map[string]string{},
			CreatedAt: s.now(),
		}
	} else if err != nil {
		return nil, internalErr("Failed to load chat session", err)
	}

	text := strings.TrimSpace(message)
	cmd := strings.ToLower(text)
	reply := &ChatReply{SessionID: sessionID}

	switch {
	case cmd == "exit" || cmd == "quit" || cmd == "bye":
		reply.Reply = say(lang(sess), "bye")
		reply.Done = true
		reply.Flow = flowIdle
		if err := s.store.DeleteSession(ctx, sessionID); err != nil {
			return nil, internalErr("Failed to end chat session", err)
		}
		return reply, nil
	case cmd == "" || cmd == "hi" || cmd == "hello" || cmd == "menu" || cmd == "0":
		reset(sess)
		reply.Reply = s.menu(sess)
	case cmd == "contact":
		reset(sess)
		reply.Reply = say(lang(sess), "contact")
	default:
		switch sess.Flow {
		case flowRegister:
			reply.Reply = s.register(ctx, sess, text)
		case flowLogin:
			reply.Reply = s.login(ctx, sess, text)
		case flowOrder:
			reply.Reply = s.order(ctx, sess, text)
		case flowAppointment:
			reply.Reply = s.appointment(ctx, sess, text)
		default:
			reply.Reply = s.idle(ctx, sess, cmd)
		}
	}

	sess.UpdatedAt = s.now()
	if err := s.store.SetSession(ctx, sessionID, sess, s.ttl); err != nil {
		return nil, internalErr("Failed to save chat session", err)
	}
	reply.Token = sess.Token
	reply.Flow = sess.Flow
	return reply, nil
}

// End discards the conversation.
func (s *ChatService) End(ctx context.Context, sessionID string) error {
	if err := s.store.DeleteSession(ctx, sessionID); err != nil {
		return internalErr("Failed to end chat session", err)
	}
	return nil
}

func lang(sess *redis.SessionData) models.Language {
	if sess.Language == string(models.Hindi) {
		return models.Hindi
	}
	return models.English
}

func reset(sess *redis.SessionData) {
	sess.Flow = flowIdle
	sess.Step = 0
	sess.Data = map[string]string{}
}

func (s *ChatService) menu(sess *redis.SessionData) string {
	l := lang(sess)
	if sess.UserID == "" {
		return say(l, "welcome") + "\n" + say(l, "guestMenu")
	}
	return say(l, "menu", sess.Name)
}

func (s *ChatService) idle(ctx context.Context, sess *redis.SessionData, cmd string) string {
	l := lang(sess)
	if sess.UserID == "" {
		switch cmd {
		case "1", "register":
			sess.Flow, sess.Step = flowRegister, stepLanguage
			return say(l, "whichLanguage")
		case "2", "login":
			sess.Flow, sess.Step = flowLogin, 0
			return say(l, "enterPhone")
		}
		return say(l, "registerFirst") + "\n" + say(l, "guestMenu")
	}

	switch cmd {
	case "1":
		sess.Flow, sess.Step = flowOrder, stepItems
		return say(l, "enterItems")
	case "2":
		sess.Flow, sess.Step = flowAppointment, stepDoctor
		return say(l, "chooseDoctor", s.doctorList())
	case "3":
		return s.listMine(ctx, sess, models.TypeMedicine)
	case "4":
		return s.listMine(ctx, sess, models.TypeAppointment)
	case "5":
		return say(l, "contact")
	}
	return say(l, "unknown")
}

func (s *ChatService) register(ctx context.Context, sess *redis.SessionData, text string) string {
	switch sess.Step {
	case stepLanguage:
		var chosen models.Language
		switch strings.ToLower(text) {
		case "1", "english", "en":
			chosen = models.English
		case "2", "hindi", "हिंदी":
			chosen = models.Hindi
		default:
			return say(lang(sess), "invalidLanguage")
		}
		sess.Language = string(chosen)
		sess.Data["language"] = string(chosen)
		sess.Step = stepName
		return say(chosen, "enterName")
	case stepName:
		name, err := validateName(text)
		if err != nil {
			return MessageOf(err)
		}
		sess.Data["name"] = name
		sess.Step = stepPhone
		return say(lang(sess), "enterPhone")
	case stepPhone:
		phone, err := validatePhone(text)
		if err != nil {
			return MessageOf(err)
		}
		sess.Data["phone"] = phone
		sess.Step = stepEmail
		return say(lang(sess), "enterEmail")
	}

	email := text
	if isSkip(email) {
		email = ""
	}
	user, token, err := s.users.Register(ctx, RegisterInput{
		Name:     sess.Data["name"],
		Phone:    sess.Data["phone"],
		Email:    email,
		Language: sess.Data["language"],
	})
	if err != nil {
		if KindOf(err) == KindValidation {
			return MessageOf(err)
		}
		reset(sess)
		return s.failure(sess, err) + "\n" + say(lang(sess), "guestMenu")
	}
	s.signIn(sess, user, token)
	return say(lang(sess), "profileCreated") + "\n" + s.menu(sess)
}

func (s *ChatService) login(ctx context.Context, sess *redis.SessionData, text string) string {
	user, token, err := s.users.Login(ctx, text)
	if err != nil {
		if KindOf(err) == KindValidation {
			return MessageOf(err)
		}
		reset(sess)
		return s.failure(sess, err) + "\n" + say(lang(sess), "guestMenu")
	}
	s.signIn(sess, user, token)
	return say(lang(sess), "loggedIn", user.Name) + "\n" + s.menu(sess)
}

func (s *ChatService) signIn(sess *redis.SessionData, user *models.User, token string) {
	sess.UserID = user.ID
	sess.Name = user.Name
	sess.Phone = user.Phone
	sess.Language = string(user.Language)
	sess.Token = token
	reset(sess)
}

func (s *ChatService) order(ctx context.Context, sess *redis.SessionData, text string) string {
	l := lang(sess)
	switch sess.Step {
	case stepItems:
		items, err := parseItems(text)
		if err != nil {
			return say(l, "invalidItems")
		}
		sess.Data["items"] = formatItems(items)
		sess.Step = stepDelivery
		return say(l, "enterDelivery")
	case stepDelivery:
		switch strings.ToLower(text) {
		case "1", models.DeliveryPickup:
			sess.Data["delivery"] = models.DeliveryPickup
			sess.Step = stepPayment
			return say(l, "enterPayment")
		case "2", "home", models.DeliveryHome:
			sess.Data["delivery"] = models.DeliveryHome
			sess.Step = stepAddress
			return say(l, "enterAddress")
		}
		return say(l, "invalidChoice") + "\n" + say(l, "enterDelivery")
	case stepAddress:
		sess.Data["address"] = text
		sess.Step = stepPayment
		return say(l, "enterPayment")
	case stepPayment:
		switch strings.ToUpper(text) {
		case "1", models.PaymentCOD:
			sess.Data["payment"] = models.PaymentCOD
		case "2", models.PaymentUPI:
			sess.Data["payment"] = models.PaymentUPI
		default:
			return say(l, "invalidChoice") + "\n" + say(l, "enterPayment")
		}
		sess.Step = stepNotes
		return say(l, "enterNotes")
	case stepNotes:
		if !isSkip(text) {
			sess.Data["notes"] = text
		}
		sess.Step = stepConfirmOrder
		return say(l, "confirmOrder", s.orderSummary(sess))
	}

	switch {
	case isYes(text):
	case isNo(text):
		reset(sess)
		return say(l, "cancelled")
	default:
		return say(l, "confirmOrder", s.orderSummary(sess))
	}
	items, _ := parseItems(sess.Data["items"])
	actor := models.Actor{ID: sess.UserID, Role: models.RoleUser}
	_, _, err := s.txs.CreateMedicineOrder(ctx, &actor, MedicineOrderInput{
		Medicines:      items,
		DeliveryOption: sess.Data["delivery"],
		Address:        sess.Data["address"],
		PaymentMethod:  sess.Data["payment"],
		Notes:          sess.Data["notes"],
	})
	reset(sess)
	if err != nil {
		return s.failure(sess, err)
	}
	return say(l, "orderPlaced")
}

func (s *ChatService) orderSummary(sess *redis.SessionData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Medicines: %s\n", sess.Data["items"])
	fmt.Fprintf(&b, "Delivery: %s\n", sess.Data["delivery"])
	if addr := sess.Data["address"]; addr != "" {
		fmt.Fprintf(&b, "Address: %s\n", addr)
	}
	fmt.Fprintf(&b, "Payment: %s", sess.Data["payment"])
	if notes := sess.Data["notes"]; notes != "" {
		fmt.Fprintf(&b, "\nNotes: %s", notes)
	}
	return b.String()
}

func (s *ChatService) appointment(ctx context.Context, sess *redis.SessionData, text string) string {
	l := lang(sess)
	switch sess.Step {
	case stepDoctor:
		doctor, ok := s.pickDoctor(text)
		if !ok {
			return say(l, "invalidChoice") + "\n" + say(l, "chooseDoctor", s.doctorList())
		}
		sess.Data["doctor"] = doctor
		sess.Step = stepDate
		return say(l, "enterDate")
	case stepDate:
		date, err := normalizeDate(text)
		if err != nil {
			return MessageOf(err)
		}
		sess.Data["date"] = date
		sess.Step = stepTime
		return say(l, "enterTime")
	case stepTime:
		tm, err := normalizeTime(text)
		if err != nil {
			return MessageOf(err)
		}
		sess.Data["time"] = tm
		if sess.Data["retry"] != "" {
			delete(sess.Data, "retry")
			sess.Step = stepConfirmAppointment
			return say(l, "confirmAppt", s.appointmentSummary(sess))
		}
		sess.Step = stepAge
		return say(l, "enterAge")
	case stepAge:
		age, err := strconv.Atoi(text)
		if err == nil {
			err = validateAge(age)
		} else {
			err = validationErr("Age must be between 1-120")
		}
		if err != nil {
			return MessageOf(err)
		}
		sess.Data["age"] = strconv.Itoa(age)
		sess.Step = stepGender
		return say(l, "enterGender")
	case stepGender:
		g, err := normalizeGender(text)
		if err != nil {
			return MessageOf(err)
		}
		sess.Data["gender"] = g
		sess.Step = stepProblem
		return say(l, "enterProblem")
	case stepProblem:
		sess.Data["problem"] = text
		sess.Step = stepPatient
		return say(l, "enterPatient")
	case stepPatient:
		if !isSkip(text) {
			sess.Data["patient"] = text
		}
		sess.Step = stepConfirmAppointment
		return say(l, "confirmAppt", s.appointmentSummary(sess))
	}

	switch {
	case isYes(text):
	case isNo(text):
		reset(sess)
		return say(l, "cancelled")
	default:
		return say(l, "confirmAppt", s.appointmentSummary(sess))
	}
	age, _ := strconv.Atoi(sess.Data["age"])
	actor := models.Actor{ID: sess.UserID, Role: models.RoleUser}
	t, _, err := s.txs.BookAppointment(ctx, actor, AppointmentInput{
		PatientName: sess.Data["patient"],
		DoctorName:  sess.Data["doctor"],
		Date:        sess.Data["date"],
		Time:        sess.Data["time"],
		Age:         age,
		Gender:      sess.Data["gender"],
		Problem:     sess.Data["problem"],
	})
	var slot *SlotTakenError
	if errors.As(err, &slot) {
		sess.Step = stepTime
		sess.Data["retry"] = "1"
		return say(l, "slotTaken", slot.Requested.Format("15:04"), slot.Suggested.Format("15:04"))
	}
	reset(sess)
	if err != nil {
		return s.failure(sess, err)
	}
	d, _ := t.Appointment()
	return say(l, "apptBooked", d.DoctorName, d.Date, d.Time)
}

func (s *ChatService) appointmentSummary(sess *redis.SessionData) string {
	patient := sess.Data["patient"]
	if patient == "" {
		patient = sess.Name
	}
	return fmt.Sprintf("Doctor: %s\nDate: %s %s\nPatient: %s, %s, %s\nProblem: %s",
		sess.Data["doctor"], sess.Data["date"], sess.Data["time"],
		patient, sess.Data["age"], sess.Data["gender"], sess.Data["problem"])
}

func (s *ChatService) doctorList() string {
	lines := make([]string, 0, len(s.doctors))
	for i, d := range s.doctors {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, d))
	}
	return strings.Join(lines, "\n")
}

func (s *ChatService) pickDoctor(text string) (string, bool) {
	if n, err := strconv.Atoi(text); err == nil {
		if n >= 1 && n <= len(s.doctors) {
			return s.doctors[n-1], true
		}
		return "", false
	}
	for _, d := range s.doctors {
		if strings.EqualFold(d, text) {
			return d, true
		}
	}
	return "", false
}

func (s *ChatService) listMine(ctx context.Context, sess *redis.SessionData, typ models.TransactionType) string {
	l := lang(sess)
	list, err := s.txs.ListMine(ctx, sess.UserID, typ, false)
	if err != nil {
		return s.failure(sess, err)
	}
	if len(list) == 0 {
		if typ == models.TypeAppointment {
			return say(l, "noAppointments")
		}
		return say(l, "noOrders")
	}
	lines := make([]string, 0, len(list))
	for i, t := range list {
		switch d := t.Details.(type) {
		case *models.MedicineDetails:
			lines = append(lines, fmt.Sprintf("%d. %s (%s) %s", i+1, formatItems(d.Medicines), t.Status, t.CreatedAt.Format("2006-01-02")))
		case *models.AppointmentDetails:
			lines = append(lines, fmt.Sprintf("%d. %s, %s %s (%s)", i+1, d.DoctorName, d.Date, d.Time, t.Status))
		}
	}
	return strings.Join(lines, "\n")
}

// failure renders a service error for the chat. Internal errors are logged
// and replaced by a generic message.
func (s *ChatService) failure(sess *redis.SessionData, err error) string {
	if KindOf(err) == KindInternal {
		log.Printf("Chat session %s: %v", sess.SessionID, err)
		return say(lang(sess), "error")
	}
	return MessageOf(err)
}

// parseItems reads "name:qty, name:qty".
func parseItems(text string) ([]models.MedicineItem, error) {
	var items []models.MedicineItem
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		i := strings.LastIndex(part, ":")
		if i < 0 {
			return nil, validationErr("Expected name:quantity")
		}
		items = append(items, models.MedicineItem{Name: part[:i], Quantity: part[i+1:]})
	}
	return normalizeMedicines(items)
}

func formatItems(items []models.MedicineItem) string {
	parts := make([]string, 0, len(items))
	for _, m := range items {
		parts = append(parts, m.Name+":"+m.Quantity)
	}
	return strings.Join(parts, ", ")
}

func isSkip(text string) bool {
	return strings.EqualFold(strings.TrimSpace(text), "skip")
}

func isYes(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "yes", "y", "haan", "ha", "हाँ", "हां":
		return true
	}
	return false
}

func isNo(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "no", "n", "nahi", "नहीं":
		return true
	}
	return false
}
