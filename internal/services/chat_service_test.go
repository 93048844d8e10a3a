package services

import (
	"context"
	"medicine_chatbot/internal/models"
	"medicine_chatbot/internal/redis"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
)

type chatHarness struct {
	*harness
	chat *ChatService
	mr   *miniredis.Miniredis
	id   string
}

func newChatHarness(t *testing.T) *chatHarness {
	t.Helper()
	h := newHarness(t)
	mr := miniredis.RunT(t)
	store := redis.NewClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	chat := NewChatService(store, h.users, h.txs, doctors, 30*time.Minute, func() time.Time { return h.now })
	return &chatHarness{harness: h, chat: chat, mr: mr}
}

func (c *chatHarness) send(t *testing.T, msg string) *ChatReply {
	t.Helper()
	reply, err := c.chat.Handle(context.Background(), c.id, msg)
	if err != nil {
		t.Fatalf("handle %q: %v", msg, err)
	}
	c.id = reply.SessionID
	return reply
}

func (c *chatHarness) expect(t *testing.T, msg, want string) *ChatReply {
	t.Helper()
	reply := c.send(t, msg)
	if !strings.Contains(reply.Reply, want) {
		t.Fatalf("after %q: reply %q does not contain %q", msg, reply.Reply, want)
	}
	return reply
}

func TestChatRegisterAndOrder(t *testing.T) {
	c := newChatHarness(t)

	first := c.expect(t, "hi", "Welcome to Ranjan Medicine")
	if first.SessionID == "" || first.Token != "" {
		t.Fatalf("first reply = %+v", first)
	}
	c.expect(t, "1", say(models.English, "whichLanguage"))
	c.expect(t, "klingon", say(models.English, "invalidLanguage"))
	c.expect(t, "Hindi", say(models.Hindi, "enterName"))
	c.expect(t, "A", "Name must start with a letter")
	c.expect(t, "Asha Patel", say(models.Hindi, "enterPhone"))
	c.expect(t, "98765", "Phone number must be 10 digits")
	c.expect(t, "9876543210", say(models.Hindi, "enterEmail"))
	registered := c.expect(t, "skip", say(models.Hindi, "profileCreated"))
	if registered.Token == "" || registered.Flow != flowIdle {
		t.Fatalf("registered = %+v", registered)
	}

	c.expect(t, "1", say(models.Hindi, "enterItems"))
	c.expect(t, "Paracetamol", say(models.Hindi, "invalidItems"))
	c.expect(t, "Paracetamol:2, ORS:5", say(models.Hindi, "enterDelivery"))
	c.expect(t, "2", say(models.Hindi, "enterAddress"))
	c.expect(t, "12 MG Road", say(models.Hindi, "enterPayment"))
	c.expect(t, "UPI", say(models.Hindi, "enterNotes"))
	c.expect(t, "skip", "Paracetamol:2, ORS:5")
	c.expect(t, "yes", say(models.Hindi, "orderPlaced"))

	u, err := c.users.GetByPhone(context.Background(), "9876543210")
	if err != nil {
		t.Fatalf("user: %v", err)
	}
	if u.Language != models.Hindi {
		t.Errorf("language = %q", u.Language)
	}
	orders, err := c.txs.ListMine(context.Background(), u.ID, models.TypeMedicine, false)
	if err != nil || len(orders) != 1 {
		t.Fatalf("orders = %d, %v", len(orders), err)
	}
	d, _ := orders[0].Medicine()
	if len(d.Medicines) != 2 || d.DeliveryOption != models.DeliveryHome || d.Address != "12 MG Road" || d.PaymentMethod != models.PaymentUPI {
		t.Errorf("order = %+v", d)
	}

	c.expect(t, "3", "Paracetamol:2, ORS:5")
	c.expect(t, "4", say(models.Hindi, "noAppointments"))

	bye := c.send(t, "exit")
	if !bye.Done {
		t.Errorf("exit did not end the session")
	}
	if c.mr.Exists("session:" + c.id) {
		t.Errorf("session still stored after exit")
	}
}

func TestChatAppointmentSlotRetry(t *testing.T) {
	c := newChatHarness(t)
	_, actor := c.register(t, "Asha Patel", "9876543210")
	if _, err := c.book(actor, doctors[0], "2026-10-20", "10:00"); err != nil {
		t.Fatalf("book: %v", err)
	}

	c.send(t, "hi")
	c.expect(t, "2", say(models.English, "enterPhone"))
	c.expect(t, "9876543210", "Welcome back, Asha Patel")

	c.expect(t, "2", doctors[0])
	c.expect(t, "7", say(models.English, "invalidChoice"))
	c.expect(t, "1", say(models.English, "enterDate"))
	c.expect(t, "2026/10/20", "Invalid date")
	c.expect(t, "2026-10-20", say(models.English, "enterTime"))
	c.expect(t, "10:30", say(models.English, "enterAge"))
	c.expect(t, "200", "Age must be between 1-120")
	c.expect(t, "34", say(models.English, "enterGender"))
	c.expect(t, "Female", say(models.English, "enterProblem"))
	c.expect(t, "Fever", say(models.English, "enterPatient"))
	c.expect(t, "Meera", "Patient: Meera, 34, female")
	c.expect(t, "yes", "Suggested next available: 11:30")
	c.expect(t, "11:00", "Date: 2026-10-20 11:00")
	c.expect(t, "yes", "Your appointment is booked with "+doctors[0])

	appts, err := c.txs.ListMine(context.Background(), actor.ID, models.TypeAppointment, false)
	if err != nil || len(appts) != 2 {
		t.Fatalf("appointments = %d, %v", len(appts), err)
	}
	c.expect(t, "4", "11:00")
}

func TestChatGuardsAndCancel(t *testing.T) {
	c := newChatHarness(t)

	c.expect(t, "3", say(models.English, "registerFirst"))
	c.expect(t, "2", say(models.English, "enterPhone"))
	c.expect(t, "9000000000", "User not found. Please register first.")

	c.register(t, "Asha Patel", "9876543210")
	c.expect(t, "login", say(models.English, "enterPhone"))
	c.expect(t, "9876543210", "Welcome back")
	c.expect(t, "something", say(models.English, "unknown"))
	c.expect(t, "contact", "Ranjan Medicine")

	c.expect(t, "1", say(models.English, "enterItems"))
	c.expect(t, "ORS:1", say(models.English, "enterDelivery"))
	c.expect(t, "1", say(models.English, "enterPayment"))
	c.expect(t, "card", say(models.English, "invalidChoice"))
	c.expect(t, "1", say(models.English, "enterNotes"))
	c.expect(t, "none", "Notes: none")
	c.expect(t, "no", say(models.English, "cancelled"))

	u, _ := c.users.GetByPhone(context.Background(), "9876543210")
	orders, _ := c.txs.ListMine(context.Background(), u.ID, models.TypeMedicine, true)
	if len(orders) != 0 {
		t.Errorf("cancelled dialogue created %d orders", len(orders))
	}

	if err := c.chat.End(context.Background(), c.id); err != nil {
		t.Fatalf("end: %v", err)
	}
	fresh := c.send(t, "menu")
	if fresh.Token != "" {
		t.Errorf("ended session kept its token")
	}
}
