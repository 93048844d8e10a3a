package services

import (
	"context"
	"fmt"
	"medicine_chatbot/internal/models"
	"testing"
	"time"
)

func feedUsers(base time.Time) []models.User {
	asha := models.User{ID: "u1", Name: "Asha Patel", Phone: "9876543210", Language: models.English}
	ravi := models.User{ID: "u2", Name: "Ravi Kumar", Phone: "9123456780", Language: models.Hindi}
	for i := 0; i < 23; i++ {
		tx := models.Transaction{
			ID:        fmt.Sprintf("tx-%02d", i),
			Status:    models.StatusPending,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if i%3 == 0 {
			tx.Details = &models.AppointmentDetails{DoctorName: doctors[0], Date: "2026-10-20", Time: "10:00", Age: 40, Gender: "male"}
		} else {
			tx.Details = &models.MedicineDetails{Medicines: []models.MedicineItem{{Name: "ORS", Quantity: "1"}, {Name: "Zinc", Quantity: "2"}}, DeliveryOption: models.DeliveryPickup}
		}
		if i == 5 {
			tx.Status = models.StatusDelivered
		}
		if i%2 == 0 {
			tx.UserID = asha.ID
			asha.Transactions = append(asha.Transactions, tx)
		} else {
			tx.UserID = ravi.ID
			ravi.Transactions = append(ravi.Transactions, tx)
		}
	}
	return []models.User{asha, ravi}
}

func TestBuildFeedPagination(t *testing.T) {
	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	users := feedUsers(base)
	now := base.Add(48 * time.Hour)

	first, err := BuildFeed(users, FeedQuery{}, now)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if first.TotalOrders != 23 || first.Page != 1 || first.Limit != 20 || len(first.Orders) != 20 {
		t.Fatalf("page 1 = total %d page %d limit %d rows %d", first.TotalOrders, first.Page, first.Limit, len(first.Orders))
	}
	if first.Orders[0].OrderID != "tx-22" {
		t.Errorf("newest first: got %s", first.Orders[0].OrderID)
	}
	for i := 1; i < len(first.Orders); i++ {
		if first.Orders[i].CreatedAt.After(first.Orders[i-1].CreatedAt) {
			t.Fatalf("rows out of order at %d", i)
		}
	}

	second, err := BuildFeed(users, FeedQuery{Page: 2, Limit: 20}, now)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if len(second.Orders) != 3 || second.TotalOrders != 23 {
		t.Errorf("page 2 = %d rows of %d", len(second.Orders), second.TotalOrders)
	}

	beyond, _ := BuildFeed(users, FeedQuery{Page: 9}, now)
	if len(beyond.Orders) != 0 {
		t.Errorf("page 9 = %d rows", len(beyond.Orders))
	}

	huge, err := BuildFeed(users, FeedQuery{Page: 1 << 62, Limit: 20}, now)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if len(huge.Orders) != 0 || huge.TotalOrders != 23 {
		t.Errorf("page 1<<62 = %d rows of %d", len(huge.Orders), huge.TotalOrders)
	}

	empty, _ := BuildFeed(nil, FeedQuery{Page: 3}, now)
	if len(empty.Orders) != 0 || empty.TotalOrders != 0 {
		t.Errorf("empty feed = %d rows of %d", len(empty.Orders), empty.TotalOrders)
	}

	capped, _ := BuildFeed(users, FeedQuery{Limit: 500}, now)
	if capped.Limit != 100 {
		t.Errorf("limit = %d", capped.Limit)
	}
}

func TestBuildFeedFilters(t *testing.T) {
	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	users := feedUsers(base)
	now := base.Add(48 * time.Hour)

	tests := []struct {
		name  string
		query FeedQuery
		want  int
	}{
		{"appointments", FeedQuery{Type: "appointment"}, 8},
		{"orders", FeedQuery{Type: "order"}, 15},
		{"medicine alias", FeedQuery{Type: "medicine"}, 15},
		{"all types", FeedQuery{Type: "all", Status: "all"}, 23},
		{"delivered", FeedQuery{Status: "Delivered"}, 1},
		{"date only end is inclusive", FeedQuery{StartDate: "2026-10-01", EndDate: "2026-10-01"}, 23},
		{"rfc3339 window", FeedQuery{StartDate: "2026-10-01T05:00:00Z", EndDate: "2026-10-01T09:00:00Z"}, 5},
		{"start only", FeedQuery{StartDate: "2026-10-01T20:00:00Z"}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := BuildFeed(users, tt.query, now)
			if err != nil {
				t.Fatalf("feed: %v", err)
			}
			if page.TotalOrders != tt.want {
				t.Errorf("total = %d, want %d", page.TotalOrders, tt.want)
			}
		})
	}

	_, err := BuildFeed(users, FeedQuery{Type: "refund"}, now)
	wantKind(t, err, KindValidation)
	_, err = BuildFeed(users, FeedQuery{StartDate: "yesterday"}, now)
	wantKind(t, err, KindValidation)
}

func TestBuildFeedRow(t *testing.T) {
	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	page, err := BuildFeed(feedUsers(base), FeedQuery{Limit: 100}, base.Add(48*time.Hour))
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	rows := map[string]FeedRow{}
	for _, r := range page.Orders {
		rows[r.OrderID] = r
	}
	appt := rows["tx-00"]
	if appt.Type != "appointment" || appt.DoctorName != doctors[0] || appt.Age != "40" || appt.UserPhone != "9876543210" {
		t.Errorf("appointment row = %+v", appt)
	}
	order := rows["tx-01"]
	if order.Type != "order" || order.UserName != "Ravi Kumar" || order.MedicineName == "" {
		t.Errorf("order row = %+v", order)
	}
}

func TestFeedService(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, asha := h.register(t, "Asha Patel", "9876543210")
	_, ravi := h.register(t, "Ravi Kumar", "9123456780")
	h.order(t, asha)
	h.now = h.now.Add(time.Minute)
	h.order(t, ravi)

	page, err := h.feed.Feed(ctx, FeedQuery{})
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if page.TotalOrders != 2 || page.Orders[0].UserName != "Ravi Kumar" {
		t.Errorf("feed = %+v", page)
	}

	page, err = h.feed.Feed(ctx, FeedQuery{UserPhone: "9876543210"})
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if page.TotalOrders != 1 || page.Orders[0].UserPhone != "9876543210" {
		t.Errorf("filtered feed = %+v", page)
	}
}
