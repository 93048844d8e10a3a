package services

import (
	"context"
	"medicine_chatbot/internal/models"
	"medicine_chatbot/internal/repository"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	defaultFeedLimit = 20
	maxFeedLimit     = 100
)

type FeedQuery struct {
	Page      int
	Limit     int
	Type      string
	Status    string
	UserPhone string
	StartDate string
	EndDate   string
}

// FeedRow is one transaction flattened together with its owner.
type FeedRow struct {
	UserID       string    `json:"userId"`
	UserName     string    `json:"userName"`
	UserPhone    string    `json:"userPhone"`
	UserEmail    string    `json:"userEmail"`
	Language     string    `json:"language"`
	OrderID      string    `json:"orderId"`
	Type         string    `json:"type"`
	Status       string    `json:"status"`
	Deleted      bool      `json:"deleted"`
	MedicineName string    `json:"medicineName"`
	Quantity     string    `json:"quantity"`
	Address      string    `json:"address"`
	DoctorName   string    `json:"doctorName"`
	PatientName  string    `json:"patientName"`
	Date         string    `json:"date"`
	Time         string    `json:"time"`
	Age          string    `json:"age"`
	Gender       string    `json:"gender"`
	Problem      string    `json:"problem"`
	Feedback     string    `json:"feedback"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type FeedPage struct {
	TotalOrders int       `json:"totalOrders"`
	Page        int       `json:"page"`
	Limit       int       `json:"limit"`
	Orders      []FeedRow `json:"orders"`
}

type AdminFeedService interface {
	Feed(ctx context.Context, q FeedQuery) (*FeedPage, error)
}

type adminFeedService struct {
	userRepo repository.UserRepository
	now      Clock
}

func NewAdminFeedService(userRepo repository.UserRepository, clock Clock) AdminFeedService {
	if clock == nil {
		clock = defaultClock
	}
	return &adminFeedService{userRepo: userRepo, now: clock}
}

// Feed loads every matching user with all of their transactions and filters
// in memory. Cost grows with the total number of transactions.
func (s *adminFeedService) Feed(ctx context.Context, q FeedQuery) (*FeedPage, error) {
	users, err := s.userRepo.GetAllWithTransactions(ctx, strings.TrimSpace(q.UserPhone))
	if err != nil {
		return nil, internalErr("Error fetching orders", err)
	}
	return BuildFeed(users, q, s.now())
}

// BuildFeed flattens, filters, sorts newest first, then paginates.
func BuildFeed(users []models.User, q FeedQuery, now time.Time) (*FeedPage, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit < 1 {
		limit = defaultFeedLimit
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}

	typ, err := feedType(q.Type)
	if err != nil {
		return nil, err
	}
	status := strings.ToLower(strings.TrimSpace(q.Status))
	if status == "all" {
		status = ""
	}

	var start, end time.Time
	dated := q.StartDate != "" || q.EndDate != ""
	if dated {
		start = time.Unix(0, 0).UTC()
		end = now
		if q.StartDate != "" {
			if start, _, err = parseFeedDate(q.StartDate); err != nil {
				return nil, err
			}
		}
		if q.EndDate != "" {
			var dateOnly bool
			if end, dateOnly, err = parseFeedDate(q.EndDate); err != nil {
				return nil, err
			}
			if dateOnly {
				end = end.Add(24*time.Hour - time.Nanosecond)
			}
		}
	}

	rows := []FeedRow{}
	for i := range users {
		u := &users[i]
		for j := range u.Transactions {
			row := feedRow(u, &u.Transactions[j])
			if typ != "" && row.Type != typ {
				continue
			}
			if status != "" && row.Status != status {
				continue
			}
			if dated && (row.CreatedAt.Before(start) || row.CreatedAt.After(end)) {
				continue
			}
			rows = append(rows, row)
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})

	total := len(rows)
	from := total
	if page-1 < (total+limit-1)/limit {
		from = (page - 1) * limit
	}
	to := from + limit
	if to > total {
		to = total
	}

	return &FeedPage{
		TotalOrders: total,
		Page:        page,
		Limit:       limit,
		Orders:      rows[from:to],
	}, nil
}

func feedType(t string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "", "all":
		return "", nil
	case "order", string(models.TypeMedicine):
		return "order", nil
	case string(models.TypeAppointment):
		return string(models.TypeAppointment), nil
	}
	return "", validationErr("Type must be order, appointment or all")
}

func parseFeedDate(s string) (time.Time, bool, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, true, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, false, nil
	}
	return time.Time{}, false, validationErr("Invalid date %q, expected YYYY-MM-DD or RFC3339", s)
}

func feedRow(u *models.User, t *models.Transaction) FeedRow {
	row := FeedRow{
		UserID:    u.ID,
		UserName:  u.Name,
		UserPhone: u.Phone,
		UserEmail: u.Email,
		Language:  string(u.Language),
		OrderID:   t.ID,
		Type:      string(t.Type()),
		Status:    t.Status,
		Deleted:   t.Deleted,
		Feedback:  t.Feedback,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
	if row.Status == "" {
		row.Status = models.StatusPending
	}
	switch d := t.Details.(type) {
	case *models.MedicineDetails:
		row.Type = "order"
		names := make([]string, len(d.Medicines))
		qtys := make([]string, len(d.Medicines))
		for i, m := range d.Medicines {
			names[i] = m.Name
			qtys[i] = m.Quantity
		}
		row.MedicineName = strings.Join(names, ", ")
		row.Quantity = strings.Join(qtys, ", ")
		row.Address = d.Address
	case *models.AppointmentDetails:
		row.DoctorName = d.DoctorName
		row.PatientName = d.PatientName
		row.Date = d.Date
		row.Time = d.Time
		if d.Age > 0 {
			row.Age = strconv.Itoa(d.Age)
		}
		row.Gender = d.Gender
		row.Problem = d.Problem
	}
	return row
}
