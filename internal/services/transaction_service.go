package services

import (
	"context"
	"errors"
	"log"
	"medicine_chatbot/internal/models"
	"medicine_chatbot/internal/repository"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time

func defaultClock() time.Time {
	return time.Now().UTC()
}

type TransactionConfig struct {
	EditWindow time.Duration
	Doctors    []string
}

type MedicineOrderInput struct {
	// Phone identifies the user when no authenticated actor is given.
	Phone          string
	Medicines      []models.MedicineItem
	DeliveryOption string
	Address        string
	PaymentMethod  string
	Notes          string
}

type AppointmentInput struct {
	PatientName string
	DoctorName  string
	Date        string
	Time        string
	Age         int
	Gender      string
	Problem     string
}

// MedicineOrderPatch holds the fields a partial update may change. Nil means
// unchanged.
type MedicineOrderPatch struct {
	Medicines      []models.MedicineItem
	DeliveryOption *string
	Address        *string
	PaymentMethod  *string
	Notes          *string
}

func (p MedicineOrderPatch) empty() bool {
	return p.Medicines == nil && p.DeliveryOption == nil && p.Address == nil &&
		p.PaymentMethod == nil && p.Notes == nil
}

type AppointmentPatch struct {
	PatientName *string
	DoctorName  *string
	Date        *string
	Time        *string
	Age         *int
	Gender      *string
	Problem     *string
}

func (p AppointmentPatch) empty() bool {
	return p.PatientName == nil && p.DoctorName == nil && p.Date == nil && p.Time == nil &&
		p.Age == nil && p.Gender == nil && p.Problem == nil
}

// AdminEditInput is the admin allow-list. Only the half matching the
// record's type may be set.
type AdminEditInput struct {
	Medicine    MedicineOrderPatch
	Appointment AppointmentPatch
	Status      *string
}

type TransactionService interface {
	CreateMedicineOrder(ctx context.Context, actor *models.Actor, in MedicineOrderInput) (*models.Transaction, *models.User, error)
	BookAppointment(ctx context.Context, actor models.Actor, in AppointmentInput) (*models.Transaction, *models.User, error)
	EditMedicineOrder(ctx context.Context, actor models.Actor, id string, patch MedicineOrderPatch) (*models.Transaction, error)
	EditAppointment(ctx context.Context, actor models.Actor, id string, patch AppointmentPatch) (*models.Transaction, error)
	Cancel(ctx context.Context, actor models.Actor, typ models.TransactionType, userID, id string) (*models.Transaction, error)
	Restore(ctx context.Context, actor models.Actor, typ models.TransactionType, userID, id string) (*models.Transaction, error)
	HardDelete(ctx context.Context, actor models.Actor, typ models.TransactionType, userID, id string) error
	AdminEdit(ctx context.Context, actor models.Actor, userID, id string, in AdminEditInput) (*models.Transaction, error)
	UpdateStatus(ctx context.Context, actor models.Actor, userID, id, status string) (*models.Transaction, error)
	SetFeedback(ctx context.Context, actor models.Actor, userID, id, feedback string) (*models.Transaction, error)
	ListMine(ctx context.Context, userID string, typ models.TransactionType, includeDeleted bool) ([]models.Transaction, error)
	Get(ctx context.Context, actor models.Actor, id string) (*models.Transaction, error)
}

type transactionService struct {
	txRepo   repository.TransactionRepository
	userRepo repository.UserRepository
	notifier *NotificationService
	cfg      TransactionConfig
	now      Clock
}

func NewTransactionService(txRepo repository.TransactionRepository, userRepo repository.UserRepository, notifier *NotificationService, cfg TransactionConfig, clock Clock) TransactionService {
	if clock == nil {
		clock = defaultClock
	}
	return &transactionService{
		txRepo:   txRepo,
		userRepo: userRepo,
		notifier: notifier,
		cfg:      cfg,
		now:      clock,
	}
}

func (s *transactionService) CreateMedicineOrder(ctx context.Context, actor *models.Actor, in MedicineOrderInput) (*models.Transaction, *models.User, error) {
	var user *models.User
	var err error
	switch {
	case actor != nil && actor.IsAdmin():
		return nil, nil, forbiddenErr("Admins cannot place orders")
	case actor != nil:
		user, err = s.userRepo.GetByID(ctx, actor.ID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, unauthorizedErr("User not found. Please login again.")
		}
	case strings.TrimSpace(in.Phone) == "":
		return nil, nil, unauthorizedErr("Not authorized. Please login or provide phone.")
	default:
		user, err = s.userRepo.GetByPhone(ctx, strings.TrimSpace(in.Phone))
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, notFoundErr("User not found. Please register first.")
		}
	}
	if err != nil {
		return nil, nil, internalErr("Failed to load user", err)
	}

	details := &models.MedicineDetails{}
	patch := MedicineOrderPatch{
		Medicines:      in.Medicines,
		DeliveryOption: &in.DeliveryOption,
		Address:        &in.Address,
		PaymentMethod:  &in.PaymentMethod,
		Notes:          &in.Notes,
	}
	if patch.Medicines == nil {
		patch.Medicines = []models.MedicineItem{}
	}
	if err := applyMedicinePatch(details, patch); err != nil {
		return nil, nil, err
	}

	t := s.newTransaction(user.ID, details)
	if err := s.txRepo.Create(ctx, t); err != nil {
		return nil, nil, s.persistErr("create order", err)
	}
	s.notifier.OrderPlaced(user, t)
	return t, user, nil
}

func (s *transactionService) BookAppointment(ctx context.Context, actor models.Actor, in AppointmentInput) (*models.Transaction, *models.User, error) {
	if actor.IsAdmin() {
		return nil, nil, forbiddenErr("Admins cannot book appointments")
	}
	user, err := s.userRepo.GetByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, unauthorizedErr("User not found. Please login again.")
		}
		return nil, nil, internalErr("Failed to load user", err)
	}

	details := &models.AppointmentDetails{}
	patch := AppointmentPatch{
		PatientName: &in.PatientName,
		DoctorName:  &in.DoctorName,
		Date:        &in.Date,
		Time:        &in.Time,
		Age:         &in.Age,
		Gender:      &in.Gender,
		Problem:     &in.Problem,
	}
	if err := s.applyAppointmentPatch(details, patch, user.Name); err != nil {
		return nil, nil, err
	}
	if err := s.checkSlot(ctx, details, ""); err != nil {
		return nil, nil, err
	}

	t := s.newTransaction(user.ID, details)
	if err := s.txRepo.Create(ctx, t); err != nil {
		return nil, nil, s.persistErr("book appointment", err)
	}
	s.notifier.AppointmentBooked(user, t)
	return t, user, nil
}

func (s *transactionService) newTransaction(userID string, d models.Details) *models.Transaction {
	now := s.now()
	return &models.Transaction{
		ID:        uuid.NewString(),
		UserID:    userID,
		Status:    models.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
		History:   []models.AuditEntry{},
		Details:   d,
	}
}

func (s *transactionService) EditMedicineOrder(ctx context.Context, actor models.Actor, id string, patch MedicineOrderPatch) (*models.Transaction, error) {
	t, user, err := s.load(ctx, actor, models.TypeMedicine, "", id)
	if err != nil {
		return nil, err
	}
	if err := s.checkEditable(t); err != nil {
		return nil, err
	}
	if patch.empty() {
		return nil, validationErr("No fields to update")
	}

	next := t.Clone()
	d, _ := next.Medicine()
	before := t.Details.Snapshot()
	if err := applyMedicinePatch(d, patch); err != nil {
		return nil, err
	}
	after := d.Snapshot()

	if err := s.save(ctx, next, actor, models.ActionEdited, before, after); err != nil {
		return nil, err
	}
	s.notifier.Edited(user, next, before, after)
	return next, nil
}

func (s *transactionService) EditAppointment(ctx context.Context, actor models.Actor, id string, patch AppointmentPatch) (*models.Transaction, error) {
	t, user, err := s.load(ctx, actor, models.TypeAppointment, "", id)
	if err != nil {
		return nil, err
	}
	if err := s.checkEditable(t); err != nil {
		return nil, err
	}
	if patch.empty() {
		return nil, validationErr("No fields to update")
	}

	next := t.Clone()
	d, _ := next.Appointment()
	before := t.Details.Snapshot()
	if err := s.applyAppointmentPatch(d, patch, user.Name); err != nil {
		return nil, err
	}
	if patch.DoctorName != nil || patch.Date != nil || patch.Time != nil {
		if err := s.checkSlot(ctx, d, t.ID); err != nil {
			var slot *SlotTakenError
			if errors.As(err, &slot) {
				return nil, &Error{Kind: KindBusinessRule, Message: "Doctor busy at this time. Please choose another slot.", Err: slot}
			}
			return nil, err
		}
	}
	after := d.Snapshot()

	if err := s.save(ctx, next, actor, models.ActionEdited, before, after); err != nil {
		return nil, err
	}
	s.notifier.Edited(user, next, before, after)
	return next, nil
}

func (s *transactionService) checkEditable(t *models.Transaction) error {
	n := noun(t)
	if t.Deleted {
		return businessErr("Cannot edit cancelled %s", strings.ToLower(n))
	}
	if t.Status != models.StatusPending {
		return businessErr("%s cannot be edited: it is no longer pending", n)
	}
	if s.now().Sub(t.CreatedAt) > s.cfg.EditWindow {
		return businessErr("%s cannot be edited: the %d-minute edit window has expired", n, int(s.cfg.EditWindow.Minutes()))
	}
	return nil
}

func (s *transactionService) Cancel(ctx context.Context, actor models.Actor, typ models.TransactionType, userID, id string) (*models.Transaction, error) {
	t, user, err := s.load(ctx, actor, typ, userID, id)
	if err != nil {
		return nil, err
	}
	if t.Deleted {
		return nil, businessErr("%s already cancelled", noun(t))
	}

	next := t.Clone()
	now := s.now()
	by := actor
	next.Status = models.StatusCancelled
	next.Deleted = true
	next.DeletedAt = &now
	next.DeletedBy = &by

	before := map[string]any{"status": t.Status, "deleted": t.Deleted}
	after := map[string]any{"status": next.Status, "deleted": next.Deleted}
	if err := s.save(ctx, next, actor, models.ActionCancelled, before, after); err != nil {
		return nil, err
	}
	s.notifier.Cancelled(user, next)
	return next, nil
}

func (s *transactionService) Restore(ctx context.Context, actor models.Actor, typ models.TransactionType, userID, id string) (*models.Transaction, error) {
	if !actor.IsAdmin() {
		return nil, forbiddenErr("Admin access required")
	}
	t, user, err := s.load(ctx, actor, typ, userID, id)
	if err != nil {
		return nil, err
	}
	if !t.Deleted {
		return nil, businessErr("%s is not cancelled", noun(t))
	}

	next := t.Clone()
	next.Status = models.StatusPending
	next.Deleted = false
	next.DeletedAt = nil
	next.DeletedBy = nil

	before := map[string]any{"status": t.Status, "deleted": t.Deleted}
	after := map[string]any{"status": next.Status, "deleted": next.Deleted}
	if err := s.save(ctx, next, actor, models.ActionRestored, before, after); err != nil {
		return nil, err
	}
	s.notifier.Restored(user, next)
	return next, nil
}

func (s *transactionService) HardDelete(ctx context.Context, actor models.Actor, typ models.TransactionType, userID, id string) error {
	if !actor.IsAdmin() {
		return forbiddenErr("Admin access required")
	}
	t, user, err := s.load(ctx, actor, typ, userID, id)
	if err != nil {
		return err
	}
	if err := s.txRepo.Delete(ctx, t.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundErr("%s not found", noun(t))
		}
		return s.persistErr("delete "+strings.ToLower(noun(t)), err)
	}
	s.notifier.HardDeleted(user, t, actor)
	return nil
}

func (s *transactionService) AdminEdit(ctx context.Context, actor models.Actor, userID, id string, in AdminEditInput) (*models.Transaction, error) {
	if !actor.IsAdmin() {
		return nil, forbiddenErr("Admin access required")
	}
	t, user, err := s.load(ctx, actor, "", userID, id)
	if err != nil {
		return nil, err
	}

	next := t.Clone()
	switch d := next.Details.(type) {
	case *models.MedicineDetails:
		if !in.Appointment.empty() {
			return nil, validationErr("Appointment fields cannot be set on a medicine order")
		}
		if in.Medicine.empty() && in.Status == nil {
			return nil, validationErr("No fields to update")
		}
		if !in.Medicine.empty() {
			if err := applyMedicinePatch(d, in.Medicine); err != nil {
				return nil, err
			}
		}
	case *models.AppointmentDetails:
		if !in.Medicine.empty() {
			return nil, validationErr("Medicine order fields cannot be set on an appointment")
		}
		if in.Appointment.empty() && in.Status == nil {
			return nil, validationErr("No fields to update")
		}
		if !in.Appointment.empty() {
			if err := s.applyAppointmentPatch(d, in.Appointment, user.Name); err != nil {
				return nil, err
			}
		}
	}
	if in.Status != nil {
		status, err := normalizeStatus(*in.Status)
		if err != nil {
			return nil, err
		}
		if next.Deleted && !models.IsCancellation(status) {
			return nil, businessErr("Restore the %s before changing its status", strings.ToLower(noun(t)))
		}
		next.Status = status
	}

	if err := s.save(ctx, next, actor, models.ActionEditedByAdmin, t.Snapshot(), next.Snapshot()); err != nil {
		return nil, err
	}
	s.notifier.EditedByAdmin(user, next)
	return next, nil
}

func (s *transactionService) UpdateStatus(ctx context.Context, actor models.Actor, userID, id, status string) (*models.Transaction, error) {
	if !actor.IsAdmin() {
		return nil, forbiddenErr("Admin access required")
	}
	status, err := normalizeStatus(status)
	if err != nil {
		return nil, err
	}
	t, user, err := s.load(ctx, actor, "", userID, id)
	if err != nil {
		return nil, err
	}
	if t.Deleted && !models.IsCancellation(status) {
		return nil, businessErr("Restore the %s before changing its status", strings.ToLower(noun(t)))
	}

	next := t.Clone()
	next.Status = status
	before := map[string]any{"status": t.Status}
	after := map[string]any{"status": next.Status}
	if err := s.save(ctx, next, actor, models.ActionEdited, before, after); err != nil {
		return nil, err
	}
	s.notifier.StatusChanged(user, next)
	return next, nil
}

func (s *transactionService) SetFeedback(ctx context.Context, actor models.Actor, userID, id, feedback string) (*models.Transaction, error) {
	t, _, err := s.load(ctx, actor, "", userID, id)
	if err != nil {
		return nil, err
	}

	next := t.Clone()
	next.Feedback = strings.TrimSpace(feedback)
	before := map[string]any{"feedback": t.Feedback}
	after := map[string]any{"feedback": next.Feedback}
	if err := s.save(ctx, next, actor, models.ActionFeedbackUpdated, before, after); err != nil {
		return nil, err
	}
	return next, nil
}

func (s *transactionService) ListMine(ctx context.Context, userID string, typ models.TransactionType, includeDeleted bool) ([]models.Transaction, error) {
	all, err := s.txRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, internalErr("Failed to load orders", err)
	}
	out := make([]models.Transaction, 0, len(all))
	for _, t := range all {
		if typ != "" && t.Type() != typ {
			continue
		}
		if t.Deleted && !includeDeleted {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *transactionService) Get(ctx context.Context, actor models.Actor, id string) (*models.Transaction, error) {
	t, _, err := s.load(ctx, actor, "", "", id)
	return t, err
}

// load fetches a transaction and its owner. Users only see their own
// records; a mismatched type or owner reads as not found.
func (s *transactionService) load(ctx context.Context, actor models.Actor, typ models.TransactionType, userID, id string) (*models.Transaction, *models.User, error) {
	missing := notFoundErr("Order not found")
	if typ == models.TypeAppointment {
		missing = notFoundErr("Appointment not found")
	}

	t, err := s.txRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, missing
		}
		return nil, nil, internalErr("Failed to load order", err)
	}
	if typ != "" && t.Type() != typ {
		return nil, nil, missing
	}
	if userID != "" && t.UserID != userID {
		return nil, nil, missing
	}
	if !actor.IsAdmin() && t.UserID != actor.ID {
		return nil, nil, missing
	}

	user, err := s.userRepo.GetByID(ctx, t.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, notFoundErr("User not found")
		}
		return nil, nil, internalErr("Failed to load user", err)
	}
	return t, user, nil
}

// save persists next together with one audit entry.
func (s *transactionService) save(ctx context.Context, next *models.Transaction, actor models.Actor, action models.AuditAction, before, after map[string]any) error {
	now := s.now()
	next.UpdatedAt = now
	entry := models.NewAuditEntry(actor, action, now, before, after)
	if err := s.txRepo.Update(ctx, next, &entry); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundErr("%s not found", noun(next))
		}
		return s.persistErr("save "+strings.ToLower(noun(next)), err)
	}
	return nil
}

func (s *transactionService) persistErr(op string, err error) error {
	log.Printf("Failed to %s: %v", op, err)
	return internalErr("Failed to "+op, err)
}

func applyMedicinePatch(d *models.MedicineDetails, p MedicineOrderPatch) error {
	if p.Medicines != nil {
		items, err := normalizeMedicines(p.Medicines)
		if err != nil {
			return err
		}
		d.Medicines = items
	}
	if p.DeliveryOption != nil {
		opt, err := normalizeDelivery(*p.DeliveryOption)
		if err != nil {
			return err
		}
		d.DeliveryOption = opt
	}
	if p.Address != nil {
		d.Address = strings.TrimSpace(*p.Address)
	}
	if p.PaymentMethod != nil {
		pay, err := normalizePayment(*p.PaymentMethod)
		if err != nil {
			return err
		}
		d.PaymentMethod = pay
	}
	if p.Notes != nil {
		d.Notes = strings.TrimSpace(*p.Notes)
	}

	switch d.DeliveryOption {
	case models.DeliveryHome:
		if d.Address == "" {
			return validationErr("Address is required for home delivery")
		}
	default:
		d.DeliveryOption = models.DeliveryPickup
		d.Address = ""
	}
	return nil
}

func (s *transactionService) applyAppointmentPatch(d *models.AppointmentDetails, p AppointmentPatch, accountName string) error {
	if p.DoctorName != nil {
		if !s.knownDoctor(*p.DoctorName) {
			return validationErr("Invalid doctor selected. Please choose from: %s", strings.Join(s.cfg.Doctors, ", "))
		}
		d.DoctorName = *p.DoctorName
	}
	if p.Date != nil {
		date, err := normalizeDate(*p.Date)
		if err != nil {
			return err
		}
		d.Date = date
	}
	if p.Time != nil {
		tm, err := normalizeTime(*p.Time)
		if err != nil {
			return err
		}
		d.Time = tm
	}
	if p.Age != nil {
		if err := validateAge(*p.Age); err != nil {
			return err
		}
		d.Age = *p.Age
	}
	if p.Gender != nil {
		g, err := normalizeGender(*p.Gender)
		if err != nil {
			return err
		}
		d.Gender = g
	}
	if p.Problem != nil {
		d.Problem = strings.TrimSpace(*p.Problem)
	}
	if p.PatientName != nil {
		d.PatientName = strings.TrimSpace(*p.PatientName)
	}
	if d.PatientName == "" {
		d.PatientName = accountName
	}
	return nil
}

func (s *transactionService) knownDoctor(name string) bool {
	for _, d := range s.cfg.Doctors {
		if d == name {
			return true
		}
	}
	return false
}

// checkSlot rejects a booking that starts less than an hour before or after
// any other appointment with the same doctor.
func (s *transactionService) checkSlot(ctx context.Context, d *models.AppointmentDetails, excludeID string) error {
	requested, err := d.StartsAt(time.UTC)
	if err != nil {
		return validationErr("Invalid appointment date or time")
	}
	booked, err := s.txRepo.GetAppointmentsByDoctor(ctx, d.DoctorName)
	if err != nil {
		return internalErr("Failed to check doctor availability", err)
	}
	for _, b := range booked {
		if b.ID == excludeID {
			continue
		}
		other, ok := b.Appointment()
		if !ok || other.DoctorName != d.DoctorName {
			continue
		}
		start, err := other.StartsAt(time.UTC)
		if err != nil {
			continue
		}
		gap := start.Sub(requested)
		if gap < 0 {
			gap = -gap
		}
		if gap < time.Hour {
			return &SlotTakenError{
				Doctor:    d.DoctorName,
				Requested: requested,
				Suggested: requested.Add(time.Hour),
			}
		}
	}
	return nil
}
