package test

import (
	"context"
	"sync"
	"time"

	domainErrors "github.com/vkruglov/coursepay/internal/domain/errors"
	"github.com/vkruglov/coursepay/internal/domain/model"
)

// UserRepositoryStub stores users in-memory for tests.
type UserRepositoryStub struct {
	Users map[string]*model.User
	ByID  map[int64]*model.User
	Next  int64
	Err   error
}

// NewUserRepositoryStub constructs stub repository with initialized maps.
func NewUserRepositoryStub() *UserRepositoryStub {
	return &UserRepositoryStub{
		Users: make(map[string]*model.User),
		ByID:  make(map[int64]*model.User),
		Next:  1,
	}
}

// Create registers user unless already exists or stub has explicit error.
func (s *UserRepositoryStub) Create(ctx context.Context, login, passwordHash string) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Users == nil {
		s.Users = make(map[string]*model.User)
	}
	if s.ByID == nil {
		s.ByID = make(map[int64]*model.User)
	}
	if _, exists := s.Users[login]; exists {
		return nil, domainErrors.ErrAlreadyExists
	}
	if s.Next == 0 {
		s.Next = 1
	}
	user := &model.User{ID: s.Next, Login: login, PasswordHash: passwordHash}
	s.Next++
	s.Users[login] = user
	s.ByID[user.ID] = user
	return user, nil
}

// GetByLogin fetches user by login or returns not found.
func (s *UserRepositoryStub) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if user, ok := s.Users[login]; ok {
		return user, nil
	}
	return nil, domainErrors.ErrNotFound
}

// GetByID fetches user by identifier or returns not found.
func (s *UserRepositoryStub) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if user, ok := s.ByID[id]; ok {
		return user, nil
	}
	return nil, domainErrors.ErrNotFound
}

// CourseRepositoryStub serves a fixed course catalog.
type CourseRepositoryStub struct {
	GetByIDFn func(context.Context, int64) (*model.Course, error)
	ListFn    func(context.Context) ([]model.Course, error)
	RecountFn func(context.Context, int64) (int64, error)
	Courses   []model.Course
}

// GetByID returns the matching course from the configured catalog.
func (s *CourseRepositoryStub) GetByID(ctx context.Context, id int64) (*model.Course, error) {
	if s.GetByIDFn != nil {
		return s.GetByIDFn(ctx, id)
	}
	for _, c := range s.Courses {
		if c.ID == id {
			course := c
			return &course, nil
		}
	}
	return nil, domainErrors.ErrCourseNotFound
}

// List returns the configured catalog.
func (s *CourseRepositoryStub) List(ctx context.Context) ([]model.Course, error) {
	if s.ListFn != nil {
		return s.ListFn(ctx)
	}
	return s.Courses, nil
}

// Recount delegates to the override or returns the stored total.
func (s *CourseRepositoryStub) Recount(ctx context.Context, id int64) (int64, error) {
	if s.RecountFn != nil {
		return s.RecountFn(ctx, id)
	}
	course, err := s.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	return course.TotalEnrolled, nil
}

// OrderRepositoryStub allows tests to customize behaviour.
type OrderRepositoryStub struct {
	CreateFn              func(context.Context, *model.Order) error
	GetByIDFn             func(context.Context, string) (*model.Order, error)
	ListByUserFn          func(context.Context, int64) ([]model.Order, error)
	MarkVerifiedFn        func(context.Context, string, string, string) (bool, error)
	MarkTerminalFn        func(context.Context, string, model.OrderStatus, string) (bool, error)
	ExpireStaleFn         func(context.Context) (int64, error)
	SelectVerifiedBatchFn func(context.Context, time.Time, int) ([]model.Order, error)

	mu            sync.Mutex
	Orders        map[string]*model.Order
	TerminalCalls []TerminalCall
}

// TerminalCall records a MarkTerminal invocation.
type TerminalCall struct {
	OrderID string
	Status  model.OrderStatus
	Reason  string
}

// NewOrderRepositoryStub constructs a stub with an initialized order map.
func NewOrderRepositoryStub(orders ...*model.Order) *OrderRepositoryStub {
	s := &OrderRepositoryStub{Orders: make(map[string]*model.Order)}
	for _, o := range orders {
		s.Orders[o.ID] = o
	}
	return s
}

// Create stores the order or delegates to the override.
func (s *OrderRepositoryStub) Create(ctx context.Context, order *model.Order) error {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, order)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Orders == nil {
		s.Orders = make(map[string]*model.Order)
	}
	if _, exists := s.Orders[order.ID]; exists {
		return domainErrors.ErrAlreadyExists
	}
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now
	s.Orders[order.ID] = order
	return nil
}

// GetByID returns a copy of the stored order.
func (s *OrderRepositoryStub) GetByID(ctx context.Context, orderID string) (*model.Order, error) {
	if s.GetByIDFn != nil {
		return s.GetByIDFn(ctx, orderID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.Orders[orderID]; ok {
		order := *o
		return &order, nil
	}
	return nil, domainErrors.ErrOrderNotFound
}

// ListByUser returns all stored orders for the user.
func (s *OrderRepositoryStub) ListByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	if s.ListByUserFn != nil {
		return s.ListByUserFn(ctx, userID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []model.Order
	for _, o := range s.Orders {
		if o.UserID == userID {
			result = append(result, *o)
		}
	}
	return result, nil
}

// MarkVerified applies the status flip against the in-memory state.
func (s *OrderRepositoryStub) MarkVerified(ctx context.Context, orderID, paymentID, signature string) (bool, error) {
	if s.MarkVerifiedFn != nil {
		return s.MarkVerifiedFn(ctx, orderID, paymentID, signature)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.Orders[orderID]
	if !ok || !o.Verifiable() {
		return false, nil
	}
	o.Status = model.OrderStatusVerified
	o.PaymentID = &paymentID
	o.Signature = &signature
	o.UpdatedAt = time.Now()
	return true, nil
}

// MarkTerminal applies the terminal flip against the in-memory state.
func (s *OrderRepositoryStub) MarkTerminal(ctx context.Context, orderID string, status model.OrderStatus, reason string) (bool, error) {
	if s.MarkTerminalFn != nil {
		return s.MarkTerminalFn(ctx, orderID, status, reason)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.TerminalCalls = append(s.TerminalCalls, TerminalCall{OrderID: orderID, Status: status, Reason: reason})
	o, ok := s.Orders[orderID]
	if !ok || !o.Verifiable() {
		return false, nil
	}
	o.Status = status
	if reason != "" {
		o.FailReason = &reason
	}
	now := time.Now()
	o.CompletedAt = &now
	o.UpdatedAt = now
	return true, nil
}

// ExpireStale flips past-deadline payable orders to EXPIRED.
func (s *OrderRepositoryStub) ExpireStale(ctx context.Context) (int64, error) {
	if s.ExpireStaleFn != nil {
		return s.ExpireStaleFn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var expired int64
	now := time.Now()
	for _, o := range s.Orders {
		if o.Verifiable() && !o.ExpiresAt.After(now) {
			o.Status = model.OrderStatusExpired
			o.UpdatedAt = now
			expired++
		}
	}
	return expired, nil
}

// SelectVerifiedBatch returns stored VERIFIED orders older than the cutoff.
func (s *OrderRepositoryStub) SelectVerifiedBatch(ctx context.Context, olderThan time.Time, limit int) ([]model.Order, error) {
	if s.SelectVerifiedBatchFn != nil {
		return s.SelectVerifiedBatchFn(ctx, olderThan, limit)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []model.Order
	for _, o := range s.Orders {
		if o.Status == model.OrderStatusVerified && !o.UpdatedAt.After(olderThan) && len(result) < limit {
			result = append(result, *o)
		}
	}
	return result, nil
}

// EnrollmentRepositoryStub tracks enrollments keyed by user and course.
type EnrollmentRepositoryStub struct {
	CommitFn          func(context.Context, string, int64, int64) (*model.Enrollment, int64, bool, error)
	GetByOrderFn      func(context.Context, string) (*model.Enrollment, error)
	GetByUserCourseFn func(context.Context, int64, int64) (*model.Enrollment, error)
	CountByCourseFn   func(context.Context, int64) (int64, error)

	mu          sync.Mutex
	Enrollments []*model.Enrollment
	Next        int64
	CommitCalls int
}

// Commit inserts an enrollment unless the pair is already enrolled.
func (s *EnrollmentRepositoryStub) Commit(ctx context.Context, orderID string, userID, courseID int64) (*model.Enrollment, int64, bool, error) {
	s.mu.Lock()
	s.CommitCalls++
	s.mu.Unlock()
	if s.CommitFn != nil {
		return s.CommitFn(ctx, orderID, userID, courseID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.Enrollments {
		if e.UserID == userID && e.CourseID == courseID {
			total := s.countLocked(courseID)
			enrollment := *e
			return &enrollment, total, false, nil
		}
	}
	if s.Next == 0 {
		s.Next = 1
	}
	enrollment := &model.Enrollment{
		ID:            s.Next,
		UserID:        userID,
		CourseID:      courseID,
		SourceOrderID: orderID,
		EnrolledAt:    time.Now(),
	}
	s.Next++
	s.Enrollments = append(s.Enrollments, enrollment)
	result := *enrollment
	return &result, s.countLocked(courseID), true, nil
}

// GetByOrder finds the enrollment created by the given order.
func (s *EnrollmentRepositoryStub) GetByOrder(ctx context.Context, orderID string) (*model.Enrollment, error) {
	if s.GetByOrderFn != nil {
		return s.GetByOrderFn(ctx, orderID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.Enrollments {
		if e.SourceOrderID == orderID {
			enrollment := *e
			return &enrollment, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

// GetByUserCourse finds the enrollment for the user/course pair.
func (s *EnrollmentRepositoryStub) GetByUserCourse(ctx context.Context, userID, courseID int64) (*model.Enrollment, error) {
	if s.GetByUserCourseFn != nil {
		return s.GetByUserCourseFn(ctx, userID, courseID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.Enrollments {
		if e.UserID == userID && e.CourseID == courseID {
			enrollment := *e
			return &enrollment, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

// CountByCourse counts stored enrollments for the course.
func (s *EnrollmentRepositoryStub) CountByCourse(ctx context.Context, courseID int64) (int64, error) {
	if s.CountByCourseFn != nil {
		return s.CountByCourseFn(ctx, courseID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countLocked(courseID), nil
}

func (s *EnrollmentRepositoryStub) countLocked(courseID int64) int64 {
	var count int64
	for _, e := range s.Enrollments {
		if e.CourseID == courseID {
			count++
		}
	}
	return count
}
