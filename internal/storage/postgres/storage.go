package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/vkruglov/coursepay/internal/domain/errors"
	"github.com/vkruglov/coursepay/internal/domain/model"
	"github.com/vkruglov/coursepay/internal/domain/repository"
)

const uniqueViolationCode = "23505"

// pgxPool is the subset of pgxpool.Pool the storage relies on. Keeping it
// as an interface lets tests substitute a mock pool.
type pgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

var newPgxPool = func(ctx context.Context, cfg *pgxpool.Config) (pgxPool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

// Storage acts as repository facade backed by PostgreSQL.
type Storage struct {
	pool   pgxPool
	logger *slog.Logger
}

type userRepository struct {
	storage *Storage
}

type courseRepository struct {
	storage *Storage
}

type orderRepository struct {
	storage *Storage
}

type enrollmentRepository struct {
	storage *Storage
}

// New creates storage with schema initialization.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pool, logger: logger}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Factory methods for domain repositories.
func (s *Storage) Users() repository.UserRepository {
	return &userRepository{storage: s}
}

func (s *Storage) Courses() repository.CourseRepository {
	return &courseRepository{storage: s}
}

func (s *Storage) Orders() repository.OrderRepository {
	return &orderRepository{storage: s}
}

func (s *Storage) Enrollments() repository.EnrollmentRepository {
	return &enrollmentRepository{storage: s}
}

func (s *Storage) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id SERIAL PRIMARY KEY,
            login TEXT UNIQUE NOT NULL,
            password_hash TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS courses (
            id SERIAL PRIMARY KEY,
            title TEXT NOT NULL,
            price BIGINT NOT NULL,
            currency TEXT NOT NULL,
            total_enrolled BIGINT NOT NULL DEFAULT 0,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS orders (
            order_id TEXT PRIMARY KEY,
            user_id BIGINT NOT NULL REFERENCES users(id),
            course_id BIGINT NOT NULL REFERENCES courses(id),
            amount BIGINT NOT NULL,
            currency TEXT NOT NULL,
            status TEXT NOT NULL,
            payment_id TEXT,
            signature TEXT,
            fail_reason TEXT,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            expires_at TIMESTAMPTZ NOT NULL,
            completed_at TIMESTAMPTZ
        )`,
		`CREATE TABLE IF NOT EXISTS enrollments (
            id SERIAL PRIMARY KEY,
            user_id BIGINT NOT NULL REFERENCES users(id),
            course_id BIGINT NOT NULL REFERENCES courses(id),
            source_order_id TEXT NOT NULL REFERENCES orders(order_id),
            enrolled_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            UNIQUE (user_id, course_id)
        )`,
		`CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_sweep ON orders(status, expires_at)`,
		`CREATE INDEX IF NOT EXISTS idx_enrollments_course ON enrollments(course_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	return nil
}

// --- UserRepository implementation ---

func (r *userRepository) Create(ctx context.Context, login, passwordHash string) (*model.User, error) {
	const query = `INSERT INTO users (login, password_hash) VALUES ($1, $2) RETURNING id, created_at`
	var u model.User
	err := r.storage.pool.QueryRow(ctx, query, login, passwordHash).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return nil, domainErrors.ErrAlreadyExists
		}
		return nil, err
	}
	u.Login = login
	u.PasswordHash = passwordHash
	return &u, nil
}

func (r *userRepository) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	const query = `SELECT id, login, password_hash, created_at FROM users WHERE login=$1`
	var u model.User
	err := r.storage.pool.QueryRow(ctx, query, login).Scan(&u.ID, &u.Login, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	const query = `SELECT id, login, password_hash, created_at FROM users WHERE id=$1`
	var u model.User
	err := r.storage.pool.QueryRow(ctx, query, id).Scan(&u.ID, &u.Login, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// --- CourseRepository implementation ---

func (r *courseRepository) GetByID(ctx context.Context, id int64) (*model.Course, error) {
	const query = `SELECT id, title, price, currency, total_enrolled, created_at FROM courses WHERE id=$1`
	var c model.Course
	err := r.storage.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.Title, &c.Price, &c.Currency, &c.TotalEnrolled, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrCourseNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *courseRepository) List(ctx context.Context) ([]model.Course, error) {
	const query = `SELECT id, title, price, currency, total_enrolled, created_at FROM courses ORDER BY id`
	rows, err := r.storage.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Course
	for rows.Next() {
		var c model.Course
		if err := rows.Scan(&c.ID, &c.Title, &c.Price, &c.Currency, &c.TotalEnrolled, &c.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *courseRepository) Recount(ctx context.Context, courseID int64) (int64, error) {
	const query = `UPDATE courses
                   SET total_enrolled = (SELECT COUNT(*) FROM enrollments WHERE course_id=$1)
                   WHERE id=$1
                   RETURNING total_enrolled`
	var total int64
	err := r.storage.pool.QueryRow(ctx, query, courseID).Scan(&total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domainErrors.ErrCourseNotFound
		}
		return 0, err
	}
	return total, nil
}

// --- OrderRepository implementation ---

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	const query = `INSERT INTO orders (order_id, user_id, course_id, amount, currency, status, expires_at)
                   VALUES ($1, $2, $3, $4, $5, $6, $7)
                   RETURNING created_at, updated_at`
	err := r.storage.pool.QueryRow(ctx, query,
		order.ID, order.UserID, order.CourseID, order.Amount, order.Currency, order.Status, order.ExpiresAt,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return domainErrors.ErrAlreadyExists
		}
		return err
	}
	return nil
}

const orderColumns = `order_id, user_id, course_id, amount, currency, status,
                      payment_id, signature, fail_reason, created_at, updated_at, expires_at, completed_at`

func scanOrder(row pgx.Row, o *model.Order) error {
	return row.Scan(&o.ID, &o.UserID, &o.CourseID, &o.Amount, &o.Currency, &o.Status,
		&o.PaymentID, &o.Signature, &o.FailReason, &o.CreatedAt, &o.UpdatedAt, &o.ExpiresAt, &o.CompletedAt)
}

func (r *orderRepository) GetByID(ctx context.Context, orderID string) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_id=$1`
	var o model.Order
	if err := scanOrder(r.storage.pool.QueryRow(ctx, query, orderID), &o); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrOrderNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id=$1 ORDER BY created_at DESC`
	rows, err := r.storage.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Order
	for rows.Next() {
		var o model.Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// MarkVerified is the optimistic compare-and-set arbitrating concurrent
// resolvers: only the caller that flips the status owns the enrollment
// attempt.
func (r *orderRepository) MarkVerified(ctx context.Context, orderID, paymentID, signature string) (bool, error) {
	const query = `UPDATE orders
                   SET status=$2, payment_id=$3, signature=$4, updated_at=NOW()
                   WHERE order_id=$1 AND status IN ('CREATED', 'VERIFYING')`
	tag, err := r.storage.pool.Exec(ctx, query, orderID, model.OrderStatusVerified, paymentID, signature)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *orderRepository) MarkTerminal(ctx context.Context, orderID string, status model.OrderStatus, reason string) (bool, error) {
	const query = `UPDATE orders
                   SET status=$2, fail_reason=NULLIF($3, ''), completed_at=NOW(), updated_at=NOW()
                   WHERE order_id=$1 AND status IN ('CREATED', 'VERIFYING')`
	tag, err := r.storage.pool.Exec(ctx, query, orderID, status, reason)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *orderRepository) ExpireStale(ctx context.Context) (int64, error) {
	const query = `UPDATE orders
                   SET status=$1, updated_at=NOW()
                   WHERE status IN ('CREATED', 'VERIFYING') AND expires_at <= NOW()`
	tag, err := r.storage.pool.Exec(ctx, query, model.OrderStatusExpired)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *orderRepository) SelectVerifiedBatch(ctx context.Context, olderThan time.Time, limit int) ([]model.Order, error) {
	selectQuery := `SELECT ` + orderColumns + `
                    FROM orders
                    WHERE status='VERIFIED' AND updated_at <= $1
                    ORDER BY updated_at
                    LIMIT $2
                    FOR UPDATE SKIP LOCKED`

	var orders []model.Order
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, selectQuery, olderThan, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var o model.Order
			if err := scanOrder(rows, &o); err != nil {
				return err
			}
			orders = append(orders, o)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// --- EnrollmentRepository implementation ---

func scanEnrollment(row pgx.Row, e *model.Enrollment) error {
	return row.Scan(&e.ID, &e.UserID, &e.CourseID, &e.SourceOrderID, &e.EnrolledAt)
}

// Commit performs the enrollment transaction. The unique constraint on
// (user_id, course_id) is the final arbiter: a conflicting insert means the
// user is already enrolled, which is a success for this order too.
func (r *enrollmentRepository) Commit(ctx context.Context, orderID string, userID, courseID int64) (*model.Enrollment, int64, bool, error) {
	var (
		enrollment model.Enrollment
		total      int64
		created    bool
	)

	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		const insertQuery = `INSERT INTO enrollments (user_id, course_id, source_order_id)
                             VALUES ($1, $2, $3)
                             ON CONFLICT (user_id, course_id) DO NOTHING
                             RETURNING id, enrolled_at`
		err := tx.QueryRow(ctx, insertQuery, userID, courseID, orderID).Scan(&enrollment.ID, &enrollment.EnrolledAt)
		switch {
		case err == nil:
			created = true
			enrollment.UserID = userID
			enrollment.CourseID = courseID
			enrollment.SourceOrderID = orderID

			const bumpQuery = `UPDATE courses SET total_enrolled = total_enrolled + 1 WHERE id=$1 RETURNING total_enrolled`
			if err := tx.QueryRow(ctx, bumpQuery, courseID).Scan(&total); err != nil {
				return err
			}
		case errors.Is(err, pgx.ErrNoRows):
			// Lost to an earlier enrollment for the same pair. Reuse it and
			// leave the counter alone.
			const existingQuery = `SELECT id, user_id, course_id, source_order_id, enrolled_at
                                   FROM enrollments WHERE user_id=$1 AND course_id=$2`
			if err := scanEnrollment(tx.QueryRow(ctx, existingQuery, userID, courseID), &enrollment); err != nil {
				return err
			}
			const totalQuery = `SELECT total_enrolled FROM courses WHERE id=$1`
			if err := tx.QueryRow(ctx, totalQuery, courseID).Scan(&total); err != nil {
				return err
			}
		default:
			return err
		}

		const settleQuery = `UPDATE orders
                             SET status=$2, completed_at=NOW(), updated_at=NOW()
                             WHERE order_id=$1 AND status=$3`
		_, err = tx.Exec(ctx, settleQuery, orderID, model.OrderStatusEnrolled, model.OrderStatusVerified)
		return err
	})
	if err != nil {
		return nil, 0, false, err
	}
	return &enrollment, total, created, nil
}

func (r *enrollmentRepository) GetByOrder(ctx context.Context, orderID string) (*model.Enrollment, error) {
	const query = `SELECT id, user_id, course_id, source_order_id, enrolled_at
                   FROM enrollments WHERE source_order_id=$1`
	var e model.Enrollment
	if err := scanEnrollment(r.storage.pool.QueryRow(ctx, query, orderID), &e); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *enrollmentRepository) GetByUserCourse(ctx context.Context, userID, courseID int64) (*model.Enrollment, error) {
	const query = `SELECT id, user_id, course_id, source_order_id, enrolled_at
                   FROM enrollments WHERE user_id=$1 AND course_id=$2`
	var e model.Enrollment
	if err := scanEnrollment(r.storage.pool.QueryRow(ctx, query, userID, courseID), &e); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *enrollmentRepository) CountByCourse(ctx context.Context, courseID int64) (int64, error) {
	const query = `SELECT COUNT(*) FROM enrollments WHERE course_id=$1`
	var count int64
	if err := r.storage.pool.QueryRow(ctx, query, courseID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// WithinTransaction executes function inside transaction boundary.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(tx)
	return err
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

// Logger returns storage logger.
func (s *Storage) Logger() *slog.Logger {
	return s.logger
}
