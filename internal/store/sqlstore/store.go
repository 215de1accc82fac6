package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"agenda/backend/internal/domain"
	"agenda/backend/internal/store"
)

// Store implements store.Store on top of bun for postgres and sqlite.
type Store struct {
	db *bun.DB
}

func New(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, queries{db: tx, nameOrder: nameOrder(s.db)})
	})
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return Close(s.db)
}

// nameOrder sorts names byte-wise on both dialects.
func nameOrder(db *bun.DB) string {
	if db.Dialect().Name() == dialect.PG {
		return `COLLATE "C"`
	}
	return ""
}

// queries runs against a transaction only. Using the pool here would deadlock sqlite's single connection.
type queries struct {
	db        bun.IDB
	nameOrder string
}

var refColumns = map[store.Kind]string{
	store.KindClient:    "client_id",
	store.KindService:   "service_id",
	store.KindStaffUser: "staff_user_id",
}

func modelFor(kind store.Kind) (any, error) {
	switch kind {
	case store.KindClient:
		return (*domain.Client)(nil), nil
	case store.KindService:
		return (*domain.Service)(nil), nil
	case store.KindStaffUser:
		return (*domain.StaffUser)(nil), nil
	case store.KindAppointment:
		return (*domain.Appointment)(nil), nil
	}
	return nil, fmt.Errorf("unknown kind %q", kind)
}

func (q queries) Exists(ctx context.Context, kind store.Kind, id int64) (bool, error) {
	model, err := modelFor(kind)
	if err != nil {
		return false, err
	}
	return q.db.NewSelect().Model(model).Where("id = ?", id).Exists(ctx)
}

func (q queries) CountAppointmentsReferencing(ctx context.Context, kind store.Kind, id int64) (int, error) {
	col, ok := refColumns[kind]
	if !ok {
		return 0, fmt.Errorf("appointments do not reference %q", kind)
	}
	return q.db.NewSelect().
		Model((*domain.Appointment)(nil)).
		Where("? = ?", bun.Ident(col), id).
		Count(ctx)
}

func (q queries) orderByName(alias string) string {
	if q.nameOrder == "" {
		return alias + ".name ASC, " + alias + ".id ASC"
	}
	return alias + ".name " + q.nameOrder + " ASC, " + alias + ".id ASC"
}

func (q queries) ListClients(ctx context.Context) ([]domain.Client, error) {
	rows := make([]domain.Client, 0)
	err := q.db.NewSelect().Model(&rows).OrderExpr(q.orderByName("client")).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (q queries) GetClient(ctx context.Context, id int64) (domain.Client, error) {
	var c domain.Client
	err := q.db.NewSelect().Model(&c).Where("client.id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return domain.Client{}, notFound(err, store.KindClient, id)
	}
	return c, nil
}

func (q queries) InsertClient(ctx context.Context, c domain.Client) (domain.Client, error) {
	c.ID = 0
	if _, err := q.db.NewInsert().Model(&c).Exec(ctx); err != nil {
		return domain.Client{}, writeError(err, store.KindClient)
	}
	return c, nil
}

func (q queries) UpdateClient(ctx context.Context, c domain.Client) (domain.Client, error) {
	res, err := q.db.NewUpdate().
		Model(&c).
		Column("name", "phone", "email", "updated_at").
		WherePK().
		Exec(ctx)
	if err := affectedOne(res, err, store.KindClient, c.ID); err != nil {
		return domain.Client{}, err
	}
	return q.GetClient(ctx, c.ID)
}

func (q queries) DeleteClient(ctx context.Context, id int64) error {
	return q.deleteRestricted(ctx, store.KindClient, (*domain.Client)(nil), id)
}

func (q queries) ListServices(ctx context.Context) ([]domain.Service, error) {
	rows := make([]domain.Service, 0)
	err := q.db.NewSelect().Model(&rows).OrderExpr(q.orderByName("service")).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (q queries) GetService(ctx context.Context, id int64) (domain.Service, error) {
	var s domain.Service
	err := q.db.NewSelect().Model(&s).Where("service.id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return domain.Service{}, notFound(err, store.KindService, id)
	}
	return s, nil
}

func (q queries) InsertService(ctx context.Context, s domain.Service) (domain.Service, error) {
	s.ID = 0
	if _, err := q.db.NewInsert().Model(&s).Exec(ctx); err != nil {
		return domain.Service{}, writeError(err, store.KindService)
	}
	return s, nil
}

func (q queries) UpdateService(ctx context.Context, s domain.Service) (domain.Service, error) {
	res, err := q.db.NewUpdate().
		Model(&s).
		Column("name", "price_cents", "duration_minutes", "updated_at").
		WherePK().
		Exec(ctx)
	if err := affectedOne(res, err, store.KindService, s.ID); err != nil {
		return domain.Service{}, err
	}
	return q.GetService(ctx, s.ID)
}

func (q queries) DeleteService(ctx context.Context, id int64) error {
	return q.deleteRestricted(ctx, store.KindService, (*domain.Service)(nil), id)
}

func (q queries) ListStaffUsers(ctx context.Context) ([]domain.StaffUser, error) {
	rows := make([]domain.StaffUser, 0)
	err := q.db.NewSelect().Model(&rows).OrderExpr(q.orderByName("staff_user")).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (q queries) GetStaffUser(ctx context.Context, id int64) (domain.StaffUser, error) {
	var u domain.StaffUser
	err := q.db.NewSelect().Model(&u).Where("staff_user.id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return domain.StaffUser{}, notFound(err, store.KindStaffUser, id)
	}
	return u, nil
}

func (q queries) InsertStaffUser(ctx context.Context, u domain.StaffUser) (domain.StaffUser, error) {
	u.ID = 0
	if _, err := q.db.NewInsert().Model(&u).Exec(ctx); err != nil {
		return domain.StaffUser{}, writeError(err, store.KindStaffUser)
	}
	return u, nil
}

func (q queries) DeleteStaffUser(ctx context.Context, id int64) error {
	return q.deleteRestricted(ctx, store.KindStaffUser, (*domain.StaffUser)(nil), id)
}

func (q queries) deleteRestricted(ctx context.Context, kind store.Kind, model any, id int64) error {
	n, err := q.CountAppointmentsReferencing(ctx, kind, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return &store.ReferencedError{Kind: kind, ID: id, Count: n}
	}
	res, err := q.db.NewDelete().Model(model).Where("id = ?", id).Exec(ctx)
	return affectedOne(res, err, kind, id)
}

func (q queries) GetAppointment(ctx context.Context, id int64) (domain.Appointment, error) {
	var a domain.Appointment
	err := q.db.NewSelect().Model(&a).Where("appointment.id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return domain.Appointment{}, notFound(err, store.KindAppointment, id)
	}
	return a, nil
}

func (q queries) InsertAppointment(ctx context.Context, a domain.Appointment) (domain.Appointment, error) {
	m := a.Row()
	m.ID = 0
	m.ScheduledAt = domain.NormalizeTime(m.ScheduledAt)
	if _, err := q.db.NewInsert().Model(&m).Exec(ctx); err != nil {
		return domain.Appointment{}, writeError(err, store.KindAppointment)
	}
	return m, nil
}

func (q queries) UpdateAppointment(ctx context.Context, a domain.Appointment) (domain.Appointment, error) {
	m := a.Row()
	m.ScheduledAt = domain.NormalizeTime(m.ScheduledAt)
	res, err := q.db.NewUpdate().
		Model(&m).
		Column("scheduled_at", "status", "client_id", "service_id", "staff_user_id", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return domain.Appointment{}, writeError(err, store.KindAppointment)
	}
	if err := affectedOne(res, nil, store.KindAppointment, m.ID); err != nil {
		return domain.Appointment{}, err
	}
	return q.GetAppointment(ctx, m.ID)
}

func (q queries) DeleteAppointment(ctx context.Context, id int64) error {
	res, err := q.db.NewDelete().Model((*domain.Appointment)(nil)).Where("id = ?", id).Exec(ctx)
	return affectedOne(res, err, store.KindAppointment, id)
}

func (q queries) expandedSelect(dst any) *bun.SelectQuery {
	return q.db.NewSelect().
		Model(dst).
		Relation("Client").
		Relation("Service").
		Relation("StaffUser")
}

func (q queries) GetAppointmentDetail(ctx context.Context, id int64) (domain.Appointment, error) {
	var a domain.Appointment
	err := q.expandedSelect(&a).Where("appointment.id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return domain.Appointment{}, notFound(err, store.KindAppointment, id)
	}
	return a, nil
}

func (q queries) ListAppointmentDetails(ctx context.Context) ([]domain.Appointment, error) {
	rows := make([]domain.Appointment, 0)
	err := q.expandedSelect(&rows).
		OrderExpr("appointment.scheduled_at ASC, appointment.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func notFound(err error, kind store.Kind, id int64) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.NotFound(kind, id)
	}
	return err
}

func affectedOne(res sql.Result, err error, kind store.Kind, id int64) error {
	if err != nil {
		return writeError(err, kind)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.NotFound(kind, id)
	}
	return nil
}

// writeError maps driver constraint codes to store errors.
func writeError(err error, kind store.Kind) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return &store.DuplicateError{Kind: kind, Field: uniqueField(pgErr.ConstraintName)}
		case "23503":
			return fmt.Errorf("%w: %s violates a foreign key", store.ErrConflict, kind)
		}
		return err
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return &store.DuplicateError{Kind: kind, Field: uniqueField(liteErr.Error())}
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return fmt.Errorf("%w: %s violates a foreign key", store.ErrConflict, kind)
		}
	}
	return err
}

// uniqueField recovers the column from a constraint name or sqlite message.
func uniqueField(detail string) string {
	if strings.Contains(detail, "email") {
		return "email"
	}
	return "value"
}
