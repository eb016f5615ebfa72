package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"turnero/internal/models"

	sqlite3 "github.com/mattn/go-sqlite3"
)

const appointmentColumns = `id, patient_id, patient_name, patient_phone, date, time, status,
        notes, clinical_observations, cost, payment_status, payment_method,
        created_at, updated_at, version`

func scanAppointment(row interface{ Scan(...any) error }) (*models.Appointment, error) {
	var a models.Appointment
	err := row.Scan(
		&a.ID, &a.PatientID, &a.PatientName, &a.PatientPhone, &a.Date, &a.Time, &a.Status,
		&a.Notes, &a.ClinicalObservations, &a.Cost, &a.PaymentStatus, &a.PaymentMethod,
		&a.CreatedAt, &a.UpdatedAt, &a.Version,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAppointment inserts the record while holding the slot invariant:
// the count check runs inside the transaction and the partial unique
// index on (date, time) is the final arbiter, so concurrent writers for
// the same slot produce exactly one winner.
func (db *DB) CreateAppointment(ctx context.Context, appt *models.Appointment) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var taken int
	queryCount := `SELECT COUNT(*) FROM appointments WHERE date = ? AND time = ? AND status != ?`
	err = tx.QueryRowContext(ctx, queryCount, appt.Date, appt.Time, models.StatusCancelled).Scan(&taken)
	if err != nil {
		return fmt.Errorf("check slot in tx: %w", err)
	}
	if taken > 0 {
		return ErrSlotTaken
	}

	now := time.Now()
	queryInsert := `INSERT INTO appointments (` + appointmentColumns + `)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, queryInsert,
		appt.ID, appt.PatientID, appt.PatientName, appt.PatientPhone,
		appt.Date, appt.Time, appt.Status,
		appt.Notes, appt.ClinicalObservations, appt.Cost,
		appt.PaymentStatus, appt.PaymentMethod,
		now, now, 1,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSlotTaken
		}
		return fmt.Errorf("insert appointment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return ErrSlotTaken
		}
		return fmt.Errorf("commit appointment: %w", err)
	}

	appt.CreatedAt = now
	appt.UpdatedAt = now
	appt.Version = 1
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func (db *DB) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = ?`
	appt, err := scanAppointment(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return appt, nil
}

func (db *DB) ListAppointments(ctx context.Context) ([]*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments ORDER BY date, time`
	return db.queryAppointments(ctx, query)
}

func (db *DB) ListAppointmentsByDate(ctx context.Context, date string) ([]*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE date = ? ORDER BY time`
	return db.queryAppointments(ctx, query, date)
}

func (db *DB) ListAppointmentsByPatient(ctx context.Context, patientID string) ([]*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE patient_id = ? ORDER BY date DESC, time DESC`
	return db.queryAppointments(ctx, query, patientID)
}

func (db *DB) queryAppointments(ctx context.Context, query string, args ...any) ([]*models.Appointment, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query appointments: %w", err)
	}
	defer rows.Close()

	var appts []*models.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		appts = append(appts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate appointments: %w", err)
	}
	return appts, nil
}

// GetTakenTimes returns the slot labels occupied by non-cancelled
// appointments on a date, ascending.
func (db *DB) GetTakenTimes(ctx context.Context, date string) ([]string, error) {
	query := `SELECT time FROM appointments WHERE date = ? AND status != ? ORDER BY time`
	rows, err := db.QueryContext(ctx, query, date, models.StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("query taken times: %w", err)
	}
	defer rows.Close()

	var times []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan taken time: %w", err)
		}
		times = append(times, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate taken times: %w", err)
	}
	return times, nil
}

// UpdateStatusWithVersion applies an optimistic status change. The
// version guard keeps two admins from stomping each other's update.
func (db *DB) UpdateStatusWithVersion(ctx context.Context, id string, fromVersion int64, status string) error {
	query := `UPDATE appointments SET status = ?, version = version + 1, updated_at = ?
              WHERE id = ? AND version = ?`
	result, err := db.ExecContext(ctx, query, status, time.Now(), id, fromVersion)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		if _, err := db.GetAppointment(ctx, id); err != nil {
			return err
		}
		return ErrConcurrentModification
	}
	return nil
}

// RegisterPayment settles the appointment in a single write: method and
// paid status change together or not at all.
func (db *DB) RegisterPayment(ctx context.Context, id string, method string) error {
	query := `UPDATE appointments SET payment_status = ?, payment_method = ?, version = version + 1, updated_at = ?
              WHERE id = ?`
	result, err := db.ExecContext(ctx, query, models.PaymentPaid, method, time.Now(), id)
	if err != nil {
		return fmt.Errorf("register payment: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateAppointmentFields applies a partial update; nil fields keep
// their stored value.
func (db *DB) UpdateAppointmentFields(ctx context.Context, id string, upd models.AppointmentUpdate) error {
	set := "updated_at = ?, version = version + 1"
	args := []any{time.Now()}

	if upd.PatientName != nil {
		set += ", patient_name = ?"
		args = append(args, *upd.PatientName)
	}
	if upd.PatientPhone != nil {
		set += ", patient_phone = ?"
		args = append(args, *upd.PatientPhone)
	}
	if upd.Notes != nil {
		set += ", notes = ?"
		args = append(args, *upd.Notes)
	}
	if upd.ClinicalObservations != nil {
		set += ", clinical_observations = ?"
		args = append(args, *upd.ClinicalObservations)
	}
	if upd.Cost != nil {
		set += ", cost = ?"
		args = append(args, *upd.Cost)
	}
	args = append(args, id)

	result, err := db.ExecContext(ctx, `UPDATE appointments SET `+set+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update appointment fields: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAppointment hard-deletes the record. Irreversible; the API layer
// requires explicit confirmation before calling this.
func (db *DB) DeleteAppointment(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM appointments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// GetDailyStats aggregates per-date totals for the admin dashboard.
// Income counts settled appointments only; cancelled ones are excluded
// from the count.
func (db *DB) GetDailyStats(ctx context.Context, fromDate, toDate string) ([]models.DayStats, error) {
	query := `SELECT date,
                     COUNT(*) FILTER (WHERE status != ?),
                     COALESCE(SUM(cost) FILTER (WHERE payment_status = ?), 0)
              FROM appointments
              WHERE date >= ? AND date <= ?
              GROUP BY date ORDER BY date`
	rows, err := db.QueryContext(ctx, query, models.StatusCancelled, models.PaymentPaid, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("query daily stats: %w", err)
	}
	defer rows.Close()

	var stats []models.DayStats
	for rows.Next() {
		var s models.DayStats
		if err := rows.Scan(&s.Date, &s.TotalAppointments, &s.TotalIncome); err != nil {
			return nil, fmt.Errorf("scan daily stats: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily stats: %w", err)
	}
	return stats, nil
}
