package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"turnero/internal/models"
)

const patientColumns = `id, first_name, last_name, dni, phone, birth_date,
        insurance, diagnosis, notes, created_at, updated_at`

// SavePatient upserts a profile by id, mirroring the document-store
// write semantics the admin portal expects.
func (db *DB) SavePatient(ctx context.Context, p *models.PatientProfile) error {
	now := time.Now()
	query := `INSERT INTO patients (` + patientColumns + `)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
              ON CONFLICT(id) DO UPDATE SET
                  first_name = excluded.first_name,
                  last_name = excluded.last_name,
                  dni = excluded.dni,
                  phone = excluded.phone,
                  birth_date = excluded.birth_date,
                  insurance = excluded.insurance,
                  diagnosis = excluded.diagnosis,
                  notes = excluded.notes,
                  updated_at = excluded.updated_at`
	_, err := db.ExecContext(ctx, query,
		p.ID, p.FirstName, p.LastName, p.DNI, p.Phone, p.BirthDate,
		p.Insurance, p.Diagnosis, p.Notes, now, now,
	)
	if err != nil {
		return fmt.Errorf("save patient: %w", err)
	}
	p.UpdatedAt = now
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	return nil
}

func (db *DB) GetPatient(ctx context.Context, id string) (*models.PatientProfile, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = ?`
	var p models.PatientProfile
	err := db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.FirstName, &p.LastName, &p.DNI, &p.Phone, &p.BirthDate,
		&p.Insurance, &p.Diagnosis, &p.Notes, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return &p, nil
}

func (db *DB) ListPatients(ctx context.Context) ([]*models.PatientProfile, error) {
	query := `SELECT ` + patientColumns + ` FROM patients ORDER BY last_name, first_name`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	var patients []*models.PatientProfile
	for rows.Next() {
		var p models.PatientProfile
		err := rows.Scan(
			&p.ID, &p.FirstName, &p.LastName, &p.DNI, &p.Phone, &p.BirthDate,
			&p.Insurance, &p.Diagnosis, &p.Notes, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		patients = append(patients, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate patients: %w", err)
	}
	return patients, nil
}
