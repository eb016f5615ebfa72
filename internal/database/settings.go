package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"turnero/internal/models"
)

const (
	settingSchedule = "schedule"
	settingProfile  = "profile"
)

func (db *DB) getSetting(ctx context.Context, key string, out any) (bool, error) {
	var raw string
	err := db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get setting %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, fmt.Errorf("decode setting %s: %w", key, err)
	}
	return true, nil
}

func (db *DB) putSetting(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode setting %s: %w", key, err)
	}
	query := `INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
              ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	if _, err := db.ExecContext(ctx, query, key, string(raw), time.Now()); err != nil {
		return fmt.Errorf("save setting %s: %w", key, err)
	}
	return nil
}

// GetSchedule returns the seven-entry weekly table, seeding the default
// schedule on first access so a fresh install is immediately bookable.
func (db *DB) GetSchedule(ctx context.Context) ([]models.WorkingHours, error) {
	var schedule []models.WorkingHours
	found, err := db.getSetting(ctx, settingSchedule, &schedule)
	if err != nil {
		return nil, err
	}
	if !found {
		schedule = models.DefaultSchedule()
		if err := db.putSetting(ctx, settingSchedule, schedule); err != nil {
			return nil, err
		}
		db.logger.Info().Msg("seeded default weekly schedule")
	}
	return schedule, nil
}

// SaveSchedule persists the table after normalizing every day, keeping
// the is_enabled/active_hours invariant intact on any write path.
func (db *DB) SaveSchedule(ctx context.Context, schedule []models.WorkingHours) error {
	if len(schedule) != 7 {
		return fmt.Errorf("schedule must have exactly 7 entries, got %d", len(schedule))
	}
	seen := make(map[int]bool, 7)
	for i := range schedule {
		d := schedule[i].DayOfWeek
		if d < 0 || d > 6 {
			return fmt.Errorf("invalid day_of_week %d", d)
		}
		if seen[d] {
			return fmt.Errorf("duplicate day_of_week %d", d)
		}
		seen[d] = true
		schedule[i].Normalize()
	}
	return db.putSetting(ctx, settingSchedule, schedule)
}

// GetProfile returns the professional profile with bundled defaults
// filled into empty fields.
func (db *DB) GetProfile(ctx context.Context, defaults models.ProfessionalProfile) (models.ProfessionalProfile, error) {
	var profile models.ProfessionalProfile
	if _, err := db.getSetting(ctx, settingProfile, &profile); err != nil {
		return models.ProfessionalProfile{}, err
	}
	profile.ApplyDefaults(defaults)
	return profile, nil
}

func (db *DB) SaveProfile(ctx context.Context, profile models.ProfessionalProfile) error {
	return db.putSetting(ctx, settingProfile, profile)
}
