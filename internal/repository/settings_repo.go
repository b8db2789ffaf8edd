package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"pet_feeder/internal/models"
)

type SettingsSQLite struct {
	db *sql.DB
}

func NewSettingsSQLite(db *sql.DB) *SettingsSQLite {
	return &SettingsSQLite{db: db}
}

// both settings tables hold a single row
const (
	settingsRowID = 1

	upsertSystemSQL = `
		INSERT INTO system_settings (id, calibration_weight, container_scale, container_offset, plate_scale, plate_offset, door_angle_open, door_angle_close)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			calibration_weight=excluded.calibration_weight,
			container_scale=excluded.container_scale,
			container_offset=excluded.container_offset,
			plate_scale=excluded.plate_scale,
			plate_offset=excluded.plate_offset,
			door_angle_open=excluded.door_angle_open,
			door_angle_close=excluded.door_angle_close
	`

	selectSystemSQL = `
		SELECT calibration_weight, container_scale, container_offset, plate_scale, plate_offset, door_angle_open, door_angle_close
		FROM system_settings WHERE id=?
	`

	upsertUserSQL = `
		INSERT INTO user_settings (id, pet_name, plate_tare, plate_filling, notifications, email, phone, language, theme)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			pet_name=excluded.pet_name,
			plate_tare=excluded.plate_tare,
			plate_filling=excluded.plate_filling,
			notifications=excluded.notifications,
			email=excluded.email,
			phone=excluded.phone,
			language=excluded.language,
			theme=excluded.theme
	`

	selectUserSQL = `
		SELECT pet_name, plate_tare, plate_filling, notifications, email, phone, language, theme
		FROM user_settings WHERE id=?
	`
)

// LoadSystem returns stored calibration, or defaults when none is stored.
func (r *SettingsSQLite) LoadSystem(ctx context.Context) (models.SystemSettings, error) {
	var s models.SystemSettings
	err := r.db.QueryRowContext(ctx, selectSystemSQL, settingsRowID).Scan(
		&s.CalibrationWeight,
		&s.ContainerScale,
		&s.ContainerOffset,
		&s.PlateScale,
		&s.PlateOffset,
		&s.DoorAngleOpen,
		&s.DoorAngleClose,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DefaultSystemSettings(), nil
	}
	if err != nil {
		return models.SystemSettings{}, fmt.Errorf("load system settings: %w", err)
	}
	return s, nil
}

func (r *SettingsSQLite) SaveSystem(ctx context.Context, s models.SystemSettings) error {
	_, err := r.db.ExecContext(ctx, upsertSystemSQL,
		settingsRowID,
		s.CalibrationWeight,
		s.ContainerScale,
		s.ContainerOffset,
		s.PlateScale,
		s.PlateOffset,
		s.DoorAngleOpen,
		s.DoorAngleClose,
	)
	if err != nil {
		return fmt.Errorf("save system settings: %w", err)
	}
	return nil
}

// LoadUser returns stored user settings, or defaults when none are stored.
func (r *SettingsSQLite) LoadUser(ctx context.Context) (models.UserSettings, error) {
	var (
		u     models.UserSettings
		notif string
	)
	err := r.db.QueryRowContext(ctx, selectUserSQL, settingsRowID).Scan(
		&u.PetName,
		&u.PlateTare,
		&u.PlateFilling,
		&notif,
		&u.Email,
		&u.Phone,
		&u.Language,
		&u.Theme,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DefaultUserSettings(), nil
	}
	if err != nil {
		return models.UserSettings{}, fmt.Errorf("load user settings: %w", err)
	}
	if notif != "" {
		if err := json.Unmarshal([]byte(notif), &u.Notifications); err != nil {
			return models.UserSettings{}, fmt.Errorf("decode notification settings: %w", err)
		}
	}
	return u, nil
}

// SaveUser replaces the stored user settings as a whole.
func (r *SettingsSQLite) SaveUser(ctx context.Context, u models.UserSettings) error {
	notif, err := json.Marshal(u.Notifications)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, upsertUserSQL,
		settingsRowID,
		u.PetName,
		u.PlateTare,
		u.PlateFilling,
		string(notif),
		u.Email,
		u.Phone,
		u.Language,
		u.Theme,
	)
	if err != nil {
		return fmt.Errorf("save user settings: %w", err)
	}
	return nil
}
