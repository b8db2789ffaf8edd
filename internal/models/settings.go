package models

// SystemSettings holds calibration factors and door geometry.
type SystemSettings struct {
	CalibrationWeight float64 `json:"calibration_weight"` // grams of the reference weight
	ContainerScale    float64 `json:"container_scale"`    // raw counts per gram
	ContainerOffset   int64   `json:"container_offset"`   // raw counts at zero
	PlateScale        float64 `json:"plate_scale"`
	PlateOffset       int64   `json:"plate_offset"`
	DoorAngleOpen     int     `json:"door_angle_open"`  // degrees
	DoorAngleClose    int     `json:"door_angle_close"` // degrees
}

// DefaultSystemSettings is used until calibration has been persisted.
func DefaultSystemSettings() SystemSettings {
	return SystemSettings{
		CalibrationWeight: 100,
		ContainerScale:    1,
		PlateScale:        1,
		DoorAngleOpen:     90,
		DoorAngleClose:    0,
	}
}

// NotificationToggle configures one notification channel.
type NotificationToggle struct {
	Active bool `json:"active"`
	Email  bool `json:"email"`
	Phone  bool `json:"phone"`
}

// NotificationSettings groups the toggles of every alert kind.
type NotificationSettings struct {
	ContainerEmpty  NotificationToggle `json:"container_empty"`
	DidNotEatInADay NotificationToggle `json:"did_not_eat_in_a_day"`
}

// UserSettings is replaced whole on every update.
type UserSettings struct {
	PetName       string               `json:"pet_name"`
	PlateTare     float64              `json:"plate_tare"`    // grams of the empty plate
	PlateFilling  float64              `json:"plate_filling"` // grams dispensed per feed
	Notifications NotificationSettings `json:"notifications"`
	Email         string               `json:"email"`
	Phone         string               `json:"phone"`
	Language      int                  `json:"language"`
	Theme         int                  `json:"theme"`
}

// DefaultUserSettings is used when nothing is stored yet.
func DefaultUserSettings() UserSettings {
	return UserSettings{PlateFilling: 50}
}
