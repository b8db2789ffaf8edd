package models

import "time"

// ScaleID identifies a load cell.
type ScaleID int

const (
	ScaleContainer ScaleID = iota
	ScalePlate
)

func (s ScaleID) String() string {
	if s == ScalePlate {
		return "plate"
	}
	return "container"
}

// ParseScaleID accepts "container", "plate", "0" or "1".
func ParseScaleID(s string) (ScaleID, bool) {
	switch s {
	case "container", "0":
		return ScaleContainer, true
	case "plate", "1":
		return ScalePlate, true
	}
	return 0, false
}

// ScaleSample is one buffered weight reading.
type ScaleSample struct {
	ID        int64     `json:"id,omitempty"`
	ScaleID   ScaleID   `json:"scale_id"`
	CreatedOn time.Time `json:"created_on"`
	Value     float64   `json:"value"`
}
