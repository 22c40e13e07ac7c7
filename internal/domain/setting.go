package domain

import "time"

// SettingType enumerates how a setting value should be interpreted.
type SettingType string

const (
	SettingTypeString SettingType = "string"
	SettingTypeNumber SettingType = "number"
	SettingTypeBool   SettingType = "bool"
	SettingTypeJSON   SettingType = "json"
)

// Setting is a key-value configuration record. Keys are unique; values are
// stored as text and typed by Type.
type Setting struct {
	Key       string
	Value     string
	Type      SettingType
	Category  string
	UpdatedAt time.Time
}
