package store

import (
	"github.com/flarebyte/shiftlog/internal/log"
)

const (
	profileNameKey   = "employeeName"
	profileNumberKey = "employeeNumber"
)

// Profile is the operator currently using the device.
type Profile struct {
	Name   string `json:"name"`
	Number string `json:"number"`
}

// Complete reports whether both fields are filled.
func (p Profile) Complete() bool { return p.Name != "" && p.Number != "" }

// ReadProfile returns the stored profile. Unset or unreadable slots come
// back empty.
func (s *Store) ReadProfile() Profile {
	var p Profile
	var err error
	if p.Name, err = s.kv.GetString(profileNameKey); err != nil {
		log.GetLogger().WithError(err).Warn("read employee name")
	}
	if p.Number, err = s.kv.GetString(profileNumberKey); err != nil {
		log.GetLogger().WithError(err).Warn("read employee number")
	}
	return p
}

// WriteProfile overwrites both profile slots. Records already stored keep
// the profile they were created with.
func (s *Store) WriteProfile(p Profile) error {
	if err := s.kv.PutString(profileNameKey, p.Name); err != nil {
		return err
	}
	return s.kv.PutString(profileNumberKey, p.Number)
}
