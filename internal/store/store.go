package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"form_guard/internal/dataType"
	"form_guard/internal/guard"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

const settingsCacheTTL = 30 * time.Second

// Store persists guard settings and the contact form registry.
type Store struct {
	db *gorm.DB

	cacheMu     sync.RWMutex
	cached      *dataType.GuardSettings
	lastUpdated time.Time
}

func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && path != ":memory:" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database dir %s: %w", dir, err)
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	if err := db.AutoMigrate(&Option{}, &ContactFormRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ErrStaleSettings is returned together with the last settings read
// successfully when the database cannot be read.
var ErrStaleSettings = errors.New("database unavailable, using last known settings")

// Settings returns the guard settings, cached for a short while since they
// are read on every request.
func (s *Store) Settings() (dataType.GuardSettings, error) {
	s.cacheMu.RLock()
	if s.cached != nil && time.Since(s.lastUpdated) < settingsCacheTTL {
		defer s.cacheMu.RUnlock()
		return copySettings(*s.cached), nil
	}
	s.cacheMu.RUnlock()

	var opts []Option
	if err := s.db.Find(&opts).Error; err != nil {
		s.cacheMu.RLock()
		defer s.cacheMu.RUnlock()
		if s.cached != nil {
			return copySettings(*s.cached), fmt.Errorf("%w: %v", ErrStaleSettings, err)
		}
		return dataType.DefaultGuardSettings(), fmt.Errorf("failed to load settings: %w", err)
	}
	values := make(map[string]string, len(opts))
	for _, o := range opts {
		values[o.Name] = o.Value
	}
	settings := decodeSettings(values)

	s.cacheMu.Lock()
	s.cached = &settings
	s.lastUpdated = time.Now()
	s.cacheMu.Unlock()
	return copySettings(settings), nil
}

// SaveSettings writes all settings in one transaction.
func (s *Store) SaveSettings(settings dataType.GuardSettings) error {
	values, err := encodeSettings(settings)
	if err != nil {
		return err
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		for name, value := range values {
			opt := Option{Name: name, Value: value, UpdatedAt: time.Now()}
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&opt).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	s.invalidate()
	return nil
}

// invalidate forces the next read to hit the database. The old copy stays
// around as the fallback for a failing read.
func (s *Store) invalidate() {
	s.cacheMu.Lock()
	s.lastUpdated = time.Time{}
	s.cacheMu.Unlock()
}

// ContactForms lists the registered CF7 forms, flagging the ones the
// current allow-list disables.
func (s *Store) ContactForms() ([]dataType.ContactForm, error) {
	var records []ContactFormRecord
	if err := s.db.Order("id").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list contact forms: %w", err)
	}
	settings, err := s.Settings()
	if err != nil {
		return nil, err
	}
	forms := make([]dataType.ContactForm, 0, len(records))
	for _, r := range records {
		forms = append(forms, dataType.ContactForm{
			ID:       r.ID,
			Title:    r.Title,
			Disabled: guard.ShouldSuppressContactForm(int(r.ID), settings.DisabledCF7Forms),
		})
	}
	return forms, nil
}

func (s *Store) SaveContactForm(id uint, title string) error {
	onConflict := clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "updated_at"}),
	}
	title = strings.TrimSpace(title)
	if title == "" {
		// an untitled sighting never overwrites a known title
		title = fmt.Sprintf("Contact form %d", id)
		onConflict = clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}
	}
	rec := ContactFormRecord{ID: id, Title: title}
	err := s.db.Clauses(onConflict).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to save contact form %d: %w", id, err)
	}
	return nil
}

var ErrNotFound = errors.New("not found")

func (s *Store) DeleteContactForm(id uint) error {
	res := s.db.Delete(&ContactFormRecord{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete contact form %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func copySettings(s dataType.GuardSettings) dataType.GuardSettings {
	s.DisabledCF7Forms = append([]int{}, s.DisabledCF7Forms...)
	return s
}

func decodeSettings(values map[string]string) dataType.GuardSettings {
	settings := dataType.DefaultGuardSettings()
	if v, ok := values[optGuardEnabled]; ok {
		settings.Enabled = v == "1"
	}
	if v, ok := values[optAllowedDomain]; ok && strings.TrimSpace(v) != "" {
		settings.AllowedHost = strings.TrimSpace(v)
	}
	if v, ok := values[optGuardMessage]; ok {
		settings.DefaultMessage = v
	}
	if v, ok := values[optGuardMessagePH]; ok {
		settings.PHMessage = v
	}
	messages := guard.MessagesFrom(settings)
	settings.DefaultMessage, settings.PHMessage = messages.Default, messages.PH
	if v, ok := values[optUseGeoAPI]; ok {
		settings.UseGeoAPI = v == "1"
	}
	if v, ok := values[optDisabledCF7Forms]; ok {
		var raw any
		if err := json.Unmarshal([]byte(v), &raw); err == nil {
			settings.DisabledCF7Forms = guard.SanitizeFormIDs(raw)
		}
	}
	return settings
}

func encodeSettings(settings dataType.GuardSettings) (map[string]string, error) {
	ids, err := json.Marshal(guard.SanitizeFormIDs(settings.DisabledCF7Forms))
	if err != nil {
		return nil, fmt.Errorf("failed to encode form ids: %w", err)
	}
	return map[string]string{
		optGuardEnabled:     boolOption(settings.Enabled),
		optAllowedDomain:    strings.TrimSpace(settings.AllowedHost),
		optGuardMessage:     strings.TrimSpace(settings.DefaultMessage),
		optGuardMessagePH:   strings.TrimSpace(settings.PHMessage),
		optUseGeoAPI:        boolOption(settings.UseGeoAPI),
		optDisabledCF7Forms: string(ids),
	}, nil
}

func boolOption(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
