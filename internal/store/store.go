package store

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yungbote/learnbridge/internal/platform/logger"
)

// Entry is one persisted key/value row. The store is the only shared state
// between processes; writes are last-write-wins with no merge logic.
// The value column is TEXT: a json-typed column gets NUMERIC affinity in
// SQLite, which coerces bare scalar payloads ("1500") to integers and breaks
// the read side.
type Entry struct {
	Key       string         `gorm:"primaryKey"`
	Value     datatypes.JSON `gorm:"type:text"`
	UpdatedAt time.Time
}

// Store is a SQLite-backed key-value store holding session state, TTL
// caches, dirty flags and watermarks. Readers must treat any malformed row
// as absent; the store itself never fails a read loudly.
type Store struct {
	db  *gorm.DB
	log *logger.Logger

	// now is swappable so TTL behavior is testable.
	now func() time.Time
}

func Open(path string, log *logger.Logger) (*Store, error) {
	s := &Store{log: log.With("component", "Store"), now: time.Now}

	// Gorm stamps UpdatedAt itself on save, so its NowFunc must be the
	// store clock or SetClock would have no effect on write stamps.
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return s.now() },
	})
	if err != nil {
		return nil, fmt.Errorf("open store %q: %w", path, err)
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("migrate store: %w", err)
	}

	s.db = db
	return s, nil
}

// SetClock overrides the store clock. Test helper.
func (s *Store) SetClock(now func() time.Time) { s.now = now }

// Get returns the raw value, its write time, and whether the key exists.
// Any read problem is reported as a miss.
func (s *Store) Get(key string) ([]byte, time.Time, bool) {
	var e Entry
	err := s.db.First(&e, "key = ?", key).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			s.log.Warn("store read failed, treating as miss", "key", key, "error", err)
		}
		return nil, time.Time{}, false
	}
	if len(e.Value) == 0 {
		return nil, time.Time{}, false
	}
	return []byte(e.Value), e.UpdatedAt, true
}

// Put upserts key with value; gorm stamps UpdatedAt from the store clock.
func (s *Store) Put(key string, value []byte) error {
	e := Entry{Key: key, Value: datatypes.JSON(value)}
	err := s.db.Save(&e).Error
	if err != nil {
		return fmt.Errorf("store write %q: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(key string) error {
	return s.db.Delete(&Entry{}, "key = ?", key).Error
}

// DeletePrefix removes every key starting with prefix. Used at logout to
// drop all per-user cache entries in one sweep.
func (s *Store) DeletePrefix(prefix string) error {
	like := strings.ReplaceAll(strings.ReplaceAll(prefix, "%", `\%`), "_", `\_`) + "%"
	return s.db.Delete(&Entry{}, `key LIKE ? ESCAPE '\'`, like).Error
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) Now() time.Time { return s.now() }
