// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hqnguyen/wastenet-go/internal/conf"
	"github.com/hqnguyen/wastenet-go/internal/errors"
)

// ErrRecordNotFound is returned when a lookup matches no row.
var ErrRecordNotFound = errors.NewStd("record not found")

// RecordFilters narrows a record listing. Zero values mean "no filter".
type RecordFilters struct {
	Labels    []string // waste type labels, empty for all
	StartDate string   // inclusive, YYYY-MM-DD
	EndDate   string   // inclusive, YYYY-MM-DD
	Limit     int
	Offset    int
}

// Interface abstracts the underlying database implementation and defines
// the operations the rest of the application uses.
type Interface interface {
	Open() error
	Close() error

	Save(record *WasteRecord) error
	Get(id string) (WasteRecord, error)
	SearchRecords(filters RecordFilters) ([]WasteRecord, int64, error)
	GetRecentRecords(limit int) ([]WasteRecord, error)
	CountRecords() (int64, error)

	WasteTypes() ([]WasteType, error)
	GetWasteType(id uint) (WasteType, error)
	GetWasteTypeByLabel(label string) (WasteType, error)
	EnsureWasteType(wasteType *WasteType) error
	DeleteWasteType(id uint) error

	CountsByType() ([]TypeCount, error)
	AvgConfidenceByType() ([]TypeConfidence, error)
	CountsOverTime(start, end time.Time) ([]DailyTypeCount, error)
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB // GORM database instance
}

// New creates a store instance based on the enabled output in settings.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{Settings: settings}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{Settings: settings}
	default:
		return nil
	}
}

// Save inserts a new waste record. A zero timestamp is assigned by GORM
// at insert time; an explicitly set one is kept.
func (ds *DataStore) Save(record *WasteRecord) error {
	if ds.DB == nil {
		return errors.NewStd("database connection is not initialized")
	}

	if err := ds.DB.Create(record).Error; err != nil {
		return errors.New(fmt.Errorf("saving waste record: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("type_id", record.TypeID).
			Build()
	}
	return nil
}

// Get retrieves a waste record by its ID with its type preloaded.
func (ds *DataStore) Get(id string) (WasteRecord, error) {
	recordID, err := strconv.Atoi(id)
	if err != nil {
		return WasteRecord{}, fmt.Errorf("converting ID to integer: %w", err)
	}

	var record WasteRecord
	if err := ds.DB.Preload("Type").First(&record, recordID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return WasteRecord{}, ErrRecordNotFound
		}
		return WasteRecord{}, fmt.Errorf("getting record with ID %d: %w", recordID, err)
	}
	return record, nil
}

// SearchRecords returns records matching the filters, newest first, along
// with the total match count for pagination.
func (ds *DataStore) SearchRecords(filters RecordFilters) ([]WasteRecord, int64, error) {
	query := ds.DB.Model(&WasteRecord{})

	if len(filters.Labels) > 0 {
		query = query.Joins("JOIN waste_types ON waste_types.id = waste_records.type_id").
			Where("waste_types.label IN ?", filters.Labels)
	}

	if filters.StartDate != "" {
		start, err := time.ParseInLocation("2006-01-02", filters.StartDate, time.Local)
		if err != nil {
			return nil, 0, fmt.Errorf("parsing start_date %q: %w", filters.StartDate, err)
		}
		query = query.Where("waste_records.timestamp >= ?", start)
	}

	if filters.EndDate != "" {
		end, err := time.ParseInLocation("2006-01-02", filters.EndDate, time.Local)
		if err != nil {
			return nil, 0, fmt.Errorf("parsing end_date %q: %w", filters.EndDate, err)
		}
		// inclusive of the whole end day
		query = query.Where("waste_records.timestamp < ?", end.AddDate(0, 0, 1))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting records: %w", err)
	}

	var records []WasteRecord
	err := query.Preload("Type").
		Order("waste_records.timestamp DESC, waste_records.id DESC").
		Limit(filters.Limit).
		Offset(filters.Offset).
		Find(&records).Error
	if err != nil {
		return nil, 0, fmt.Errorf("searching records: %w", err)
	}

	return records, total, nil
}

// GetRecentRecords returns the newest records up to the given limit.
func (ds *DataStore) GetRecentRecords(limit int) ([]WasteRecord, error) {
	var records []WasteRecord
	err := ds.DB.Preload("Type").
		Order("timestamp DESC, id DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("getting recent records: %w", err)
	}
	return records, nil
}

// CountRecords returns the total number of waste records.
func (ds *DataStore) CountRecords() (int64, error) {
	var count int64
	if err := ds.DB.Model(&WasteRecord{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return count, nil
}

// WasteTypes returns all waste types ordered by ID.
func (ds *DataStore) WasteTypes() ([]WasteType, error) {
	var types []WasteType
	if err := ds.DB.Order("id ASC").Find(&types).Error; err != nil {
		return nil, fmt.Errorf("getting waste types: %w", err)
	}
	return types, nil
}

// GetWasteType retrieves a waste type by ID.
func (ds *DataStore) GetWasteType(id uint) (WasteType, error) {
	var wasteType WasteType
	if err := ds.DB.First(&wasteType, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return WasteType{}, ErrRecordNotFound
		}
		return WasteType{}, fmt.Errorf("getting waste type %d: %w", id, err)
	}
	return wasteType, nil
}

// GetWasteTypeByLabel retrieves a waste type by its machine label.
func (ds *DataStore) GetWasteTypeByLabel(label string) (WasteType, error) {
	var wasteType WasteType
	if err := ds.DB.Where("label = ?", label).First(&wasteType).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return WasteType{}, ErrRecordNotFound
		}
		return WasteType{}, fmt.Errorf("getting waste type %q: %w", label, err)
	}
	return wasteType, nil
}

// EnsureWasteType inserts the waste type if no type with its label exists
// yet. An existing row is left untouched and loaded into wasteType.
func (ds *DataStore) EnsureWasteType(wasteType *WasteType) error {
	err := ds.DB.Where(WasteType{Label: wasteType.Label}).FirstOrCreate(wasteType).Error
	if err != nil {
		return errors.New(fmt.Errorf("ensuring waste type %q: %w", wasteType.Label, err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return nil
}

// DeleteWasteType removes a waste type and all records referencing it in a
// single transaction. This cascade is intentional and destructive.
func (ds *DataStore) DeleteWasteType(id uint) error {
	var wasteType WasteType
	if err := ds.DB.First(&wasteType, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRecordNotFound
		}
		return fmt.Errorf("getting waste type %d: %w", id, err)
	}

	return ds.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("type_id = ?", id).Delete(&WasteRecord{}).Error; err != nil {
			return fmt.Errorf("deleting records for type %d: %w", id, err)
		}
		if err := tx.Delete(&WasteType{}, id).Error; err != nil {
			return fmt.Errorf("deleting waste type %d: %w", id, err)
		}
		return nil
	})
}

// createGormLogger configures and returns a new GORM logger instance.
func createGormLogger() logger.Interface {
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: 200 * time.Millisecond,
			LogLevel:      logger.Warn,
			Colorful:      true,
		},
	)
}

// performAutoMigration migrates the schema for the given database.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	if err := db.AutoMigrate(&WasteType{}, &WasteRecord{}); err != nil {
		return fmt.Errorf("failed to auto-migrate %s database: %w", dbType, err)
	}
	if debug {
		log.Printf("%s database connection initialized: %s", dbType, connectionInfo)
	}
	return nil
}
