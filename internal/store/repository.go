// Package store provides the gorm-backed collections that hold every entity.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MarcoPoloResearchLab/wedding/backend/internal/apperr"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errMissingDatabase   = errors.New("database handle is required")
	errMissingIDProvider = errors.New("id provider is required")
	errMissingCollection = errors.New("collection name is required")
	noOpLogger           = zap.NewNop()
)

// Record is implemented by every persisted entity.
type Record interface {
	RecordID() string
	AssignID(id string)
}

// Scope narrows or orders a query.
type Scope = func(*gorm.DB) *gorm.DB

// RepositoryConfig describes the dependencies of a Repository.
type RepositoryConfig struct {
	Database   *gorm.DB
	IDProvider IDProvider
	Logger     *zap.Logger
	// Collection names the entity in error codes and log fields, e.g. "transports".
	Collection string
}

// Repository implements create/find/update/delete for one collection.
// P is the pointer type of T so records can be passed by reference to gorm.
type Repository[T any, P interface {
	*T
	Record
}] struct {
	db         *gorm.DB
	idProvider IDProvider
	logger     *zap.Logger
	collection string
}

// NewRepository validates the configuration and returns a Repository.
func NewRepository[T any, P interface {
	*T
	Record
}](cfg RepositoryConfig) (*Repository[T, P], error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	if cfg.IDProvider == nil {
		return nil, errMissingIDProvider
	}
	if strings.TrimSpace(cfg.Collection) == "" {
		return nil, errMissingCollection
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Repository[T, P]{
		db:         cfg.Database,
		idProvider: cfg.IDProvider,
		logger:     logger,
		collection: cfg.Collection,
	}, nil
}

// Collection returns the configured collection name.
func (r *Repository[T, P]) Collection() string {
	return r.collection
}

// Create validates the record, assigns an identifier and inserts it.
func (r *Repository[T, P]) Create(ctx context.Context, record P) error {
	operation := r.operation("create")
	if err := r.validate(operation, record); err != nil {
		return err
	}
	if record.RecordID() == "" {
		id, err := r.idProvider.NewID()
		if err != nil {
			r.logError(operation, "id_generation_failed", err)
			return apperr.Storage(operation, "id_generation_failed", err)
		}
		record.AssignID(id)
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		r.logError(operation, "insert_failed", err, zap.String("id", record.RecordID()))
		return apperr.Storage(operation, "insert_failed", err)
	}
	return nil
}

// Find returns every record matching the scopes.
func (r *Repository[T, P]) Find(ctx context.Context, scopes ...Scope) ([]T, error) {
	operation := r.operation("find")
	records := make([]T, 0)
	if err := r.db.WithContext(ctx).Scopes(scopes...).Find(&records).Error; err != nil {
		r.logError(operation, "query_failed", err)
		return nil, apperr.Storage(operation, "query_failed", err)
	}
	return records, nil
}

// FindByID loads one record. Blank or malformed identifiers are reported as not found.
func (r *Repository[T, P]) FindByID(ctx context.Context, id string) (T, error) {
	operation := r.operation("find_by_id")
	var record T
	if !ValidID(id) {
		return record, r.notFound(operation)
	}
	err := r.db.WithContext(ctx).Where("id = ?", strings.TrimSpace(id)).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return record, r.notFound(operation)
	}
	if err != nil {
		r.logError(operation, "query_failed", err, zap.String("id", id))
		return record, apperr.Storage(operation, "query_failed", err)
	}
	return record, nil
}

// FindFirst loads the oldest record matching the scopes.
func (r *Repository[T, P]) FindFirst(ctx context.Context, scopes ...Scope) (T, error) {
	operation := r.operation("find_first")
	var record T
	err := r.db.WithContext(ctx).Scopes(scopes...).Order("id ASC").Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return record, r.notFound(operation)
	}
	if err != nil {
		r.logError(operation, "query_failed", err)
		return record, apperr.Storage(operation, "query_failed", err)
	}
	return record, nil
}

// Save re-validates a previously loaded record and writes every column back.
func (r *Repository[T, P]) Save(ctx context.Context, record P) error {
	operation := r.operation("update")
	if record.RecordID() == "" {
		return r.notFound(operation)
	}
	if err := r.validate(operation, record); err != nil {
		return err
	}
	// Updates instead of Save: Save falls back to an insert when the row vanished.
	result := r.db.WithContext(ctx).Model(record).Select("*").Updates(record)
	if result.Error != nil {
		r.logError(operation, "save_failed", result.Error, zap.String("id", record.RecordID()))
		return apperr.Storage(operation, "save_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return r.notFound(operation)
	}
	return nil
}

// DeleteByID physically removes a record.
func (r *Repository[T, P]) DeleteByID(ctx context.Context, id string) error {
	operation := r.operation("delete")
	if !ValidID(id) {
		return r.notFound(operation)
	}
	var record T
	result := r.db.WithContext(ctx).Where("id = ?", strings.TrimSpace(id)).Delete(&record)
	if result.Error != nil {
		r.logError(operation, "delete_failed", result.Error, zap.String("id", id))
		return apperr.Storage(operation, "delete_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return r.notFound(operation)
	}
	return nil
}

// Count returns how many records match the scopes.
func (r *Repository[T, P]) Count(ctx context.Context, scopes ...Scope) (int64, error) {
	operation := r.operation("count")
	var record T
	var total int64
	if err := r.db.WithContext(ctx).Model(&record).Scopes(scopes...).Count(&total).Error; err != nil {
		r.logError(operation, "count_failed", err)
		return 0, apperr.Storage(operation, "count_failed", err)
	}
	return total, nil
}

// Exists reports whether at least one record matches the scopes.
func (r *Repository[T, P]) Exists(ctx context.Context, scopes ...Scope) (bool, error) {
	total, err := r.Count(ctx, scopes...)
	if err != nil {
		return false, err
	}
	return total > 0, nil
}

// Aggregate scans a custom select over the collection into dest.
func (r *Repository[T, P]) Aggregate(ctx context.Context, selectClause string, dest any, scopes ...Scope) error {
	operation := r.operation("aggregate")
	var record T
	if err := r.db.WithContext(ctx).Model(&record).Scopes(scopes...).Select(selectClause).Scan(dest).Error; err != nil {
		r.logError(operation, "aggregate_failed", err)
		return apperr.Storage(operation, "aggregate_failed", err)
	}
	return nil
}

// Validate runs the write-time field rules without touching the database, so
// callers can report field problems before running their own pre-write checks.
func (r *Repository[T, P]) Validate(action string, record P) error {
	return r.validate(r.operation(action), record)
}

func (r *Repository[T, P]) validate(operation string, record P) error {
	err := ValidateRecord(record)
	if err == nil {
		return nil
	}
	var fieldErrs FieldErrors
	if errors.As(err, &fieldErrs) {
		return apperr.Validation(operation, "invalid_fields", fieldErrs.Error(), err)
	}
	r.logError(operation, "validator_failed", err)
	return apperr.Storage(operation, "validator_failed", err)
}

func (r *Repository[T, P]) notFound(operation string) error {
	return apperr.NotFound(operation, "not_found", fmt.Sprintf("%s record not found", singular(r.collection)))
}

func (r *Repository[T, P]) operation(action string) string {
	return r.collection + "." + action
}

func (r *Repository[T, P]) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
		zap.String("collection", r.collection),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	r.logger.Error("store error", attrs...)
}

func singular(collection string) string {
	return strings.TrimSuffix(collection, "s")
}
