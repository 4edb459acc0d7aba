// internal/store/postgres.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"backcheck-service/internal/config"
)

// storedTime is fixed width so jsonb text ordering matches time ordering.
const storedTime = "2006-01-02T15:04:05.000000000Z"

var fieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// documentRow keeps every collection in one jsonb table.
type documentRow struct {
	Collection string         `gorm:"primaryKey;type:varchar(64)"`
	ID         string         `gorm:"primaryKey;type:varchar(128)"`
	Data       datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (documentRow) TableName() string {
	return "documents"
}

// Postgres is a DocumentStore for deployments that keep data in their own
// database instead of Firestore.
type Postgres struct {
	db *gorm.DB
}

func NewPostgres(cfg *config.Config) (*Postgres, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPass, cfg.DBName, cfg.DBSSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	// Auto-migrate (safe in dev; use migrations in prod)
	if err := db.AutoMigrate(&documentRow{}); err != nil {
		return nil, fmt.Errorf("migrate documents: %w", err)
	}

	log.Println("✅ [STORE] Postgres connected & migrated")
	return &Postgres{db: db}, nil
}

func (p *Postgres) Get(ctx context.Context, collection, id string) (Document, error) {
	var row documentRow
	err := p.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return decodeRow(row)
}

func (p *Postgres) Put(ctx context.Context, collection, id string, doc Document) error {
	row, err := encodeRow(collection, id, doc)
	if err != nil {
		return err
	}
	err = p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collection"}, {Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", collection, id, err)
	}
	return nil
}

func (p *Postgres) Create(ctx context.Context, collection, id string, doc Document) error {
	row, err := encodeRow(collection, id, doc)
	if err != nil {
		return err
	}
	res := p.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if res.Error != nil {
		return fmt.Errorf("create %s/%s: %w", collection, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrAlreadyExists)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, collection, id string) error {
	err := p.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		Delete(&documentRow{}).Error
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (p *Postgres) Append(ctx context.Context, collection string, doc Document) (string, error) {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:20]
	if err := p.Create(ctx, collection, id, doc); err != nil {
		return "", err
	}
	return id, nil
}

func (p *Postgres) Query(ctx context.Context, q Query) ([]Snapshot, error) {
	tx := p.db.WithContext(ctx).Model(&documentRow{}).Where("collection = ?", q.Collection)
	for _, f := range q.Filters {
		if !fieldName.MatchString(f.Field) {
			return nil, fmt.Errorf("query %s: invalid field %q", q.Collection, f.Field)
		}
		tx = tx.Where(datatypes.JSONQuery("data").Equals(storedValue(f.Value), f.Field))
	}
	if q.OrderBy != nil {
		if !fieldName.MatchString(q.OrderBy.Field) {
			return nil, fmt.Errorf("query %s: invalid order field %q", q.Collection, q.OrderBy.Field)
		}
		tx = tx.Where(datatypes.JSONQuery("data").HasKey(q.OrderBy.Field))
		tx = tx.Order(clause.OrderByColumn{
			Column: clause.Column{Name: fmt.Sprintf("data->>'%s'", q.OrderBy.Field), Raw: true},
			Desc:   q.OrderBy.Direction == Desc,
		})
	}
	tx = tx.Order("id")
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var rows []documentRow
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Collection, err)
	}
	out := make([]Snapshot, 0, len(rows))
	for _, row := range rows {
		doc, err := decodeRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, Snapshot{ID: row.ID, Data: doc})
	}
	return out, nil
}

func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func encodeRow(collection, id string, doc Document) (documentRow, error) {
	raw, err := json.Marshal(storedValue(doc))
	if err != nil {
		return documentRow{}, fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	return documentRow{Collection: collection, ID: id, Data: datatypes.JSON(raw)}, nil
}

func decodeRow(row documentRow) (Document, error) {
	var doc Document
	if err := json.Unmarshal(row.Data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", row.Collection, row.ID, err)
	}
	return doc, nil
}

// storedValue rewrites timestamps into their stored text form, recursively.
func storedValue(v interface{}) interface{} {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format(storedTime)
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.UTC().Format(storedTime)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, item := range t {
			out[k] = storedValue(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = storedValue(item)
		}
		return out
	}
	return v
}
