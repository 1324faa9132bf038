package gormstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"jarvis/internal/model"
)

// ArtifactMetaStore 记录每个已加载工件的元数据:文件指纹、估计器类型、
// 列序和编码器清单。热重载时 Upsert,/models/:name/info 直接读这张表。
type ArtifactMetaStore struct {
	db *gorm.DB
}

// ArtifactMeta 工件元数据的查询视图。
type ArtifactMeta struct {
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	SHA256      string    `json:"sha256"`
	SizeBytes   int64     `json:"size_bytes"`
	Kind        string    `json:"kind"`
	FeatureCols []string  `json:"feature_cols,omitempty"`
	Encoders    []string  `json:"encoders,omitempty"`
	Classes     []string  `json:"classes,omitempty"`
	LastDate    string    `json:"last_date,omitempty"`
	LoadedAt    time.Time `json:"loaded_at"`
}

type artifactMetaModel struct {
	Name        string `gorm:"primaryKey;size:128"`
	Path        string `gorm:"size:512"`
	SHA256      string `gorm:"size:64"`
	SizeBytes   int64
	Kind        string `gorm:"size:64"`
	FeatureCols datatypes.JSON
	Encoders    datatypes.JSON
	Classes     datatypes.JSON
	LastDate    string `gorm:"size:16"`
	LoadedAt    time.Time
	UpdatedAt   time.Time
}

func (artifactMetaModel) TableName() string { return "artifact_meta" }

// NewArtifactMetaStore 初始化元数据存储。
func NewArtifactMetaStore(path string) (*ArtifactMetaStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("artifact meta store: 路径不能为空")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&artifactMetaModel{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// WAL 模式下读写可并行,连接数压到 2
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &ArtifactMetaStore{db: db}, nil
}

// Close 关闭底层连接。
func (s *ArtifactMetaStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Record 由加载钩子调用:读文件算指纹,从 Bundle 提取结构信息后落库。
func (s *ArtifactMetaStore) Record(ctx context.Context, name, path string, b *model.Bundle) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("artifact meta store 未初始化")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(data)

	rec := artifactMetaModel{
		Name:      name,
		Path:      filepath.Clean(path),
		SHA256:    hex.EncodeToString(sum[:]),
		SizeBytes: int64(len(data)),
		Kind:      bundleKind(b),
		LoadedAt:  time.Now(),
	}
	if b != nil {
		rec.FeatureCols = toJSON(b.FeatureCols)
		rec.Encoders = toJSON(encoderNames(b))
		if b.Target != nil {
			rec.Classes = toJSON(b.Target.Classes)
		}
		if !b.LastDate.IsZero() {
			rec.LastDate = b.LastDate.Format("2006-01-02")
		}
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			UpdateAll: true,
		}).
		Create(&rec).Error
}

// Get 按模型名取元数据,不存在时 ok=false。
func (s *ArtifactMetaStore) Get(ctx context.Context, name string) (ArtifactMeta, bool, error) {
	if s == nil || s.db == nil {
		return ArtifactMeta{}, false, fmt.Errorf("artifact meta store 未初始化")
	}
	var rec artifactMetaModel
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ArtifactMeta{}, false, nil
	}
	if err != nil {
		return ArtifactMeta{}, false, err
	}
	return toMeta(rec), true, nil
}

// List 返回全部工件元数据,按名字排序。
func (s *ArtifactMetaStore) List(ctx context.Context) ([]ArtifactMeta, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("artifact meta store 未初始化")
	}
	var recs []artifactMetaModel
	if err := s.db.WithContext(ctx).Order("name").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]ArtifactMeta, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toMeta(rec))
	}
	return out, nil
}

// Delete 工件文件被移除后清掉对应记录。
func (s *ArtifactMetaStore) Delete(ctx context.Context, name string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("artifact meta store 未初始化")
	}
	return s.db.WithContext(ctx).Where("name = ?", name).Delete(&artifactMetaModel{}).Error
}

func bundleKind(b *model.Bundle) string {
	if b == nil {
		return "unknown"
	}
	if b.IsRecommender() {
		return "movie_catalog"
	}
	if b.Estimator == nil {
		return "unknown"
	}
	return model.Kind(b.Estimator)
}

func encoderNames(b *model.Bundle) []string {
	if len(b.Encoders) == 0 {
		return nil
	}
	names := make([]string, 0, len(b.Encoders))
	for name := range b.Encoders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func toJSON(v any) datatypes.JSON {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

func toMeta(rec artifactMetaModel) ArtifactMeta {
	meta := ArtifactMeta{
		Name:      rec.Name,
		Path:      rec.Path,
		SHA256:    rec.SHA256,
		SizeBytes: rec.SizeBytes,
		Kind:      rec.Kind,
		LastDate:  rec.LastDate,
		LoadedAt:  rec.LoadedAt,
	}
	if len(rec.FeatureCols) > 0 {
		_ = json.Unmarshal(rec.FeatureCols, &meta.FeatureCols)
	}
	if len(rec.Encoders) > 0 {
		_ = json.Unmarshal(rec.Encoders, &meta.Encoders)
	}
	if len(rec.Classes) > 0 {
		_ = json.Unmarshal(rec.Classes, &meta.Classes)
	}
	return meta
}
