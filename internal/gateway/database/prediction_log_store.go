package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// PredictionLogStore 管理推理历史,方便后续排查请求和对账模型行为。
type PredictionLogStore struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// PredictionRecord 一次推理调用的持久化摘要。
type PredictionRecord struct {
	ID         int64              `json:"id"`
	TraceID    string             `json:"trace_id"`
	Timestamp  int64              `json:"ts"`
	Model      string             `json:"model"`
	// Source 调用来源:api / text / voice。
	Source     string             `json:"source"`
	Input      []float64          `json:"input,omitempty"`
	Params     map[string]any     `json:"params,omitempty"`
	Prediction float64            `json:"prediction"`
	Class      string             `json:"class,omitempty"`
	Proba      map[string]float64 `json:"proba,omitempty"`
	Error      string             `json:"error,omitempty"`
	DurationMS int64              `json:"duration_ms"`
}

// PredictionQuery 筛选推理历史。
type PredictionQuery struct {
	Model  string
	Source string
	Limit  int
	Offset int
}

// NewPredictionLogStore 初始化 SQLite 存储。
func NewPredictionLogStore(path string) (*PredictionLogStore, error) {
	if path == "" {
		return nil, fmt.Errorf("prediction log path 不能为空")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := ensurePredictionLogSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &PredictionLogStore{db: db, path: path}, nil
}

// Close 关闭底层 DB。
func (s *PredictionLogStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func ensurePredictionLogSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS prediction_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			trace_id TEXT,
			ts INTEGER NOT NULL,
			model TEXT NOT NULL,
			source TEXT,
			input_json TEXT,
			params_json TEXT,
			prediction REAL,
			class TEXT,
			proba_json TEXT,
			error TEXT,
			duration_ms INTEGER,
			created_at INTEGER NOT NULL
		);
		`,
		`CREATE INDEX IF NOT EXISTS idx_prediction_logs_ts ON prediction_logs(ts);`,
		`CREATE INDEX IF NOT EXISTS idx_prediction_logs_model ON prediction_logs(model);`,
		`CREATE INDEX IF NOT EXISTS idx_prediction_logs_source ON prediction_logs(source);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Insert 追加一条推理记录。
func (s *PredictionLogStore) Insert(ctx context.Context, rec PredictionRecord) (int64, error) {
	s.mu.Lock()
	db := s.db
	s.mu.Unlock()
	if db == nil {
		return 0, fmt.Errorf("prediction log store 未初始化")
	}
	ts := rec.Timestamp
	if ts == 0 {
		ts = time.Now().UnixMilli()
	}
	enc := func(v any) string {
		if v == nil {
			return ""
		}
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
	res, err := db.ExecContext(ctx, `
		INSERT INTO prediction_logs
			(trace_id, ts, model, source, input_json, params_json, prediction, class, proba_json, error, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.TraceID,
		ts,
		rec.Model,
		rec.Source,
		enc(rec.Input),
		enc(rec.Params),
		rec.Prediction,
		rec.Class,
		enc(rec.Proba),
		rec.Error,
		rec.DurationMS,
		time.Now().UnixMilli(),
	)
	if err != nil {
		return 0, err
	}
	id, _ := res.LastInsertId()
	return id, nil
}

// List 返回最新的推理记录,支持按模型/来源过滤。
func (s *PredictionLogStore) List(ctx context.Context, q PredictionQuery) ([]PredictionRecord, error) {
	s.mu.Lock()
	db := s.db
	s.mu.Unlock()
	if db == nil {
		return nil, fmt.Errorf("prediction log store 未初始化")
	}
	limit := q.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	var sb strings.Builder
	var args []any
	sb.WriteString(`SELECT id, trace_id, ts, model, source, input_json, params_json,
		prediction, class, proba_json, error, duration_ms
		FROM prediction_logs`)
	var conds []string
	if q.Model != "" {
		conds = append(conds, "model = ?")
		args = append(args, q.Model)
	}
	if q.Source != "" {
		conds = append(conds, "source = ?")
		args = append(args, q.Source)
	}
	if len(conds) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	sb.WriteString(" ORDER BY ts DESC, id DESC LIMIT ? OFFSET ?")
	args = append(args, limit, offset)

	rows, err := db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PredictionRecord
	for rows.Next() {
		var rec PredictionRecord
		var inputJSON, paramsJSON, probaJSON sql.NullString
		var class, source, traceID, errMsg sql.NullString
		if err := rows.Scan(&rec.ID, &traceID, &rec.Timestamp, &rec.Model, &source,
			&inputJSON, &paramsJSON, &rec.Prediction, &class, &probaJSON, &errMsg, &rec.DurationMS); err != nil {
			return nil, err
		}
		rec.TraceID = traceID.String
		rec.Source = source.String
		rec.Class = class.String
		rec.Error = errMsg.String
		if inputJSON.String != "" {
			_ = json.Unmarshal([]byte(inputJSON.String), &rec.Input)
		}
		if paramsJSON.String != "" {
			_ = json.Unmarshal([]byte(paramsJSON.String), &rec.Params)
		}
		if probaJSON.String != "" {
			_ = json.Unmarshal([]byte(probaJSON.String), &rec.Proba)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Count 按同样的过滤条件统计总数,分页用。
func (s *PredictionLogStore) Count(ctx context.Context, q PredictionQuery) (int64, error) {
	s.mu.Lock()
	db := s.db
	s.mu.Unlock()
	if db == nil {
		return 0, fmt.Errorf("prediction log store 未初始化")
	}
	var sb strings.Builder
	var args []any
	sb.WriteString("SELECT COUNT(1) FROM prediction_logs")
	var conds []string
	if q.Model != "" {
		conds = append(conds, "model = ?")
		args = append(args, q.Model)
	}
	if q.Source != "" {
		conds = append(conds, "source = ?")
		args = append(args, q.Source)
	}
	if len(conds) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	var n int64
	if err := db.QueryRowContext(ctx, sb.String(), args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
