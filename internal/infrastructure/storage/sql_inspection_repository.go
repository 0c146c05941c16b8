package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"vision-inspector/internal/domain/entity"
	"vision-inspector/internal/domain/port"
)

// dialect описывает различия SQLite и Postgres, которые видит репозиторий.
type dialect struct {
	name     string
	schema   string
	jsonCast string // приведение параметра к JSON-типу колонки
	numbered bool   // плейсхолдеры $1, $2 вместо ?
}

// SQLInspectionRepository хранит осмотры в одной таблице; аномалии и журнал лежат в JSON-колонках.
type SQLInspectionRepository struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

func newSQLInspectionRepository(ctx context.Context, db *sql.DB, d dialect) (*SQLInspectionRepository, error) {
	if _, err := db.ExecContext(ctx, d.schema); err != nil {
		return nil, fmt.Errorf("migrate %s: %w", d.name, err)
	}
	return &SQLInspectionRepository{db: db, dialect: d, now: time.Now}, nil
}

// Close закрывает соединение с базой
func (r *SQLInspectionRepository) Close() error {
	return r.db.Close()
}

// DB возвращает соединение для проверок и сопутствующих хранилищ
func (r *SQLInspectionRepository) DB() *sql.DB {
	return r.db
}

const selectColumns = `iid, number, transformer_number, inspection_date, maintenance_date,
	status, inspector, ref_image, anomalies, anomalies_log, version, created_at`

// Create сохраняет новый осмотр
func (r *SQLInspectionRepository) Create(ctx context.Context, insp *entity.Inspection) error {
	anomalies, err := encodeList(insp.Anomalies)
	if err != nil {
		return fmt.Errorf("encode anomalies: %w", err)
	}
	logEntries, err := encodeList(insp.AnomaliesLog)
	if err != nil {
		return fmt.Errorf("encode anomalies log: %w", err)
	}

	created := r.now().UTC().Truncate(time.Millisecond)
	query := r.rebind(fmt.Sprintf(`INSERT INTO inspections
		(number, transformer_number, inspection_date, maintenance_date, status, inspector,
		 ref_image, anomalies, anomalies_log, version, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?%[1]s, ?%[1]s, 1, ?)
		RETURNING iid`, r.dialect.jsonCast))

	var iid int64
	err = r.db.QueryRowContext(ctx, query,
		insp.Number, insp.TransformerNumber, insp.InspectionDate, insp.MaintenanceDate,
		insp.Status, insp.Inspector, insp.RefImage, string(anomalies), string(logEntries),
		created.UnixMilli(),
	).Scan(&iid)
	if err != nil {
		if taken, checkErr := r.ExistsNumber(ctx, insp.Number); checkErr == nil && taken {
			return fmt.Errorf("%w: inspection number %s already exists", entity.ErrValidation, insp.Number)
		}
		return fmt.Errorf("insert inspection: %w", err)
	}

	insp.IID = iid
	insp.Version = 1
	insp.CreatedAt = created
	return nil
}

// Get возвращает осмотр по IID
func (r *SQLInspectionRepository) Get(ctx context.Context, iid int64) (*entity.Inspection, error) {
	row := r.db.QueryRowContext(ctx,
		r.rebind(`SELECT `+selectColumns+` FROM inspections WHERE iid = ?`), iid)

	insp, err := scanInspection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: inspection %d", entity.ErrNotFound, iid)
	}
	if err != nil {
		return nil, fmt.Errorf("get inspection %d: %w", iid, err)
	}
	return insp, nil
}

// List возвращает все осмотры по возрастанию IID
func (r *SQLInspectionRepository) List(ctx context.Context) ([]*entity.Inspection, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM inspections ORDER BY iid`)
	if err != nil {
		return nil, fmt.Errorf("list inspections: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []*entity.Inspection{}
	for rows.Next() {
		insp, err := scanInspection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inspection: %w", err)
		}
		out = append(out, insp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list inspections: %w", err)
	}
	return out, nil
}

// Update заменяет снимок, аномалии и журнал одной условной записью по версии
func (r *SQLInspectionRepository) Update(ctx context.Context, insp *entity.Inspection) error {
	anomalies, err := encodeList(insp.Anomalies)
	if err != nil {
		return fmt.Errorf("encode anomalies: %w", err)
	}
	logEntries, err := encodeList(insp.AnomaliesLog)
	if err != nil {
		return fmt.Errorf("encode anomalies log: %w", err)
	}

	query := r.rebind(fmt.Sprintf(`UPDATE inspections
		SET ref_image = ?, anomalies = ?%[1]s, anomalies_log = ?%[1]s, version = version + 1
		WHERE iid = ? AND version = ?`, r.dialect.jsonCast))

	res, err := r.db.ExecContext(ctx, query,
		insp.RefImage, string(anomalies), string(logEntries), insp.IID, insp.Version)
	if err != nil {
		return fmt.Errorf("update inspection %d: %w", insp.IID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update inspection %d: %w", insp.IID, err)
	}
	if affected == 0 {
		if _, err := r.Get(ctx, insp.IID); err != nil {
			return err
		}
		return fmt.Errorf("%w: inspection %d changed since version %d", entity.ErrConflict, insp.IID, insp.Version)
	}

	insp.Version++
	return nil
}

// ExistsNumber проверяет, занят ли номер
func (r *SQLInspectionRepository) ExistsNumber(ctx context.Context, number string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		r.rebind(`SELECT COUNT(1) FROM inspections WHERE number = ?`), number).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check inspection number: %w", err)
	}
	return n > 0, nil
}

// rebind переводит плейсхолдеры ? в $N для Postgres.
func (r *SQLInspectionRepository) rebind(query string) string {
	if !r.dialect.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInspection(row rowScanner) (*entity.Inspection, error) {
	var (
		insp              entity.Inspection
		anomalies, logRaw []byte
		createdMillis     int64
	)
	err := row.Scan(&insp.IID, &insp.Number, &insp.TransformerNumber, &insp.InspectionDate,
		&insp.MaintenanceDate, &insp.Status, &insp.Inspector, &insp.RefImage,
		&anomalies, &logRaw, &insp.Version, &createdMillis)
	if err != nil {
		return nil, err
	}

	if insp.Anomalies, err = decodeAnomalies(anomalies); err != nil {
		return nil, fmt.Errorf("inspection %d anomalies: %w", insp.IID, err)
	}
	if insp.AnomaliesLog, err = decodeLog(logRaw); err != nil {
		return nil, fmt.Errorf("inspection %d anomalies log: %w", insp.IID, err)
	}
	insp.CreatedAt = time.UnixMilli(createdMillis).UTC()
	return &insp, nil
}

// Проверка реализации интерфейса
var _ port.InspectionRepository = (*SQLInspectionRepository)(nil)
