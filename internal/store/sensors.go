package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"plume/internal/geo"
	"plume/internal/sensor"
)

const sensorColumns = "sensor_id, parent_id, sensor_name, latitude, longitude, sensor_location, hidden, type, " +
	"primary_feed_id, primary_feed_key, secondary_feed_id, secondary_feed_key, " +
	"created_date, last_seen_date, firmware_version, signal_strength, processed"

// GetByID fetches a sensor by identifier. Returns nil when unknown.
func (s *Store) GetByID(ctx context.Context, id int64) (*sensor.Sensor, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sensorColumns+` FROM sensor_info WHERE sensor_id = ?`, id)
	sn, err := scanSensor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get sensor: %w", err)
	}
	return sn, nil
}

// ProcessedInBox returns settled sensors whose coordinates fall inside the
// bounding box, ordered by id. The range predicate runs in SQL; callers
// re-check each row with geo.Box.Contains as defense in depth.
func (s *Store) ProcessedInBox(ctx context.Context, box geo.Box) ([]*sensor.Sensor, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sensorColumns+` FROM sensor_info
         WHERE processed = 1
           AND latitude >= ? AND latitude <= ?
           AND longitude >= ? AND longitude <= ?
         ORDER BY sensor_id`,
		box.MinLat, box.MaxLat, box.MinLon, box.MaxLon,
	)
	if err != nil {
		return nil, fmt.Errorf("query sensors in box: %w", err)
	}
	defer rows.Close()

	var sensors []*sensor.Sensor
	for rows.Next() {
		sn, err := scanSensor(rows)
		if err != nil {
			return nil, err
		}
		sensors = append(sensors, sn)
	}
	return sensors, rows.Err()
}

// List returns sensors ordered by id. A non-positive limit returns
// everything.
func (s *Store) List(ctx context.Context, limit int) ([]*sensor.Sensor, error) {
	query := `SELECT ` + sensorColumns + ` FROM sensor_info ORDER BY sensor_id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sensors: %w", err)
	}
	defer rows.Close()

	var sensors []*sensor.Sensor
	for rows.Next() {
		sn, err := scanSensor(rows)
		if err != nil {
			return nil, err
		}
		sensors = append(sensors, sn)
	}
	return sensors, rows.Err()
}

// MarkProcessed settles the given sensors so future syncs leave them
// untouched. Returns the number of sensors newly settled.
func (s *Store) MarkProcessed(ctx context.Context, ids ...int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := makePlaceholders(len(ids))
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE sensor_info SET processed = 1 WHERE sensor_id IN (`+placeholders+`) AND processed = 0`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("mark processed: %w", err)
	}
	return res.RowsAffected()
}

// MarkAllProcessed settles every unsettled sensor with a known location.
func (s *Store) MarkAllProcessed(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE sensor_info SET processed = 1
         WHERE processed = 0 AND latitude IS NOT NULL AND longitude IS NOT NULL`,
	)
	if err != nil {
		return 0, fmt.Errorf("mark all processed: %w", err)
	}
	return res.RowsAffected()
}

// Counts reports total and settled sensor counts.
func (s *Store) Counts(ctx context.Context) (total, processed int, err error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1), COALESCE(SUM(processed), 0) FROM sensor_info`)
	if err := row.Scan(&total, &processed); err != nil {
		return 0, 0, fmt.Errorf("count sensors: %w", err)
	}
	return total, processed, nil
}

// Batch groups sensor upserts into one transaction so registry sync
// progress is durable in bounded chunks.
type Batch struct {
	tx *sql.Tx
}

// BeginBatch starts a new write transaction.
func (s *Store) BeginBatch(ctx context.Context) (*Batch, error) {
	tx, err := s.db.BeginTx(ensureContext(ctx), nil)
	if err != nil {
		return nil, fmt.Errorf("begin batch: %w", err)
	}
	return &Batch{tx: tx}, nil
}

// Upsert inserts a new sensor or refreshes an existing one. Inserts start
// unsettled; updates never touch the processed flag.
func (b *Batch) Upsert(ctx context.Context, sn *sensor.Sensor) error {
	if sn == nil {
		return errors.New("sensor is nil")
	}
	_, err := b.tx.ExecContext(ensureContext(ctx),
		`INSERT INTO sensor_info (
            sensor_id, parent_id, sensor_name, latitude, longitude, sensor_location,
            hidden, type, primary_feed_id, primary_feed_key,
            secondary_feed_id, secondary_feed_key, created_date, last_seen_date,
            firmware_version, signal_strength, processed
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)
        ON CONFLICT(sensor_id) DO UPDATE SET
            parent_id = excluded.parent_id,
            sensor_name = excluded.sensor_name,
            latitude = excluded.latitude,
            longitude = excluded.longitude,
            sensor_location = excluded.sensor_location,
            hidden = excluded.hidden,
            type = excluded.type,
            primary_feed_id = excluded.primary_feed_id,
            primary_feed_key = excluded.primary_feed_key,
            secondary_feed_id = excluded.secondary_feed_id,
            secondary_feed_key = excluded.secondary_feed_key,
            created_date = excluded.created_date,
            last_seen_date = excluded.last_seen_date,
            firmware_version = excluded.firmware_version,
            signal_strength = excluded.signal_strength`,
		sn.ID,
		nullableInt64(sn.ParentID),
		sn.Name,
		nullableFloat64(sn.Latitude),
		nullableFloat64(sn.Longitude),
		sn.LocationType,
		boolToInt(sn.Hidden),
		sn.Type,
		sn.PrimaryFeedID,
		sn.PrimaryFeedKey,
		sn.SecondaryFeedID,
		sn.SecondaryFeedKey,
		nullableTime(sn.CreatedDate),
		nullableTime(sn.LastSeen),
		sn.FirmwareVersion,
		nullableInt64(sn.SignalStrength),
	)
	if err != nil {
		return fmt.Errorf("upsert sensor %d: %w", sn.ID, err)
	}
	return nil
}

// Commit makes the batch durable.
func (b *Batch) Commit() error {
	if err := b.tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// Rollback discards the batch. Safe to call after Commit.
func (b *Batch) Rollback() error {
	err := b.tx.Rollback()
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

func scanSensor(scanner interface{ Scan(dest ...any) error }) (*sensor.Sensor, error) {
	var (
		id           int64
		parentID     sql.NullInt64
		name         sql.NullString
		latitude     sql.NullFloat64
		longitude    sql.NullFloat64
		location     sql.NullString
		hidden       sql.NullInt64
		sensorType   sql.NullString
		primaryID    sql.NullString
		primaryKey   sql.NullString
		secondaryID  sql.NullString
		secondaryKey sql.NullString
		createdRaw   sql.NullString
		lastSeenRaw  sql.NullString
		firmware     sql.NullString
		signal       sql.NullInt64
		processed    sql.NullInt64
	)

	if err := scanner.Scan(
		&id,
		&parentID,
		&name,
		&latitude,
		&longitude,
		&location,
		&hidden,
		&sensorType,
		&primaryID,
		&primaryKey,
		&secondaryID,
		&secondaryKey,
		&createdRaw,
		&lastSeenRaw,
		&firmware,
		&signal,
		&processed,
	); err != nil {
		return nil, err
	}

	sn := &sensor.Sensor{
		ID:               id,
		Name:             name.String,
		LocationType:     location.String,
		Hidden:           hidden.Int64 != 0,
		Type:             sensorType.String,
		PrimaryFeedID:    primaryID.String,
		PrimaryFeedKey:   primaryKey.String,
		SecondaryFeedID:  secondaryID.String,
		SecondaryFeedKey: secondaryKey.String,
		FirmwareVersion:  firmware.String,
		Processed:        processed.Int64 != 0,
	}
	if parentID.Valid {
		v := parentID.Int64
		sn.ParentID = &v
	}
	if latitude.Valid {
		v := latitude.Float64
		sn.Latitude = &v
	}
	if longitude.Valid {
		v := longitude.Float64
		sn.Longitude = &v
	}
	if signal.Valid {
		v := signal.Int64
		sn.SignalStrength = &v
	}
	if createdRaw.Valid {
		if created, err := parseTimeString(createdRaw.String); err == nil {
			sn.CreatedDate = &created
		}
	}
	if lastSeenRaw.Valid {
		if lastSeen, err := parseTimeString(lastSeenRaw.String); err == nil {
			sn.LastSeen = &lastSeen
		}
	}
	return sn, nil
}

func nullableInt64(value *int64) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableFloat64(value *float64) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
