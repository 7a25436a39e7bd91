// Package duck is a records backend on an in-memory DuckDB.
package duck

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	nt "chanfilter/entity"
)

// Todo: follow a growing records file, as tail -f

type Duck struct {
	db       *sql.DB
	logger   nt.Logger
	filename string
}

// New opens an empty database; the duckdb driver must be registered.
func New(lgr nt.Logger) (dk *Duck, err error) {

	db, err := sql.Open("duckdb", "")
	if err != nil {
		err = errors.Wrapf(err, "failed to open memo duck")
		return
	}

	dk = &Duck{
		db:     db,
		logger: lgr,
	}

	return
}

func (dk *Duck) Close() {
	dk.db.Close()
}

// Name returns the name of the loaded file
func (dk *Duck) Name() string {
	return dk.filename
}

// Load a newline delimited records file.
func (dk *Duck) Load(ctx context.Context, path string) (err error) {

	err = loadRecords(ctx, dk.db, path)
	if err != nil {
		return
	}
	dk.filename = path

	count, err := dk.Count(ctx, nil)
	if err != nil {
		return
	}

	dk.logger.Info(ctx, "records loaded", "path", path, "count", count)
	return
}

// Count records matching cond, all records for nil.
func (dk *Duck) Count(ctx context.Context, cond nt.Condition) (count int, err error) {

	where, args, err := whereClause(cond)
	if err != nil {
		return
	}

	query := fmt.Sprintf("SELECT count(*) FROM records %s", where)
	err = dk.db.QueryRowContext(ctx, query, args...).Scan(&count)
	err = errors.Wrapf(err, "failed to count records")
	return
}

// Page returns records matching cond in sort order.
func (dk *Duck) Page(ctx context.Context, cond nt.Condition, sorts []nt.Sort, offset, size int) (records []nt.Record, err error) {

	where, args, err := whereClause(cond)
	if err != nil {
		return
	}

	query := fmt.Sprintf(`
		SELECT record_id, "timestamp", shotnum, activeArea, activeExperiment, channels
		FROM records %s
		ORDER BY %s
		LIMIT %d OFFSET %d
	`, where, orderBy(sorts), size, offset)

	rows, err := dk.db.QueryContext(ctx, query, args...)
	if err != nil {
		err = errors.Wrapf(err, "failed to query records")
		return
	}
	defer rows.Close()

	records = []nt.Record{}
	for rows.Next() {
		var id string
		var ts, shotnum, area, experiment, channels any

		err = rows.Scan(&id, &ts, &shotnum, &area, &experiment, &channels)
		if err != nil {
			err = errors.Wrapf(err, "failed to scan record")
			return
		}

		var rec nt.Record
		rec, err = record(id, channels)
		if err != nil {
			return
		}
		rec.Metadata[nt.TimestampField] = nt.Value{Raw: ts}
		rec.Metadata[nt.ShotnumField] = nt.Value{Raw: shotnum}
		rec.Metadata[nt.ActiveAreaField] = nt.Value{Raw: area}
		rec.Metadata[nt.ActiveExperimentField] = nt.Value{Raw: experiment}

		records = append(records, rec)
	}

	err = rows.Err()
	err = errors.Wrapf(err, "error iterating rows")
	return
}

// Channels lists the channels found in the records, in order of first
// appearance, with the type given by their channel_dtype.
// Fixed record fields are not included.
func (dk *Duck) Channels(ctx context.Context) (channels []nt.ChannelInfo, err error) {

	rows, err := dk.db.QueryContext(ctx, `
		WITH names AS (
			SELECT id, channels, unnest(json_keys(channels)) AS name
			FROM records
		)
		SELECT
			name,
			coalesce(any_value(json_extract_string(channels, '$."' || name || '".metadata.channel_dtype')), '') AS dtype,
			min(id) AS first
		FROM names
		GROUP BY name
		ORDER BY first, name
	`)
	if err != nil {
		err = errors.Wrapf(err, "failed to query channels")
		return
	}
	defer rows.Close()

	channels = []nt.ChannelInfo{}
	for rows.Next() {
		var name, dtype string
		var first int64

		err = rows.Scan(&name, &dtype, &first)
		if err != nil {
			err = errors.Wrapf(err, "failed to scan channel")
			return
		}

		channels = append(channels, nt.ChannelInfo{
			SystemName: name,
			DataType:   dataType(dtype),
		})
	}

	err = rows.Err()
	err = errors.Wrapf(err, "error iterating rows")
	return
}

// unexported

func loadRecords(ctx context.Context, db *sql.DB, path string) (err error) {

	_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS records")
	if err != nil {
		err = errors.Wrapf(err, "failed to drop table")
		return
	}

	// raw objects are read once and the fixed fields promoted to columns
	create := fmt.Sprintf(`
		CREATE TABLE records AS
		WITH raw AS (
			SELECT
				ROW_NUMBER() OVER () AS id,
				json_text::JSON AS doc
			FROM read_json_objects('%s', format='newline_delimited') AS t(json_text)
		)
		SELECT
			id,
			coalesce(json_extract_string(doc, '$.id'), id::VARCHAR) AS record_id,
			TRY_CAST(json_extract_string(doc, '$.metadata.timestamp') AS TIMESTAMP) AS "timestamp",
			TRY_CAST(json_extract_string(doc, '$.metadata.shotnum') AS DOUBLE) AS shotnum,
			json_extract_string(doc, '$.metadata.activeArea') AS activeArea,
			json_extract_string(doc, '$.metadata.activeExperiment') AS activeExperiment,
			coalesce(json_extract(doc, '$.channels'), '{}'::JSON) AS channels
		FROM raw
	`, quote(path))

	_, err = db.ExecContext(ctx, create)
	if err != nil {
		err = errors.Wrapf(err, "failed to create table from %s", path)
		return
	}

	_, err = db.ExecContext(ctx, `CREATE INDEX idx_timestamp ON records("timestamp")`)
	err = errors.Wrapf(err, "failed to create index")
	return
}

func record(id string, channels any) (rec nt.Record, err error) {

	rec = nt.Record{
		Id:       id,
		Metadata: map[string]nt.Value{},
		Channels: map[string]nt.Value{},
	}

	if channels == nil {
		return
	}

	data, ok := channels.(map[string]any)
	if !ok {
		err = errors.Errorf("expected map[string]any from driver, got %T", channels)
		return
	}

	for name, val := range data {
		ch, ok := val.(map[string]any)
		if !ok {
			rec.Channels[name] = nt.Value{Raw: val}
			continue
		}
		rec.Channels[name] = nt.Value{Raw: ch["data"]}
	}
	return
}

func dataType(dtype string) nt.DataType {

	switch dt := nt.DataType(strings.ToLower(dtype)); dt {
	case nt.Scalar, nt.Text, nt.Date, nt.Image, nt.Waveform:
		return dt
	}
	return nt.Scalar
}

// quote escapes text for use inside a single quoted sql string.
func quote(text string) string {
	return strings.ReplaceAll(text, "'", "''")
}
