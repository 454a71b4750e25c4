package detections

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/heimdex/detectq/internal/db"
)

// Repository hands out store sessions, one per query.
type Repository interface {
	Acquire(ctx context.Context) (Session, error)
}

// Session issues queries serially on one connection until closed.
type Session interface {
	// GetVideo returns nil, nil when no video has the id.
	GetVideo(ctx context.Context, videoID int64) (*Video, error)
	ListDetections(ctx context.Context, videoID int64) ([]DetectionEvent, error)
	SearchDetections(ctx context.Context, videoID int64, objectName string) ([]DetectionEvent, error)
	Close() error
}

const (
	videoQuery = `
		SELECT v.video_path, v.video_name, v.duration
		FROM videos v
		WHERE v.video_id = ?`

	listQuery = `
		SELECT o.object_name, o.start_timestamp, o.end_timestamp, o.frame
		FROM objects o
		WHERE o.video_id = ?
		ORDER BY o.object_name ASC, o.start_timestamp ASC`

	searchQuery = `
		SELECT o.object_name, o.start_timestamp, o.end_timestamp, o.frame
		FROM objects o
		WHERE o.video_id = ? AND o.object_name %s ? ESCAPE '\'
		ORDER BY o.start_timestamp ASC`

	// SQLite's LIKE folds ASCII only, so SQLite stores are filtered in Go.
	byStartQuery = `
		SELECT o.object_name, o.start_timestamp, o.end_timestamp, o.frame
		FROM objects o
		WHERE o.video_id = ?
		ORDER BY o.start_timestamp ASC`
)

type SQLRepository struct {
	db *db.DB
}

func NewRepository(database *db.DB) *SQLRepository {
	return &SQLRepository{db: database}
}

func (r *SQLRepository) Acquire(ctx context.Context) (Session, error) {
	conn, err := r.db.Conn().Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	return &sqlSession{conn: conn, dialect: r.db.Dialect()}, nil
}

type sqlSession struct {
	conn    *sql.Conn
	dialect db.Dialect
}

func (s *sqlSession) GetVideo(ctx context.Context, videoID int64) (*Video, error) {
	var path, name sql.NullString
	var duration nullFloat

	err := s.conn.QueryRowContext(ctx, s.dialect.Rebind(videoQuery), videoID).Scan(&path, &name, &duration)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &Video{
		ID:       videoID,
		Path:     path.String,
		Name:     name.String,
		Duration: duration.Value,
	}, nil
}

func (s *sqlSession) ListDetections(ctx context.Context, videoID int64) ([]DetectionEvent, error) {
	return s.queryEvents(ctx, listQuery, videoID)
}

func (s *sqlSession) SearchDetections(ctx context.Context, videoID int64, objectName string) ([]DetectionEvent, error) {
	if s.dialect == db.DialectPostgres {
		query := fmt.Sprintf(searchQuery, s.dialect.LikeOperator())
		return s.queryEvents(ctx, query, videoID, containsPattern(objectName))
	}

	events, err := s.queryEvents(ctx, byStartQuery, videoID)
	if err != nil {
		return nil, err
	}
	matched := events[:0]
	for _, ev := range events {
		if containsFold(ev.ObjectName, objectName) {
			matched = append(matched, ev)
		}
	}
	return matched, nil
}

func (s *sqlSession) queryEvents(ctx context.Context, query string, args ...interface{}) ([]DetectionEvent, error) {
	rows, err := s.conn.QueryContext(ctx, s.dialect.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []DetectionEvent
	for rows.Next() {
		var ev DetectionEvent
		var start, end nullFloat
		var frame nullInt

		if err := rows.Scan(&ev.ObjectName, &start, &end, &frame); err != nil {
			return nil, err
		}
		ev.StartTimestamp = start.Value
		ev.EndTimestamp = end.Value
		ev.Frame = frame.Value
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (s *sqlSession) Close() error {
	return s.conn.Close()
}
