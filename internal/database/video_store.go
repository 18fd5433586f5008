package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kdimtricp/fairyland/internal/catalog"
	"github.com/kdimtricp/fairyland/internal/models"
)

// VideoStore keeps the catalog in a SQL table. Rows are ordered by an
// auto-increment position so listing follows insertion order.
type VideoStore struct {
	db *DB
}

var _ catalog.Store = (*VideoStore)(nil)

func NewVideoStore(db *DB) *VideoStore {
	return &VideoStore{db: db}
}

const videoColumns = "title, filename, views, likes, uploaded_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVideo(row rowScanner) (models.Video, error) {
	var v models.Video
	if err := row.Scan(&v.Title, &v.Filename, &v.Views, &v.Likes, &v.UploadedAt); err != nil {
		return models.Video{}, err
	}
	v.UploadedAt = v.UploadedAt.UTC()
	return v, nil
}

func (s *VideoStore) Find(ctx context.Context, filename string) (models.Video, error) {
	row := s.db.conn.QueryRowContext(ctx,
		s.db.rebind("SELECT "+videoColumns+" FROM videos WHERE filename = ?"), filename)

	v, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Video{}, catalog.ErrNotFound
	}
	if err != nil {
		return models.Video{}, fmt.Errorf("failed to get video: %w", err)
	}
	return v, nil
}

func (s *VideoStore) Insert(ctx context.Context, video models.Video) error {
	res, err := s.db.conn.ExecContext(ctx,
		s.db.rebind("INSERT INTO videos ("+videoColumns+") VALUES (?, ?, ?, ?, ?) ON CONFLICT (filename) DO NOTHING"),
		video.Title, video.Filename, video.Views, video.Likes, video.UploadedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert video: %w", err)
	}
	return expectOne(res, catalog.ErrDuplicateName)
}

func (s *VideoStore) Update(ctx context.Context, oldFilename string, video models.Video) error {
	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if video.Filename != oldFilename {
		var n int
		err := tx.QueryRowContext(ctx,
			s.db.rebind("SELECT COUNT(*) FROM videos WHERE filename = ?"), video.Filename).Scan(&n)
		if err != nil {
			return fmt.Errorf("failed to check filename: %w", err)
		}
		if n > 0 {
			return catalog.ErrDuplicateName
		}
	}

	res, err := tx.ExecContext(ctx,
		s.db.rebind("UPDATE videos SET title = ?, filename = ? WHERE filename = ?"),
		video.Title, video.Filename, oldFilename)
	if err != nil {
		return fmt.Errorf("failed to update video: %w", err)
	}
	if err := expectOne(res, catalog.ErrNotFound); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit update: %w", err)
	}
	return nil
}

func (s *VideoStore) Remove(ctx context.Context, filename string) error {
	res, err := s.db.conn.ExecContext(ctx,
		s.db.rebind("DELETE FROM videos WHERE filename = ?"), filename)
	if err != nil {
		return fmt.Errorf("failed to delete video: %w", err)
	}
	return expectOne(res, catalog.ErrNotFound)
}

func (s *VideoStore) All(ctx context.Context) ([]models.Video, error) {
	rows, err := s.db.conn.QueryContext(ctx, "SELECT "+videoColumns+" FROM videos ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	defer rows.Close()

	videos := []models.Video{}
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	return videos, nil
}

func (s *VideoStore) IncrementViews(ctx context.Context, filename string) (int64, error) {
	return s.increment(ctx, "views", filename)
}

func (s *VideoStore) IncrementLikes(ctx context.Context, filename string) (int64, error) {
	return s.increment(ctx, "likes", filename)
}

// increment is a single UPDATE ... RETURNING so concurrent calls never lose
// a count. column is always one of the two literals above.
func (s *VideoStore) increment(ctx context.Context, column, filename string) (int64, error) {
	var n int64
	err := s.db.conn.QueryRowContext(ctx,
		s.db.rebind("UPDATE videos SET "+column+" = "+column+" + 1 WHERE filename = ? RETURNING "+column),
		filename).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, catalog.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to increment %s: %w", column, err)
	}
	return n, nil
}

func (s *VideoStore) Replace(ctx context.Context, videos []models.Video) error {
	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM videos"); err != nil {
		return fmt.Errorf("failed to clear videos: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		s.db.rebind("INSERT INTO videos ("+videoColumns+") VALUES (?, ?, ?, ?, ?) ON CONFLICT (filename) DO NOTHING"))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, v := range videos {
		if _, err := stmt.ExecContext(ctx, v.Title, v.Filename, v.Views, v.Likes, v.UploadedAt.UTC()); err != nil {
			return fmt.Errorf("failed to insert %s: %w", v.Filename, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit catalog: %w", err)
	}
	return nil
}

func expectOne(res sql.Result, none error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return none
	}
	return nil
}
