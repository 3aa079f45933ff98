// Package store persists self-hosted photo metadata in MySQL/MariaDB.
package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("not found")
var ErrDuplicate = errors.New("duplicate photo")

const (
	defaultLimit = 200
	maxLimit     = 1000
)

var allowedSort = map[string]string{
	"newest": "COALESCE(p.taken_at, p.created_at) DESC, p.created_at DESC",
	"oldest": "COALESCE(p.taken_at, p.created_at) ASC, p.created_at ASC",
	"title":  "p.title ASC",
}

const photoColumns = "p.id, p.title, p.width, p.height, p.bytes, p.mime, p.original_filename, p.sha256, p.ext, p.blurhash, p.tag_text, p.taken_at, p.created_at, p.updated_at, p.deleted_at"

type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *sqlx.DB {
	return s.db
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreatePhoto inserts a photo with its tags. When the same content is live
// already, the existing row is returned together with ErrDuplicate. A
// soft-deleted row with the same content is restored under its old id with
// the new title and tags.
func (s *Store) CreatePhoto(ctx context.Context, in PhotoCreate) (*Photo, error) {
	tags := NormalizeTags(in.Tags)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	query := `INSERT INTO photo (id, title, width, height, bytes, mime, original_filename, sha256, ext, blurhash, tag_text, taken_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, query,
		in.ID, in.Title, in.Width, in.Height, in.Bytes, in.Mime,
		in.OriginalFilename, in.SHA256, in.Ext, in.BlurHash, TagText(tags), in.TakenAt,
	)
	if err != nil {
		if !isDuplicate(err) {
			return nil, err
		}
		existing, getErr := s.fetchPhoto(ctx, tx, "p.sha256 = ?", in.SHA256)
		if getErr != nil {
			return nil, ErrDuplicate
		}
		if existing.DeletedAt == nil {
			return existing, ErrDuplicate
		}
		return s.restoreTx(ctx, tx, existing.ID, in, tags)
	}

	if err := s.replaceTagsTx(ctx, tx, in.ID, tags); err != nil {
		return nil, err
	}

	photo, err := s.fetchPhoto(ctx, tx, "p.id = ?", in.ID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return photo, nil
}

func (s *Store) restoreTx(ctx context.Context, tx *sqlx.Tx, id string, in PhotoCreate, tags []string) (*Photo, error) {
	query := `UPDATE photo SET title = ?, original_filename = ?, tag_text = ?, taken_at = ?,
	deleted_at = NULL, created_at = NOW(3), updated_at = NOW(3) WHERE id = ?`
	if _, err := tx.ExecContext(ctx, query, in.Title, in.OriginalFilename, TagText(tags), in.TakenAt, id); err != nil {
		return nil, err
	}
	if err := s.replaceTagsTx(ctx, tx, id, tags); err != nil {
		return nil, err
	}
	photo, err := s.fetchPhoto(ctx, tx, "p.id = ?", id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return photo, nil
}

func (s *Store) fetchPhoto(ctx context.Context, tx *sqlx.Tx, where string, arg any) (*Photo, error) {
	query := "SELECT " + photoColumns + " FROM photo p WHERE " + where
	var p Photo
	var err error
	if tx != nil {
		err = tx.GetContext(ctx, &p, query, arg)
	} else {
		err = s.db.GetContext(ctx, &p, query, arg)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.attachTags(ctx, tx, []*Photo{&p}); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) GetPhoto(ctx context.Context, id string) (*Photo, error) {
	return s.fetchPhoto(ctx, nil, "p.id = ? AND p.deleted_at IS NULL", id)
}

// DeletePhoto soft-deletes a photo. Its media is left in place; uploading
// the same bytes again restores the row.
func (s *Store) DeletePhoto(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE photo SET deleted_at = NOW(), updated_at = NOW() WHERE id = ? AND deleted_at IS NULL", id)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) replaceTagsTx(ctx context.Context, tx *sqlx.Tx, photoID string, tags []string) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM photo_tag WHERE photo_id = ?", photoID); err != nil {
		return err
	}
	for _, t := range tags {
		res, err := tx.ExecContext(ctx, "INSERT INTO tag (name) VALUES (?) ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id)", t)
		if err != nil {
			return err
		}
		tagID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "INSERT IGNORE INTO photo_tag (photo_id, tag_id) VALUES (?, ?)", photoID, tagID); err != nil {
			return err
		}
	}
	_, err := tx.ExecContext(ctx, "UPDATE photo SET tag_text = ?, updated_at = NOW() WHERE id = ?", TagText(tags), photoID)
	return err
}

// ListPhotos returns photos newest first unless params.Sort says otherwise.
// Tags are conjunctive.
func (s *Store) ListPhotos(ctx context.Context, params ListParams) ([]Photo, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	limit = min(limit, maxLimit)

	where := []string{"1=1"}
	args := []any{}
	if !params.IncludeDeleted {
		where = append(where, "p.deleted_at IS NULL")
	}

	join := ""
	having := ""
	if tags := NormalizeTags(params.Tags); len(tags) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(tags)), ",")
		join = "JOIN photo_tag pt ON pt.photo_id = p.id JOIN tag t ON t.id = pt.tag_id"
		where = append(where, "t.name IN ("+placeholders+")")
		args = append(args, toAny(tags)...)
		having = "HAVING COUNT(DISTINCT t.name) = ?"
		args = append(args, len(tags))
	}

	orderClause := allowedSort[params.Sort]
	if orderClause == "" {
		orderClause = allowedSort["newest"]
	}

	query := "SELECT " + photoColumns + " FROM photo p " + join +
		" WHERE " + strings.Join(where, " AND ") +
		" GROUP BY p.id " + having +
		" ORDER BY " + orderClause + " LIMIT ?"
	args = append(args, limit)

	var rows []Photo
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	photos := make([]*Photo, len(rows))
	for i := range rows {
		photos[i] = &rows[i]
	}
	if err := s.attachTags(ctx, nil, photos); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) attachTags(ctx context.Context, tx *sqlx.Tx, photos []*Photo) error {
	if len(photos) == 0 {
		return nil
	}
	ids := make([]string, len(photos))
	index := make(map[string]*Photo, len(photos))
	for i, p := range photos {
		ids[i] = p.ID
		index[p.ID] = p
		p.Tags = []string{}
	}

	query, args, err := sqlx.In("SELECT pt.photo_id, t.name FROM photo_tag pt JOIN tag t ON t.id = pt.tag_id WHERE pt.photo_id IN (?) ORDER BY t.name", ids)
	if err != nil {
		return err
	}
	var rows *sqlx.Rows
	if tx != nil {
		rows, err = tx.QueryxContext(ctx, query, args...)
	} else {
		rows, err = s.db.QueryxContext(ctx, query, args...)
	}
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var photoID, name string
		if err := rows.Scan(&photoID, &name); err != nil {
			return err
		}
		if p, ok := index[photoID]; ok {
			p.Tags = append(p.Tags, name)
		}
	}
	return rows.Err()
}

func toAny[T comparable](vals []T) []any {
	res := make([]any, len(vals))
	for i, v := range vals {
		res[i] = v
	}
	return res
}

func isDuplicate(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return false
}

// ListTags returns tag names in use by live photos, optionally filtered by
// prefix, with the total count.
func (s *Store) ListTags(ctx context.Context, prefix string, page, pageSize int) ([]string, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	base := "FROM tag t WHERE EXISTS (SELECT 1 FROM photo_tag pt JOIN photo p ON p.id = pt.photo_id WHERE pt.tag_id = t.id AND p.deleted_at IS NULL)"
	args := []any{}
	if prefix = NormalizeTag(prefix); prefix != "" {
		base += " AND t.name LIKE ?"
		args = append(args, escapeLike(prefix)+"%")
	}

	var total int
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, err
	}

	query := "SELECT t.name " + base + " ORDER BY t.name LIMIT ? OFFSET ?"
	var tags []string
	if err := s.db.SelectContext(ctx, &tags, query, append(args, pageSize, offset)...); err != nil {
		return nil, 0, err
	}
	return tags, total, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(s)
}
