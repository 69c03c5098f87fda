package serverdb

import (
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Page is one page of results plus the cursor for the next one.
type Page[T any] struct {
	Data       []T    `json:"data"`
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}

// Cursor is the decoded form of an opaque page cursor.
type Cursor struct {
	Seq int64 `json:"seq"`
}

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
)

// NormalizeLimit clamps limit to valid range.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageLimit
	}
	if limit > MaxPageLimit {
		return MaxPageLimit
	}
	return limit
}

// EncodeCursor encodes a cursor to an opaque base64 string.
func EncodeCursor(c Cursor) string {
	b, _ := json.Marshal(c)
	return base64.URLEncoding.EncodeToString(b)
}

// DecodeCursor decodes an opaque cursor string. The empty string is the
// zero cursor.
func DecodeCursor(s string) (Cursor, error) {
	var c Cursor
	if s == "" {
		return c, nil
	}
	b, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return c, fmt.Errorf("invalid cursor")
	}
	if err := json.Unmarshal(b, &c); err != nil || c.Seq <= 0 {
		return Cursor{}, fmt.Errorf("invalid cursor")
	}
	return c, nil
}

// pageQuery runs baseQuery (a SELECT without ORDER BY or LIMIT) one page at
// a time, newest first by seqColumn. scanRow returns the item and its seq.
// It fetches limit+1 rows to learn HasMore without a COUNT.
func pageQuery[T any](
	db *sql.DB,
	baseQuery string,
	args []any,
	limit int,
	cursor string,
	seqColumn string,
	scanRow func(*sql.Rows) (T, int64, error),
) (*Page[T], error) {
	limit = NormalizeLimit(limit)

	c, err := DecodeCursor(cursor)
	if err != nil {
		return nil, err
	}

	query := baseQuery
	if c.Seq > 0 {
		if !strings.Contains(strings.ToUpper(query), "WHERE") {
			query += " WHERE " + seqColumn + " < ?"
		} else {
			query += " AND " + seqColumn + " < ?"
		}
		args = append(args, c.Seq)
	}
	query += " ORDER BY " + seqColumn + " DESC LIMIT " + strconv.Itoa(limit+1)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("page query: %w", err)
	}
	defer rows.Close()

	var items []T
	var seqs []int64
	for rows.Next() {
		item, seq, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		items = append(items, item)
		seqs = append(seqs, seq)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	page := &Page[T]{Data: items, HasMore: len(items) > limit}
	if page.HasMore {
		page.Data = items[:limit]
		page.NextCursor = EncodeCursor(Cursor{Seq: seqs[limit-1]})
	}
	if page.Data == nil {
		page.Data = []T{}
	}
	return page, nil
}
