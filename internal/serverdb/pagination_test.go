package serverdb

import (
	"database/sql"
	"encoding/base64"
	"fmt"
	"testing"

	_ "modernc.org/sqlite"
)

func TestNormalizeLimit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, DefaultPageLimit},
		{-5, DefaultPageLimit},
		{25, 25},
		{MaxPageLimit, MaxPageLimit},
		{500, MaxPageLimit},
	}
	for _, tt := range tests {
		if got := NormalizeLimit(tt.in); got != tt.want {
			t.Errorf("NormalizeLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestCursorRoundtrip(t *testing.T) {
	encoded := EncodeCursor(Cursor{Seq: 42})
	if encoded == "" {
		t.Fatal("encoded cursor should not be empty")
	}
	decoded, err := DecodeCursor(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Seq != 42 {
		t.Fatalf("roundtrip mismatch: got %+v", decoded)
	}
}

func TestDecodeCursorEmpty(t *testing.T) {
	c, err := DecodeCursor("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Seq != 0 {
		t.Fatalf("expected zero cursor, got %+v", c)
	}
}

func TestDecodeCursorInvalid(t *testing.T) {
	for _, s := range []string{
		"not-base64!!!",
		base64.URLEncoding.EncodeToString([]byte("not json")),
		base64.URLEncoding.EncodeToString([]byte(`{"seq":0}`)),
	} {
		if _, err := DecodeCursor(s); err == nil {
			t.Errorf("DecodeCursor(%q): expected error", s)
		}
	}
}

func setupPageDB(t *testing.T, n int) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`CREATE TABLE items (seq INTEGER PRIMARY KEY, name TEXT NOT NULL)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	for i := 1; i <= n; i++ {
		if _, err := db.Exec(`INSERT INTO items (seq, name) VALUES (?, ?)`, i, fmt.Sprintf("item-%d", i)); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	return db
}

func scanItem(rows *sql.Rows) (string, int64, error) {
	var seq int64
	var name string
	err := rows.Scan(&seq, &name)
	return name, seq, err
}

func TestPageQueryWalksNewestFirst(t *testing.T) {
	db := setupPageDB(t, 5)

	var got []string
	cursor := ""
	pages := 0
	for {
		page, err := pageQuery(db, `SELECT seq, name FROM items`, nil, 2, cursor, "seq", scanItem)
		if err != nil {
			t.Fatalf("page %d: %v", pages, err)
		}
		pages++
		got = append(got, page.Data...)
		if !page.HasMore {
			if page.NextCursor != "" {
				t.Fatalf("last page should have no cursor, got %q", page.NextCursor)
			}
			break
		}
		cursor = page.NextCursor
	}

	want := []string{"item-5", "item-4", "item-3", "item-2", "item-1"}
	if pages != 3 {
		t.Fatalf("expected 3 pages, got %d", pages)
	}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestPageQueryEmpty(t *testing.T) {
	db := setupPageDB(t, 0)
	page, err := pageQuery(db, `SELECT seq, name FROM items`, nil, 10, "", "seq", scanItem)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if page.Data == nil || len(page.Data) != 0 || page.HasMore {
		t.Fatalf("expected empty non-nil page, got %+v", page)
	}
}

func TestPageQueryWithWhere(t *testing.T) {
	db := setupPageDB(t, 6)
	page, err := pageQuery(db, `SELECT seq, name FROM items WHERE seq % 2 = 0`, nil, 2, "", "seq", scanItem)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if !page.HasMore || fmt.Sprint(page.Data) != "[item-6 item-4]" {
		t.Fatalf("unexpected first page: %+v", page)
	}
	page, err = pageQuery(db, `SELECT seq, name FROM items WHERE seq % 2 = 0`, nil, 2, page.NextCursor, "seq", scanItem)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if page.HasMore || fmt.Sprint(page.Data) != "[item-2]" {
		t.Fatalf("unexpected second page: %+v", page)
	}
}
