package export

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibliotek-ia/bibliotek/internal/models"
	"github.com/bibliotek-ia/bibliotek/internal/storage"
)

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	s, err := storage.Open(filepath.Join(t.TempDir(), "export.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedLibrary(t *testing.T, s *storage.Store, email string, books ...models.Book) *models.User {
	t.Helper()
	ctx := context.Background()
	u, err := s.CreateUser(ctx, &models.User{Name: "Leitor", Email: email, PasswordHash: "x"})
	require.NoError(t, err)
	for _, b := range books {
		_, err := s.AddBook(ctx, u.ID, b)
		require.NoError(t, err)
	}
	return u
}

var shelf = []models.Book{
	{Title: "Duna", Author: "Frank Herbert", Genre: "Ficção Científica", Rating: 5, Status: models.StatusRead, PublicationYear: "1965"},
	{Title: "O Hobbit", Author: "J.R.R. Tolkien", Genre: "Fantasia", Rating: 4, Status: models.StatusReading, Description: "Lá e de volta outra vez"},
	{Title: "Drácula", Author: "Bram Stoker", Genre: "Terror"},
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"library.yaml", FormatYAML, false},
		{"library.YML", FormatYAML, false},
		{"library.jsonl", FormatJSONL, false},
		{"library.json", FormatJSONL, false},
		{"/tmp/out/library.parquet", FormatParquet, false},
		{"library.csv", "", true},
		{"library", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" YML ")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestExportImportRoundTrip(t *testing.T) {
	for _, ext := range []string{".yaml", ".jsonl", ".parquet"} {
		t.Run(ext, func(t *testing.T) {
			ctx := context.Background()
			store := newTestStore(t)
			seedLibrary(t, store, "ana@example.com", shelf...)
			bruno := seedLibrary(t, store, "bruno@example.com", shelf[0])

			svc := NewService(store)
			svc.now = func() time.Time { return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC) }

			path := filepath.Join(t.TempDir(), "library"+ext)
			format, err := FormatFromPath(path)
			require.NoError(t, err)

			n, err := svc.Export(ctx, "ana@example.com", path, format)
			require.NoError(t, err)
			assert.Equal(t, 3, n)

			res, err := svc.Import(ctx, "BRUNO@example.com", path)
			require.NoError(t, err)
			assert.Equal(t, ImportResult{Added: 2, Skipped: 1}, *res)

			books, err := store.ListBooks(ctx, bruno.ID)
			require.NoError(t, err)
			require.Len(t, books, 3)

			byTitle := map[string]models.Book{}
			for _, b := range books {
				byTitle[b.Title] = b
			}
			hobbit := byTitle["O Hobbit"]
			assert.Equal(t, 4, hobbit.Rating)
			assert.Equal(t, models.StatusReading, hobbit.Status)
			assert.Equal(t, "Lá e de volta outra vez", hobbit.Description)
			assert.Equal(t, models.StatusUnread, byTitle["Drácula"].Status)
		})
	}
}

func TestExportYAMLLayout(t *testing.T) {
	store := newTestStore(t)
	seedLibrary(t, store, "ana@example.com", shelf[0])

	svc := NewService(store)
	svc.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }

	path := filepath.Join(t.TempDir(), "library.yaml")
	_, err := svc.Export(context.Background(), "ana@example.com", path, FormatYAML)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(raw)
	assert.Contains(t, out, "owner: ana@example.com")
	assert.Contains(t, out, "exported_at: \"2025-03-01T12:00:00Z\"")
	assert.Contains(t, out, "title: Duna")
	assert.Contains(t, out, "publication_year: \"1965\"")
}

func TestImportSkipsInvalidRows(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	u := seedLibrary(t, store, "ana@example.com")

	path := filepath.Join(t.TempDir(), "library.jsonl")
	lines := `{"title":"Duna","author":"Frank Herbert","rating":3,"status":"read"}

{"title":"","author":"Sem Título"}
{"title":"Solaris","rating":9}
{"title":"Neuromancer","status":"abandoned"}
`
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o644))

	res, err := NewService(store).Import(ctx, u.Email, path)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Added: 1, Invalid: 3}, *res)
}

func TestImportErrors(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedLibrary(t, store, "ana@example.com")
	svc := NewService(store)

	_, err := svc.Import(ctx, "nobody@example.com", "library.yaml")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = svc.Import(ctx, "ana@example.com", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "broken.jsonl")
	require.NoError(t, os.WriteFile(bad, []byte("{not json\n"), 0o644))
	_, err = svc.Import(ctx, "ana@example.com", bad)
	assert.ErrorContains(t, err, "line 1")
}

func TestReadJSONLSkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.jsonl")
	lines := "  \t\n{\"title\":\"Duna\",\"author\":\"Frank Herbert\"}\r\n   \n\n{\"title\":\"Solaris\"}  \n"
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o644))

	records, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Duna", records[0].Title)
	assert.Equal(t, "Solaris", records[1].Title)
}
