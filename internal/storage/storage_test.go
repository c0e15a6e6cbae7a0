package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type note struct {
	ID    string   `json:"id"`
	Body  string   `json:"body"`
	Tags  []string `json:"tags"`
	Count int      `json:"count"`
}

func backends(t *testing.T) map[string]func() Collection[note] {
	t.Helper()
	return map[string]func() Collection[note]{
		"memory": func() Collection[note] { return NewMemory[note]() },
		"sqlite": func() Collection[note] {
			db, err := OpenSQLite(":memory:")
			require.NoError(t, err)
			t.Cleanup(func() { _ = db.Close() })
			return NewSQLite[note](db, "notes")
		},
	}
}

func TestCollection(t *testing.T) {
	ctx := context.Background()

	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			t.Run("insert and get", func(t *testing.T) {
				c := open()
				require.NoError(t, c.Insert(ctx, "a", note{ID: "a", Body: "first", Tags: []string{"x"}}))

				got, err := c.Get(ctx, "a")
				require.NoError(t, err)
				assert.Equal(t, "first", got.Body)
				assert.Equal(t, []string{"x"}, got.Tags)

				err = c.Insert(ctx, "a", note{ID: "a"})
				assert.True(t, errors.Is(err, ErrExists))

				_, err = c.Get(ctx, "missing")
				assert.True(t, errors.Is(err, ErrNotFound))
			})

			t.Run("find keeps insertion order", func(t *testing.T) {
				c := open()
				for _, id := range []string{"c", "a", "b"} {
					require.NoError(t, c.Insert(ctx, id, note{ID: id, Count: len(id)}))
				}
				require.NoError(t, c.Put(ctx, "a", note{ID: "a", Body: "replaced"}))

				all, err := c.Find(ctx, nil)
				require.NoError(t, err)
				require.Len(t, all, 3)
				assert.Equal(t, "c", all[0].ID)
				assert.Equal(t, "a", all[1].ID)
				assert.Equal(t, "replaced", all[1].Body)

				some, err := c.Find(ctx, func(n note) bool { return n.ID != "c" })
				require.NoError(t, err)
				assert.Len(t, some, 2)
			})

			t.Run("patch", func(t *testing.T) {
				c := open()
				require.NoError(t, c.Insert(ctx, "a", note{ID: "a"}))

				got, err := c.Patch(ctx, "a", func(n *note) error {
					n.Count++
					return nil
				})
				require.NoError(t, err)
				assert.Equal(t, 1, got.Count)

				stored, err := c.Get(ctx, "a")
				require.NoError(t, err)
				assert.Equal(t, 1, stored.Count)

				boom := errors.New("boom")
				_, err = c.Patch(ctx, "a", func(n *note) error {
					n.Count = 99
					return boom
				})
				assert.ErrorIs(t, err, boom)
				stored, _ = c.Get(ctx, "a")
				assert.Equal(t, 1, stored.Count)

				_, err = c.Patch(ctx, "missing", func(*note) error { return nil })
				assert.ErrorIs(t, err, ErrNotFound)
			})

			t.Run("delete", func(t *testing.T) {
				c := open()
				for _, id := range []string{"a", "b", "c", "d"} {
					require.NoError(t, c.Insert(ctx, id, note{ID: id}))
				}
				require.NoError(t, c.Delete(ctx, "a"))
				assert.ErrorIs(t, c.Delete(ctx, "a"), ErrNotFound)

				n, err := c.DeleteWhere(ctx, func(x note) bool { return x.ID == "b" || x.ID == "d" })
				require.NoError(t, err)
				assert.Equal(t, 2, n)

				n, err = c.DeleteWhere(ctx, func(x note) bool { return x.ID == "b" })
				require.NoError(t, err)
				assert.Equal(t, 0, n)

				count, err := c.Count(ctx)
				require.NoError(t, err)
				assert.Equal(t, 1, count)
			})
		})
	}
}

func TestSQLite_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "data")

	db, err := OpenSQLite(dir)
	require.NoError(t, err)
	require.NoError(t, NewSQLite[note](db, "notes").Insert(ctx, "a", note{ID: "a", Body: "kept"}))
	require.NoError(t, NewSQLite[note](db, "other").Insert(ctx, "a", note{ID: "a", Body: "separate"}))
	require.NoError(t, db.Close())

	db, err = OpenSQLite(dir)
	require.NoError(t, err)
	defer db.Close()

	got, err := NewSQLite[note](db, "notes").Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "kept", got.Body)
	assert.Equal(t, filepath.Join(dir, DBFileName), db.Path())
}
