package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey(t *testing.T) {
	cases := []struct {
		name   string
		url    string
		folder string
		want   string
	}{
		{
			"versioned url",
			"https://media.example.com/raw/upload/v1743130580/farman-pharma/notes.pdf",
			"farman-pharma",
			"farman-pharma/notes.pdf",
		},
		{
			"folder-anchored url",
			"https://cdn.example.com/farman-pharma/report.pdf",
			"farman-pharma",
			"farman-pharma/report.pdf",
		},
		{
			"percent-encoded space decoded",
			"https://cdn.example.com/farman-pharma/my%20notes.pdf",
			"farman-pharma",
			"farman-pharma/my notes.pdf",
		},
		{
			"bare filename assumes folder",
			"https://cdn.example.com/report.pdf",
			"farman-pharma",
			"farman-pharma/report.pdf",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			key, err := DeriveKey(tc.url, tc.folder)
			require.NoError(t, err)
			assert.Equal(t, tc.want, key)
		})
	}
}

func TestKeyVariants(t *testing.T) {
	t.Run("plain key yields a single candidate", func(t *testing.T) {
		assert.Equal(t, []string{"farman-pharma/report.pdf"}, KeyVariants("farman-pharma/report.pdf"))
	})

	t.Run("spaced key fans out over encodings", func(t *testing.T) {
		variants := KeyVariants("farman-pharma/my notes.pdf")
		assert.Equal(t, []string{
			"farman-pharma/my notes.pdf",
			"farman-pharma/my_notes.pdf",
			"farman-pharma/my%20notes.pdf",
		}, variants)
	})

	t.Run("underscored key also tries literal spaces", func(t *testing.T) {
		variants := KeyVariants("farman-pharma/my_notes.pdf")
		assert.Contains(t, variants, "farman-pharma/my notes.pdf")
	})
}

func TestObjectName(t *testing.T) {
	name := ObjectName("My Lecture Notes.pdf")
	assert.True(t, strings.HasPrefix(name, "My_Lecture_Notes-"))
	assert.True(t, strings.HasSuffix(name, ".pdf"))
	assert.NotEqual(t, name, ObjectName("My Lecture Notes.pdf"), "names must not collide")
}

// fakeBackend records operations for MediaStore tests.
type fakeBackend struct {
	objects map[string][]byte
	deletes []string
	failAll bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{objects: make(map[string][]byte)}
}

func (f *fakeBackend) EnsureBucket(context.Context) error { return nil }

func (f *fakeBackend) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.objects[key] = data
	return nil
}

func (f *fakeBackend) Delete(_ context.Context, key string) error {
	f.deletes = append(f.deletes, key)
	if f.failAll {
		return errors.New("backend unavailable")
	}
	if _, ok := f.objects[key]; !ok {
		return errors.New("no such object")
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeBackend) Bucket() string { return "test-bucket" }

func TestMediaStoreUploadReturnsURL(t *testing.T) {
	backend := newFakeBackend()
	store := NewMediaStore(backend, "farman-pharma", "https://cdn.example.com", zerolog.Nop())

	url, err := store.Upload(context.Background(), "report.pdf", strings.NewReader("data"), 4, "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/farman-pharma/report.pdf", url)
	assert.Contains(t, backend.objects, "farman-pharma/report.pdf")
}

func TestMediaStoreDeleteByURL(t *testing.T) {
	t.Run("exact key deletes on first attempt", func(t *testing.T) {
		backend := newFakeBackend()
		backend.objects["farman-pharma/report.pdf"] = []byte("x")
		store := NewMediaStore(backend, "farman-pharma", "https://cdn.example.com", zerolog.Nop())

		err := store.DeleteByURL(context.Background(), "https://cdn.example.com/farman-pharma/report.pdf")
		require.NoError(t, err)
		assert.Equal(t, []string{"farman-pharma/report.pdf"}, backend.deletes)
	})

	t.Run("falls back to underscore variant", func(t *testing.T) {
		backend := newFakeBackend()
		backend.objects["farman-pharma/my_notes.pdf"] = []byte("x")
		store := NewMediaStore(backend, "farman-pharma", "https://cdn.example.com", zerolog.Nop())

		err := store.DeleteByURL(context.Background(), "https://cdn.example.com/farman-pharma/my%20notes.pdf")
		require.NoError(t, err)
		assert.Empty(t, backend.objects)
	})

	t.Run("reports failure after exhausting variants", func(t *testing.T) {
		backend := newFakeBackend()
		backend.failAll = true
		store := NewMediaStore(backend, "farman-pharma", "https://cdn.example.com", zerolog.Nop())

		err := store.DeleteByURL(context.Background(), "https://cdn.example.com/farman-pharma/my%20notes.pdf")
		assert.Error(t, err)
		assert.Len(t, backend.deletes, 3)
	})
}
