package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farman-pharma/apiserver/internal/authz"
	"github.com/farman-pharma/apiserver/types"
)

func superadminActor() authz.Actor {
	return authz.Actor{UserID: 1, IsAdmin: true, Role: types.RoleSuperadmin}
}

func validNoteInput() NoteInput {
	return NoteInput{
		Title:       "Pharmacology II",
		Description: "Lecture summary",
		Type:        "PDF",
		Date:        time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		Subject:     "Pharmacology",
	}
}

func pdfUpload() *UploadFile {
	return &UploadFile{Name: "lecture notes.pdf", ContentType: "application/pdf", Data: []byte("%PDF-")}
}

func TestNoteCreateRequiresFile(t *testing.T) {
	repo := newFakeNoteRepo()
	media := &fakeMedia{}
	svc := NewNoteService(repo, media, testLogger())

	_, err := svc.Create(context.Background(), superadminActor(), validNoteInput(), nil)

	require.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, repo.notes, "no row may exist without a file")
	assert.Empty(t, media.calls, "media host must not be contacted")
}

func TestNoteCreateUploadsThenPersists(t *testing.T) {
	repo := newFakeNoteRepo()
	media := &fakeMedia{}
	svc := NewNoteService(repo, media, testLogger())

	note, err := svc.Create(context.Background(), superadminActor(), validNoteInput(), pdfUpload())

	require.NoError(t, err)
	assert.NotEmpty(t, note.FileUrl)
	assert.Equal(t, 1, note.OwnerID)
	require.Len(t, media.uploads, 1)
	assert.Contains(t, note.FileUrl, media.uploads[0])
}

func TestNoteCreateForbiddenForNonAdmin(t *testing.T) {
	repo := newFakeNoteRepo()
	media := &fakeMedia{}
	svc := NewNoteService(repo, media, testLogger())

	actor := authz.Actor{UserID: 5}
	_, err := svc.Create(context.Background(), actor, validNoteInput(), pdfUpload())

	require.ErrorIs(t, err, ErrForbidden)
	assert.Empty(t, media.calls)
}

func TestNoteCreateUploadFailureLeavesNoRow(t *testing.T) {
	repo := newFakeNoteRepo()
	media := &fakeMedia{uploadErr: errors.New("host unavailable")}
	svc := NewNoteService(repo, media, testLogger())

	_, err := svc.Create(context.Background(), superadminActor(), validNoteInput(), pdfUpload())

	require.ErrorIs(t, err, ErrUpstream)
	assert.Empty(t, repo.notes)
}

func TestNoteUpdateUploadsNewBeforeDeletingOld(t *testing.T) {
	existing := types.Note{
		ID:      3,
		Title:   "Old",
		FileUrl: "https://media.example.com/farman-pharma/old.pdf",
		OwnerID: 1,
	}
	repo := newFakeNoteRepo(existing)
	media := &fakeMedia{}
	svc := NewNoteService(repo, media, testLogger())

	note, err := svc.Update(context.Background(), superadminActor(), 3, validNoteInput(), pdfUpload())

	require.NoError(t, err)
	require.Equal(t, []string{"upload", "delete"}, media.calls)
	assert.Equal(t, []string{existing.FileUrl}, media.deletes)
	assert.NotEqual(t, existing.FileUrl, note.FileUrl)
}

func TestNoteUpdateSucceedsWhenOldDeleteFails(t *testing.T) {
	existing := types.Note{ID: 3, FileUrl: "https://media.example.com/farman-pharma/old.pdf", OwnerID: 1}
	repo := newFakeNoteRepo(existing)
	media := &fakeMedia{deleteErr: errors.New("object locked")}
	svc := NewNoteService(repo, media, testLogger())

	note, err := svc.Update(context.Background(), superadminActor(), 3, validNoteInput(), pdfUpload())

	require.NoError(t, err, "stale-object removal is best effort")
	assert.NotEqual(t, existing.FileUrl, note.FileUrl)
}

func TestNoteUpdateWithoutFileKeepsURL(t *testing.T) {
	existing := types.Note{ID: 3, FileUrl: "https://media.example.com/farman-pharma/old.pdf", OwnerID: 1}
	repo := newFakeNoteRepo(existing)
	media := &fakeMedia{}
	svc := NewNoteService(repo, media, testLogger())

	note, err := svc.Update(context.Background(), superadminActor(), 3, validNoteInput(), nil)

	require.NoError(t, err)
	assert.Equal(t, existing.FileUrl, note.FileUrl)
	assert.Empty(t, media.calls)
}

func TestNoteDeleteRemovesObjectThenRow(t *testing.T) {
	existing := types.Note{ID: 3, FileUrl: "https://media.example.com/farman-pharma/old.pdf", OwnerID: 1}
	repo := newFakeNoteRepo(existing)
	media := &fakeMedia{}
	svc := NewNoteService(repo, media, testLogger())

	err := svc.Delete(context.Background(), superadminActor(), 3)

	require.NoError(t, err)
	assert.Equal(t, []string{existing.FileUrl}, media.deletes)
	assert.Equal(t, []int{3}, repo.deleted)
}

func TestNoteDeleteWithoutFileSkipsMediaHost(t *testing.T) {
	repo := newFakeNoteRepo(types.Note{ID: 3, OwnerID: 1})
	media := &fakeMedia{}
	svc := NewNoteService(repo, media, testLogger())

	err := svc.Delete(context.Background(), superadminActor(), 3)

	require.NoError(t, err)
	assert.Empty(t, media.calls)
	assert.Equal(t, []int{3}, repo.deleted)
}

func TestNoteDeleteKeepsRowWhenMediaRefuses(t *testing.T) {
	existing := types.Note{ID: 3, FileUrl: "https://media.example.com/farman-pharma/old.pdf", OwnerID: 1}
	repo := newFakeNoteRepo(existing)
	media := &fakeMedia{deleteErr: errors.New("object locked")}
	svc := NewNoteService(repo, media, testLogger())

	err := svc.Delete(context.Background(), superadminActor(), 3)

	require.ErrorIs(t, err, ErrUpstream)
	assert.Empty(t, repo.deleted, "row must survive a media-host failure")
	_, getErr := repo.Get(context.Background(), 3)
	assert.NoError(t, getErr)
}
