package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/farman-pharma/apiserver/internal/authz"
	"github.com/farman-pharma/apiserver/internal/storage"
	"github.com/farman-pharma/apiserver/types"
)

// NoteRepository defines persistence operations for notes.
type NoteRepository interface {
	List(ctx context.Context) ([]types.Note, error)
	Get(ctx context.Context, id int) (types.Note, error)
	Create(ctx context.Context, note types.Note) (types.Note, error)
	Update(ctx context.Context, note types.Note) (types.Note, error)
	Delete(ctx context.Context, id int) error
	ReassignOwner(ctx context.Context, fromID, toID int) error
}

// Media is the slice of the media host the content services use. Satisfied
// by *storage.MediaStore.
type Media interface {
	Upload(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error)
	DeleteByURL(ctx context.Context, rawURL string) error
}

// UploadFile is an in-memory uploaded file.
type UploadFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// NoteInput carries the metadata fields of a note create/update request.
type NoteInput struct {
	Title       string
	Description string
	Type        string
	Date        time.Time
	Subject     string
}

func (in NoteInput) validate() error {
	switch {
	case strings.TrimSpace(in.Title) == "":
		return fmt.Errorf("%w: title is required", ErrValidation)
	case strings.TrimSpace(in.Description) == "":
		return fmt.Errorf("%w: description is required", ErrValidation)
	case strings.TrimSpace(in.Type) == "":
		return fmt.Errorf("%w: type is required", ErrValidation)
	case in.Date.IsZero():
		return fmt.Errorf("%w: date is required", ErrValidation)
	case strings.TrimSpace(in.Subject) == "":
		return fmt.Errorf("%w: subject is required", ErrValidation)
	}
	return nil
}

// NoteService encapsulates note use-cases.
type NoteService struct {
	repo  NoteRepository
	media Media
	log   zerolog.Logger
}

func NewNoteService(repo NoteRepository, media Media, log zerolog.Logger) *NoteService {
	return &NoteService{repo: repo, media: media, log: log}
}

// List returns every note with owner names resolved. Public.
func (s *NoteService) List(ctx context.Context) ([]types.Note, error) {
	return s.repo.List(ctx)
}

// Get returns a single note. Public.
func (s *NoteService) Get(ctx context.Context, id int) (types.Note, error) {
	return s.repo.Get(ctx, id)
}

// Create uploads the file to the media host, then persists the note carrying
// the resulting URL. A note is never persisted without its file: validation
// and authorization run before the upload, and an upload failure aborts the
// whole operation.
func (s *NoteService) Create(ctx context.Context, actor authz.Actor, input NoteInput, file *UploadFile) (types.Note, error) {
	if !authz.Allow(actor, authz.ActionCreate, authz.ContentNote) {
		return types.Note{}, ErrForbidden
	}
	if err := input.validate(); err != nil {
		return types.Note{}, err
	}
	if file == nil || len(file.Data) == 0 {
		return types.Note{}, fmt.Errorf("%w: file is required", ErrValidation)
	}

	fileURL, err := s.uploadFile(ctx, file)
	if err != nil {
		return types.Note{}, err
	}

	note, err := s.repo.Create(ctx, types.Note{
		Title:       input.Title,
		Description: input.Description,
		Type:        input.Type,
		Date:        input.Date,
		Subject:     input.Subject,
		FileUrl:     fileURL,
		OwnerID:     actor.UserID,
	})
	if err != nil {
		// The uploaded object is now orphaned; log its URL so it can be
		// reconciled by hand.
		s.log.Error().Str("file_url", fileURL).Err(err).Msg("note insert failed after upload")
		return types.Note{}, err
	}
	return note, nil
}

// Update replaces the note's metadata wholesale. When a new file is supplied
// it is uploaded before the previous object is removed, so a failure between
// the two steps leaves an orphaned old object rather than a dangling URL.
// Old-object removal is best effort; failures are logged with the attempted
// keys and do not fail the update.
func (s *NoteService) Update(ctx context.Context, actor authz.Actor, id int, input NoteInput, file *UploadFile) (types.Note, error) {
	if !authz.Allow(actor, authz.ActionUpdate, authz.ContentNote) {
		return types.Note{}, ErrForbidden
	}
	if err := input.validate(); err != nil {
		return types.Note{}, err
	}

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Note{}, err
	}

	fileURL := existing.FileUrl
	if file != nil && len(file.Data) > 0 {
		fileURL, err = s.uploadFile(ctx, file)
		if err != nil {
			return types.Note{}, err
		}
		if existing.FileUrl != "" {
			if err := s.media.DeleteByURL(ctx, existing.FileUrl); err != nil {
				s.log.Warn().Str("file_url", existing.FileUrl).Err(err).Msg("stale note file left at media host")
			}
		}
	}

	return s.repo.Update(ctx, types.Note{
		ID:          id,
		Title:       input.Title,
		Description: input.Description,
		Type:        input.Type,
		Date:        input.Date,
		Subject:     input.Subject,
		FileUrl:     fileURL,
	})
}

// Delete removes the note's external file first and only then the row. When
// the media host refuses the delete the row is kept and the failure is
// surfaced, so a stored note never references a half-deleted object.
func (s *NoteService) Delete(ctx context.Context, actor authz.Actor, id int) error {
	if !authz.Allow(actor, authz.ActionDelete, authz.ContentNote) {
		return ErrForbidden
	}

	note, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if note.FileUrl != "" {
		if err := s.media.DeleteByURL(ctx, note.FileUrl); err != nil {
			s.log.Error().Str("file_url", note.FileUrl).Err(err).Msg("media delete failed, keeping note row")
			return fmt.Errorf("%w: %v", ErrUpstream, err)
		}
	}

	return s.repo.Delete(ctx, id)
}

func (s *NoteService) uploadFile(ctx context.Context, file *UploadFile) (string, error) {
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	name := storage.ObjectName(file.Name)
	url, err := s.media.Upload(ctx, name, bytes.NewReader(file.Data), int64(len(file.Data)), contentType)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return url, nil
}
