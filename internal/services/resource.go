package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/farman-pharma/apiserver/internal/authz"
	"github.com/farman-pharma/apiserver/internal/storage"
	"github.com/farman-pharma/apiserver/internal/store"
	"github.com/farman-pharma/apiserver/types"
)

// ErrDuplicateSlug rejects a blog whose title slug collides with an existing
// post. Blog links are the render lookup key, so collisions are refused
// rather than silently overwriting routes.
var ErrDuplicateSlug = fmt.Errorf("%w: blog title already in use", store.ErrDuplicate)

// ResourceRepository defines persistence operations for resources.
type ResourceRepository interface {
	List(ctx context.Context) ([]types.Resource, error)
	Get(ctx context.Context, id int) (types.Resource, error)
	GetByLink(ctx context.Context, link string) (types.Resource, error)
	Create(ctx context.Context, resource types.Resource) (types.Resource, error)
	Update(ctx context.Context, resource types.Resource) (types.Resource, error)
	Delete(ctx context.Context, id int) error
	ReassignOwner(ctx context.Context, fromID, toID int) error
}

// ResourceInput carries a resource create/update request.
type ResourceInput struct {
	Title       string
	Type        string
	Description string
	Metadata    map[string]string
}

// ResourceService encapsulates resource use-cases.
type ResourceService struct {
	repo  ResourceRepository
	media Media
	log   zerolog.Logger
}

func NewResourceService(repo ResourceRepository, media Media, log zerolog.Logger) *ResourceService {
	return &ResourceService{repo: repo, media: media, log: log}
}

// List returns all resources. Requires admin read access.
func (s *ResourceService) List(ctx context.Context, actor authz.Actor) ([]types.Resource, error) {
	if !authz.Allow(actor, authz.ActionRead, authz.ContentResource) {
		return nil, ErrForbidden
	}
	return s.repo.List(ctx)
}

// Get returns a single resource. Requires admin read access.
func (s *ResourceService) Get(ctx context.Context, actor authz.Actor, id int) (types.Resource, error) {
	if !authz.Allow(actor, authz.ActionRead, authz.ContentResource) {
		return types.Resource{}, ErrForbidden
	}
	return s.repo.Get(ctx, id)
}

// GetBlogBySlug resolves a published blog post by its synthesized link.
// Public: blog posts are rendered without a session.
func (s *ResourceService) GetBlogBySlug(ctx context.Context, slug string) (types.Resource, error) {
	return s.repo.GetByLink(ctx, BlogLink(slug))
}

// Create persists a new resource. File-bearing types (image, video, book,
// paper) require a file and a description; the file is uploaded first and the
// row records its URL and byte size. Blogs require body content in the
// metadata map and get a link synthesized from the title.
func (s *ResourceService) Create(ctx context.Context, actor authz.Actor, input ResourceInput, file *UploadFile) (types.Resource, error) {
	if !authz.Allow(actor, authz.ActionCreate, authz.ContentResource) {
		return types.Resource{}, ErrForbidden
	}
	if strings.TrimSpace(input.Title) == "" {
		return types.Resource{}, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if !types.IsResourceType(input.Type) {
		return types.Resource{}, fmt.Errorf("%w: invalid resource type %q", ErrValidation, input.Type)
	}

	resource := types.Resource{
		Title:       input.Title,
		Type:        input.Type,
		Description: input.Description,
		Metadata:    input.Metadata,
		OwnerID:     actor.UserID,
	}

	if types.IsFileType(input.Type) {
		if file == nil || len(file.Data) == 0 {
			return types.Resource{}, fmt.Errorf("%w: file is required for %s resources", ErrValidation, input.Type)
		}
		if strings.TrimSpace(input.Description) == "" {
			return types.Resource{}, fmt.Errorf("%w: description is required for %s resources", ErrValidation, input.Type)
		}

		link, err := s.uploadResourceFile(ctx, input.Type, file)
		if err != nil {
			return types.Resource{}, err
		}
		resource.Link = link
		resource.FileSize = int64(len(file.Data))
	} else {
		if strings.TrimSpace(input.Metadata["content"]) == "" {
			return types.Resource{}, fmt.Errorf("%w: blog content is required", ErrValidation)
		}
		resource.Link = BlogLink(input.Title)
	}

	created, err := s.repo.Create(ctx, resource)
	if err != nil {
		if isDuplicate(err) {
			return types.Resource{}, ErrDuplicateSlug
		}
		if resource.HasFile() {
			s.log.Error().Str("link", resource.Link).Err(err).Msg("resource insert failed after upload")
		}
		return types.Resource{}, err
	}
	return created, nil
}

// Update replaces the resource's fields wholesale. A new file, when supplied
// for a file-bearing type, is uploaded before the old object is removed; the
// old-object delete is best effort. A blog's link is re-synthesized when its
// title changes.
func (s *ResourceService) Update(ctx context.Context, actor authz.Actor, id int, input ResourceInput, file *UploadFile) (types.Resource, error) {
	if !authz.Allow(actor, authz.ActionUpdate, authz.ContentResource) {
		return types.Resource{}, ErrForbidden
	}
	if strings.TrimSpace(input.Title) == "" {
		return types.Resource{}, fmt.Errorf("%w: title is required", ErrValidation)
	}

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Resource{}, err
	}

	// Type is immutable after creation; only the payload fields move.
	updated := types.Resource{
		ID:          id,
		Title:       input.Title,
		Type:        existing.Type,
		Link:        existing.Link,
		Description: input.Description,
		FileSize:    existing.FileSize,
		Metadata:    input.Metadata,
	}

	if existing.HasFile() {
		if strings.TrimSpace(input.Description) == "" {
			return types.Resource{}, fmt.Errorf("%w: description is required for %s resources", ErrValidation, existing.Type)
		}
		if file != nil && len(file.Data) > 0 {
			link, err := s.uploadResourceFile(ctx, existing.Type, file)
			if err != nil {
				return types.Resource{}, err
			}
			if existing.Link != "" {
				if err := s.media.DeleteByURL(ctx, existing.Link); err != nil {
					s.log.Warn().Str("link", existing.Link).Err(err).Msg("stale resource file left at media host")
				}
			}
			updated.Link = link
			updated.FileSize = int64(len(file.Data))
		}
	} else {
		if strings.TrimSpace(input.Metadata["content"]) == "" {
			return types.Resource{}, fmt.Errorf("%w: blog content is required", ErrValidation)
		}
		updated.Link = BlogLink(input.Title)
	}

	result, err := s.repo.Update(ctx, updated)
	if err != nil {
		if isDuplicate(err) {
			return types.Resource{}, ErrDuplicateSlug
		}
		return types.Resource{}, err
	}
	return result, nil
}

// Delete removes a file-bearing resource's external object first and only
// then the row; a media-host failure keeps the row and surfaces upstream
// failure. Blogs delete without any media-host call.
func (s *ResourceService) Delete(ctx context.Context, actor authz.Actor, id int) error {
	if !authz.Allow(actor, authz.ActionDelete, authz.ContentResource) {
		return ErrForbidden
	}

	resource, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if resource.HasFile() && resource.Link != "" {
		if err := s.media.DeleteByURL(ctx, resource.Link); err != nil {
			s.log.Error().Str("link", resource.Link).Err(err).Msg("media delete failed, keeping resource row")
			return fmt.Errorf("%w: %v", ErrUpstream, err)
		}
	}

	return s.repo.Delete(ctx, id)
}

// BlogLink synthesizes the internal path for a blog post: the title
// lower-cased with whitespace runs replaced by hyphens, under the fixed
// prefix. Deterministic, so it doubles as the render lookup key.
func BlogLink(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = strings.Join(strings.Fields(slug), "-")
	return types.BlogLinkPrefix + slug
}

// uploadResourceFile stores the payload under a type-appropriate content
// type: the original media type for images and videos (binary-preserving),
// generic binary for books and papers.
func (s *ResourceService) uploadResourceFile(ctx context.Context, resourceType string, file *UploadFile) (string, error) {
	contentType := "application/octet-stream"
	if resourceType == types.ResourceImage || resourceType == types.ResourceVideo {
		if file.ContentType != "" {
			contentType = file.ContentType
		}
	}

	name := storage.ObjectName(file.Name)
	url, err := s.media.Upload(ctx, name, bytes.NewReader(file.Data), int64(len(file.Data)), contentType)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return url, nil
}
