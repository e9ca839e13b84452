package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/farman-pharma/apiserver/types"
)

const resourceColumns = `id, title, type, link, description, file_size, metadata, owner_id, created_at, updated_at`

// ResourceRepository handles persistence for resources.
type ResourceRepository struct {
	db *sql.DB
}

func NewResourceRepository(db *sql.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

func (r *ResourceRepository) List(ctx context.Context) ([]types.Resource, error) {
	const query = `
		SELECT ` + resourceColumns + `
		FROM resources
		ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	resources := make([]types.Resource, 0)
	for rows.Next() {
		resource, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		resources = append(resources, resource)
	}
	return resources, rows.Err()
}

func (r *ResourceRepository) Get(ctx context.Context, id int) (types.Resource, error) {
	const query = `
		SELECT ` + resourceColumns + `
		FROM resources
		WHERE id = $1`
	return scanResource(r.db.QueryRowContext(ctx, query, id))
}

// GetByLink resolves a resource by its link, the lookup path for rendering
// blog posts.
func (r *ResourceRepository) GetByLink(ctx context.Context, link string) (types.Resource, error) {
	const query = `
		SELECT ` + resourceColumns + `
		FROM resources
		WHERE link = $1`
	return scanResource(r.db.QueryRowContext(ctx, query, link))
}

func (r *ResourceRepository) Create(ctx context.Context, resource types.Resource) (types.Resource, error) {
	now := time.Now()
	resource.CreatedAt = now
	resource.UpdatedAt = now

	metadataJSON, err := marshalMetadata(resource.Metadata)
	if err != nil {
		return types.Resource{}, err
	}

	const query = `
		INSERT INTO resources (title, type, link, description, file_size, metadata, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		resource.Title,
		resource.Type,
		resource.Link,
		nullString(resource.Description),
		resource.FileSize,
		metadataJSON,
		resource.OwnerID,
		resource.CreatedAt,
		resource.UpdatedAt,
	).Scan(&resource.ID); err != nil {
		if isUniqueViolation(err) {
			return types.Resource{}, ErrDuplicate
		}
		return types.Resource{}, err
	}
	return resource, nil
}

func (r *ResourceRepository) Update(ctx context.Context, resource types.Resource) (types.Resource, error) {
	resource.UpdatedAt = time.Now()

	metadataJSON, err := marshalMetadata(resource.Metadata)
	if err != nil {
		return types.Resource{}, err
	}

	const query = `
		UPDATE resources
		SET title = $1,
			type = $2,
			link = $3,
			description = $4,
			file_size = $5,
			metadata = $6,
			updated_at = $7
		WHERE id = $8
		RETURNING created_at, owner_id`
	err = r.db.QueryRowContext(
		ctx,
		query,
		resource.Title,
		resource.Type,
		resource.Link,
		nullString(resource.Description),
		resource.FileSize,
		metadataJSON,
		resource.UpdatedAt,
		resource.ID,
	).Scan(&resource.CreatedAt, &resource.OwnerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Resource{}, ErrNotFound
		}
		if isUniqueViolation(err) {
			return types.Resource{}, ErrDuplicate
		}
		return types.Resource{}, err
	}
	return resource, nil
}

func (r *ResourceRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM resources WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReassignOwner moves every resource owned by fromID to toID.
func (r *ResourceRepository) ReassignOwner(ctx context.Context, fromID, toID int) error {
	const query = `UPDATE resources SET owner_id = $1, updated_at = $2 WHERE owner_id = $3`
	_, err := r.db.ExecContext(ctx, query, toID, time.Now(), fromID)
	return err
}

func scanResource(row rowScanner) (types.Resource, error) {
	var (
		resource     types.Resource
		description  sql.NullString
		metadataJSON []byte
	)
	err := row.Scan(
		&resource.ID,
		&resource.Title,
		&resource.Type,
		&resource.Link,
		&description,
		&resource.FileSize,
		&metadataJSON,
		&resource.OwnerID,
		&resource.CreatedAt,
		&resource.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Resource{}, ErrNotFound
		}
		return types.Resource{}, err
	}

	resource.Description = description.String
	resource.Metadata = map[string]string{}
	_ = json.Unmarshal(metadataJSON, &resource.Metadata)
	return resource, nil
}

func marshalMetadata(metadata map[string]string) ([]byte, error) {
	if metadata == nil {
		metadata = map[string]string{}
	}
	return json.Marshal(metadata)
}
