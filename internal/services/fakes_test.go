package services

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/farman-pharma/apiserver/internal/store"
	"github.com/farman-pharma/apiserver/types"
)

// fakeMedia records media-host traffic and the order of calls, so tests can
// assert upload-before-delete ordering.
type fakeMedia struct {
	uploadErr error
	deleteErr error

	uploads []string
	deletes []string
	calls   []string
}

func (f *fakeMedia) Upload(_ context.Context, name string, _ io.Reader, _ int64, _ string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploads = append(f.uploads, name)
	f.calls = append(f.calls, "upload")
	return "https://media.example.com/farman-pharma/" + name, nil
}

func (f *fakeMedia) DeleteByURL(_ context.Context, rawURL string) error {
	f.calls = append(f.calls, "delete")
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletes = append(f.deletes, rawURL)
	return nil
}

type fakeNoteRepo struct {
	notes     map[int]types.Note
	nextID    int
	createErr error

	deleted    []int
	reassigned [][2]int
}

func newFakeNoteRepo(notes ...types.Note) *fakeNoteRepo {
	repo := &fakeNoteRepo{notes: make(map[int]types.Note), nextID: 1}
	for _, n := range notes {
		repo.notes[n.ID] = n
		if n.ID >= repo.nextID {
			repo.nextID = n.ID + 1
		}
	}
	return repo
}

func (f *fakeNoteRepo) List(context.Context) ([]types.Note, error) {
	out := make([]types.Note, 0, len(f.notes))
	for _, n := range f.notes {
		out = append(out, n)
	}
	return out, nil
}

func (f *fakeNoteRepo) Get(_ context.Context, id int) (types.Note, error) {
	note, ok := f.notes[id]
	if !ok {
		return types.Note{}, store.ErrNotFound
	}
	return note, nil
}

func (f *fakeNoteRepo) Create(_ context.Context, note types.Note) (types.Note, error) {
	if f.createErr != nil {
		return types.Note{}, f.createErr
	}
	note.ID = f.nextID
	f.nextID++
	f.notes[note.ID] = note
	return note, nil
}

func (f *fakeNoteRepo) Update(_ context.Context, note types.Note) (types.Note, error) {
	existing, ok := f.notes[note.ID]
	if !ok {
		return types.Note{}, store.ErrNotFound
	}
	note.OwnerID = existing.OwnerID
	f.notes[note.ID] = note
	return note, nil
}

func (f *fakeNoteRepo) Delete(_ context.Context, id int) error {
	if _, ok := f.notes[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.notes, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeNoteRepo) ReassignOwner(_ context.Context, fromID, toID int) error {
	f.reassigned = append(f.reassigned, [2]int{fromID, toID})
	for id, n := range f.notes {
		if n.OwnerID == fromID {
			n.OwnerID = toID
			f.notes[id] = n
		}
	}
	return nil
}

type fakeResourceRepo struct {
	resources map[int]types.Resource
	nextID    int
	createErr error
	updateErr error

	deleted    []int
	reassigned [][2]int
}

func newFakeResourceRepo(resources ...types.Resource) *fakeResourceRepo {
	repo := &fakeResourceRepo{resources: make(map[int]types.Resource), nextID: 1}
	for _, r := range resources {
		repo.resources[r.ID] = r
		if r.ID >= repo.nextID {
			repo.nextID = r.ID + 1
		}
	}
	return repo
}

func (f *fakeResourceRepo) List(context.Context) ([]types.Resource, error) {
	out := make([]types.Resource, 0, len(f.resources))
	for _, r := range f.resources {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeResourceRepo) Get(_ context.Context, id int) (types.Resource, error) {
	resource, ok := f.resources[id]
	if !ok {
		return types.Resource{}, store.ErrNotFound
	}
	return resource, nil
}

func (f *fakeResourceRepo) GetByLink(_ context.Context, link string) (types.Resource, error) {
	for _, r := range f.resources {
		if r.Type == types.ResourceBlog && r.Link == link {
			return r, nil
		}
	}
	return types.Resource{}, store.ErrNotFound
}

func (f *fakeResourceRepo) Create(_ context.Context, resource types.Resource) (types.Resource, error) {
	if f.createErr != nil {
		return types.Resource{}, f.createErr
	}
	if resource.Type == types.ResourceBlog {
		for _, r := range f.resources {
			if r.Type == types.ResourceBlog && r.Link == resource.Link {
				return types.Resource{}, store.ErrDuplicate
			}
		}
	}
	resource.ID = f.nextID
	f.nextID++
	f.resources[resource.ID] = resource
	return resource, nil
}

func (f *fakeResourceRepo) Update(_ context.Context, resource types.Resource) (types.Resource, error) {
	if f.updateErr != nil {
		return types.Resource{}, f.updateErr
	}
	existing, ok := f.resources[resource.ID]
	if !ok {
		return types.Resource{}, store.ErrNotFound
	}
	resource.OwnerID = existing.OwnerID
	f.resources[resource.ID] = resource
	return resource, nil
}

func (f *fakeResourceRepo) Delete(_ context.Context, id int) error {
	if _, ok := f.resources[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.resources, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeResourceRepo) ReassignOwner(_ context.Context, fromID, toID int) error {
	f.reassigned = append(f.reassigned, [2]int{fromID, toID})
	for id, r := range f.resources {
		if r.OwnerID == fromID {
			r.OwnerID = toID
			f.resources[id] = r
		}
	}
	return nil
}

type fakeUserRepo struct {
	users  map[int]types.User
	nextID int

	deleted []int
}

func newFakeUserRepo(users ...types.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[int]types.User), nextID: 1}
	for _, u := range users {
		repo.users[u.ID] = u
		if u.ID >= repo.nextID {
			repo.nextID = u.ID + 1
		}
	}
	return repo
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int) (types.User, error) {
	user, ok := f.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetByGoogleID(_ context.Context, googleID string) (types.User, error) {
	for _, u := range f.users {
		if u.GoogleID == googleID {
			return u, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (f *fakeUserRepo) List(context.Context) ([]types.User, error) {
	out := make([]types.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeUserRepo) UpsertByGoogleID(_ context.Context, user types.User) (types.User, error) {
	for id, existing := range f.users {
		if existing.GoogleID == user.GoogleID {
			existing.Name = user.Name
			existing.Image = user.Image
			f.users[id] = existing
			return existing, nil
		}
	}
	user.ID = f.nextID
	f.nextID++
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return types.User{}, store.ErrDuplicate
		}
	}
	user.ID = f.nextID
	f.nextID++
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUserRepo) UpdateAccess(_ context.Context, id int, isAdmin bool, role string, permissions []string) (types.User, error) {
	user, ok := f.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	user.IsAdmin = isAdmin
	user.AdminRole = role
	user.Permissions = permissions
	f.users[id] = user
	return user, nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id int) error {
	if _, ok := f.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.users, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakePublisher struct {
	err error

	channels []string
	payloads [][]byte
}

func (f *fakePublisher) Publish(_ context.Context, channel string, data []byte, _ map[string]string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.channels = append(f.channels, channel)
	f.payloads = append(f.payloads, data)
	return fmt.Sprintf("msg-%d", len(f.channels)), nil
}

type fakeMailSender struct {
	err  error
	sent []types.ContactMessage
}

func (f *fakeMailSender) Send(_ context.Context, msg types.ContactMessage) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}
