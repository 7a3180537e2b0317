package core

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

const testSecret = "test-secret-key-must-be-32-bytes-long"

func newTestCodec(ttl time.Duration) *SessionCodec {
	c, err := NewSessionCodec(SessionConfig{Secret: []byte(testSecret), TTL: ttl, Issuer: "test"})
	if err != nil {
		panic(err)
	}
	return c
}

type memUsers struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]CredentialRecord
	err    error
}

func newMemUsers() *memUsers {
	return &memUsers{rows: map[int64]CredentialRecord{}}
}

func (m *memUsers) FindByID(_ context.Context, id int64) (*CredentialRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	r, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (m *memUsers) FindByIdentifier(_ context.Context, identifier string) (*CredentialRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, r := range m.rows {
		if r.Username == identifier || r.Email == identifier {
			r := r
			return &r, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memUsers) Create(_ context.Context, username, email, passwordHash string, role Role) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.Username == username || r.Email == email {
			return 0, errors.New("duplicate key value violates unique constraint")
		}
	}
	m.nextID++
	now := time.Now().UTC()
	m.rows[m.nextID] = CredentialRecord{
		ID: m.nextID, Username: username, Email: email, PasswordHash: passwordHash,
		Role: role, CreatedAt: now, UpdatedAt: now,
	}
	return m.nextID, nil
}

func (m *memUsers) Exists(_ context.Context, username, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	for _, r := range m.rows {
		if r.Username == username || r.Email == email {
			return true, nil
		}
	}
	return false, nil
}

type memProducts struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]Product
	calls  int
}

func newMemProducts() *memProducts {
	return &memProducts{rows: map[int64]Product{}}
}

func (m *memProducts) sorted(filter func(Product) bool) []Product {
	out := make([]Product, 0, len(m.rows))
	for _, p := range m.rows {
		if filter(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memProducts) ListAll(context.Context) ([]Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.sorted(func(Product) bool { return true }), nil
}

func (m *memProducts) ListVisible(context.Context) ([]Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.sorted(func(p Product) bool { return p.Visible }), nil
}

func (m *memProducts) Get(_ context.Context, id int64) (*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	p, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *memProducts) Create(_ context.Context, in ProductInput) (*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.nextID++
	now := time.Now().UTC()
	p := Product{ID: m.nextID, CreatedAt: now, UpdatedAt: now}
	fill(&p, in)
	m.rows[p.ID] = p
	return &p, nil
}

func (m *memProducts) Update(_ context.Context, id int64, in ProductInput) (*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	p, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	fill(&p, in)
	p.UpdatedAt = time.Now().UTC()
	m.rows[id] = p
	return &p, nil
}

func (m *memProducts) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if _, ok := m.rows[id]; !ok {
		return ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memProducts) ToggleVisibility(_ context.Context, id int64) (*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	p, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	p.Visible = !p.Visible
	m.rows[id] = p
	return &p, nil
}

func (m *memProducts) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func fill(p *Product, in ProductInput) {
	p.Name = in.Name
	p.Category = in.Category
	p.Price = roundPrice(in.Price)
	p.Specs = in.Specs
	if p.Specs == nil {
		p.Specs = []string{}
	}
	p.Description = in.Description
	p.Image = in.Image
	p.Visible = in.Visible
}

type memContacts struct {
	mu   sync.Mutex
	rows []ContactSubmission
}

func (m *memContacts) Create(_ context.Context, name, email string, phone *string, message string) (*ContactSubmission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := ContactSubmission{
		ID: int64(len(m.rows) + 1), Name: name, Email: email, Phone: phone,
		Message: message, Status: "new", CreatedAt: time.Now().UTC(),
	}
	m.rows = append(m.rows, c)
	return &c, nil
}
