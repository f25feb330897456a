package store

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Memory is an in-process Store used by tests. Slices keep insertion order
// so "native order" is oldest-first and newest-first is the reverse.
type Memory struct {
	mu        sync.RWMutex
	tools     []Tool
	reviews   []Review
	users     []User
	purchases []Purchase
}

// NewMemory initializes an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) InsertTool(_ context.Context, tool Tool) (InsertResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tool.ID = primitive.NewObjectID()
	m.tools = append(m.tools, tool)
	return InsertResult{Acknowledged: true, InsertedID: tool.ID.Hex()}, nil
}

func (m *Memory) GetTool(_ context.Context, id string) (*Tool, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range m.tools {
		if m.tools[i].ID == oid {
			tool := m.tools[i]
			return &tool, nil
		}
	}
	return nil, nil
}

func (m *Memory) ListTools(_ context.Context) ([]Tool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Tool, len(m.tools))
	copy(out, m.tools)
	return out, nil
}

func (m *Memory) ListToolsNewestFirst(_ context.Context) ([]Tool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Tool, 0, len(m.tools))
	for i := len(m.tools) - 1; i >= 0; i-- {
		out = append(out, m.tools[i])
	}
	return out, nil
}

func (m *Memory) DeleteTool(_ context.Context, id string) (DeleteResult, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return DeleteResult{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tools {
		if m.tools[i].ID == oid {
			m.tools = append(m.tools[:i], m.tools[i+1:]...)
			return DeleteResult{Acknowledged: true, DeletedCount: 1}, nil
		}
	}
	return DeleteResult{Acknowledged: true, DeletedCount: 0}, nil
}

func (m *Memory) InsertReview(_ context.Context, review Review) (InsertResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	review.ID = primitive.NewObjectID()
	m.reviews = append(m.reviews, review)
	return InsertResult{Acknowledged: true, InsertedID: review.ID.Hex()}, nil
}

func (m *Memory) ListReviewsNewestFirst(_ context.Context) ([]Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Review, 0, len(m.reviews))
	for i := len(m.reviews) - 1; i >= 0; i-- {
		out = append(out, m.reviews[i])
	}
	return out, nil
}

func (m *Memory) UpsertUserByEmail(_ context.Context, email string, profile UserProfile) (UpdateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if m.users[i].Email == email {
			modified := int64(0)
			if applyProfile(&m.users[i], profile) {
				modified = 1
			}
			return UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: modified}, nil
		}
	}
	user := User{ID: primitive.NewObjectID(), Email: email}
	applyProfile(&user, profile)
	m.users = append(m.users, user)
	hex := user.ID.Hex()
	return UpdateResult{Acknowledged: true, UpsertedCount: 1, UpsertedID: &hex}, nil
}

func (m *Memory) PatchUserByEmail(_ context.Context, email string, profile UserProfile) (UpdateResult, error) {
	if len(profileSetDoc(profile)) == 0 {
		return UpdateResult{Acknowledged: true}, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if m.users[i].Email == email {
			modified := int64(0)
			if applyProfile(&m.users[i], profile) {
				modified = 1
			}
			return UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: modified}, nil
		}
	}
	return UpdateResult{Acknowledged: true}, nil
}

func (m *Memory) MakeUserAdmin(_ context.Context, id string) (UpdateResult, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return UpdateResult{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if m.users[i].ID == oid {
			modified := int64(0)
			if m.users[i].Role != RoleAdmin {
				m.users[i].Role = RoleAdmin
				modified = 1
			}
			return UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: modified}, nil
		}
	}
	return UpdateResult{Acknowledged: true}, nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range m.users {
		if m.users[i].Email == email {
			user := m.users[i]
			return &user, nil
		}
	}
	return nil, nil
}

func (m *Memory) ListUsers(_ context.Context) ([]User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]User, len(m.users))
	copy(out, m.users)
	return out, nil
}

func (m *Memory) InsertPurchase(_ context.Context, purchase Purchase) (InsertResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	purchase.ID = primitive.NewObjectID()
	m.purchases = append(m.purchases, purchase)
	return InsertResult{Acknowledged: true, InsertedID: purchase.ID.Hex()}, nil
}

func (m *Memory) GetPurchase(_ context.Context, id string) (*Purchase, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range m.purchases {
		if m.purchases[i].ID == oid {
			purchase := m.purchases[i]
			return &purchase, nil
		}
	}
	return nil, nil
}

func (m *Memory) ListPurchases(_ context.Context) ([]Purchase, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Purchase, len(m.purchases))
	copy(out, m.purchases)
	return out, nil
}

func (m *Memory) ListPurchasesByEmail(_ context.Context, email string) ([]Purchase, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Purchase{}
	for i := range m.purchases {
		if m.purchases[i].Email == email {
			out = append(out, m.purchases[i])
		}
	}
	return out, nil
}

func (m *Memory) UpdatePurchase(_ context.Context, id string, patch PurchasePatch) (UpdateResult, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return UpdateResult{}, err
	}
	if len(purchaseSetDoc(patch)) == 0 {
		return UpdateResult{Acknowledged: true}, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.purchases {
		if m.purchases[i].ID == oid {
			modified := int64(0)
			if applyPurchasePatch(&m.purchases[i], patch) {
				modified = 1
			}
			return UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: modified}, nil
		}
	}
	return UpdateResult{Acknowledged: true}, nil
}

func (m *Memory) DeletePurchase(_ context.Context, id string) (DeleteResult, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return DeleteResult{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.purchases {
		if m.purchases[i].ID == oid {
			m.purchases = append(m.purchases[:i], m.purchases[i+1:]...)
			return DeleteResult{Acknowledged: true, DeletedCount: 1}, nil
		}
	}
	return DeleteResult{Acknowledged: true, DeletedCount: 0}, nil
}

// applyProfile mirrors a $set: a field counts as modified only when its
// value actually changes.
func applyProfile(user *User, profile UserProfile) bool {
	changed := false
	if profile.Name != nil && user.Name != *profile.Name {
		user.Name = *profile.Name
		changed = true
	}
	if profile.Education != nil && user.Education != *profile.Education {
		user.Education = *profile.Education
		changed = true
	}
	if profile.Location != nil && user.Location != *profile.Location {
		user.Location = *profile.Location
		changed = true
	}
	if profile.Phone != nil && user.Phone != *profile.Phone {
		user.Phone = *profile.Phone
		changed = true
	}
	if profile.LinkedIn != nil && user.LinkedIn != *profile.LinkedIn {
		user.LinkedIn = *profile.LinkedIn
		changed = true
	}
	return changed
}

func applyPurchasePatch(p *Purchase, patch PurchasePatch) bool {
	changed := false
	if patch.Quantity != nil && p.Quantity != *patch.Quantity {
		p.Quantity = *patch.Quantity
		changed = true
	}
	if patch.Address != nil && p.Address != *patch.Address {
		p.Address = *patch.Address
		changed = true
	}
	if patch.Phone != nil && p.Phone != *patch.Phone {
		p.Phone = *patch.Phone
		changed = true
	}
	if patch.Status != nil && p.Status != *patch.Status {
		p.Status = *patch.Status
		changed = true
	}
	if patch.TransactionID != nil && p.TransactionID != *patch.TransactionID {
		p.TransactionID = *patch.TransactionID
		changed = true
	}
	return changed
}
