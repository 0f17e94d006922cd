package game

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/park285/Cheese-boardchess/internal/domain"
)

// memrepo is the in-memory Repository used when no database is configured.
type memrepo struct {
	mu sync.RWMutex

	nextID int64

	gamesByID      map[int64]*domain.GameRecord
	gamesByPlayer  map[string][]*domain.GameRecord // name -> games, latest last
	gamesBySession map[string]*domain.GameRecord

	profiles map[string]*domain.PlayerProfile
}

func NewMemoryRepository() Repository {
	return &memrepo{
		gamesByID:      make(map[int64]*domain.GameRecord),
		gamesByPlayer:  make(map[string][]*domain.GameRecord),
		gamesBySession: make(map[string]*domain.GameRecord),
		profiles:       make(map[string]*domain.PlayerProfile),
	}
}

func (m *memrepo) InsertGame(ctx context.Context, game *domain.GameRecord) (int64, error) {
	if game == nil {
		return 0, ErrDuplicateGame
	}
	key := strings.TrimSpace(game.SessionUUID)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.gamesBySession[key]; exists {
		return 0, ErrDuplicateGame
	}

	m.nextID++
	rec := cloneRecord(game)
	rec.ID = m.nextID

	m.gamesByID[rec.ID] = rec
	m.gamesBySession[key] = rec
	m.gamesByPlayer[rec.WhiteName] = append(m.gamesByPlayer[rec.WhiteName], rec)
	if rec.BlackName != rec.WhiteName {
		m.gamesByPlayer[rec.BlackName] = append(m.gamesByPlayer[rec.BlackName], rec)
	}
	return rec.ID, nil
}

func (m *memrepo) GetRecentGames(ctx context.Context, player string, limit int) ([]*domain.GameRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.gamesByPlayer[player]
	if len(list) == 0 {
		return []*domain.GameRecord{}, nil
	}
	items := make([]*domain.GameRecord, 0, len(list))
	for _, g := range list {
		items = append(items, cloneRecord(g))
	}
	// EndedAt desc, then ID desc
	sort.Slice(items, func(i, j int) bool {
		if !items[i].EndedAt.Equal(items[j].EndedAt) {
			return items[i].EndedAt.After(items[j].EndedAt)
		}
		return items[i].ID > items[j].ID
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *memrepo) GetGame(ctx context.Context, id int64) (*domain.GameRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.gamesByID[id]
	if !ok {
		return nil, nil
	}
	return cloneRecord(g), nil
}

func (m *memrepo) GetGameBySession(ctx context.Context, sessionUUID string) (*domain.GameRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.gamesBySession[strings.TrimSpace(sessionUUID)]
	if !ok {
		return nil, nil
	}
	return cloneRecord(g), nil
}

func (m *memrepo) GetProfile(ctx context.Context, name string) (*domain.PlayerProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[name]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *memrepo) UpsertProfile(ctx context.Context, profile *domain.PlayerProfile) error {
	if profile == nil {
		return nil
	}
	cp := *profile
	m.mu.Lock()
	if prev, ok := m.profiles[cp.Name]; ok && !prev.CreatedAt.IsZero() {
		cp.CreatedAt = prev.CreatedAt
	}
	m.profiles[cp.Name] = &cp
	m.mu.Unlock()
	return nil
}

func cloneRecord(g *domain.GameRecord) *domain.GameRecord {
	cp := *g
	cp.MovesUCI = append([]string(nil), g.MovesUCI...)
	return &cp
}
