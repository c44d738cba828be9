package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/models"
)

const maxHistory = 1000

type UserSettings struct {
	AutoTrading     bool   `json:"auto_trading"`
	TradingPair     string `json:"trading_pair,omitempty"`
	DefaultStrategy string `json:"default_strategy,omitempty"`
}

type snapshotRecord struct {
	UserID int64                    `json:"user_id"`
	Data   models.PortfolioSnapshot `json:"data"`
}

type historyRecord struct {
	UserID int64              `json:"user_id"`
	Trade  models.TradeRecord `json:"trade"`
}

type state struct {
	Settings  map[int64]UserSettings `json:"settings"`
	History   []historyRecord        `json:"history"`
	Snapshots []snapshotRecord       `json:"snapshots"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// Store — файловое JSON-хранилище настроек, истории сделок и снимков
// портфеля. Ошибки записи логируются вызывающим и никогда не фатальны.
type Store struct {
	mu    sync.Mutex
	path  string
	state state
}

func New(path string) (*Store, error) {
	s := &Store{
		path: path,
		state: state{
			Settings: map[int64]UserSettings{},
		},
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	if data, err := os.ReadFile(path); err == nil {
		var loaded state
		if err := json.Unmarshal(data, &loaded); err == nil {
			if loaded.Settings == nil {
				loaded.Settings = map[int64]UserSettings{}
			}
			s.state = loaded
		}
	}
	return s, nil
}

func (s *Store) UpdateUserSettings(userID int64, update func(*UserSettings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	settings := s.state.Settings[userID]
	update(&settings)
	s.state.Settings[userID] = settings
	return s.flushLocked()
}

func (s *Store) GetUserSettings(userID int64) UserSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Settings[userID]
}

func (s *Store) RecordTradeHistory(userID int64, trade models.TradeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if trade.CreatedAt.IsZero() {
		trade.CreatedAt = time.Now()
	}
	s.state.History = append(s.state.History, historyRecord{UserID: userID, Trade: trade})
	if len(s.state.History) > maxHistory {
		s.state.History = s.state.History[len(s.state.History)-maxHistory:]
	}
	return s.flushLocked()
}

func (s *Store) TradeHistory(userID int64) []models.TradeRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	var trades []models.TradeRecord
	for _, rec := range s.state.History {
		if rec.UserID == userID {
			trades = append(trades, rec.Trade)
		}
	}
	return trades
}

func (s *Store) RecordPortfolioSnapshot(userID int64, snap models.PortfolioSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if snap.Timestamp.IsZero() {
		snap.Timestamp = time.Now()
	}
	s.state.Snapshots = append(s.state.Snapshots, snapshotRecord{UserID: userID, Data: snap})
	if len(s.state.Snapshots) > maxHistory {
		s.state.Snapshots = s.state.Snapshots[len(s.state.Snapshots)-maxHistory:]
	}
	return s.flushLocked()
}

func (s *Store) flushLocked() error {
	s.state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(s.path, data, 0o600)
}
