// Package state хранит состояние между прогонами: когда был последний прогон
// и какие дайджесты уже публиковались.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// maxPublishedHistory ограничивает историю публикаций, чтобы файл состояния
// не рос бесконечно.
const maxPublishedHistory = 500

// PublishedDigest — запись об одной публикации.
type PublishedDigest struct {
	AnchorRef   string    `json:"anchor_ref"`
	Title       string    `json:"title"`
	PublishedAt time.Time `json:"published_at"`
}

// State — сериализуемое состояние между прогонами.
type State struct {
	LastRunAt time.Time         `json:"last_run_at"`
	Published []PublishedDigest `json:"published,omitempty"`
}

// FileStore хранит состояние в JSON-файле. Запись атомарна через временный
// файл и переименование: оборванный прогон не портит состояние.
type FileStore struct {
	path string
}

// NewFileStore создаёт хранилище по указанному пути.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load читает состояние. Отсутствующий файл — не ошибка: возвращается
// пустое состояние.
func (s *FileStore) Load() (*State, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &State{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	return &st, nil
}

// Save записывает состояние, предварительно обрезав историю публикаций.
func (s *FileStore) Save(st *State) error {
	if len(st.Published) > maxPublishedHistory {
		st.Published = st.Published[len(st.Published)-maxPublishedHistory:]
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename state file: %w", err)
	}
	return nil
}
