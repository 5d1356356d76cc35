// Package store реализует персистентный индекс отпечатков и чёрные списки
// поверх SQLite. Для конвейера фильтрации это read-mostly внешний сервис:
// множество параллельных прогонов читают, запись происходит только при
// регистрации допущенных постов. Блокировок нет — модель согласованности
// at-least-once с идемпотентными проверками отпечатков.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/maine/region_digest_bot/internal/post"
)

// blacklistCacheTTL — срок жизни кэша чёрных списков. Устаревание в пределах
// одного прогона конвейера допустимо.
const blacklistCacheTTL = 5 * time.Minute

const schema = `
CREATE TABLE IF NOT EXISTS post_fingerprints (
	post_id         INTEGER NOT NULL,
	structural      TEXT    NOT NULL UNIQUE,
	text_hash       TEXT,
	text_core_hash  TEXT,
	created_at      TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_fingerprints_text ON post_fingerprints (text_hash);
CREATE INDEX IF NOT EXISTS idx_fingerprints_core ON post_fingerprints (text_core_hash);

CREATE TABLE IF NOT EXISTS media_fingerprints (
	media_id  TEXT    NOT NULL,
	post_id   INTEGER NOT NULL,
	PRIMARY KEY (media_id, post_id)
);

CREATE TABLE IF NOT EXISTS blacklist (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	type      TEXT    NOT NULL,
	pattern   TEXT    NOT NULL,
	is_active INTEGER NOT NULL DEFAULT 1,
	UNIQUE (type, pattern)
);
`

// Типы записей чёрного списка.
const (
	blacklistTypeWord = "word"
	blacklistTypeID   = "source_id"
)

// Store реализует filters.Index и filters.Blacklists поверх SQLite.
type Store struct {
	db *sql.DB

	mu          sync.Mutex
	cachedWords []string
	cachedIDs   map[int64]struct{}
	cacheTime   time.Time
}

// Open открывает базу по пути, проверяет соединение и создаёт схему.
// Вызывающий обязан закрыть Store, когда он больше не нужен.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close закрывает соединение с базой.
func (s *Store) Close() error {
	return s.db.Close()
}

// FindByStructural возвращает id поста с таким структурным отпечатком
// либо 0, если отпечаток не встречался.
func (s *Store) FindByStructural(ctx context.Context, fp string) (int64, error) {
	return s.findOne(ctx,
		`SELECT post_id FROM post_fingerprints WHERE structural = ? LIMIT 1`, fp)
}

// FindByTextHash возвращает id поста с таким отпечатком полного текста.
func (s *Store) FindByTextHash(ctx context.Context, hash string) (int64, error) {
	if hash == "" {
		return 0, nil
	}
	return s.findOne(ctx,
		`SELECT post_id FROM post_fingerprints WHERE text_hash = ? LIMIT 1`, hash)
}

// FindByTextCore возвращает id поста с таким отпечатком сердцевины текста.
func (s *Store) FindByTextCore(ctx context.Context, hash string) (int64, error) {
	if hash == "" {
		return 0, nil
	}
	return s.findOne(ctx,
		`SELECT post_id FROM post_fingerprints WHERE text_core_hash = ? LIMIT 1`, hash)
}

// FindByMediaIDs возвращает id поста, у которого уже встречался хотя бы один
// из переданных идентификаторов медиа.
func (s *Store) FindByMediaIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	query := fmt.Sprintf(
		`SELECT post_id FROM media_fingerprints WHERE media_id IN (%s) LIMIT 1`,
		placeholders)
	return s.findOne(ctx, query, args...)
}

func (s *Store) findOne(ctx context.Context, query string, args ...any) (int64, error) {
	var postID int64
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&postID)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query fingerprint: %w", err)
	}
	return postID, nil
}

// Register записывает отпечатки допущенного поста. Идемпотентна: повторная
// регистрация того же поста не создаёт дубликатов и не считается ошибкой.
func (s *Store) Register(ctx context.Context, p *post.Post) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO post_fingerprints (post_id, structural, text_hash, text_core_hash, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (structural) DO NOTHING`,
		p.ID, p.Fingerprints.Structural,
		nullable(p.Fingerprints.TextHash), nullable(p.Fingerprints.TextCore),
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert fingerprints: %w", err)
	}

	for _, mediaID := range p.Fingerprints.MediaIDs {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO media_fingerprints (media_id, post_id)
			VALUES (?, ?)
			ON CONFLICT (media_id, post_id) DO NOTHING`,
			mediaID, p.ID,
		)
		if err != nil {
			return fmt.Errorf("insert media fingerprint: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// DeleteOldFingerprints удаляет отпечатки старше maxAge.
// Возвращает количество удалённых строк.
func (s *Store) DeleteOldFingerprints(ctx context.Context, maxAge time.Duration) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM post_fingerprints WHERE created_at < ?`,
		time.Now().UTC().Add(-maxAge),
	)
	if err != nil {
		return 0, fmt.Errorf("delete expired fingerprints: %w", err)
	}
	deleted, _ := res.RowsAffected()
	return deleted, nil
}

// Words возвращает активные запрещённые слова. Результат кэшируется на
// blacklistCacheTTL.
func (s *Store) Words(ctx context.Context) ([]string, error) {
	if err := s.refreshBlacklists(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cachedWords, nil
}

// SourceIDs возвращает активные заблокированные id источников (по модулю).
// Результат кэшируется на blacklistCacheTTL.
func (s *Store) SourceIDs(ctx context.Context) (map[int64]struct{}, error) {
	if err := s.refreshBlacklists(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cachedIDs, nil
}

func (s *Store) refreshBlacklists(ctx context.Context) error {
	s.mu.Lock()
	fresh := s.cachedIDs != nil && time.Since(s.cacheTime) < blacklistCacheTTL
	s.mu.Unlock()
	if fresh {
		return nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT type, pattern FROM blacklist WHERE is_active = 1`)
	if err != nil {
		return fmt.Errorf("query blacklist: %w", err)
	}
	defer rows.Close()

	var words []string
	ids := make(map[int64]struct{})

	for rows.Next() {
		var kind, pattern string
		if err := rows.Scan(&kind, &pattern); err != nil {
			return fmt.Errorf("scan blacklist row: %w", err)
		}
		switch kind {
		case blacklistTypeWord:
			words = append(words, strings.ToLower(pattern))
		case blacklistTypeID:
			var id int64
			if _, err := fmt.Sscanf(pattern, "%d", &id); err != nil {
				// Нечисловой паттерн в списке id игнорируется.
				continue
			}
			if id < 0 {
				id = -id
			}
			ids[id] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate blacklist: %w", err)
	}

	s.mu.Lock()
	s.cachedWords = words
	s.cachedIDs = ids
	s.cacheTime = time.Now()
	s.mu.Unlock()
	return nil
}

// AddBlacklistWord добавляет запрещённое слово. Повтор не считается ошибкой.
func (s *Store) AddBlacklistWord(ctx context.Context, word string) error {
	return s.addBlacklist(ctx, blacklistTypeWord, strings.ToLower(strings.TrimSpace(word)))
}

// AddBlacklistID добавляет заблокированный id источника.
func (s *Store) AddBlacklistID(ctx context.Context, id int64) error {
	if id < 0 {
		id = -id
	}
	return s.addBlacklist(ctx, blacklistTypeID, fmt.Sprintf("%d", id))
}

func (s *Store) addBlacklist(ctx context.Context, kind, pattern string) error {
	if pattern == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO blacklist (type, pattern, is_active)
		VALUES (?, ?, 1)
		ON CONFLICT (type, pattern) DO UPDATE SET is_active = 1`,
		kind, pattern,
	)
	if err != nil {
		return fmt.Errorf("insert blacklist entry: %w", err)
	}
	return nil
}

// nullable превращает пустую строку в NULL, чтобы пустые отпечатки
// не совпадали друг с другом в индексе.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
