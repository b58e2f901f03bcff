package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Storage persists the bearer token under a single fixed name.  An absent
// token is reported as "" with a nil error.
type Storage interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Delete(ctx context.Context) error
}

// FileStorage keeps the token in a file readable only by the current user.
type FileStorage struct {
	Path string
}

// NewFileStorage returns a storage rooted at path.
func NewFileStorage(path string) *FileStorage { return &FileStorage{Path: path} }

func (s *FileStorage) Load(ctx context.Context) (string, error) {
	b, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

func (s *FileStorage) Save(ctx context.Context, token string) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	// Write to a sibling file first so a crash never leaves a torn token.
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, []byte(token), 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return fmt.Errorf("replace token file: %w", err)
	}
	return nil
}

func (s *FileStorage) Delete(ctx context.Context) error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}

// RedisStorage keeps the token under Key on a Redis server.
type RedisStorage struct {
	Client redis.Cmdable
	Key    string
}

// NewRedisStorage returns a storage writing key on client.
func NewRedisStorage(client redis.Cmdable, key string) *RedisStorage {
	return &RedisStorage{Client: client, Key: key}
}

func (s *RedisStorage) Load(ctx context.Context) (string, error) {
	v, err := s.Client.Get(ctx, s.Key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", s.Key, err)
	}
	return v, nil
}

func (s *RedisStorage) Save(ctx context.Context, token string) error {
	if err := s.Client.Set(ctx, s.Key, token, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.Key, err)
	}
	return nil
}

func (s *RedisStorage) Delete(ctx context.Context) error {
	if err := s.Client.Del(ctx, s.Key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", s.Key, err)
	}
	return nil
}

// MemoryStorage is a process-local storage; nothing survives a restart.
type MemoryStorage struct {
	mu    sync.Mutex
	token string
}

func (s *MemoryStorage) Load(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemoryStorage) Save(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryStorage) Delete(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}
