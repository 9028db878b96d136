package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/inkwell-systems/promptsmith/internal/journal"
)

// FileStore keeps prompts and users in two pretty-printed JSON files under a
// data directory. A single process-wide mutex serializes every
// read-modify-write, so concurrent saves cannot interleave; a save is
// last-writer-wins at whole-file granularity.
type FileStore struct {
	promptsPath string
	usersPath   string
	mu          sync.Mutex
}

// NewFileStore creates the data directory and empty record files as needed.
func NewFileStore(dataDir string) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	fs := &FileStore{
		promptsPath: filepath.Join(dataDir, "prompts.json"),
		usersPath:   filepath.Join(dataDir, "users.json"),
	}

	for _, path := range []string{fs.promptsPath, fs.usersPath} {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := writeJSONFile(path, []any{}); err != nil {
				return nil, err
			}
		}
	}
	return fs, nil
}

func (fs *FileStore) Close() {}

func writeJSONFile(path string, data any) error {
	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// readPrompts tolerates a missing or corrupt file by treating it as empty.
func (fs *FileStore) readPrompts() []journal.Prompt {
	data, err := os.ReadFile(fs.promptsPath)
	if err != nil {
		return nil
	}
	var prompts []journal.Prompt
	if err := json.Unmarshal(data, &prompts); err != nil {
		return nil
	}
	return prompts
}

func (fs *FileStore) readUsers() []journal.User {
	data, err := os.ReadFile(fs.usersPath)
	if err != nil {
		return nil
	}
	var users []journal.User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil
	}
	return users
}

func (fs *FileStore) SavePrompt(ctx context.Context, p *journal.Prompt) (*journal.Prompt, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	p.UpdatedAt = time.Now().UTC()

	prompts := fs.readPrompts()
	updated := false
	for i := range prompts {
		if prompts[i].ID == p.ID {
			prompts[i] = *p
			updated = true
			break
		}
	}
	if !updated {
		prompts = append(prompts, *p)
	}

	if err := writeJSONFile(fs.promptsPath, prompts); err != nil {
		return nil, err
	}
	return p, nil
}

func (fs *FileStore) GetPrompt(ctx context.Context, id string) (*journal.Prompt, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	for _, p := range fs.readPrompts() {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (fs *FileStore) GetUserPrompts(ctx context.Context, userID string) ([]journal.Prompt, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.userPromptsLocked(userID), nil
}

func (fs *FileStore) userPromptsLocked(userID string) []journal.Prompt {
	var result []journal.Prompt
	for _, p := range fs.readPrompts() {
		if p.UserID == userID {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

func (fs *FileStore) SearchPrompts(ctx context.Context, userID, query string, tags []string) ([]journal.Prompt, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	queryLower := strings.ToLower(query)
	var result []journal.Prompt
	for _, p := range fs.userPromptsLocked(userID) {
		if matchesSearch(&p, queryLower, tags) {
			result = append(result, p)
		}
	}
	return result, nil
}

func (fs *FileStore) GetTemplates(ctx context.Context, userID string) ([]journal.Prompt, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	var result []journal.Prompt
	for _, p := range fs.userPromptsLocked(userID) {
		if p.IsTemplate {
			result = append(result, p)
		}
	}
	return result, nil
}

func (fs *FileStore) DeletePrompt(ctx context.Context, id string) (bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	prompts := fs.readPrompts()
	kept := prompts[:0]
	for _, p := range prompts {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(prompts) {
		return false, nil
	}

	if err := writeJSONFile(fs.promptsPath, kept); err != nil {
		return false, err
	}
	return true, nil
}

func (fs *FileStore) GetOrCreateUser(ctx context.Context, userID, username string) (*journal.User, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	for _, u := range fs.readUsers() {
		if u.UserID == userID {
			return &u, nil
		}
	}

	user := journal.NewUser(userID, username)
	if err := fs.saveUserLocked(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (fs *FileStore) SaveUser(ctx context.Context, u *journal.User) (*journal.User, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := fs.saveUserLocked(u); err != nil {
		return nil, err
	}
	return u, nil
}

func (fs *FileStore) saveUserLocked(u *journal.User) error {
	u.LastActiveAt = time.Now().UTC()

	users := fs.readUsers()
	updated := false
	for i := range users {
		if users[i].UserID == u.UserID {
			users[i] = *u
			updated = true
			break
		}
	}
	if !updated {
		users = append(users, *u)
	}

	return writeJSONFile(fs.usersPath, users)
}
