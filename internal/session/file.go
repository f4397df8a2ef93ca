package session

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bartoszgolebiowski/agentic-ai-ostatnie-zadanie/internal/coaching"
)

const hashedPrefix = "u-"

var safeName = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,64}$`)

// FileStore keeps one JSON file per user under a directory.
type FileStore struct {
	basePath string
}

// NewFileStore creates a store rooted at dir. The directory is created on
// first save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{basePath: dir}
}

// fileName maps a user id onto a file name. Ids that are not plain names get
// a hash so they can never escape the directory.
func (s *FileStore) fileName(userID string) string {
	// "u-" is reserved for hashed names
	if safeName.MatchString(userID) && !strings.HasPrefix(userID, ".") && !strings.HasPrefix(userID, hashedPrefix) {
		return userID + ".json"
	}
	hash := sha256.Sum256([]byte(userID))
	return hashedPrefix + hex.EncodeToString(hash[:])[:16] + ".json"
}

func (s *FileStore) path(userID string) string {
	return filepath.Join(s.basePath, s.fileName(userID))
}

func (s *FileStore) Exists(_ context.Context, userID string) (bool, error) {
	_, err := os.Stat(s.path(userID))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, wrap("exists", userID, err)
}

func (s *FileStore) Load(_ context.Context, userID string) (*coaching.SessionState, error) {
	data, err := os.ReadFile(s.path(userID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("load", userID, fmt.Errorf("failed to read session file: %w", err))
	}
	state, err := decodeState(data)
	if err != nil {
		return nil, wrap("load", userID, err)
	}
	return state, nil
}

func (s *FileStore) Save(_ context.Context, userID string, state *coaching.SessionState) error {
	raw, err := encodeForSave(userID, state)
	if err != nil {
		return wrap("save", userID, err)
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err == nil {
		raw = pretty.Bytes()
	}

	if err := os.MkdirAll(s.basePath, 0755); err != nil {
		return wrap("save", userID, fmt.Errorf("failed to create session directory: %w", err))
	}

	tmp, err := os.CreateTemp(s.basePath, ".tmp-*")
	if err != nil {
		return wrap("save", userID, fmt.Errorf("failed to create temp file: %w", err))
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return wrap("save", userID, fmt.Errorf("failed to write session file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		return wrap("save", userID, fmt.Errorf("failed to write session file: %w", err))
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return wrap("save", userID, err)
	}
	if err := os.Rename(tmpName, s.path(userID)); err != nil {
		return wrap("save", userID, fmt.Errorf("failed to replace session file: %w", err))
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, userID string) error {
	err := os.Remove(s.path(userID))
	if os.IsNotExist(err) {
		return wrap("delete", userID, ErrNotFound)
	}
	return wrap("delete", userID, err)
}

// List reads the user id out of every file, since hashed names cannot be
// reversed. Unreadable files are skipped.
func (s *FileStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.basePath)
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, wrap("list", "", fmt.Errorf("failed to list session directory: %w", err))
	}

	ids := []string{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.basePath, entry.Name()))
		if err != nil {
			continue
		}
		var head struct {
			UserID string `json:"user_id"`
		}
		if err := json.Unmarshal(data, &head); err != nil || head.UserID == "" {
			continue
		}
		ids = append(ids, head.UserID)
	}
	sort.Strings(ids)
	return ids, nil
}
