package store

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/domwatch/dominance-bot/internal/metrics"
	"github.com/domwatch/dominance-bot/internal/model"
)

// FileStore keeps each document in its own JSON file. Missing files yield
// empty documents; malformed files are logged and treated as absent so a
// corrupt file never takes the bot down.
type FileStore struct {
	bookPath     string
	settingsPath string
}

// NewFileStore creates a store writing the portfolio book and settings
// overrides to the given paths.
func NewFileStore(bookPath, settingsPath string) *FileStore {
	return &FileStore{bookPath: bookPath, settingsPath: settingsPath}
}

func (s *FileStore) LoadBook(_ context.Context) (*model.Book, error) {
	book := model.NewBook()
	loadFile(s.bookPath, book)
	if book.Users == nil {
		book.Users = make(map[int64]*model.User)
	}
	return book, nil
}

func (s *FileStore) SaveBook(_ context.Context, book *model.Book) error {
	return saveFile(s.bookPath, book)
}

func (s *FileStore) LoadSettings(_ context.Context) (*model.Settings, error) {
	settings := &model.Settings{}
	loadFile(s.settingsPath, settings)
	return settings, nil
}

func (s *FileStore) SaveSettings(_ context.Context, settings *model.Settings) error {
	return saveFile(s.settingsPath, settings)
}

// loadFile decodes path into v, leaving v untouched when the file is missing
// or unreadable.
func loadFile(path string, v any) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("document read failed, using defaults", "path", path, "err", err)
			metrics.PersistenceErrorsTotal.Inc()
		}
		return
	}
	if err := json.Unmarshal(data, v); err != nil {
		slog.Warn("document is malformed, using defaults", "path", path, "err", err)
		metrics.PersistenceErrorsTotal.Inc()
	}
}

func saveFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		metrics.PersistenceErrorsTotal.Inc()
		return err
	}
	return nil
}
