package prompts

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// TemplateWatcher reloads override templates when files in the override
// directory change. Events are debounced.
type TemplateWatcher struct {
	dir          string
	registry     *PromptRegistry
	watcher      *fsnotify.Watcher
	onReload     func(ids []string)
	debounceTime time.Duration
	logger       *zap.Logger

	mu      sync.Mutex
	pending map[string]bool // path -> removed

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewTemplateWatcher creates a watcher for dir. onReload receives the prompt
// IDs whose templates changed.
func NewTemplateWatcher(dir string, registry *PromptRegistry, onReload func(ids []string), logger *zap.Logger) (*TemplateWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &TemplateWatcher{
		dir:          dir,
		registry:     registry,
		watcher:      w,
		onReload:     onReload,
		debounceTime: 300 * time.Millisecond,
		logger:       logger,
		pending:      make(map[string]bool),
		ctx:          ctx,
		cancel:       cancel,
	}, nil
}

// Start begins watching.
func (tw *TemplateWatcher) Start() error {
	if err := tw.watcher.Add(tw.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", tw.dir, err)
	}

	tw.wg.Add(2)
	go tw.eventLoop()
	go tw.debounceLoop()
	return nil
}

// Stop stops the watcher and waits for its goroutines.
func (tw *TemplateWatcher) Stop() error {
	tw.cancel()
	tw.wg.Wait()
	return tw.watcher.Close()
}

func (tw *TemplateWatcher) eventLoop() {
	defer tw.wg.Done()

	for {
		select {
		case <-tw.ctx.Done():
			return
		case event, ok := <-tw.watcher.Events:
			if !ok {
				return
			}
			tw.handleEvent(event)
		case err, ok := <-tw.watcher.Errors:
			if !ok {
				return
			}
			tw.logger.Warn("[Prompts] watcher error", zap.Error(err))
		}
	}
}

func (tw *TemplateWatcher) handleEvent(event fsnotify.Event) {
	if !strings.HasSuffix(event.Name, TemplateExt) {
		return
	}
	if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		tw.mu.Lock()
		tw.pending[event.Name] = event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
		tw.mu.Unlock()
	}
}

func (tw *TemplateWatcher) debounceLoop() {
	defer tw.wg.Done()

	ticker := time.NewTicker(tw.debounceTime)
	defer ticker.Stop()

	for {
		select {
		case <-tw.ctx.Done():
			return
		case <-ticker.C:
			tw.flush()
		}
	}
}

func (tw *TemplateWatcher) flush() {
	tw.mu.Lock()
	if len(tw.pending) == 0 {
		tw.mu.Unlock()
		return
	}
	pending := tw.pending
	tw.pending = make(map[string]bool)
	tw.mu.Unlock()

	var ids []string
	for path, removed := range pending {
		id := strings.TrimSuffix(filepath.Base(path), TemplateExt)
		if removed {
			tw.registry.Unregister(id, PromptLocal)
			ids = append(ids, id)
			continue
		}
		if _, err := tw.registry.LoadOverride(path); err != nil {
			// keep serving the previous version
			tw.logger.Warn("[Prompts] template reload failed", zap.String("path", path), zap.Error(err))
			continue
		}
		ids = append(ids, id)
	}

	if len(ids) > 0 {
		tw.logger.Info("[Prompts] templates reloaded", zap.Strings("ids", ids))
		if tw.onReload != nil {
			tw.onReload(ids)
		}
	}
}
