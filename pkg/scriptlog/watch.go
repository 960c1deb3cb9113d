package scriptlog

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/wayneeseguin/scriptlog/pkg/types"
)

// Watcher reloads a config file when it changes and applies the settings
// that can change at runtime: log_level, console.level and sample_rate.
type Watcher struct {
	path    string
	logger  *Logger
	watcher *fsnotify.Watcher

	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once

	mu       sync.Mutex
	onReload func(cfg *Config, err error)
}

// WatchConfig starts watching path for logger. The parent directory is
// watched so editors that replace the file are still seen.
func WatchConfig(path string, logger *Logger) (*Watcher, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve %s", path)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create watcher")
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, errors.Wrapf(err, "watch %s", filepath.Dir(abs))
	}

	w := &Watcher{
		path:    abs,
		logger:  logger,
		watcher: fw,
		done:    make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// SetOnReload sets a function called after every reload attempt with the
// loaded config or the error.
func (w *Watcher) SetOnReload(fn func(cfg *Config, err error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onReload = fn
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.reportError(types.KindConfiguration, "watch", w.path, "config watcher error", err)
		}
	}
}

// reload loads the file and applies the runtime settings. An invalid file
// leaves the logger unchanged.
func (w *Watcher) reload() {
	cfg, err := LoadConfig(w.path)
	if err != nil {
		w.logger.reportError(types.KindConfiguration, "reload", w.path, "config reload failed", err)
	} else {
		w.logger.applyConfig(cfg)
	}

	w.mu.Lock()
	fn := w.onReload
	w.mu.Unlock()
	if fn != nil {
		fn(cfg, err)
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.watcher.Close()
		w.wg.Wait()
	})
	return err
}

func (l *Logger) applyConfig(cfg *Config) {
	_ = l.SetLevel(cfg.level())
	if cfg.Console.Level != "" {
		l.SetConsoleLevel(optionalLevel(cfg.Console.Level, types.LevelDebug))
	}
	l.SetSampleRate(cfg.SampleRate)
}
