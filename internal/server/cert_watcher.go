package server

import (
	"crypto/tls"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"resumecanvas/internal/errors"
)

// CertReloader watches certificate files for changes and serves the
// freshest key pair to the TLS stack without a restart.
type CertReloader struct {
	mu sync.RWMutex

	certFile string
	keyFile  string

	current *tls.Certificate

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan   chan struct{}
	reloadChan chan struct{}

	lastModTime map[string]time.Time

	reloadCount   int
	reloadFailed  int
	lastReload    time.Time
	lastReloadErr string

	logger  *errors.Logger
	running bool
}

// NewCertReloader creates a reloader for the given certificate pair.
// The initial load happens immediately; Start begins watching for changes.
func NewCertReloader(certFile, keyFile string, debounceDelay time.Duration, logger *errors.Logger) (*CertReloader, error) {
	if debounceDelay == 0 {
		debounceDelay = time.Second
	}

	cr := &CertReloader{
		certFile:      certFile,
		keyFile:       keyFile,
		debounceDelay: debounceDelay,
		stopChan:      make(chan struct{}),
		reloadChan:    make(chan struct{}, 1), // Buffered to prevent blocking
		lastModTime:   make(map[string]time.Time),
		logger:        logger,
	}

	if err := cr.reload(); err != nil {
		return nil, err
	}

	return cr, nil
}

// Start begins watching the certificate files for changes
func (cr *CertReloader) Start() error {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	if cr.running {
		return fmt.Errorf("certificate reloader is already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	cr.fsWatcher = watcher

	for _, file := range []string{cr.certFile, cr.keyFile} {
		if err := cr.addFileToWatcher(file); err != nil && cr.logger != nil {
			cr.logger.Warn("Failed to watch certificate file", "file", file, "error", err)
		}
		if stat, err := os.Stat(file); err == nil {
			cr.lastModTime[file] = stat.ModTime()
		}
	}

	cr.running = true
	go cr.watchLoop()

	if cr.logger != nil {
		cr.logger.Info("Certificate file watcher started",
			"cert_file", cr.certFile,
			"key_file", cr.keyFile,
			"debounce_delay", cr.debounceDelay)
	}
	return nil
}

// Stop stops the certificate file watcher
func (cr *CertReloader) Stop() error {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	if !cr.running {
		return nil
	}

	close(cr.stopChan)

	if cr.debounceTimer != nil {
		cr.debounceTimer.Stop()
	}

	if cr.fsWatcher != nil {
		if err := cr.fsWatcher.Close(); err != nil {
			if cr.logger != nil {
				cr.logger.LogError(err, "Failed to close file system watcher")
			}
			return err
		}
	}

	cr.running = false

	if cr.logger != nil {
		cr.logger.Info("Certificate file watcher stopped")
	}
	return nil
}

// GetCertificate is the tls.Config callback serving the current key pair
func (cr *CertReloader) GetCertificate(_ *tls.ClientHelloInfo) (*tls.Certificate, error) {
	cr.mu.RLock()
	defer cr.mu.RUnlock()

	if cr.current == nil {
		return nil, fmt.Errorf("no certificate loaded")
	}
	return cr.current, nil
}

// Status reports reload statistics for the health endpoint
func (cr *CertReloader) Status() map[string]any {
	cr.mu.RLock()
	defer cr.mu.RUnlock()

	status := map[string]any{
		"watching":      cr.running,
		"reload_count":  cr.reloadCount,
		"reload_failed": cr.reloadFailed,
		"watched_files": []string{cr.certFile, cr.keyFile},
	}
	if !cr.lastReload.IsZero() {
		status["last_reload"] = cr.lastReload.Format(time.RFC3339)
	}
	if cr.lastReloadErr != "" {
		status["last_reload_error"] = cr.lastReloadErr
	}
	return status
}

// reload loads the certificate pair from disk and swaps it in
func (cr *CertReloader) reload() error {
	cert, err := tls.LoadX509KeyPair(cr.certFile, cr.keyFile)

	cr.mu.Lock()
	defer cr.mu.Unlock()

	cr.reloadCount++
	cr.lastReload = time.Now()
	if err != nil {
		cr.reloadFailed++
		cr.lastReloadErr = err.Error()
		return fmt.Errorf("failed to load certificate pair: %w", err)
	}

	cr.current = &cert
	cr.lastReloadErr = ""
	return nil
}

// addFileToWatcher adds a file and its directory to the file system watcher
func (cr *CertReloader) addFileToWatcher(file string) error {
	if err := cr.fsWatcher.Add(file); err != nil {
		if os.IsNotExist(err) {
			dir := filepath.Dir(file)
			if err := cr.fsWatcher.Add(dir); err != nil {
				return fmt.Errorf("failed to watch directory %s: %w", dir, err)
			}
		} else {
			return fmt.Errorf("failed to watch file %s: %w", file, err)
		}
	}

	// Also watch the directory to catch atomic writes (rename operations)
	dir := filepath.Dir(file)
	if err := cr.fsWatcher.Add(dir); err != nil && cr.logger != nil {
		cr.logger.Warn("Failed to watch directory for atomic writes",
			"directory", dir, "error", err)
	}

	return nil
}

// watchLoop is the main event loop for file watching
func (cr *CertReloader) watchLoop() {
	for {
		select {
		case event, ok := <-cr.fsWatcher.Events:
			if !ok {
				return
			}
			if cr.shouldProcessEvent(event) {
				cr.scheduleReload()
			}

		case err, ok := <-cr.fsWatcher.Errors:
			if !ok {
				return
			}
			if cr.logger != nil {
				cr.logger.LogError(err, "Certificate watcher error")
			}

		case <-cr.reloadChan:
			// Debounced reload trigger
			if cr.hasAnyFileChanged() {
				if cr.logger != nil {
					cr.logger.Info("Certificate files changed, reloading")
				}
				if err := cr.reload(); err != nil && cr.logger != nil {
					cr.logger.LogError(err, "Failed to reload TLS certificates")
				} else if cr.logger != nil {
					cr.logger.Info("TLS certificates reloaded successfully")
				}
			}

		case <-cr.stopChan:
			return
		}
	}
}

// shouldProcessEvent determines if a file system event should trigger a reload check
func (cr *CertReloader) shouldProcessEvent(event fsnotify.Event) bool {
	isWatchedFile := false
	for _, file := range []string{cr.certFile, cr.keyFile} {
		if file != "" && (event.Name == file || filepath.Base(event.Name) == filepath.Base(file)) {
			isWatchedFile = true
			break
		}
	}
	if !isWatchedFile {
		return false
	}

	// Process write, create, and rename events
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// hasAnyFileChanged checks if either watched file has changed on disk
func (cr *CertReloader) hasAnyFileChanged() bool {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	changed := false
	for _, file := range []string{cr.certFile, cr.keyFile} {
		stat, err := os.Stat(file)
		if err != nil {
			if os.IsNotExist(err) {
				if _, exists := cr.lastModTime[file]; exists {
					delete(cr.lastModTime, file)
					changed = true
				}
			}
			continue
		}

		lastMod, exists := cr.lastModTime[file]
		if !exists || stat.ModTime().After(lastMod) {
			cr.lastModTime[file] = stat.ModTime()
			changed = true
		}
	}
	return changed
}

// scheduleReload schedules a debounced reload
func (cr *CertReloader) scheduleReload() {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	if cr.debounceTimer != nil {
		cr.debounceTimer.Stop()
	}

	cr.debounceTimer = time.AfterFunc(cr.debounceDelay, func() {
		select {
		case cr.reloadChan <- struct{}{}:
			// Reload scheduled
		default:
			// Channel is full, reload already scheduled
		}
	})
}
