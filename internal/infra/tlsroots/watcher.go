package tlsroots

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kinance/kinance-go/internal/telemetry/logger"
)

// Defaults for a Watcher.
const (
	DefaultDebounce   = 500 * time.Millisecond
	DefaultExpiryWarn = 7 * 24 * time.Hour
)

// Watcher holds a client certificate and reloads it when the certificate
// or key file changes.
type Watcher struct {
	certFile string
	keyFile  string
	logger   logger.Logger
	debounce time.Duration
	warn     time.Duration
	now      func() time.Time

	mu   sync.RWMutex
	cert *tls.Certificate

	timerMu sync.Mutex
	timer   *time.Timer

	done     chan struct{}
	stopOnce sync.Once
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithLogger sets the watcher logger.
func WithLogger(l logger.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = l
	}
}

// WithDebounce sets how long a burst of file events is coalesced.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithExpiryWarning logs a warning when the loaded certificate expires
// within d.
func WithExpiryWarning(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.warn = d
	}
}

// NewWatcher loads the key pair. Watching starts with Start or StartAsync.
func NewWatcher(certFile, keyFile string, opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		certFile: certFile,
		keyFile:  keyFile,
		logger:   logger.Discard(),
		debounce: DefaultDebounce,
		warn:     DefaultExpiryWarn,
		now:      time.Now,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := w.reload(); err != nil {
		return nil, fmt.Errorf("tlsroots: initial load: %w", err)
	}
	return w, nil
}

// Start watches the certificate directories until Stop is called.
func (w *Watcher) Start() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("tlsroots: create watcher: %w", err)
	}
	defer fw.Close()

	// Directories, not files: editors and cert managers replace files by rename.
	dirs := map[string]bool{filepath.Dir(w.certFile): true, filepath.Dir(w.keyFile): true}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("tlsroots: watch %s: %w", dir, err)
		}
	}

	certBase, keyBase := filepath.Base(w.certFile), filepath.Base(w.keyFile)
	w.logger.Debug("client certificate watcher started", "cert_file", w.certFile)

	for {
		select {
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			base := filepath.Base(event.Name)
			if base != certBase && base != keyBase {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.logger.Debug("client certificate file changed", "file", event.Name, "op", event.Op.String())
			w.scheduleReload()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("client certificate watcher error", "error", err)

		case <-w.done:
			return nil
		}
	}
}

// StartAsync runs Start in a goroutine.
func (w *Watcher) StartAsync() {
	go func() {
		if err := w.Start(); err != nil {
			w.logger.Warn("client certificate watcher stopped", "error", err)
		}
	}()
}

// Stop ends watching. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.timerMu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.timerMu.Unlock()
	})
}

// GetClientCertificate implements tls.Config.GetClientCertificate.
func (w *Watcher) GetClientCertificate(*tls.CertificateRequestInfo) (*tls.Certificate, error) {
	return w.Certificate(), nil
}

// Certificate returns the current key pair.
func (w *Watcher) Certificate() *tls.Certificate {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cert
}

// scheduleReload coalesces events arriving within the debounce window,
// so a cert and key written back to back load as one pair.
func (w *Watcher) scheduleReload() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case <-w.done:
			return
		default:
		}
		if err := w.reload(); err != nil {
			// The previous pair stays in use.
			w.logger.Warn("client certificate reload failed", "cert_file", w.certFile, "error", err)
		}
	})
}

func (w *Watcher) reload() error {
	cert, err := tls.LoadX509KeyPair(w.certFile, w.keyFile)
	if err != nil {
		return fmt.Errorf("load key pair: %w", err)
	}

	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return fmt.Errorf("parse certificate: %w", err)
	}
	cert.Leaf = leaf

	w.mu.Lock()
	w.cert = &cert
	w.mu.Unlock()

	w.logger.Debug("client certificate loaded", "cert_file", w.certFile, "not_after", leaf.NotAfter)
	if left := leaf.NotAfter.Sub(w.now()); left < w.warn {
		w.logger.Warn("client certificate expires soon",
			"cert_file", w.certFile,
			"not_after", leaf.NotAfter.Format(time.RFC3339))
	}
	return nil
}
