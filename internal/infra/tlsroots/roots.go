package tlsroots

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kinance/kinance-go/internal/telemetry/logger"
)

var (
	// ErrNoCertsFound is returned when PEM data holds no certificate.
	ErrNoCertsFound = errors.New("tlsroots: no certificates found in PEM data")

	// ErrIncompleteKeyPair is returned when only one of cert and key is set.
	ErrIncompleteKeyPair = errors.New("tlsroots: client certificate and key must be set together")
)

// Pool is a set of trusted root certificates.
type Pool struct {
	certPool *x509.CertPool
	added    int
}

// SystemPool starts from the system roots, or an empty pool where the
// platform has none.
func SystemPool() *Pool {
	pool, err := x509.SystemCertPool()
	if err != nil {
		pool = x509.NewCertPool()
	}
	return &Pool{certPool: pool}
}

// NewEmptyPool creates a pool without system roots.
func NewEmptyPool() *Pool {
	return &Pool{certPool: x509.NewCertPool()}
}

// AddCertFile adds every certificate of a PEM file.
func (p *Pool) AddCertFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("tlsroots: read %s: %w", path, err)
	}
	if err := p.AddCertPEM(data); err != nil {
		return fmt.Errorf("%w (%s)", err, path)
	}
	return nil
}

// AddCertPEM adds the CERTIFICATE blocks of pemData; other blocks are skipped.
func (p *Pool) AddCertPEM(pemData []byte) error {
	n := 0
	for len(pemData) > 0 {
		var block *pem.Block
		block, pemData = pem.Decode(pemData)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}

		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return fmt.Errorf("tlsroots: parse certificate: %w", err)
		}
		p.AddCert(cert)
		n++
	}

	if n == 0 {
		return ErrNoCertsFound
	}
	return nil
}

// AddCert adds a parsed certificate.
func (p *Pool) AddCert(cert *x509.Certificate) {
	p.certPool.AddCert(cert)
	p.added++
}

// AddCertDir adds the .pem, .crt and .cer files of dir. Unreadable files
// are logged and skipped; a directory without any usable file is an error.
func (p *Pool) AddCertDir(dir string, log logger.Logger) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("tlsroots: read dir %s: %w", dir, err)
	}
	if log == nil {
		log = logger.Discard()
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".pem", ".crt", ".cer":
		default:
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if err := p.AddCertFile(path); err != nil {
			log.Warn("skipping CA file", "file", path, "error", err)
			continue
		}
		loaded++
	}

	if loaded == 0 {
		return fmt.Errorf("%w in %s", ErrNoCertsFound, dir)
	}
	return nil
}

// Added is the number of certificates added on top of the initial roots.
func (p *Pool) Added() int {
	return p.added
}

// Pool returns the underlying x509.CertPool.
func (p *Pool) Pool() *x509.CertPool {
	return p.certPool
}

// Options selects the TLS material for the API connection.
type Options struct {
	CAFile   string
	CADir    string
	CertFile string
	KeyFile  string

	Logger logger.Logger
}

// ClientConfig builds the client TLS settings. It returns a nil config when
// no option is set, leaving Go's defaults in place. The Watcher is non-nil
// when a client certificate is configured; the caller starts and stops it.
func ClientConfig(opts Options) (*tls.Config, *Watcher, error) {
	if (opts.CertFile == "") != (opts.KeyFile == "") {
		return nil, nil, ErrIncompleteKeyPair
	}
	if opts.CAFile == "" && opts.CADir == "" && opts.CertFile == "" {
		return nil, nil, nil
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}

	conf := &tls.Config{MinVersion: tls.VersionTLS12}

	if opts.CAFile != "" || opts.CADir != "" {
		pool := SystemPool()
		if opts.CAFile != "" {
			if err := pool.AddCertFile(opts.CAFile); err != nil {
				return nil, nil, err
			}
		}
		if opts.CADir != "" {
			if err := pool.AddCertDir(opts.CADir, opts.Logger); err != nil {
				return nil, nil, err
			}
		}
		opts.Logger.Debug("extra API roots loaded", "count", pool.Added())
		conf.RootCAs = pool.Pool()
	}

	var watcher *Watcher
	if opts.CertFile != "" {
		w, err := NewWatcher(opts.CertFile, opts.KeyFile, WithLogger(opts.Logger))
		if err != nil {
			return nil, nil, err
		}
		conf.GetClientCertificate = w.GetClientCertificate
		watcher = w
	}
	return conf, watcher, nil
}
