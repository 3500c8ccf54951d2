// Package cert loads a TLS keypair for the HTTP server and reloads it from
// disk on SIGHUP, so renewed certificates can be picked up without a restart.
package cert

import (
	"crypto/tls"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// CertReloader holds the currently loaded keypair behind a lock and swaps it
// atomically on reload.
type CertReloader struct {
	mu       sync.RWMutex
	cert     *tls.Certificate
	certPath string
	keyPath  string
}

// NewCertReloader loads the keypair once and installs the SIGHUP handler.
func NewCertReloader(certPath, keyPath string) (*CertReloader, error) {
	cr := &CertReloader{
		certPath: certPath,
		keyPath:  keyPath,
	}
	if err := cr.reload(); err != nil {
		return nil, err
	}

	// reload the keypair on SIGHUP
	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)
	go func() {
		for range sighup {
			if err := cr.reload(); err != nil {
				log.Printf("ERR: keeping old TLS keypair, reload failed: %s", err)
				continue
			}
			log.Printf("reloaded TLS keypair from %s", cr.certPath)
		}
	}()

	return cr, nil
}

func (cr *CertReloader) reload() error {
	cert, err := tls.LoadX509KeyPair(cr.certPath, cr.keyPath)
	if err != nil {
		return err
	}
	cr.mu.Lock()
	cr.cert = &cert
	cr.mu.Unlock()
	return nil
}

// GetTLSConfig returns a tls.Config resolving the certificate through this
// reloader on every handshake.
func (cr *CertReloader) GetTLSConfig() *tls.Config {
	return &tls.Config{
		GetCertificate: func(*tls.ClientHelloInfo) (*tls.Certificate, error) {
			cr.mu.RLock()
			defer cr.mu.RUnlock()
			return cr.cert, nil
		},
	}
}
