package config

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// Enabled reports whether the config asks for TLS at all. A nil or
// all-empty block means the P2P layer runs over plain TCP.
func (t *TLSConfig) Enabled() bool {
	return t != nil && (t.CACert != "" || t.NodeCert != "" || t.NodeKey != "")
}

// validate runs as part of Config.Validate. Validator peers mutually
// authenticate, so a node that serves must also be able to dial: a
// partial TLS block is a misconfiguration, not a fallback, and the PEM
// files must exist before the node starts listening.
func (t *TLSConfig) validate() error {
	if !t.Enabled() {
		return nil
	}
	paths := map[string]string{
		"ca_cert":   t.CACert,
		"node_cert": t.NodeCert,
		"node_key":  t.NodeKey,
	}
	for field, path := range paths {
		if path == "" {
			return fmt.Errorf("tls: %s missing: mutual TLS needs ca_cert, node_cert, and node_key together", field)
		}
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("tls: %s: %w", field, err)
		}
	}
	return nil
}

// Load builds the one *tls.Config the P2P layer uses for both listening
// and dialing. The same CA pool serves as RootCAs and ClientCAs: every
// peer presents a certificate from the validator set's shared CA and
// demands the same of whoever connects.
func (t *TLSConfig) Load() (*tls.Config, error) {
	if !t.Enabled() {
		return nil, nil
	}
	cert, err := tls.LoadX509KeyPair(t.NodeCert, t.NodeKey)
	if err != nil {
		return nil, fmt.Errorf("tls: node certificate: %w", err)
	}
	caPEM, err := os.ReadFile(t.CACert)
	if err != nil {
		return nil, fmt.Errorf("tls: ca certificate: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("tls: ca certificate %s contains no PEM certificates", t.CACert)
	}
	return &tls.Config{
		MinVersion:   tls.VersionTLS13,
		Certificates: []tls.Certificate{cert},
		RootCAs:      pool,
		ClientCAs:    pool,
		ClientAuth:   tls.RequireAndVerifyClientCert,
	}, nil
}
