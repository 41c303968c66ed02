package kafka

import (
	// Go Internal Packages
	"crypto/tls"
	"crypto/x509"
	"strings"

	// Local Packages
	errors "tx-producer/errors"
)

// TLSConfig carries PEM encoded material for mutual TLS
type TLSConfig struct {
	CACertificate     string
	AccessKey         string
	AccessCertificate string
}

// NewTLSConfig builds a client TLS config that trusts only the given CA and
// presents the given certificate/key pair.
func NewTLSConfig(conf TLSConfig) (*tls.Config, error) {
	ve := errors.ValidationErrs()
	if strings.TrimSpace(conf.CACertificate) == "" {
		ve.Add("ca_certificate", "cannot be empty")
	}
	if strings.TrimSpace(conf.AccessKey) == "" {
		ve.Add("access_key", "cannot be empty")
	}
	if strings.TrimSpace(conf.AccessCertificate) == "" {
		ve.Add("access_certificate", "cannot be empty")
	}
	if err := ve.Err(); err != nil {
		return nil, errors.ConnectErr("missing TLS credentials", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM([]byte(conf.CACertificate)) {
		return nil, errors.ConnectErr("cannot parse CA certificate", nil)
	}

	cert, err := tls.X509KeyPair([]byte(conf.AccessCertificate), []byte(conf.AccessKey))
	if err != nil {
		return nil, errors.ConnectErr("cannot parse client key pair", err)
	}

	return &tls.Config{
		MinVersion:   tls.VersionTLS12,
		RootCAs:      pool,
		Certificates: []tls.Certificate{cert},
	}, nil
}
