package amqp

import (
	"crypto/tls"
	"crypto/x509"
	"io/ioutil"
)

// buildTLSConfig loads a CA cert and a combined client cert/key file into a
// *tls.Config, the same two-file shape the teacher's TLS helper expects.
func buildTLSConfig(cfg *TLSConfig) (*tls.Config, error) {
	tlsCfg := &tls.Config{RootCAs: x509.NewCertPool()}

	ca, err := ioutil.ReadFile(cfg.PEMCertLocation)
	if err != nil {
		return nil, err
	}
	tlsCfg.RootCAs.AppendCertsFromPEM(ca)

	cert, err := tls.LoadX509KeyPair(cfg.LocalCertLocation, cfg.LocalCertLocation)
	if err != nil {
		return nil, err
	}
	tlsCfg.Certificates = append(tlsCfg.Certificates, cert)

	return tlsCfg, nil
}
