package probe

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"math"
	"net"
	"net/url"
	"strings"
	"time"
)

const tlsTimeout = 5 * time.Second

// Certificate tiers. Warning means the certificate expires within 59 days,
// danger within 30 or an unauthorized chain.
const (
	TierSuccess = "success"
	TierWarning = "expiring soon"
	TierDanger  = "danger"
)

type CertSubject struct {
	Org        string   `json:"org"`
	CommonName string   `json:"common_name"`
	SANs       []string `json:"sans"`
}

type CertIssuer struct {
	Org        string `json:"org"`
	CommonName string `json:"common_name"`
	Country    string `json:"country"`
}

// CertInfo is the serialized certificate summary stored on an SSL monitor.
type CertInfo struct {
	Host       string      `json:"host"`
	Tier       string      `json:"type"`
	Reason     string      `json:"reason,omitempty"`
	Authorized bool        `json:"authorized"`
	Subject    CertSubject `json:"subject"`
	Issuer     CertIssuer  `json:"issuer"`
	ValidFrom  time.Time   `json:"valid_from"`
	ValidTo    time.Time   `json:"valid_to"`
	DaysLeft   int         `json:"days_left"`
	Background string      `json:"background_class"`
}

// FetchCertificate opens a TLS connection without transport-level chain
// enforcement (so invalid chains can still be inspected), reads the peer
// certificate and classifies it. Non-TLS URLs, socket errors and timeouts
// are failures, distinct from a classified "danger" result.
func FetchCertificate(ctx context.Context, rawURL string) (*CertInfo, error) {
	if !strings.HasPrefix(rawURL, "https://") {
		return nil, fmt.Errorf("host %s is invalid", rawURL)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("host %s is invalid: %w", rawURL, err)
	}
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "443"
	}

	ctx, cancel := context.WithTimeout(ctx, tlsTimeout)
	defer cancel()

	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: tlsTimeout},
		Config: &tls.Config{
			InsecureSkipVerify: true,
			ServerName:         host,
		},
	}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		return nil, fmt.Errorf("tls dial %s: %w", host, err)
	}
	defer conn.Close()

	state := conn.(*tls.Conn).ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return nil, fmt.Errorf("no peer certificate from %s", host)
	}
	leaf := state.PeerCertificates[0]

	authorized, reason := verifyChain(host, state.PeerCertificates)
	daysLeft := daysRemaining(time.Now(), leaf.NotAfter)
	tier, background := ClassifyCertificate(authorized, daysLeft)

	return &CertInfo{
		Host:       host,
		Tier:       tier,
		Reason:     reason,
		Authorized: authorized,
		Subject: CertSubject{
			Org:        first(leaf.Subject.Organization),
			CommonName: leaf.Subject.CommonName,
			SANs:       leaf.DNSNames,
		},
		Issuer: CertIssuer{
			Org:        first(leaf.Issuer.Organization),
			CommonName: leaf.Issuer.CommonName,
			Country:    first(leaf.Issuer.Country),
		},
		ValidFrom:  leaf.NotBefore,
		ValidTo:    leaf.NotAfter,
		DaysLeft:   daysLeft,
		Background: background,
	}, nil
}

// ClassifyCertificate maps chain validity and remaining days to a tier and
// its background class. An unauthorized chain is danger regardless of expiry.
func ClassifyCertificate(authorized bool, daysLeft int) (tier, background string) {
	if !authorized {
		return TierDanger, "danger"
	}
	switch {
	case daysLeft <= 30:
		return TierDanger, "danger"
	case daysLeft <= 59:
		return TierWarning, "warning"
	default:
		return TierSuccess, "success"
	}
}

func verifyChain(host string, certs []*x509.Certificate) (bool, string) {
	intermediates := x509.NewCertPool()
	for _, c := range certs[1:] {
		intermediates.AddCert(c)
	}
	_, err := certs[0].Verify(x509.VerifyOptions{
		DNSName:       host,
		Intermediates: intermediates,
	})
	if err != nil {
		return false, err.Error()
	}
	return true, ""
}

func first(ss []string) string {
	if len(ss) == 0 {
		return ""
	}
	return ss[0]
}

// daysRemaining rounds the distance to expiry to whole days, sign-flipped
// negative once the certificate has expired.
func daysRemaining(now, validTo time.Time) int {
	days := int(math.Round(math.Abs(validTo.Sub(now).Hours()) / 24))
	if validTo.Before(now) {
		return -days
	}
	return days
}
