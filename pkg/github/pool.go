package github

import (
	"time"

	errs "prscraper/pkg/errors"
	"prscraper/pkg/logger"
	"prscraper/pkg/ratelimit"
)

// Pool owns an ordered set of credentials for the lifetime of the process.
// Selection is a deterministic in-order scan, not randomized or weighted,
// so tests and reruns see the same credential order.
type Pool struct {
	creds []*Credential
}

// NewPool builds a pool from a static token list. It fails fast on an
// empty list; a dispatcher with no credentials could only spin.
func NewPool(secrets []string, timeout time.Duration, log logger.Logger) (*Pool, error) {
	if len(secrets) == 0 {
		return nil, errs.New(errs.ErrorTypeConfiguration, 0, "credential pool requires at least one token")
	}

	creds := make([]*Credential, 0, len(secrets))
	for _, secret := range secrets {
		creds = append(creds, NewCredential(secret, timeout, log))
	}
	return &Pool{creds: creds}, nil
}

// NewPoolFromCredentials builds a pool from already constructed credentials.
func NewPoolFromCredentials(creds []*Credential) (*Pool, error) {
	if len(creds) == 0 {
		return nil, errs.New(errs.ErrorTypeConfiguration, 0, "credential pool requires at least one credential")
	}
	return &Pool{creds: creds}, nil
}

// PickReady returns the first credential whose tracker for the class is
// ready, or nil when none is.
func (p *Pool) PickReady(class ratelimit.Class, now time.Time) *Credential {
	for _, cred := range p.creds {
		if cred.Ready(class, now) {
			return cred
		}
	}
	return nil
}

// EarliestReadyAt returns the minimum ReadyAt over all credentials. When
// the whole pool is exhausted this is the earliest reset time; if any
// credential is ready it is simply now.
func (p *Pool) EarliestReadyAt(class ratelimit.Class, now time.Time) time.Time {
	earliest := time.Time{}
	for _, cred := range p.creds {
		at := cred.ReadyAt(class, now)
		if earliest.IsZero() || at.Before(earliest) {
			earliest = at
		}
	}
	return earliest
}

// Size returns the number of credentials in the pool.
func (p *Pool) Size() int {
	return len(p.creds)
}

// Credentials returns the pool's credentials in selection order.
func (p *Pool) Credentials() []*Credential {
	return p.creds
}
