package wallet

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const DefaultConnectTimeout = 2 * time.Minute

// Session is the single connected wallet identity shown in the header.
type Session struct {
	Connected     bool         `json:"connected"`
	Address       string       `json:"address"`
	ProviderLabel string       `json:"provider_label"`
	Provider      ProviderKind `json:"provider"`
}

// Controller owns the wallet session. Connect and Disconnect are the only
// ways to change it, and every change replaces the whole value.
type Controller struct {
	detector  *Detector
	providers map[ProviderKind]Provider
	timeout   time.Duration
	log       logrus.FieldLogger

	mu            sync.Mutex
	session       Session
	pending       bool
	cancelPending context.CancelFunc
	conn          *Connection
	connGen       uint64
	updates       chan Session
}

func NewController(detector *Detector, providers []Provider, timeout time.Duration, log logrus.FieldLogger) *Controller {
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	byKind := make(map[ProviderKind]Provider, len(providers))
	for _, p := range providers {
		byKind[p.Kind()] = p
	}
	return &Controller{
		detector:  detector,
		providers: byKind,
		timeout:   timeout,
		log:       log.WithField("component", "wallet"),
		updates:   make(chan Session, 16),
	}
}

// Detector exposes the capability probes for the view.
func (c *Controller) Detector() *Detector {
	return c.detector
}

// Label returns the display name of the provider for kind.
func (c *Controller) Label(kind ProviderKind) string {
	if p, ok := c.providers[kind]; ok {
		return p.Label()
	}
	return kind.String()
}

// Session returns the current session value.
func (c *Controller) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Pending reports whether a connect call is in progress.
func (c *Controller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Updates delivers every session change, including address changes pushed by
// streaming providers.
func (c *Controller) Updates() <-chan Session {
	return c.updates
}

func (c *Controller) publish(s Session) {
	select {
	case c.updates <- s:
	default:
		c.log.Warn("session update dropped")
	}
}

// Connect asks the provider for account access and commits the result. The
// session is left untouched on any error.
func (c *Controller) Connect(ctx context.Context, kind ProviderKind) (Session, error) {
	c.mu.Lock()
	p, ok := c.providers[kind]
	if !ok {
		c.mu.Unlock()
		return Session{}, ErrUnknownProvider
	}
	if !c.detector.Detected(kind) {
		c.mu.Unlock()
		c.log.WithField("provider", p.Label()).Info("provider not detected")
		return Session{}, &NotDetectedError{Provider: p.Label(), Hint: p.Hint()}
	}
	if c.pending {
		c.mu.Unlock()
		return Session{}, ErrConnectPending
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	c.pending = true
	c.cancelPending = cancel
	// Disconnect bumps connGen, so a change means this connect was cancelled.
	startGen := c.connGen
	c.mu.Unlock()

	c.log.WithField("provider", p.Label()).Debug("requesting account access")
	conn, err := p.Connect(ctx)

	c.mu.Lock()
	c.pending = false
	c.cancelPending = nil
	if err == nil && c.connGen != startGen {
		c.mu.Unlock()
		conn.Close()
		err = context.Canceled
		c.log.WithField("provider", p.Label()).Info("wallet connect cancelled by disconnect")
		return Session{}, &ConnectError{Provider: p.Label(), Err: err}
	}
	if err != nil {
		c.mu.Unlock()
		c.log.WithError(err).WithField("provider", p.Label()).Warn("wallet connect failed")
		return Session{}, &ConnectError{Provider: p.Label(), Err: err}
	}

	prevConn := c.conn
	c.connGen++
	gen := c.connGen
	c.conn = conn
	next := Session{
		Connected:     true,
		Address:       conn.Address,
		ProviderLabel: p.Label(),
		Provider:      kind,
	}
	c.session = next
	c.mu.Unlock()

	// Close outside the lock: a streaming close talks to the peer.
	prevConn.Close()

	c.log.WithFields(logrus.Fields{"provider": p.Label(), "address": conn.Address}).Info("wallet connected")
	c.publish(next)
	if conn.Updates != nil {
		go c.follow(gen, conn.Updates)
	}
	return next, nil
}

// follow applies address changes from a streaming provider while its
// connection is still the current one.
func (c *Controller) follow(gen uint64, updates <-chan string) {
	for addr := range updates {
		c.mu.Lock()
		if gen != c.connGen {
			c.mu.Unlock()
			return
		}
		if c.session.Address == addr {
			c.mu.Unlock()
			continue
		}
		next := c.session
		next.Address = addr
		c.session = next
		c.mu.Unlock()
		c.publish(next)
	}
}

// Disconnect clears the session and releases any live subscription. It does
// not ask the provider to revoke access.
func (c *Controller) Disconnect() {
	c.mu.Lock()
	if c.cancelPending != nil {
		c.cancelPending()
	}
	conn := c.conn
	c.conn = nil
	c.connGen++
	prev := c.session
	c.session = Session{}
	c.mu.Unlock()

	conn.Close()

	if prev != (Session{}) {
		c.log.WithField("provider", prev.ProviderLabel).Info("wallet disconnected")
		c.publish(Session{})
	}
}
