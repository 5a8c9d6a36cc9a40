// Package ratelimit throttles booking attempts per user and per client IP.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Clock interface for testing time-dependent behavior.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Config holds rate limit configuration.
type Config struct {
	// Admission attempts
	AttemptCooldown     time.Duration // Minimum time between attempts by one user (default: 2s)
	AttemptMaxPerHour   int           // Max attempts per user per hour (default: 30)
	AttemptMaxIPPerHour int           // Max attempts per IP per hour (default: 120)

	// Rejected attempts
	RejectionMaxStreak int           // Consecutive rejections before lockout (default: 10)
	RejectionLockout   time.Duration // Lockout duration after the streak (default: 5m)

	// Clock for testing (nil uses real time)
	Clock Clock
}

// DefaultConfig returns production-ready defaults.
func DefaultConfig() *Config {
	return &Config{
		AttemptCooldown:     2 * time.Second,
		AttemptMaxPerHour:   30,
		AttemptMaxIPPerHour: 120,
		RejectionMaxStreak:  10,
		RejectionLockout:    5 * time.Minute,
	}
}

// LimitResult contains the result of a rate limit check.
type LimitResult struct {
	Allowed    bool
	RetryAfter time.Duration
	Reason     string // For logging
}

type entry struct {
	count    int
	firstAt  time.Time // First attempt in window
	lastAt   time.Time // Most recent attempt (for cooldown)
	lockedAt time.Time // Zero if not locked
}

// Limiter is an in-process, multi-key limiter for booking admission. It is
// advisory only; the store remains the authority on conflicts.
type Limiter struct {
	config *Config
	clock  Clock
	mu     sync.RWMutex

	attemptsByUser   map[string]*entry
	attemptsByIP     map[string]*entry
	rejectionsByUser map[string]*entry

	cleanupCtx    context.Context
	cleanupCancel context.CancelFunc
	cleanupOnce   sync.Once
	cleanupWg     sync.WaitGroup
}

// New creates a new rate limiter with the given config.
func New(cfg *Config) *Limiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = realClock{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Limiter{
		config:           cfg,
		clock:            clock,
		attemptsByUser:   make(map[string]*entry),
		attemptsByIP:     make(map[string]*entry),
		rejectionsByUser: make(map[string]*entry),
		cleanupCtx:       ctx,
		cleanupCancel:    cancel,
	}
}

// Close stops the cleanup goroutine.
func (l *Limiter) Close() {
	l.cleanupCancel()
	l.cleanupWg.Wait()
}

// CheckAdmission reports whether userID may attempt a booking from ip.
// It does not record the attempt; call RecordAdmission once the attempt has
// been made.
func (l *Limiter) CheckAdmission(userID, ip string) LimitResult {
	l.startCleanup()
	now := l.clock.Now()
	userKey := l.hashKey("attempt:user:", normalizeUserID(userID))
	ipKey := l.hashKey("attempt:ip:", ip)
	rejectKey := l.hashKey("reject:user:", normalizeUserID(userID))

	l.mu.RLock()
	defer l.mu.RUnlock()

	if e := l.rejectionsByUser[rejectKey]; e != nil && !e.lockedAt.IsZero() {
		if elapsed := now.Sub(e.lockedAt); elapsed < l.config.RejectionLockout {
			return LimitResult{
				RetryAfter: l.config.RejectionLockout - elapsed,
				Reason:     "lockout",
			}
		}
	}

	if e := l.attemptsByUser[userKey]; e != nil {
		if elapsed := now.Sub(e.lastAt); elapsed < l.config.AttemptCooldown {
			return LimitResult{
				RetryAfter: l.config.AttemptCooldown - elapsed,
				Reason:     "cooldown",
			}
		}
		if now.Sub(e.firstAt) < time.Hour && e.count >= l.config.AttemptMaxPerHour {
			return LimitResult{
				RetryAfter: time.Hour - now.Sub(e.firstAt),
				Reason:     "hourly_limit",
			}
		}
	}

	if e := l.attemptsByIP[ipKey]; e != nil {
		if now.Sub(e.firstAt) < time.Hour && e.count >= l.config.AttemptMaxIPPerHour {
			return LimitResult{
				RetryAfter: time.Hour - now.Sub(e.firstAt),
				Reason:     "ip_hourly_limit",
			}
		}
	}

	return LimitResult{Allowed: true}
}

// RecordAdmission records an attempt. rejected marks attempts the engine
// turned down; enough consecutive rejections lock the user out. Returns true
// when this call started a lockout.
func (l *Limiter) RecordAdmission(userID, ip string, rejected bool) (lockedOut bool) {
	now := l.clock.Now()
	userKey := l.hashKey("attempt:user:", normalizeUserID(userID))
	ipKey := l.hashKey("attempt:ip:", ip)
	rejectKey := l.hashKey("reject:user:", normalizeUserID(userID))

	l.mu.Lock()
	defer l.mu.Unlock()

	bump(l.attemptsByUser, userKey, now)
	bump(l.attemptsByIP, ipKey, now)

	if !rejected {
		delete(l.rejectionsByUser, rejectKey)
		return false
	}

	e := l.rejectionsByUser[rejectKey]
	switch {
	case e == nil:
		e = &entry{count: 1, firstAt: now, lastAt: now}
		l.rejectionsByUser[rejectKey] = e
	case !e.lockedAt.IsZero() && now.Sub(e.lockedAt) >= l.config.RejectionLockout:
		e = &entry{count: 1, firstAt: now, lastAt: now}
		l.rejectionsByUser[rejectKey] = e
	default:
		e.count++
		e.lastAt = now
	}
	if l.config.RejectionMaxStreak > 0 && e.count >= l.config.RejectionMaxStreak && e.lockedAt.IsZero() {
		e.lockedAt = now
		lockedOut = true
	}
	return lockedOut
}

// bump increments the hourly window for key, starting a new one when the
// previous window has elapsed.
func bump(m map[string]*entry, key string, now time.Time) {
	e := m[key]
	if e == nil || now.Sub(e.firstAt) >= time.Hour {
		m[key] = &entry{count: 1, firstAt: now, lastAt: now}
		return
	}
	e.count++
	e.lastAt = now
}

func (l *Limiter) hashKey(prefix, value string) string {
	hash := sha256.Sum256([]byte(value))
	return prefix + hex.EncodeToString(hash[:8])
}

func normalizeUserID(userID string) string {
	return strings.ToLower(strings.TrimSpace(userID))
}

func (l *Limiter) startCleanup() {
	l.cleanupOnce.Do(func() {
		l.cleanupWg.Add(1)
		go func() {
			defer l.cleanupWg.Done()
			ticker := time.NewTicker(5 * time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-l.cleanupCtx.Done():
					return
				case <-ticker.C:
					l.cleanup()
				}
			}
		}()
	})
}

func (l *Limiter) cleanup() {
	now := l.clock.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, m := range []map[string]*entry{l.attemptsByUser, l.attemptsByIP} {
		for k, e := range m {
			if now.Sub(e.lastAt) > time.Hour {
				delete(m, k)
			}
		}
	}
	maxAge := l.config.RejectionLockout + time.Hour
	for k, e := range l.rejectionsByUser {
		if now.Sub(e.lastAt) > maxAge {
			delete(l.rejectionsByUser, k)
		}
	}
}

// GetClientIP extracts the client IP from a request.
// When trustProxy is true, uses the rightmost public IP from X-Forwarded-For.
// When trustProxy is false, forwarding headers are ignored.
func GetClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			parts := strings.Split(xff, ",")
			for i := len(parts) - 1; i >= 0; i-- {
				ip := strings.TrimSpace(parts[i])
				if ip != "" && !isPrivateIP(ip) {
					return ip
				}
			}
			return strings.TrimSpace(parts[len(parts)-1])
		}

		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return strings.TrimSpace(xri)
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		if parsed := net.ParseIP(r.RemoteAddr); parsed != nil {
			return r.RemoteAddr
		}
		if idx := strings.LastIndex(r.RemoteAddr, ":"); idx != -1 {
			candidate := r.RemoteAddr[:idx]
			if net.ParseIP(candidate) != nil {
				return candidate
			}
		}
		return r.RemoteAddr
	}
	return ip
}

var privateNetworks []*net.IPNet

func init() {
	privateRanges := []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"127.0.0.0/8",
		"::1/128",
		"fc00::/7",
		"fe80::/10",
	}
	for _, cidr := range privateRanges {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic("invalid private CIDR: " + cidr)
		}
		privateNetworks = append(privateNetworks, network)
	}
}

// isPrivateIP handles IPv4-mapped IPv6 addresses (::ffff:192.168.1.1) too.
func isPrivateIP(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}
	if ipv4 := ip.To4(); ipv4 != nil {
		ip = ipv4
	}
	for _, network := range privateNetworks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// LogRateLimitExceeded logs a throttled admission attempt.
func LogRateLimitExceeded(ctx context.Context, userID, ip string, result LimitResult) {
	log.Ctx(ctx).Warn().
		Str("event", "rate_limit_exceeded").
		Str("user_id", userID).
		Str("ip", ip).
		Str("reason", result.Reason).
		Dur("retry_after", result.RetryAfter).
		Msg("Booking rate limit exceeded")
}
