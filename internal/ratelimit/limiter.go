package ratelimit

import (
	"time"

	"cashflow/internal/logger"
)

// Class names a bucket of endpoints sharing one rate-limit policy.
type Class string

const (
	ClassLogin        Class = "login"
	ClassRegister     Class = "register"
	ClassTransactions Class = "transactions"
	ClassSummary      Class = "summary"
	ClassDefault      Class = "default"
)

// Policy is the request budget for one endpoint class.
type Policy struct {
	Limit  int64
	Window time.Duration
}

// DefaultPolicies mirror the limits the public deployment runs with.
func DefaultPolicies() map[Class]Policy {
	return map[Class]Policy{
		ClassLogin:        {Limit: 5, Window: 5 * time.Minute},
		ClassRegister:     {Limit: 3, Window: time.Hour},
		ClassTransactions: {Limit: 100, Window: time.Minute},
		ClassSummary:      {Limit: 50, Window: time.Minute},
		ClassDefault:      {Limit: 100, Window: time.Minute},
	}
}

// Failed-authentication tracking, independent of the per-endpoint limiter.
const (
	failureLimit  = 10
	failureWindow = time.Hour
	failurePrefix = "authfail:"
)

// Rejected-mutation tracking. Once an actor accumulates this many rejected
// writes in the window, further rejections are worth an audit escalation.
const (
	rejectionLimit  = 10
	rejectionWindow = time.Hour
	rejectionPrefix = "reject:"
)

// Decision is the outcome of an admission check.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Limiter applies per-(client, endpoint class) request budgets on top of an
// injected counter store. It holds no global state; tests construct their
// own instances with isolated stores.
type Limiter struct {
	store    Store
	policies map[Class]Policy
}

// New creates a Limiter with the default policies.
func New(store Store) *Limiter {
	return NewWithPolicies(store, DefaultPolicies())
}

// NewWithPolicies creates a Limiter with custom policies.
func NewWithPolicies(store Store, policies map[Class]Policy) *Limiter {
	return &Limiter{store: store, policies: policies}
}

// Admit decides whether a request from clientID against the given endpoint
// class may proceed. Store failures fail open: limiting is protection, not
// a correctness requirement, so an unreachable counter store must not take
// the API down with it.
func (l *Limiter) Admit(clientID string, class Class) Decision {
	policy, ok := l.policies[class]
	if !ok {
		policy = l.policies[ClassDefault]
	}

	allowed, err := l.store.Admit(string(class)+":"+clientID, policy.Limit, policy.Window)
	if err != nil {
		logger.Get().Warnw("rate limit store error, failing open",
			"class", class,
			"error", err,
		)
		return Decision{Allowed: true}
	}
	if !allowed {
		return Decision{Allowed: false, RetryAfter: policy.Window}
	}
	return Decision{Allowed: true}
}

// RecordFailure records one failed authentication attempt from a source
// address.
func (l *Limiter) RecordFailure(source string) {
	if _, err := l.store.Incr(failurePrefix+source, failureWindow); err != nil {
		logger.Get().Warnw("rate limit store error recording auth failure",
			"error", err,
		)
	}
}

// RecordRejection records a rejected mutation attempt (a validation failure
// on a write) for an actor and reports whether the actor has now exceeded
// the rejection budget.
func (l *Limiter) RecordRejection(actor string) bool {
	count, err := l.store.Incr(rejectionPrefix+actor, rejectionWindow)
	if err != nil {
		logger.Get().Warnw("rate limit store error recording rejection",
			"error", err,
		)
		return false
	}
	return count > rejectionLimit
}

// TooManyFailures reports whether a source address has exceeded the failed
// authentication budget and must be blocked from further attempts.
func (l *Limiter) TooManyFailures(source string) bool {
	count, err := l.store.Count(failurePrefix+source, failureWindow)
	if err != nil {
		logger.Get().Warnw("rate limit store error checking auth failures",
			"error", err,
		)
		return false
	}
	return count >= failureLimit
}
