package ratelimit

import (
	"errors"
	"testing"
	"time"
)

func TestLimiterLoginPolicy(t *testing.T) {
	l := New(NewMemoryStore())

	for i := 0; i < 5; i++ {
		if d := l.Admit("1.2.3.4", ClassLogin); !d.Allowed {
			t.Fatalf("login attempt %d should be admitted", i+1)
		}
	}

	d := l.Admit("1.2.3.4", ClassLogin)
	if d.Allowed {
		t.Fatal("sixth login attempt should be rejected")
	}
	if d.RetryAfter != 5*time.Minute {
		t.Errorf("RetryAfter = %v, want 5m", d.RetryAfter)
	}
}

func TestLimiterClientsAreIndependent(t *testing.T) {
	l := New(NewMemoryStore())

	for i := 0; i < 3; i++ {
		l.Admit("1.2.3.4", ClassRegister)
	}
	if d := l.Admit("1.2.3.4", ClassRegister); d.Allowed {
		t.Fatal("client should be exhausted")
	}
	if d := l.Admit("5.6.7.8", ClassRegister); !d.Allowed {
		t.Error("a different client should be unaffected")
	}
}

func TestLimiterClassesAreIndependent(t *testing.T) {
	l := New(NewMemoryStore())

	for i := 0; i < 5; i++ {
		l.Admit("1.2.3.4", ClassLogin)
	}
	if d := l.Admit("1.2.3.4", ClassLogin); d.Allowed {
		t.Fatal("login class should be exhausted")
	}
	if d := l.Admit("1.2.3.4", ClassSummary); !d.Allowed {
		t.Error("summary class should be unaffected by login exhaustion")
	}
}

func TestLimiterUnknownClassUsesDefault(t *testing.T) {
	l := NewWithPolicies(NewMemoryStore(), map[Class]Policy{
		ClassDefault: {Limit: 2, Window: time.Minute},
	})

	l.Admit("c", Class("unknown"))
	l.Admit("c", Class("unknown"))
	if d := l.Admit("c", Class("unknown")); d.Allowed {
		t.Error("unknown class should fall back to the default policy")
	}
}

type failingStore struct{}

func (failingStore) Admit(string, int64, time.Duration) (bool, error) {
	return false, errors.New("store down")
}
func (failingStore) Incr(string, time.Duration) (int64, error) {
	return 0, errors.New("store down")
}
func (failingStore) Count(string, time.Duration) (int64, error) {
	return 0, errors.New("store down")
}

func TestLimiterFailsOpenOnStoreError(t *testing.T) {
	l := New(failingStore{})

	if d := l.Admit("c", ClassLogin); !d.Allowed {
		t.Error("store errors should fail open")
	}
	if l.TooManyFailures("1.2.3.4") {
		t.Error("failure check should fail open on store errors")
	}
	if l.RecordRejection("user") {
		t.Error("rejection tracking should not escalate on store errors")
	}
}

func TestFailedLoginTracking(t *testing.T) {
	l := New(NewMemoryStore())

	for i := 0; i < failureLimit-1; i++ {
		l.RecordFailure("1.2.3.4")
		if l.TooManyFailures("1.2.3.4") {
			t.Fatalf("source should not be blocked after %d failures", i+1)
		}
	}

	l.RecordFailure("1.2.3.4")
	if !l.TooManyFailures("1.2.3.4") {
		t.Errorf("source should be blocked after %d failures", failureLimit)
	}
	if l.TooManyFailures("5.6.7.8") {
		t.Error("a different source should be unaffected")
	}
}

func TestRejectionTracking(t *testing.T) {
	l := New(NewMemoryStore())

	for i := 0; i < rejectionLimit; i++ {
		if l.RecordRejection("user-a") {
			t.Fatalf("rejection %d should not escalate yet", i+1)
		}
	}

	if !l.RecordRejection("user-a") {
		t.Errorf("rejection %d should escalate", rejectionLimit+1)
	}
	if l.RecordRejection("user-b") {
		t.Error("a different actor should be unaffected")
	}
}
