// Package tokenstore persists the bearer tokens operators paste into the
// back-office. Tokens are issued by the content backend; this package only
// keeps them and reads their expiry.
package tokenstore

import (
	"sort"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

var bucketTokens = []byte("tokens")

// ErrTokenInUse is returned by Claim when another, unexpired token is
// stored for the operator.
var ErrTokenInUse = errors.New("operator is signed in with another token")

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Record is one stored token.
type Record struct {
	Operator  string    `json:"operator"`
	Token     string    `json:"token"`
	SavedAt   time.Time `json:"saved_at"`
	ExpiresAt time.Time `json:"expires_at,omitempty"` // zero when the token carries no exp claim
}

// Expired reports whether the token has a known expiry in the past.
func (r Record) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && now.After(r.ExpiresAt)
}

type Store struct {
	db *bolt.DB
}

// Open opens (creating if needed) the token database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 3 * time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "open token store")
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketTokens)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "init token store")
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Set stores token for operator, replacing any previous one.
func (s *Store) Set(operator, token string) (Record, error) {
	return s.put(operator, token, true)
}

// Claim stores token for operator unless a different token that has not
// expired is already stored, in which case it returns ErrTokenInUse.
func (s *Store) Claim(operator, token string) (Record, error) {
	return s.put(operator, token, false)
}

func (s *Store) put(operator, token string, replace bool) (Record, error) {
	operator = strings.TrimSpace(operator)
	token = strings.TrimPrefix(strings.TrimSpace(token), "Bearer ")
	if operator == "" {
		return Record{}, errors.New("operator is required")
	}
	if token == "" {
		return Record{}, errors.New("token is required")
	}
	rec := Record{Operator: operator, Token: token, SavedAt: time.Now()}
	if exp, ok := Expiry(token); ok {
		rec.ExpiresAt = exp
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return rec, err
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketTokens)
		if !replace {
			if prev := b.Get([]byte(operator)); prev != nil {
				var old Record
				if err := json.Unmarshal(prev, &old); err == nil && old.Token != token && !old.Expired(rec.SavedAt) {
					return ErrTokenInUse
				}
			}
		}
		return b.Put([]byte(operator), raw)
	})
	if errors.Is(err, ErrTokenInUse) {
		return rec, err
	}
	return rec, errors.Wrap(err, "save token")
}

// Get returns the record of operator. ok is false when none is stored.
func (s *Store) Get(operator string) (rec Record, ok bool, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketTokens).Get([]byte(operator))
		if raw == nil {
			return nil
		}
		ok = true
		return json.Unmarshal(raw, &rec)
	})
	return rec, ok, err
}

// Clear removes the token of operator.
func (s *Store) Clear(operator string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketTokens).Delete([]byte(operator))
	})
}

// All returns every stored record ordered by operator.
func (s *Store) All() ([]Record, error) {
	var out []Record
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketTokens).ForEach(func(k, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				zap.L().Warn("skip unreadable token record", zap.ByteString("operator", k), zap.Error(err))
				return nil
			}
			out = append(out, rec)
			return nil
		})
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Operator < out[j].Operator })
	return out, err
}

// Source returns a token source reading the current token of operator on
// every request, so a re-login takes effect without rebuilding clients.
func (s *Store) Source(operator string) Source {
	return Source{store: s, operator: operator}
}

type Source struct {
	store    *Store
	operator string
}

func (ts Source) Token() string {
	rec, ok, err := ts.store.Get(ts.operator)
	if err != nil {
		zap.L().Error("read token failed", zap.String("operator", ts.operator), zap.Error(err))
		return ""
	}
	if !ok {
		return ""
	}
	return rec.Token
}

// Expiry reads the exp claim of a JWT without verifying its signature; the
// signing key belongs to the backend. ok is false for opaque tokens.
func Expiry(token string) (time.Time, bool) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
