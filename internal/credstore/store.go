// Package credstore keeps contact-scoped passcodes at rest in Redis. Codes
// are written by the backend ahead of a challenge call and checked by the
// DTMF contact-verification path; only the salted digest is stored.
package credstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"notifyr-gateway/internal/signing"
)

var (
	ErrNoStoredCode = errors.New("credstore: no stored code for contact")
	ErrCodeMismatch = errors.New("credstore: digits do not match the stored code")
)

const (
	fieldHash = "hash"
	fieldSalt = "salt"
)

type Store struct {
	rdb *redis.Client
	key []byte
	ttl time.Duration
}

// New builds a Store. key is the server-side HMAC key; ttl bounds how long
// a stored code stays valid.
func New(rdb *redis.Client, key []byte, ttl time.Duration) *Store {
	return &Store{rdb: rdb, key: key, ttl: ttl}
}

func credKey(contactID string) string {
	return "cred:" + contactID
}

// SaveCode hashes and stores a passcode for contactID, replacing any
// previous one.
func (s *Store) SaveCode(ctx context.Context, contactID, code string) error {
	if contactID == "" {
		return errors.New("credstore: contact id is required")
	}
	stored, err := signing.StorePassword(code, s.key)
	if err != nil {
		return err
	}

	k := credKey(contactID)
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, k, fieldHash, stored.HashedPassword, fieldSalt, stored.Salt)
	if s.ttl > 0 {
		pipe.Expire(ctx, k, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("credstore: save failed: %w", err)
	}
	return nil
}

// VerifyContactCode implements the DTMF contact-verification collaborator:
// entered digits are re-derived with the stored salt and compared in
// constant time.
func (s *Store) VerifyContactCode(ctx context.Context, contactID, digits string) error {
	fields, err := s.rdb.HGetAll(ctx, credKey(contactID)).Result()
	if err != nil {
		return fmt.Errorf("credstore: lookup failed: %w", err)
	}
	if len(fields) == 0 {
		return ErrNoStoredCode
	}

	ok, err := signing.VerifyPassword(digits, s.key, signing.StoredPassword{
		HashedPassword: fields[fieldHash],
		Salt:           fields[fieldSalt],
	})
	if err != nil {
		return err
	}
	if !ok {
		return ErrCodeMismatch
	}
	return nil
}

// Delete removes a stored code, consuming it after a successful challenge.
func (s *Store) Delete(ctx context.Context, contactID string) error {
	return s.rdb.Del(ctx, credKey(contactID)).Err()
}
