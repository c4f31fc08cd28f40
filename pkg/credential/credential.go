// Package credential implements CredentialStore, a thin hashing facade
// over repository.CredentialRepo, per SPEC_FULL.md §4.5. Passwords are
// never stored or returned in plaintext; ResolveForAction("password")
// returns the stored hash, matching spec.md §4.5's documented (and
// flagged) behavior rather than silently "fixing" it.
package credential

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"

	"dev/bravebird/workflow-engine/pkg/errs"
	"dev/bravebird/workflow-engine/pkg/model"
	"dev/bravebird/workflow-engine/pkg/repository"
)

// Method identifies a hashing primitive.
type Method string

const (
	MethodPBKDF2SHA256 Method = "pbkdf2:sha256"
	MethodArgon2ID      Method = "argon2"
	methodPlaintext     Method = "plaintext"
)

const (
	saltLength          = 16
	pbkdf2DefaultIter   = 100000
	pbkdf2KeyLen        = 32
	argon2Time          = 1
	argon2Memory        = 64 * 1024
	argon2Threads       = 4
	argon2KeyLen        = 32
)

// Store is a thin hashing facade over a CredentialRepo.
type Store struct {
	repo   repository.CredentialRepo
	method Method
	iter   int // pbkdf2 iteration count, when method is pbkdf2
	strict bool
}

// Options configures a Store.
type Options struct {
	// Method is "pbkdf2:sha256:<iterations>" or "argon2". Empty
	// defaults to "pbkdf2:sha256:100000".
	Method string
	// Strict refuses to construct a Store around an unrecognized or
	// plaintext method ("production mode").
	Strict bool
}

// New builds a Store from opts.
func New(repo repository.CredentialRepo, opts Options) (*Store, error) {
	method, iter, err := parseMethod(opts.Method)
	if err != nil {
		return nil, err
	}
	if opts.Strict && method == methodPlaintext {
		return nil, &errs.ConfigError{Key: "security.password_hash_method", Message: "plaintext hashing is not permitted in strict mode"}
	}
	return &Store{repo: repo, method: method, iter: iter, strict: opts.Strict}, nil
}

func parseMethod(spec string) (Method, int, error) {
	if spec == "" {
		return MethodPBKDF2SHA256, pbkdf2DefaultIter, nil
	}
	parts := strings.Split(spec, ":")
	switch parts[0] {
	case "pbkdf2":
		iter := pbkdf2DefaultIter
		if len(parts) == 3 {
			n, err := strconv.Atoi(parts[2])
			if err != nil || n <= 0 {
				return "", 0, &errs.ConfigError{Key: "security.password_hash_method", Message: "invalid pbkdf2 iteration count"}
			}
			iter = n
		}
		return MethodPBKDF2SHA256, iter, nil
	case "argon2":
		return MethodArgon2ID, 0, nil
	case "plaintext":
		return methodPlaintext, 0, nil
	default:
		return "", 0, &errs.ConfigError{Key: "security.password_hash_method", Message: fmt.Sprintf("unrecognized hash method %q", spec)}
	}
}

// Create hashes plaintext under the configured method and stores a new
// credential, failing if name already exists.
func (s *Store) Create(ctx context.Context, name, username, plaintext string) error {
	if _, ok, err := s.repo.GetByName(ctx, name); err != nil {
		return err
	} else if ok {
		return errs.ErrAlreadyExists
	}
	hash, err := s.hash(plaintext)
	if err != nil {
		return &errs.CredentialError{Name: name, Message: "hashing failed", Cause: err}
	}
	return s.repo.Save(ctx, model.Credential{Name: name, Username: username, PasswordHash: hash})
}

// Exists reports whether a credential named name has been created.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	_, ok, err := s.repo.GetByName(ctx, name)
	return ok, err
}

// Verify reports whether plaintext matches the stored hash for name.
// Unknown names return false with no error.
func (s *Store) Verify(ctx context.Context, name, plaintext string) (bool, error) {
	cred, ok, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return compareHash(cred.PasswordHash, plaintext), nil
}

// ResolveForAction returns the value Type[credential] substitutes for
// field ("username" or "password"). Per spec.md §4.5, the "password"
// field resolves to the stored HASH, not the plaintext — callers that
// require plaintext are an open design question (DESIGN.md).
func (s *Store) ResolveForAction(ctx context.Context, name, field string) (string, error) {
	cred, ok, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", &errs.CredentialError{Name: name, Message: "credential not found"}
	}
	switch field {
	case "username":
		return cred.Username, nil
	case "password":
		return cred.PasswordHash, nil
	default:
		return "", &errs.CredentialError{Name: name, Message: fmt.Sprintf("unknown credential field %q", field)}
	}
}

func (s *Store) hash(plaintext string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	var derived []byte
	switch s.method {
	case MethodPBKDF2SHA256:
		derived = pbkdf2.Key([]byte(plaintext), salt, s.iter, pbkdf2KeyLen, sha256.New)
	case MethodArgon2ID:
		derived = argon2.IDKey([]byte(plaintext), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
	case methodPlaintext:
		derived = []byte(plaintext)
	default:
		return "", fmt.Errorf("unsupported hash method %q", s.method)
	}
	prefix := string(s.method)
	if s.method == MethodPBKDF2SHA256 {
		prefix = fmt.Sprintf("%s:%d", s.method, s.iter)
	}
	return fmt.Sprintf("%s$%s$%s", prefix, base64.RawStdEncoding.EncodeToString(salt), base64.RawStdEncoding.EncodeToString(derived)), nil
}

// compareHash recomputes the candidate hash under the method/salt
// embedded in stored and compares in constant time.
func compareHash(stored, plaintext string) bool {
	parts := strings.SplitN(stored, "$", 3)
	if len(parts) != 3 {
		return false
	}
	method, saltB64, hashB64 := Method(parts[0]), parts[1], parts[2]
	salt, err := base64.RawStdEncoding.DecodeString(saltB64)
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(hashB64)
	if err != nil {
		return false
	}

	var got []byte
	switch {
	case method == MethodPBKDF2SHA256 || strings.HasPrefix(string(method), "pbkdf2"):
		iter := pbkdf2DefaultIter
		if fields := strings.Split(string(method), ":"); len(fields) == 3 {
			if n, err := strconv.Atoi(fields[2]); err == nil && n > 0 {
				iter = n
			}
		}
		got = pbkdf2.Key([]byte(plaintext), salt, iter, len(want), sha256.New)
	case method == MethodArgon2ID:
		got = argon2.IDKey([]byte(plaintext), salt, argon2Time, argon2Memory, argon2Threads, uint32(len(want)))
	case method == methodPlaintext:
		got = []byte(plaintext)
	default:
		return false
	}
	return subtle.ConstantTimeCompare(got, want) == 1
}
