package utils

import (
	"context"
	"crypto/rand"
	"math/big"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"skilllink/config"
)

const (
	OTPLength = 6
	OTPExpiry = 15 * time.Minute
)

// OTPStore is a TTL key-value store keyed by email. Redis backs it when
// enabled; otherwise a process-local map does (single-process only).
type OTPStore interface {
	Set(email, otp string) error
	Get(email string) (string, bool)
	Delete(email string)
}

var (
	otpStore     OTPStore
	otpStoreOnce sync.Once
)

// OTPs returns the shared store, picking the backend from config on first
// use.
func OTPs() OTPStore {
	otpStoreOnce.Do(func() {
		if config.AppConfig.Redis.Enabled {
			otpStore = newRedisOTPStore(config.AppConfig.Redis)
		} else {
			otpStore = newMemoryOTPStore()
		}
	})
	return otpStore
}

func GenerateOTP() (string, error) {
	const digits = "0123456789"
	otp := make([]byte, OTPLength)

	for i := range otp {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			return "", err
		}
		otp[i] = digits[num.Int64()]
	}

	return string(otp), nil
}

type redisOTPStore struct {
	client *redis.Client
}

func newRedisOTPStore(cfg config.RedisConfig) *redisOTPStore {
	return &redisOTPStore{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
	}
}

func (s *redisOTPStore) Set(email, otp string) error {
	return s.client.Set(context.Background(), "otp:"+email, otp, OTPExpiry).Err()
}

func (s *redisOTPStore) Get(email string) (string, bool) {
	val, err := s.client.Get(context.Background(), "otp:"+email).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

func (s *redisOTPStore) Delete(email string) {
	s.client.Del(context.Background(), "otp:"+email)
}

type memoryOTPEntry struct {
	otp       string
	expiresAt time.Time
}

type memoryOTPStore struct {
	mu      sync.Mutex
	entries map[string]memoryOTPEntry
}

func newMemoryOTPStore() *memoryOTPStore {
	return &memoryOTPStore{entries: make(map[string]memoryOTPEntry)}
}

func (s *memoryOTPStore) Set(email, otp string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[email] = memoryOTPEntry{otp: otp, expiresAt: time.Now().Add(OTPExpiry)}
	return nil
}

func (s *memoryOTPStore) Get(email string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[email]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(s.entries, email)
		return "", false
	}
	return entry.otp, true
}

func (s *memoryOTPStore) Delete(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, email)
}
