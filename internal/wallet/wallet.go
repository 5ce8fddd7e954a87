package wallet

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

const REDIS_KEY_BALANCE = "skyhigh:balance:"

var ErrInsufficientFunds = errors.New("insufficient funds")

// Ledger is the balance store the game engine debits and credits.
// Debit is called exactly once per bet placement, Credit at most once per
// round (cash-out only). Implementations must reject any debit that would
// take a balance negative.
type Ledger interface {
	Balance(ctx context.Context, account string) (float64, error)
	Debit(ctx context.Context, account string, amount float64) (float64, error)
	Credit(ctx context.Context, account string, amount float64) (float64, error)
	SetBalance(ctx context.Context, account string, amount float64) error
}

// Redis backs real-money balances with a redis float per account.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Balance(ctx context.Context, account string) (float64, error) {
	balance, err := r.client.Get(ctx, REDIS_KEY_BALANCE+account).Float64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return balance, nil
}

func (r *Redis) Debit(ctx context.Context, account string, amount float64) (float64, error) {
	key := REDIS_KEY_BALANCE + account

	balance, err := r.Balance(ctx, account)
	if err != nil {
		return 0, err
	}
	if balance < amount {
		return balance, ErrInsufficientFunds
	}

	newBalance, err := r.client.IncrByFloat(ctx, key, -amount).Result()
	if err != nil {
		return balance, err
	}
	if newBalance < 0 {
		// Concurrent debit won the race; roll back.
		r.client.IncrByFloat(ctx, key, amount)
		return balance, ErrInsufficientFunds
	}
	return newBalance, nil
}

func (r *Redis) Credit(ctx context.Context, account string, amount float64) (float64, error) {
	newBalance, err := r.client.IncrByFloat(ctx, REDIS_KEY_BALANCE+account, amount).Result()
	if err != nil {
		log.Printf("[WALLET] Credit failed for %s: %v", account, err)
		return 0, err
	}
	return newBalance, nil
}

func (r *Redis) SetBalance(ctx context.Context, account string, amount float64) error {
	return r.client.Set(ctx, REDIS_KEY_BALANCE+account, amount, 0).Err()
}

// Memory is an in-process ledger. It backs demo-mode balance pools and tests;
// demo play must never touch the real wallet store.
type Memory struct {
	mu       sync.Mutex
	balances map[string]float64
}

func NewMemory() *Memory {
	return &Memory{balances: make(map[string]float64)}
}

func (m *Memory) Balance(ctx context.Context, account string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[account], nil
}

func (m *Memory) Debit(ctx context.Context, account string, amount float64) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	balance := m.balances[account]
	if balance < amount {
		return balance, ErrInsufficientFunds
	}
	m.balances[account] = balance - amount
	return m.balances[account], nil
}

func (m *Memory) Credit(ctx context.Context, account string, amount float64) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[account] += amount
	return m.balances[account], nil
}

func (m *Memory) SetBalance(ctx context.Context, account string, amount float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[account] = amount
	return nil
}
