package wallet

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
)

func TestMemory_Ledger(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	t.Run("unknown account is zero", func(t *testing.T) {
		bal, err := m.Balance(ctx, "nobody")
		if err != nil || bal != 0 {
			t.Errorf("Balance = %v, %v; want 0, nil", bal, err)
		}
	})

	t.Run("credit and debit", func(t *testing.T) {
		if _, err := m.Credit(ctx, "alice", 100); err != nil {
			t.Fatalf("Credit failed: %v", err)
		}
		newBal, err := m.Debit(ctx, "alice", 30)
		if err != nil || newBal != 70 {
			t.Errorf("Debit = %v, %v; want 70, nil", newBal, err)
		}
	})

	t.Run("debit beyond balance rejected", func(t *testing.T) {
		m.SetBalance(ctx, "bob", 10)
		if _, err := m.Debit(ctx, "bob", 11); err != ErrInsufficientFunds {
			t.Errorf("Debit err = %v, want ErrInsufficientFunds", err)
		}
		if bal, _ := m.Balance(ctx, "bob"); bal != 10 {
			t.Errorf("rejected debit moved funds: %v", bal)
		}
	})

	t.Run("set balance overwrites", func(t *testing.T) {
		m.SetBalance(ctx, "alice", 5)
		if bal, _ := m.Balance(ctx, "alice"); bal != 5 {
			t.Errorf("Balance = %v, want 5", bal)
		}
	})
}

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}
	return client
}

func TestRedis_Ledger(t *testing.T) {
	ctx := context.Background()
	client := newTestRedis(t)
	r := NewRedis(client)

	account := "wallet_test_user"
	t.Cleanup(func() {
		client.Del(ctx, REDIS_KEY_BALANCE+account)
		client.Close()
	})

	t.Run("missing key reads as zero", func(t *testing.T) {
		client.Del(ctx, REDIS_KEY_BALANCE+account)
		bal, err := r.Balance(ctx, account)
		if err != nil || bal != 0 {
			t.Errorf("Balance = %v, %v; want 0, nil", bal, err)
		}
	})

	t.Run("set, debit, credit", func(t *testing.T) {
		if err := r.SetBalance(ctx, account, 100); err != nil {
			t.Fatalf("SetBalance failed: %v", err)
		}
		newBal, err := r.Debit(ctx, account, 40)
		if err != nil || newBal != 60 {
			t.Errorf("Debit = %v, %v; want 60, nil", newBal, err)
		}
		newBal, err = r.Credit(ctx, account, 15)
		if err != nil || newBal != 75 {
			t.Errorf("Credit = %v, %v; want 75, nil", newBal, err)
		}
	})

	t.Run("overdraft rejected without moving funds", func(t *testing.T) {
		r.SetBalance(ctx, account, 20)
		if _, err := r.Debit(ctx, account, 21); err != ErrInsufficientFunds {
			t.Errorf("Debit err = %v, want ErrInsufficientFunds", err)
		}
		if bal, _ := r.Balance(ctx, account); bal != 20 {
			t.Errorf("rejected debit moved funds: %v", bal)
		}
	})
}
