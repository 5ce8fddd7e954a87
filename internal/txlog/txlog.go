package txlog

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EntryType string

const (
	EntryBet     EntryType = "bet"
	EntryWin     EntryType = "win"
	EntryBetLost EntryType = "bet_lost"
)

// Entry is one audit row: a bet placed, a win credited, or a stake lost.
// Amount is the bet amount for bet/bet_lost and the net profit for win.
type Entry struct {
	ID         string    `json:"id"`
	Account    string    `json:"account"`
	Type       EntryType `json:"type"`
	Amount     float64   `json:"amount"`
	Multiplier float64   `json:"multiplier,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Recorder is a fire-and-forget audit sink. The engine never reads entries
// back; failures are logged and swallowed.
type Recorder interface {
	Record(ctx context.Context, entry Entry)
}

// Postgres persists entries to the transactions table.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Record(ctx context.Context, entry Entry) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	_, err := p.pool.Exec(ctx,
		`INSERT INTO transactions (id, account, type, amount, multiplier, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.Account, string(entry.Type), entry.Amount, entry.Multiplier, entry.CreatedAt,
	)
	if err != nil {
		log.Printf("[TXLOG] Failed to record %s for %s: %v", entry.Type, entry.Account, err)
	}
}

// Memory collects entries in-process for tests.
type Memory struct {
	mu      sync.Mutex
	entries []Entry
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Record(ctx context.Context, entry Entry) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	m.mu.Lock()
	m.entries = append(m.entries, entry)
	m.mu.Unlock()
}

func (m *Memory) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}
