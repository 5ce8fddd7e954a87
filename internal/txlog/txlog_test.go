package txlog

import (
	"context"
	"testing"
)

func TestMemory_Record(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	m.Record(ctx, Entry{Account: "alice", Type: EntryBet, Amount: 10})
	m.Record(ctx, Entry{Account: "alice", Type: EntryWin, Amount: 5, Multiplier: 1.5})

	entries := m.Entries()
	if len(entries) != 2 {
		t.Fatalf("Entries = %d, want 2", len(entries))
	}

	t.Run("fills in id and timestamp", func(t *testing.T) {
		for i, entry := range entries {
			if entry.ID == "" {
				t.Errorf("entry %d has no id", i)
			}
			if entry.CreatedAt.IsZero() {
				t.Errorf("entry %d has no timestamp", i)
			}
		}
	})

	t.Run("preserves order and payload", func(t *testing.T) {
		if entries[0].Type != EntryBet || entries[0].Amount != 10 {
			t.Errorf("first entry = %+v", entries[0])
		}
		if entries[1].Type != EntryWin || entries[1].Multiplier != 1.5 {
			t.Errorf("second entry = %+v", entries[1])
		}
	})

	t.Run("returned slice is a copy", func(t *testing.T) {
		entries[0].Amount = 999
		if m.Entries()[0].Amount == 999 {
			t.Error("Entries() exposed internal storage")
		}
	})
}
