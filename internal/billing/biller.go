package billing

import (
	"context"
	"time"

	"eplayer/internal/remote"
	"eplayer/pkg/log"
)

// LedgerStore is the remote account store the biller settles against
type LedgerStore interface {
	GetUser(ctx context.Context) (*remote.User, error)
	UpdateUser(ctx context.Context, stats remote.UserStats) error
}

// Charge is one billable event.
// ID is zero until the charge has been journaled for reconciliation.
type Charge struct {
	ID              int64
	Transcription   bool // transcription/playback charge vs assistant call
	Cost            float64
	InputTokens     int
	OutputTokens    int
	DurationSeconds float64
	CreatedAt       time.Time
}

// Journal persists charges whose ledger update failed so they can be
// retried later
type Journal interface {
	Enqueue(ctx context.Context, charge Charge) (int64, error)
	Pending(ctx context.Context, limit int) ([]Charge, error)
	Delete(ctx context.Context, id int64) error
}

// Biller applies charges to the user's remote usage ledger.
// Updates are read-modify-write without a compare-and-swap, matching
// the server protocol: two concurrent charges for the same user can
// lose one. Failed updates are never swallowed; they go to the
// journal for reconciliation.
type Biller struct {
	store   LedgerStore
	journal Journal
}

func NewBiller(store LedgerStore, journal Journal) *Biller {
	return &Biller{
		store:   store,
		journal: journal,
	}
}

// ChargeAssistant bills one AI assistant call
func (b *Biller) ChargeAssistant(ctx context.Context, inputTokens, outputTokens int) (float64, error) {
	charge := Charge{
		Cost:         AssistantCost(inputTokens, outputTokens),
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		CreatedAt:    time.Now(),
	}
	return charge.Cost, b.Apply(ctx, charge)
}

// ChargeTranscription bills transcribed or replayed audio by duration
func (b *Biller) ChargeTranscription(ctx context.Context, durationSeconds float64) (float64, error) {
	charge := Charge{
		Transcription:   true,
		Cost:            TranscriptionCost(durationSeconds),
		DurationSeconds: durationSeconds,
		CreatedAt:       time.Now(),
	}
	return charge.Cost, b.Apply(ctx, charge)
}

// Apply settles a charge against the ledger, journaling it on failure
func (b *Biller) Apply(ctx context.Context, charge Charge) error {
	if err := b.apply(ctx, charge); err != nil {
		log.Error("Failed to apply charge of $%.6f: %v", charge.Cost, err)
		b.journalCharge(ctx, charge)
		return err
	}
	return nil
}

func (b *Biller) apply(ctx context.Context, charge Charge) error {
	user, err := b.store.GetUser(ctx)
	if err != nil {
		return err
	}

	stats := user.UserStats
	if charge.Transcription {
		stats.WhisperUseTimes++
		stats.WhisperTotalCost += charge.Cost
		stats.WhisperTotalDuration += charge.DurationSeconds
	} else {
		stats.AIUseTimes++
		stats.AIInputTokens += charge.InputTokens
		stats.AIOutputTokens += charge.OutputTokens
		stats.AITotalCost += charge.Cost
	}
	stats.Wallet -= charge.Cost

	return b.store.UpdateUser(ctx, stats)
}

func (b *Biller) journalCharge(ctx context.Context, charge Charge) {
	if b.journal == nil || charge.ID != 0 {
		return
	}
	if _, err := b.journal.Enqueue(ctx, charge); err != nil {
		log.Error("Failed to journal charge for reconciliation: %v", err)
	}
}
