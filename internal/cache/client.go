// Package cache resolves media fingerprints to shared subtitle
// records on the remote store. Transcription work for a given
// fingerprint is performed at most once across all users; every
// later consumer is attributed and billed at the playback rate
// instead of triggering a second transcription.
package cache

import (
	"context"

	"eplayer/internal/billing"
	"eplayer/internal/remote"
	"eplayer/internal/subtitle"
	"eplayer/pkg/log"
)

// Store is the remote subtitle record store
type Store interface {
	GetSubtitle(ctx context.Context, md5 string) (*remote.SubtitleRecord, error)
	CreateSubtitle(ctx context.Context, record *remote.SubtitleRecord) error
	UpdateSubtitle(ctx context.Context, patch remote.SubtitlePatch) error
}

// Biller settles playback charges against the user ledger
type Biller interface {
	ChargeTranscription(ctx context.Context, durationSeconds float64) (float64, error)
}

type Client struct {
	store  Store
	biller Biller
}

func NewClient(store Store, biller Biller) *Client {
	return &Client{
		store:  store,
		biller: biller,
	}
}

// Lookup resolves a fingerprint to its shared record.
// A cache miss surfaces as a NotFound APIError; transient failures
// have already been retried by the transport.
func (c *Client) Lookup(ctx context.Context, md5 string) (*remote.SubtitleRecord, error) {
	return c.store.GetSubtitle(ctx, md5)
}

// Attribute records a playback of a cached record by a user and
// returns the cost charged.
//
// The owner, or any user already in the record's user set, replays
// for free: only play_times is bumped. A first-time consumer is
// billed the playback rate for the record's duration, added to the
// user set, and counted in play_users_count. A failed ledger update
// is journaled by the biller and does not block attribution.
func (c *Client) Attribute(ctx context.Context, record *remote.SubtitleRecord, userID string) (float64, error) {
	playTimes := record.PlayTimes + 1

	if record.UserID == userID || containsUser(record.Users, userID) {
		log.Info("Replaying own cached subtitle for %s, no charge", record.MD5)
		patch := remote.SubtitlePatch{
			MD5:       record.MD5,
			PlayTimes: &playTimes,
		}
		return 0, c.store.UpdateSubtitle(ctx, patch)
	}

	cost, err := c.biller.ChargeTranscription(ctx, record.VideoDuration)
	if err != nil {
		// already journaled for reconciliation, playback continues
		log.Error("Playback charge for %s failed: %v", record.MD5, err)
	} else {
		log.Info("Charged $%.6f for %.2f minutes of cached playback of %s",
			cost, billing.DurationMinutes(record.VideoDuration), record.MD5)
	}

	playUsersCount := record.PlayUsersCount + 1
	patch := remote.SubtitlePatch{
		MD5:            record.MD5,
		PlayUsersCount: &playUsersCount,
		PlayTimes:      &playTimes,
		Users:          append(append([]string{}, record.Users...), userID),
	}
	return cost, c.store.UpdateSubtitle(ctx, patch)
}

// Persist stores a freshly generated track as the shared record for
// a fingerprint. Must only be called after Lookup reported NotFound;
// if two users generate concurrently the last write wins.
func (c *Client) Persist(ctx context.Context, md5 string, track subtitle.Track, durationSeconds float64, ownerID string) error {
	record := &remote.SubtitleRecord{
		MD5:            md5,
		UserID:         ownerID,
		Subtitle:       track,
		VideoDuration:  durationSeconds,
		PlayUsersCount: 1,
		PlayTimes:      1,
		Users:          []string{ownerID},
	}
	return c.store.CreateSubtitle(ctx, record)
}

func containsUser(users []string, userID string) bool {
	for _, u := range users {
		if u == userID {
			return true
		}
	}
	return false
}
