// Package event defines the envelope for facts emitted by accepted ledger and
// campaign decisions.
//
// Events are appended to a per-stream journal. Storage assigns Seq and links
// each event to its predecessor through a sha256 chain hash so the journal is
// tamper-evident and replayable in order.
package event

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Type identifies the event type string.
type Type string

// Event is an immutable business fact.
type Event struct {
	// Stream groups events for one aggregate, e.g. "campaign/3" or "asset/TST".
	Stream    string
	Seq       uint64
	Type      Type
	Timestamp time.Time
	// ActorID is the identity whose authorization admitted the command.
	ActorID     string
	PayloadJSON []byte
	Hash        string
	PrevHash    string
	ChainHash   string
}

// CampaignStream returns the stream name for a campaign id.
func CampaignStream(id uint64) string {
	return "campaign/" + strconv.FormatUint(id, 10)
}

// AssetStream returns the stream name for an asset identity.
func AssetStream(asset string) string {
	return "asset/" + asset
}

// New builds an event with a marshaled payload.
func New(stream string, typ Type, actorID string, at time.Time, payload any) (Event, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", typ, err)
	}
	return Event{
		Stream:      stream,
		Type:        typ,
		Timestamp:   at.UTC().Truncate(time.Second),
		ActorID:     actorID,
		PayloadJSON: payloadJSON,
	}, nil
}

// Validate checks the fields required before an event is appended.
func (e Event) Validate() error {
	if strings.TrimSpace(e.Stream) == "" {
		return fmt.Errorf("event stream is required")
	}
	if strings.TrimSpace(string(e.Type)) == "" {
		return fmt.Errorf("event type is required")
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("event timestamp is required")
	}
	if !json.Valid(e.PayloadJSON) {
		return fmt.Errorf("event payload json must be valid")
	}
	return nil
}

// hashEnvelope fixes field order for content hashing.
type hashEnvelope struct {
	Stream    string          `json:"stream"`
	Seq       uint64          `json:"seq"`
	Type      string          `json:"type"`
	Timestamp int64           `json:"timestamp"`
	ActorID   string          `json:"actor_id"`
	Payload   json.RawMessage `json:"payload"`
}

// EventHash computes the content hash of an event, including its sequence.
func EventHash(e Event) (string, error) {
	payload := e.PayloadJSON
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	data, err := json.Marshal(hashEnvelope{
		Stream:    e.Stream,
		Seq:       e.Seq,
		Type:      string(e.Type),
		Timestamp: e.Timestamp.UTC().Unix(),
		ActorID:   e.ActorID,
		Payload:   payload,
	})
	if err != nil {
		return "", fmt.Errorf("marshal event envelope: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// ChainHash links an event hash to the previous chain hash of its stream.
func ChainHash(e Event, prevChainHash string) (string, error) {
	hash := e.Hash
	if hash == "" {
		computed, err := EventHash(e)
		if err != nil {
			return "", err
		}
		hash = computed
	}
	sum := sha256.Sum256([]byte(prevChainHash + ":" + hash))
	return hex.EncodeToString(sum[:]), nil
}

// VerifyChain reports the first event whose stored hashes do not match a
// recomputation over the ordered stream.
func VerifyChain(events []Event) error {
	prev := ""
	for i, e := range events {
		if e.Seq != uint64(i+1) {
			return fmt.Errorf("event %d: seq = %d, want %d", i, e.Seq, i+1)
		}
		hash, err := EventHash(e)
		if err != nil {
			return err
		}
		if hash != e.Hash {
			return fmt.Errorf("event %d: hash mismatch", e.Seq)
		}
		if e.PrevHash != prev {
			return fmt.Errorf("event %d: previous hash mismatch", e.Seq)
		}
		chain, err := ChainHash(e, prev)
		if err != nil {
			return err
		}
		if chain != e.ChainHash {
			return fmt.Errorf("event %d: chain hash mismatch", e.Seq)
		}
		prev = chain
	}
	return nil
}
