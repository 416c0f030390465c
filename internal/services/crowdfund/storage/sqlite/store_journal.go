package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/event"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/storage"
)

// AppendEvents assigns each event the next sequence of its stream, hashes it
// and chains it to the previous event of that stream.
func (s *Store) AppendEvents(ctx context.Context, events ...event.Event) ([]event.Event, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}

	type head struct {
		seq   uint64
		chain string
	}
	heads := map[string]head{}
	stored := make([]event.Event, 0, len(events))
	for _, evt := range events {
		if err := evt.Validate(); err != nil {
			return nil, err
		}
		h, ok := heads[evt.Stream]
		if !ok {
			loaded, err := s.streamHead(ctx, evt.Stream)
			if err != nil {
				return nil, err
			}
			h = head{seq: loaded.Seq, chain: loaded.ChainHash}
		}

		evt.Seq = h.seq + 1
		evt.PrevHash = h.chain
		hash, err := event.EventHash(evt)
		if err != nil {
			return nil, err
		}
		evt.Hash = hash
		chain, err := event.ChainHash(evt, h.chain)
		if err != nil {
			return nil, err
		}
		evt.ChainHash = chain

		_, err = s.q.ExecContext(ctx,
			`INSERT INTO journal (stream, seq, event_type, timestamp, actor_id, payload_json, event_hash, prev_hash, chain_hash)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			evt.Stream,
			int64(evt.Seq),
			string(evt.Type),
			evt.Timestamp.UTC().Unix(),
			evt.ActorID,
			evt.PayloadJSON,
			evt.Hash,
			evt.PrevHash,
			evt.ChainHash,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, fmt.Errorf("append %s seq %d: %w", evt.Stream, evt.Seq, storage.ErrAlreadyExists)
			}
			return nil, fmt.Errorf("append event: %w", err)
		}
		heads[evt.Stream] = head{seq: evt.Seq, chain: evt.ChainHash}
		stored = append(stored, evt)
	}
	return stored, nil
}

// ListEvents returns a stream in sequence order.
func (s *Store) ListEvents(ctx context.Context, stream string) ([]event.Event, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.q.QueryContext(ctx,
		`SELECT stream, seq, event_type, timestamp, actor_id, payload_json, event_hash, prev_hash, chain_hash
		   FROM journal
		  WHERE stream = ?
		  ORDER BY seq`,
		stream,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		evt, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

func (s *Store) streamHead(ctx context.Context, stream string) (event.Event, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT stream, seq, event_type, timestamp, actor_id, payload_json, event_hash, prev_hash, chain_hash
		   FROM journal
		  WHERE stream = ?
		  ORDER BY seq DESC
		  LIMIT 1`,
		stream,
	)
	evt, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return event.Event{}, nil
		}
		return event.Event{}, fmt.Errorf("load stream head: %w", err)
	}
	return evt, nil
}

func scanEvent(row rowScanner) (event.Event, error) {
	var (
		evt       event.Event
		seq       int64
		eventType string
		timestamp int64
	)
	if err := row.Scan(
		&evt.Stream,
		&seq,
		&eventType,
		&timestamp,
		&evt.ActorID,
		&evt.PayloadJSON,
		&evt.Hash,
		&evt.PrevHash,
		&evt.ChainHash,
	); err != nil {
		return event.Event{}, err
	}
	evt.Seq = uint64(seq)
	evt.Type = event.Type(eventType)
	evt.Timestamp = time.Unix(timestamp, 0).UTC()
	return evt, nil
}
