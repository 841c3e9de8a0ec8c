package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"videomeet/internal/ws"
)

// Recorder tails the presence stream and persists meeting history:
// a meetings row per room occupancy episode, per-user participation rows,
// and user_activity entries. It runs beside the relay, never inside it.
type Recorder struct {
	rdc *redis.Client
	db  *sql.DB

	// roomID -> open meetings.id; single consumer, no locking needed.
	open map[string]int64
}

func NewRecorder(rdc *redis.Client, db *sql.DB) *Recorder {
	return &Recorder{rdc: rdc, db: db, open: make(map[string]int64)}
}

// Run loads still-open meetings and tails the stream until ctx is done.
func (r *Recorder) Run(ctx context.Context) {
	if err := r.loadOpen(ctx); err != nil {
		zap.L().Warn("history.load_open", zap.Error(err))
	}

	go func() {
		lastID := "$" // only events published after startup
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			// block up to 2 s for new entries
			res, err := r.rdc.XRead(ctx, &redis.XReadArgs{
				Streams: []string{Stream, lastID},
				Count:   100,
				Block:   2000 * time.Millisecond,
			}).Result()
			if err != nil && err != redis.Nil {
				if ctx.Err() != nil {
					return
				}
				zap.L().Warn("history.xread", zap.Error(err))
				time.Sleep(time.Second)
				continue
			}
			if len(res) == 0 || len(res[0].Messages) == 0 {
				continue
			}
			entries := res[0].Messages
			for _, m := range entries {
				if err := r.apply(ctx, m); err != nil {
					zap.L().Warn("history.apply", zap.String("id", m.ID), zap.Error(err))
				}
			}
			lastID = entries[len(entries)-1].ID
		}
	}()
}

// loadOpen recovers meetings left open by a previous run, so leaves seen
// after a restart still close the right row.
func (r *Recorder) loadOpen(ctx context.Context) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, room_id FROM meetings WHERE end_time IS NULL`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var roomID string
		if err := rows.Scan(&id, &roomID); err != nil {
			return err
		}
		r.open[roomID] = id
	}
	return rows.Err()
}

// apply folds one stream entry into the database.
func (r *Recorder) apply(ctx context.Context, m redis.XMessage) error {
	kind, _ := m.Values["kind"].(string)
	roomID, _ := m.Values["room"].(string)
	at := entryTime(m)

	switch kind {
	case ws.PresenceJoin:
		return r.recordJoin(ctx, roomID, m, at)
	case ws.PresenceLeave:
		return r.recordLeave(ctx, roomID, m, at)
	case ws.PresenceRoomClosed:
		return r.recordClosed(ctx, roomID, at)
	default:
		return nil
	}
}

func (r *Recorder) recordJoin(ctx context.Context, roomID string, m redis.XMessage, at time.Time) error {
	meetingID, ok := r.open[roomID]
	if !ok {
		err := r.db.QueryRowContext(ctx,
			`INSERT INTO meetings (room_id, start_time, participant_count)
			      VALUES ($1, $2, 0)
			   RETURNING id`,
			roomID, at,
		).Scan(&meetingID)
		if err != nil {
			return err
		}
		r.open[roomID] = meetingID
	}

	if _, err := r.db.ExecContext(ctx,
		`UPDATE meetings SET participant_count = participant_count + 1 WHERE id = $1`,
		meetingID,
	); err != nil {
		return err
	}

	userID, ok := entryUserID(m)
	if !ok {
		return nil // guest presence without a directory identity
	}
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO meeting_participants (meeting_id, user_id, join_time)
		      VALUES ($1, $2, $3)`,
		meetingID, userID, at,
	); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_activity (user_id, activity_type, description)
		      VALUES ($1, 'join_meeting', $2)`,
		userID, "Joined room "+roomID,
	)
	return err
}

func (r *Recorder) recordLeave(ctx context.Context, roomID string, m redis.XMessage, at time.Time) error {
	meetingID, ok := r.open[roomID]
	if !ok {
		return nil
	}
	userID, ok := entryUserID(m)
	if !ok {
		return nil
	}
	if _, err := r.db.ExecContext(ctx,
		`UPDATE meeting_participants
		    SET leave_time = $1,
		        duration   = EXTRACT(EPOCH FROM ($1 - join_time))::int
		  WHERE meeting_id = $2 AND user_id = $3 AND leave_time IS NULL`,
		at, meetingID, userID,
	); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_activity (user_id, activity_type, description)
		      VALUES ($1, 'leave_meeting', $2)`,
		userID, "Left room "+roomID,
	)
	return err
}

func (r *Recorder) recordClosed(ctx context.Context, roomID string, at time.Time) error {
	meetingID, ok := r.open[roomID]
	if !ok {
		return nil
	}
	delete(r.open, roomID)
	_, err := r.db.ExecContext(ctx,
		`UPDATE meetings
		    SET end_time = $1,
		        duration = EXTRACT(EPOCH FROM ($1 - start_time))::int
		  WHERE id = $2`,
		at, meetingID,
	)
	return err
}

// helpers

func entryTime(m redis.XMessage) time.Time {
	if s, ok := m.Values["ts"].(string); ok {
		if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.Unix(sec, 0).UTC()
		}
	}
	return time.Now().UTC()
}

// entryUserID extracts the directory user id from the presence payload,
// when the client supplied one.
func entryUserID(m redis.XMessage) (int64, bool) {
	raw, _ := m.Values["user"].(string)
	if raw == "" {
		return 0, false
	}
	var v struct {
		ID json.Number `json:"id"`
	}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return 0, false
	}
	id, err := v.ID.Int64()
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
