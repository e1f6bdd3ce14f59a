package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ansshul10/Chatifyzone07/internal/models"

	_ "modernc.org/sqlite"
)

// Store is the durable message store. It is the single source of truth for
// conversation history: a message that has been saved here survives regardless
// of whether the recipient was reachable at send time.
type Store struct {
	db *sql.DB
	mu sync.Mutex // Serializes access; sqlite allows one writer at a time.
}

// Open initializes the SQLite database at path and creates the tables if they
// don't exist.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err = createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logrus.WithField("path", path).Info("message store initialized")
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func createTables(db *sql.DB) error {
	// created_at and read_at are unix nanoseconds so that ordering is a plain
	// integer comparison. reactions is a JSON array of tokens.
	createMessagesTableSQL := `
	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		sender_id TEXT NOT NULL,
		recipient_id TEXT NOT NULL,
		text TEXT NOT NULL,
		is_encrypted INTEGER NOT NULL DEFAULT 0,
		display_ts TEXT NOT NULL,
		reactions TEXT NOT NULL DEFAULT '[]',
		read INTEGER NOT NULL DEFAULT 0,
		read_at INTEGER,
		disappearing_in INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);`

	createPairIndexSQL := `
	CREATE INDEX IF NOT EXISTS idx_messages_pair
	ON messages (sender_id, recipient_id, created_at);`

	createAnalyticsTableSQL := `
	CREATE TABLE IF NOT EXISTS user_analytics (
		user_id TEXT PRIMARY KEY,
		total_time_spent INTEGER NOT NULL DEFAULT 0,
		last_active INTEGER NOT NULL
	);`

	for _, stmt := range []string{createMessagesTableSQL, createPairIndexSQL, createAnalyticsTableSQL} {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}

// SaveMessage persists a new message. The server-assigned identity, creation
// timestamp and display time string are filled in on the passed message.
func (s *Store) SaveMessage(msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg.ID = uuid.NewString()
	msg.CreatedAt = time.Now().UTC()
	msg.Timestamp = msg.CreatedAt.Local().Format(time.Kitchen)
	if msg.Reactions == nil {
		msg.Reactions = []string{}
	}

	reactions, err := json.Marshal(msg.Reactions)
	if err != nil {
		return fmt.Errorf("failed to encode reactions: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO messages(id, sender_id, recipient_id, text, is_encrypted, display_ts, reactions, disappearing_in, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.Sender, msg.Recipient, msg.Text, boolToInt(msg.IsEncrypted),
		msg.Timestamp, string(reactions), msg.DisappearingIn, msg.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// GetMessage retrieves a single message by identity. It returns (nil, nil)
// when no such message exists.
func (s *Store) GetMessage(id string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getMessageLocked(id)
}

func (s *Store) getMessageLocked(id string) (*models.Message, error) {
	row := s.db.QueryRow(`
		SELECT id, sender_id, recipient_id, text, is_encrypted, display_ts, reactions, read, read_at, disappearing_in, created_at
		FROM messages WHERE id = ?`, id)

	msg, err := scanMessage(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan message: %w", err)
	}
	return msg, nil
}

// MessagesBetween returns all messages exchanged between two users in either
// direction, ordered by creation time ascending and capped at limit.
func (s *Store) MessagesBetween(a, b string, limit int) ([]*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT id, sender_id, recipient_id, text, is_encrypted, display_ts, reactions, read, read_at, disappearing_in, created_at
		FROM messages
		WHERE (sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)
		ORDER BY created_at ASC, id ASC
		LIMIT ?`,
		a, b, b, a, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages between users: %w", err)
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			logrus.WithError(err).Warn("skipping unreadable message row")
			continue
		}
		messages = append(messages, msg)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating message rows: %w", err)
	}
	return messages, nil
}

// UpdateText replaces the text of an existing message and returns the updated
// record. A missing identity returns (nil, nil): concurrent edit/delete races
// are expected and not an error.
func (s *Store) UpdateText(id, text string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`UPDATE messages SET text = ? WHERE id = ?`, text, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update message text: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return s.getMessageLocked(id)
}

// AppendReaction appends a reaction token to a message and returns the updated
// record. Duplicate tokens are allowed; order is preserved. A missing identity
// returns (nil, nil).
func (s *Store) AppendReaction(id, emoji string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, err := s.getMessageLocked(id)
	if err != nil || msg == nil {
		return nil, err
	}

	msg.Reactions = append(msg.Reactions, emoji)
	reactions, err := json.Marshal(msg.Reactions)
	if err != nil {
		return nil, fmt.Errorf("failed to encode reactions: %w", err)
	}
	if _, err := s.db.Exec(`UPDATE messages SET reactions = ? WHERE id = ?`, string(reactions), id); err != nil {
		return nil, fmt.Errorf("failed to update reactions: %w", err)
	}
	return msg, nil
}

// DeleteMessage physically removes a message. It reports whether a record was
// actually deleted; deleting an absent identity is not an error.
func (s *Store) DeleteMessage(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete message: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// MarkRead flags the given messages as read by reader, but only those whose
// recipient is actually the reader. It returns the identities that matched the
// predicate; non-matching identities are silently excluded.
func (s *Store) MarkRead(ids []string, reader string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, 0, len(ids)+1)
	for _, id := range ids {
		args = append(args, id)
	}
	args = append(args, reader)

	rows, err := s.db.Query(`SELECT id FROM messages WHERE id IN (`+placeholders+`) AND recipient_id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select readable messages: %w", err)
	}
	var matched []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan message id: %w", err)
		}
		matched = append(matched, id)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating message ids: %w", err)
	}
	if len(matched) == 0 {
		return nil, nil
	}

	_, err = s.db.Exec(`UPDATE messages SET read = 1, read_at = ? WHERE id IN (`+placeholders+`) AND recipient_id = ?`,
		append([]interface{}{time.Now().UTC().UnixNano()}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to mark messages read: %w", err)
	}
	return matched, nil
}

// AddSessionTime adds a completed session's duration (in whole minutes) to a
// user's analytics row and refreshes their last-active timestamp.
func (s *Store) AddSessionTime(userID string, minutes int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO user_analytics(user_id, total_time_spent, last_active)
		VALUES(?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			total_time_spent = total_time_spent + excluded.total_time_spent,
			last_active = excluded.last_active`,
		userID, minutes, time.Now().UTC().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to update user analytics: %w", err)
	}
	return nil
}

// GetAnalytics returns the accumulated analytics for a user, or (nil, nil) if
// the user has never completed a session.
func (s *Store) GetAnalytics(userID string) (*models.UserAnalytics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(`SELECT user_id, total_time_spent, last_active FROM user_analytics WHERE user_id = ?`, userID)
	ua := &models.UserAnalytics{}
	var lastActive int64
	if err := row.Scan(&ua.UserID, &ua.TotalTimeSpent, &lastActive); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan user analytics: %w", err)
	}
	ua.LastActive = time.Unix(0, lastActive).UTC()
	return ua, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanMessage(row scanner) (*models.Message, error) {
	msg := &models.Message{}
	var isEncrypted, read int
	var reactions string
	var readAt sql.NullInt64
	var createdAt int64

	err := row.Scan(&msg.ID, &msg.Sender, &msg.Recipient, &msg.Text, &isEncrypted,
		&msg.Timestamp, &reactions, &read, &readAt, &msg.DisappearingIn, &createdAt)
	if err != nil {
		return nil, err
	}

	msg.IsEncrypted = isEncrypted != 0
	msg.Read = read != 0
	if readAt.Valid {
		t := time.Unix(0, readAt.Int64).UTC()
		msg.ReadAt = &t
	}
	msg.CreatedAt = time.Unix(0, createdAt).UTC()
	if err := json.Unmarshal([]byte(reactions), &msg.Reactions); err != nil {
		return nil, fmt.Errorf("failed to decode reactions: %w", err)
	}
	return msg, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
