package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/campuslink/chatcore/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")

type PostgresMessageRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresMessageRepository(pool *pgxpool.Pool) *PostgresMessageRepository {
	return &PostgresMessageRepository{pool: pool}
}

func (r *PostgresMessageRepository) Create(ctx context.Context, message *models.Message) error {
	query := `INSERT INTO messages (sender_id, recipient_id, ciphertext, nonce, auth_tag, attachment_url)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id, read, created_at`

	err := r.pool.QueryRow(ctx, query,
		message.SenderID,
		message.RecipientID,
		message.Ciphertext,
		message.Nonce,
		message.AuthTag,
		message.AttachmentURL,
	).Scan(&message.ID, &message.Read, &message.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

func (r *PostgresMessageRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	query := `SELECT id, sender_id, recipient_id, ciphertext, nonce, auth_tag, attachment_url, read, created_at
	          FROM messages
	          WHERE id = $1`

	var message models.Message
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&message.ID,
		&message.SenderID,
		&message.RecipientID,
		&message.Ciphertext,
		&message.Nonce,
		&message.AuthTag,
		&message.AttachmentURL,
		&message.Read,
		&message.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message by ID: %w", err)
	}
	return &message, nil
}

// Conversation returns the full message history between two users, ascending
// by creation time. Creation order is the sole ordering key.
func (r *PostgresMessageRepository) Conversation(ctx context.Context, userA, userB uuid.UUID) ([]*models.Message, error) {
	query := `SELECT id, sender_id, recipient_id, ciphertext, nonce, auth_tag, attachment_url, read, created_at
	          FROM messages
	          WHERE (sender_id = $1 AND recipient_id = $2)
	             OR (sender_id = $2 AND recipient_id = $1)
	          ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, userA, userB)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation: %w", err)
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		var message models.Message
		err := rows.Scan(
			&message.ID,
			&message.SenderID,
			&message.RecipientID,
			&message.Ciphertext,
			&message.Nonce,
			&message.AuthTag,
			&message.AttachmentURL,
			&message.Read,
			&message.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, &message)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, nil
}

// LatestPerPeer returns the single most recent message exchanged with each of
// the given peers. The grouping runs in the store so the caller never scans
// per-message history.
func (r *PostgresMessageRepository) LatestPerPeer(ctx context.Context, userID uuid.UUID, peerIDs []uuid.UUID) (map[uuid.UUID]*models.Message, error) {
	latest := make(map[uuid.UUID]*models.Message)
	if len(peerIDs) == 0 {
		return latest, nil
	}

	query := `SELECT DISTINCT ON (peer_id)
	              peer_id, id, sender_id, recipient_id, ciphertext, nonce, auth_tag, attachment_url, read, created_at
	          FROM (
	              SELECT *,
	                     CASE WHEN sender_id = $1 THEN recipient_id ELSE sender_id END AS peer_id
	              FROM messages
	              WHERE sender_id = $1 OR recipient_id = $1
	          ) exchanged
	          WHERE peer_id = ANY($2)
	          ORDER BY peer_id, created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID, peerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var peerID uuid.UUID
		var message models.Message
		err := rows.Scan(
			&peerID,
			&message.ID,
			&message.SenderID,
			&message.RecipientID,
			&message.Ciphertext,
			&message.Nonce,
			&message.AuthTag,
			&message.AttachmentURL,
			&message.Read,
			&message.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan latest message: %w", err)
		}
		latest[peerID] = &message
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating latest messages: %w", err)
	}

	return latest, nil
}

// MarkRead sets the read flag and returns the updated message. The flag only
// ever transitions false to true, so re-marking a read message is a no-op
// rather than an error.
func (r *PostgresMessageRepository) MarkRead(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	query := `UPDATE messages
	          SET read = TRUE
	          WHERE id = $1
	          RETURNING id, sender_id, recipient_id, ciphertext, nonce, auth_tag, attachment_url, read, created_at`

	var message models.Message
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&message.ID,
		&message.SenderID,
		&message.RecipientID,
		&message.Ciphertext,
		&message.Nonce,
		&message.AuthTag,
		&message.AttachmentURL,
		&message.Read,
		&message.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to mark message read: %w", err)
	}
	return &message, nil
}
