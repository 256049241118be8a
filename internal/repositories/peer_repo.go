package repositories

import (
	"context"
	"fmt"

	"github.com/campuslink/chatcore/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresPeerRepository reads the mutually-accepted connection set owned by
// the social-graph side of the platform. Read-only from this core.
type PostgresPeerRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresPeerRepository(pool *pgxpool.Pool) *PostgresPeerRepository {
	return &PostgresPeerRepository{pool: pool}
}

func (r *PostgresPeerRepository) ListAccepted(ctx context.Context, userID uuid.UUID) ([]models.Peer, error) {
	query := `SELECT u.id, u.username, u.full_name
	          FROM connections c
	          JOIN users u
	            ON u.id = CASE WHEN c.requester_id = $1 THEN c.addressee_id ELSE c.requester_id END
	          WHERE (c.requester_id = $1 OR c.addressee_id = $1)
	            AND c.status = 'accepted'
	          ORDER BY u.username ASC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query accepted peers: %w", err)
	}
	defer rows.Close()

	var peers []models.Peer
	for rows.Next() {
		var peer models.Peer
		if err := rows.Scan(&peer.ID, &peer.Username, &peer.FullName); err != nil {
			return nil, fmt.Errorf("failed to scan peer: %w", err)
		}
		peers = append(peers, peer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating peers: %w", err)
	}

	return peers, nil
}
