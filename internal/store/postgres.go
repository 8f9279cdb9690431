package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hirewire/mailengine/internal/config"
	"github.com/hirewire/mailengine/internal/models"
)

// PostgresStore implements MessageStore and UserDirectory on a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an existing connection pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// NewConnection creates a new PostgreSQL connection pool with the given configuration.
func NewConnection(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.GetDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// CloseConnection closes the given database connection pool.
func CloseConnection(pool *pgxpool.Pool) {
	if pool != nil {
		pool.Close()
	}
}

const messageColumns = `
	id,
	sender_id,
	sender_address,
	recipients,
	subject,
	body,
	status,
	type,
	folder,
	reply_to_id,
	is_important,
	is_starred,
	sent_at,
	delivered_at,
	read_at,
	bounce_status,
	bounce_reason,
	created_at,
	updated_at`

func scanMessage(row pgx.Row) (*models.Message, error) {
	var msg models.Message
	var replyTo, bounceStatus, bounceReason *string

	err := row.Scan(
		&msg.ID,
		&msg.SenderID,
		&msg.SenderAddress,
		&msg.Recipients,
		&msg.Subject,
		&msg.Body,
		&msg.Status,
		&msg.Type,
		&msg.Folder,
		&replyTo,
		&msg.IsImportant,
		&msg.IsStarred,
		&msg.Tracking.SentAt,
		&msg.Tracking.DeliveredAt,
		&msg.Tracking.ReadAt,
		&bounceStatus,
		&bounceReason,
		&msg.CreatedAt,
		&msg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if replyTo != nil {
		msg.ReplyToID = *replyTo
	}
	if bounceStatus != nil {
		msg.Tracking.BounceStatus = *bounceStatus
	}
	if bounceReason != nil {
		msg.Tracking.BounceReason = *bounceReason
	}

	return &msg, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// CreateMessage validates and inserts a new message, populating its id and
// created/updated timestamps from the database.
func (s *PostgresStore) CreateMessage(ctx context.Context, msg *models.Message) error {
	if err := ValidateNewMessage(msg); err != nil {
		return err
	}

	err := s.pool.QueryRow(ctx, `
		INSERT INTO messages (
			sender_id,
			sender_address,
			recipients,
			subject,
			body,
			status,
			type,
			folder,
			reply_to_id,
			is_important,
			is_starred,
			sent_at,
			delivered_at,
			read_at,
			bounce_status,
			bounce_reason
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at, updated_at
	`,
		msg.SenderID,
		msg.SenderAddress,
		msg.Recipients,
		msg.Subject,
		msg.Body,
		msg.Status,
		msg.Type,
		msg.Folder,
		nullIfEmpty(msg.ReplyToID),
		msg.IsImportant,
		msg.IsStarred,
		msg.Tracking.SentAt,
		msg.Tracking.DeliveredAt,
		msg.Tracking.ReadAt,
		nullIfEmpty(msg.Tracking.BounceStatus),
		nullIfEmpty(msg.Tracking.BounceReason),
	).Scan(&msg.ID, &msg.CreatedAt, &msg.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}

	return nil
}

// GetMessageByID returns a message by its id.
func (s *PostgresStore) GetMessageByID(ctx context.Context, id string) (*models.Message, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE id = $1
	`, id)

	msg, err := scanMessage(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	return msg, nil
}

// UpdateMessage replaces the mutable fields of a message and bumps updated_at.
// Sender and recipients are immutable after creation and are not part of the
// update.
func (s *PostgresStore) UpdateMessage(ctx context.Context, msg *models.Message) error {
	err := s.pool.QueryRow(ctx, `
		UPDATE messages SET
			subject = $2,
			body = $3,
			status = $4,
			folder = $5,
			is_important = $6,
			is_starred = $7,
			sent_at = $8,
			delivered_at = $9,
			read_at = $10,
			bounce_status = $11,
			bounce_reason = $12,
			updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`,
		msg.ID,
		msg.Subject,
		msg.Body,
		msg.Status,
		msg.Folder,
		msg.IsImportant,
		msg.IsStarred,
		msg.Tracking.SentAt,
		msg.Tracking.DeliveredAt,
		msg.Tracking.ReadAt,
		nullIfEmpty(msg.Tracking.BounceStatus),
		nullIfEmpty(msg.Tracking.BounceReason),
	).Scan(&msg.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return ErrMessageNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update message: %w", err)
	}

	return nil
}

// buildFilterClause translates a MailboxFilter into a WHERE clause and its
// positional arguments, starting at $1.
func buildFilterClause(filter MailboxFilter) (string, []any) {
	var conditions []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.AnyParticipant && filter.SenderID != "" && filter.RecipientAddress != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(sender_id = %s OR %s = ANY(recipients))",
			arg(filter.SenderID), arg(filter.RecipientAddress),
		))
	} else {
		if filter.SenderID != "" {
			conditions = append(conditions, "sender_id = "+arg(filter.SenderID))
		}
		if filter.RecipientAddress != "" {
			conditions = append(conditions, arg(filter.RecipientAddress)+" = ANY(recipients)")
		}
	}

	if filter.Status != "" {
		conditions = append(conditions, "status = "+arg(string(filter.Status)))
	}
	if filter.Folder != "" {
		conditions = append(conditions, "folder = "+arg(string(filter.Folder)))
	}

	if len(conditions) == 0 {
		return "TRUE", args
	}
	return strings.Join(conditions, " AND "), args
}

// ListMessages returns messages matching the filter, newest first. The id
// tie-breaker keeps the order stable for messages created in the same instant.
func (s *PostgresStore) ListMessages(ctx context.Context, filter MailboxFilter, limit, offset int) ([]*models.Message, error) {
	where, args := buildFilterClause(filter)

	query := fmt.Sprintf(`
		SELECT %s
		FROM messages
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, messageColumns, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, nil
}

// CountMessages returns the number of messages matching the filter.
func (s *PostgresStore) CountMessages(ctx context.Context, filter MailboxFilter) (int, error) {
	where, args := buildFilterClause(filter)

	var count int
	err := s.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM messages WHERE "+where, args...,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}

	return count, nil
}

// GetUserByID returns a user by id.
func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User

	err := s.pool.QueryRow(ctx, `
		SELECT id, name, internal_address, created_at
		FROM users
		WHERE id = $1
	`, id).Scan(&user.ID, &user.Name, &user.InternalAddress, &user.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// GetUserByAddress returns a user by their internal address.
func (s *PostgresStore) GetUserByAddress(ctx context.Context, address string) (*models.User, error) {
	var user models.User

	err := s.pool.QueryRow(ctx, `
		SELECT id, name, internal_address, created_at
		FROM users
		WHERE internal_address = $1
	`, address).Scan(&user.ID, &user.Name, &user.InternalAddress, &user.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by address: %w", err)
	}

	return &user, nil
}

// CreateUser inserts a new user with the given internal address.
func (s *PostgresStore) CreateUser(ctx context.Context, name, internalAddress string) (*models.User, error) {
	user := &models.User{
		Name:            name,
		InternalAddress: internalAddress,
	}

	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (name, internal_address)
		VALUES ($1, $2)
		RETURNING id, created_at
	`, name, internalAddress).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}
