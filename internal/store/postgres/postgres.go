// Package postgres implements store.Store on PostgreSQL using sqlx over the pgx driver.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/capitalize-ai/prospecting-platform/internal/model"
	"github.com/capitalize-ai/prospecting-platform/internal/store"
)

// Store is a PostgreSQL-backed store.Store.
type Store struct {
	db *sqlx.DB
}

var _ store.Store = (*Store)(nil)

// Open connects to the database at dsn.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("database DSN is required")
	}

	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	return &Store{db: db}, nil
}

// New wraps an existing connection.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// RunMigrations applies the embedded schema. It is idempotent.
func (s *Store) RunMigrations(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

const conversationColumns = `id, contact_id, owner_id, selling_context, created_at, updated_at, stopped_at, stopped_reason`

// Create opens a new active conversation.
func (s *Store) Create(ctx context.Context, ownerID string, in model.ConversationCreateInput) (*model.Conversation, error) {
	var conv model.Conversation
	err := s.db.QueryRowxContext(ctx,
		`INSERT INTO conversation (contact_id, owner_id, selling_context)
		 VALUES ($1, $2, $3)
		 RETURNING `+conversationColumns,
		in.ContactID, ownerID, in.SellingContext,
	).StructScan(&conv)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return &conv, nil
}

// GetByID returns the conversation if it belongs to ownerID.
func (s *Store) GetByID(ctx context.Context, conversationID int64, ownerID string) (*model.Conversation, error) {
	var conv model.Conversation
	err := s.db.GetContext(ctx, &conv,
		`SELECT `+conversationColumns+` FROM conversation WHERE id = $1 AND owner_id = $2`,
		conversationID, ownerID)
	if err != nil {
		return nil, notFound(err)
	}
	return &conv, nil
}

// List returns the owner's conversations, most recent activity first.
func (s *Store) List(ctx context.Context, ownerID string) ([]model.Conversation, error) {
	convs := []model.Conversation{}
	err := s.db.SelectContext(ctx, &convs,
		`SELECT `+conversationColumns+` FROM conversation
		 WHERE owner_id = $1
		 ORDER BY COALESCE(updated_at, created_at) DESC, id DESC`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return convs, nil
}

// FindByContact returns the owner's most recently active conversation with a contact.
func (s *Store) FindByContact(ctx context.Context, contactID int64, ownerID string) (*model.Conversation, error) {
	var conv model.Conversation
	err := s.db.GetContext(ctx, &conv,
		`SELECT `+conversationColumns+` FROM conversation
		 WHERE contact_id = $1 AND owner_id = $2
		 ORDER BY COALESCE(updated_at, created_at) DESC, id DESC
		 LIMIT 1`,
		contactID, ownerID)
	if err != nil {
		return nil, notFound(err)
	}
	return &conv, nil
}

// Touch sets the last-activity timestamp to now.
func (s *Store) Touch(ctx context.Context, conversationID int64, ownerID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE conversation SET updated_at = NOW() WHERE id = $1 AND owner_id = $2`,
		conversationID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}
	return requireRow(res)
}

// Stop marks the conversation stopped.
func (s *Store) Stop(ctx context.Context, conversationID int64, reason model.StopReason) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE conversation SET stopped_at = NOW(), stopped_reason = $2 WHERE id = $1`,
		conversationID, string(reason))
	if err != nil {
		return fmt.Errorf("failed to stop conversation: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// AddMessage appends a message to a conversation.
func (s *Store) AddMessage(ctx context.Context, in model.MessageCreateInput) (*model.Message, error) {
	var msg model.Message
	err := s.db.QueryRowxContext(ctx,
		`INSERT INTO message (conversation_id, role, content)
		 VALUES ($1, $2, $3)
		 RETURNING id, conversation_id, role, content, created_at`,
		in.ConversationID, string(in.Role), in.Content,
	).StructScan(&msg)
	if err != nil {
		return nil, fmt.Errorf("failed to add message: %w", err)
	}
	return &msg, nil
}

// GetMessages returns the conversation's messages, oldest first.
func (s *Store) GetMessages(ctx context.Context, conversationID int64) ([]model.Message, error) {
	msgs := []model.Message{}
	err := s.db.SelectContext(ctx, &msgs,
		`SELECT id, conversation_id, role, content, created_at FROM message
		 WHERE conversation_id = $1
		 ORDER BY created_at ASC, id ASC`,
		conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	return msgs, nil
}

const contactColumns = `id, owner_id, first_name, last_name, email, company, company_id, job_title,
	phone, notes, linkedin_provider_id, linkedin_url, created_at, updated_at`

// CreateContact stores a new contact for ownerID.
func (s *Store) CreateContact(ctx context.Context, ownerID string, req model.CreateContactRequest) (*model.Contact, error) {
	var c model.Contact
	err := s.db.QueryRowxContext(ctx,
		`INSERT INTO contact (owner_id, first_name, last_name, email, company, company_id,
			job_title, phone, notes, linkedin_provider_id, linkedin_url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING `+contactColumns,
		ownerID, req.FirstName, req.LastName, req.Email, req.Company, req.CompanyID,
		req.JobTitle, req.Phone, req.Notes, req.LinkedInProviderID, req.LinkedInURL,
	).StructScan(&c)
	if err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}
	return &c, nil
}

// GetContact returns the contact if it belongs to ownerID.
func (s *Store) GetContact(ctx context.Context, contactID int64, ownerID string) (*model.Contact, error) {
	var c model.Contact
	err := s.db.GetContext(ctx, &c,
		`SELECT `+contactColumns+` FROM contact WHERE id = $1 AND owner_id = $2`,
		contactID, ownerID)
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// FindContactByLinkedInProviderID returns the owner's oldest contact with that provider id.
func (s *Store) FindContactByLinkedInProviderID(ctx context.Context, providerID, ownerID string) (*model.Contact, error) {
	var c model.Contact
	err := s.db.GetContext(ctx, &c,
		`SELECT `+contactColumns+` FROM contact
		 WHERE linkedin_provider_id = $1 AND owner_id = $2
		 ORDER BY id ASC LIMIT 1`,
		providerID, ownerID)
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// ListContacts returns the owner's contacts, newest first.
func (s *Store) ListContacts(ctx context.Context, ownerID string) ([]model.Contact, error) {
	contacts := []model.Contact{}
	err := s.db.SelectContext(ctx, &contacts,
		`SELECT `+contactColumns+` FROM contact WHERE owner_id = $1 ORDER BY created_at DESC, id DESC`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	return contacts, nil
}

type preferencesRow struct {
	UserID              string     `db:"user_id"`
	CompanyKnowledge    *string    `db:"company_knowledge"`
	ToneOfVoice         *string    `db:"tone_of_voice"`
	ExampleMessages     []byte     `db:"example_messages"`
	Signature           *string    `db:"signature"`
	OnboardingCompleted bool       `db:"onboarding_completed"`
	CreatedAt           time.Time  `db:"created_at"`
	UpdatedAt           *time.Time `db:"updated_at"`
}

func (r *preferencesRow) toModel() (*model.AiPreferences, error) {
	prefs := &model.AiPreferences{
		UserID:              r.UserID,
		CompanyKnowledge:    r.CompanyKnowledge,
		ToneOfVoice:         r.ToneOfVoice,
		ExampleMessages:     []string{},
		Signature:           r.Signature,
		OnboardingCompleted: r.OnboardingCompleted,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
	if len(r.ExampleMessages) > 0 {
		if err := json.Unmarshal(r.ExampleMessages, &prefs.ExampleMessages); err != nil {
			return nil, fmt.Errorf("failed to decode example messages: %w", err)
		}
	}
	return prefs, nil
}

const preferencesColumns = `user_id, company_knowledge, tone_of_voice, example_messages, signature,
	onboarding_completed, created_at, updated_at`

// GetPreferences returns the user's preferences or ErrNotFound.
func (s *Store) GetPreferences(ctx context.Context, userID string) (*model.AiPreferences, error) {
	var row preferencesRow
	err := s.db.GetContext(ctx, &row,
		`SELECT `+preferencesColumns+` FROM ai_preferences WHERE user_id = $1`, userID)
	if err != nil {
		return nil, notFound(err)
	}
	return row.toModel()
}

// UpsertPreferences applies the non-nil fields of in. NULL parameters keep the stored value.
func (s *Store) UpsertPreferences(ctx context.Context, userID string, in model.AiPreferencesInput) (*model.AiPreferences, error) {
	var examples *string
	if in.ExampleMessages != nil {
		data, err := json.Marshal(*in.ExampleMessages)
		if err != nil {
			return nil, fmt.Errorf("failed to encode example messages: %w", err)
		}
		v := string(data)
		examples = &v
	}

	var row preferencesRow
	err := s.db.QueryRowxContext(ctx,
		`INSERT INTO ai_preferences (user_id, company_knowledge, tone_of_voice, example_messages,
			signature, onboarding_completed)
		 VALUES ($1, $2, $3, COALESCE($4::jsonb, '[]'::jsonb), $5, COALESCE($6, FALSE))
		 ON CONFLICT (user_id) DO UPDATE SET
			company_knowledge = COALESCE($2, ai_preferences.company_knowledge),
			tone_of_voice = COALESCE($3, ai_preferences.tone_of_voice),
			example_messages = COALESCE($4::jsonb, ai_preferences.example_messages),
			signature = COALESCE($5, ai_preferences.signature),
			onboarding_completed = COALESCE($6, ai_preferences.onboarding_completed),
			updated_at = NOW()
		 RETURNING `+preferencesColumns,
		userID, in.CompanyKnowledge, in.ToneOfVoice, examples, in.Signature, in.OnboardingCompleted,
	).StructScan(&row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert preferences: %w", err)
	}
	return row.toModel()
}

const balanceColumns = `user_id, remaining_credits, monthly_allowance, period_start, period_end`

// GetBalance returns the balance covering at.
func (s *Store) GetBalance(ctx context.Context, userID string, at time.Time) (*model.CreditBalance, error) {
	var b model.CreditBalance
	err := s.db.GetContext(ctx, &b,
		`SELECT `+balanceColumns+` FROM credit_balance
		 WHERE user_id = $1 AND period_start <= $2 AND period_end > $2
		 ORDER BY period_start DESC LIMIT 1`,
		userID, at)
	if err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

// CreateBalance stores a balance for a new period, returning the existing row on conflict.
func (s *Store) CreateBalance(ctx context.Context, balance model.CreditBalance) (*model.CreditBalance, error) {
	var b model.CreditBalance
	err := s.db.QueryRowxContext(ctx,
		`INSERT INTO credit_balance (user_id, remaining_credits, monthly_allowance, period_start, period_end)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id, period_start) DO UPDATE SET user_id = EXCLUDED.user_id
		 RETURNING `+balanceColumns,
		balance.UserID, balance.RemainingCredits, balance.MonthlyAllowance, balance.PeriodStart, balance.PeriodEnd,
	).StructScan(&b)
	if err != nil {
		return nil, fmt.Errorf("failed to create credit balance: %w", err)
	}
	return &b, nil
}

// Debit decrements the covering balance, flooring at zero.
func (s *Store) Debit(ctx context.Context, userID string, at time.Time, credits int64) (int64, error) {
	var remaining int64
	err := s.db.QueryRowxContext(ctx,
		`UPDATE credit_balance SET remaining_credits = GREATEST(remaining_credits - $3, 0)
		 WHERE user_id = $1 AND period_start <= $2 AND period_end > $2
		 RETURNING remaining_credits`,
		userID, at, credits,
	).Scan(&remaining)
	if err != nil {
		return 0, notFound(err)
	}
	return remaining, nil
}

// InsertUsage appends a usage record.
func (s *Store) InsertUsage(ctx context.Context, rec model.UsageRecord) error {
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO usage_record (user_id, model, input_tokens, output_tokens, credits_charged, estimated_cost_usd, created_at)
		 VALUES (:user_id, :model, :input_tokens, :output_tokens, :credits_charged, :estimated_cost_usd, :created_at)`,
		rec)
	if err != nil {
		return fmt.Errorf("failed to insert usage record: %w", err)
	}
	return nil
}
