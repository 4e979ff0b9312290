package postgres

const schemaSQL = `
CREATE TABLE IF NOT EXISTS contact (
    id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    owner_id TEXT NOT NULL,
    first_name VARCHAR(255) NOT NULL,
    last_name VARCHAR(255) NOT NULL,
    email VARCHAR(255),
    company VARCHAR(255),
    company_id BIGINT,
    job_title VARCHAR(255),
    phone VARCHAR(50),
    notes TEXT,
    linkedin_provider_id VARCHAR(255),
    linkedin_url TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_contact_owner_id ON contact (owner_id);
CREATE INDEX IF NOT EXISTS idx_contact_linkedin_provider_id ON contact (owner_id, linkedin_provider_id);

CREATE TABLE IF NOT EXISTS conversation (
    id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    contact_id BIGINT NOT NULL REFERENCES contact(id) ON DELETE CASCADE,
    owner_id TEXT NOT NULL,
    selling_context TEXT NOT NULL DEFAULT '',
    stopped_at TIMESTAMPTZ,
    stopped_reason VARCHAR(50),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ,
    CONSTRAINT conversation_stop_fields CHECK ((stopped_at IS NULL) = (stopped_reason IS NULL))
);

CREATE INDEX IF NOT EXISTS idx_conversation_owner_id ON conversation (owner_id);
CREATE INDEX IF NOT EXISTS idx_conversation_contact_owner ON conversation (contact_id, owner_id);

CREATE TABLE IF NOT EXISTS message (
    id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    conversation_id BIGINT NOT NULL REFERENCES conversation(id) ON DELETE CASCADE,
    role VARCHAR(20) NOT NULL,
    content TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_message_conversation_id ON message (conversation_id, created_at);

CREATE TABLE IF NOT EXISTS ai_preferences (
    id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    user_id TEXT NOT NULL UNIQUE,
    company_knowledge TEXT,
    tone_of_voice TEXT,
    example_messages JSONB NOT NULL DEFAULT '[]',
    signature TEXT,
    onboarding_completed BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS credit_balance (
    id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    user_id TEXT NOT NULL,
    remaining_credits BIGINT NOT NULL,
    monthly_allowance BIGINT NOT NULL,
    period_start TIMESTAMPTZ NOT NULL,
    period_end TIMESTAMPTZ NOT NULL,
    UNIQUE (user_id, period_start)
);

CREATE TABLE IF NOT EXISTS usage_record (
    id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    user_id TEXT NOT NULL,
    model VARCHAR(100) NOT NULL,
    input_tokens BIGINT NOT NULL,
    output_tokens BIGINT NOT NULL,
    credits_charged BIGINT NOT NULL,
    estimated_cost_usd NUMERIC(12, 6) NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_usage_record_user_id ON usage_record (user_id, created_at);
`
