package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'job_status') THEN
			CREATE TYPE job_status AS ENUM (
				'pending', 'clarifying', 'offered', 'accepted',
				'in_progress', 'completed', 'reviewed', 'cancelled', 'declined'
			);
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'offer_status') THEN
			CREATE TYPE offer_status AS ENUM ('pending', 'accepted', 'declined', 'expired', 'superseded');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'deal_status') THEN
			CREATE TYPE deal_status AS ENUM ('active', 'completed', 'disputed', 'cancelled');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS profiles (
		id UUID PRIMARY KEY,
		display_name VARCHAR(120) NOT NULL,
		is_seller BOOLEAN NOT NULL DEFAULT FALSE,
		is_verified BOOLEAN NOT NULL DEFAULT FALSE,
		handshake_score NUMERIC(5,2) NOT NULL DEFAULT 0,
		avg_rating NUMERIC(3,2) NOT NULL DEFAULT 0,
		avg_communication NUMERIC(3,2) NOT NULL DEFAULT 0,
		avg_quality NUMERIC(3,2) NOT NULL DEFAULT 0,
		avg_reliability NUMERIC(3,2) NOT NULL DEFAULT 0,
		total_reviews INT NOT NULL DEFAULT 0,
		total_completed_deals INT NOT NULL DEFAULT 0,
		avg_response_hours NUMERIC(10,2),
		completion_rate NUMERIC(5,2),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS listings (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		seller_id UUID NOT NULL REFERENCES profiles(id),
		title VARCHAR(200) NOT NULL,
		category VARCHAR(64) NOT NULL,
		pricing_type VARCHAR(16) NOT NULL DEFAULT 'fixed',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS job_requests (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		listing_id UUID NOT NULL REFERENCES listings(id),
		customer_id UUID NOT NULL REFERENCES profiles(id),
		seller_id UUID NOT NULL REFERENCES profiles(id),
		status job_status NOT NULL DEFAULT 'pending',
		description TEXT NOT NULL,
		budget_min NUMERIC(12,2),
		budget_max NUMERIC(12,2),
		preferred_time TIMESTAMPTZ,
		location TEXT,
		category VARCHAR(64) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_job_requests_customer ON job_requests (customer_id);`,
	`CREATE INDEX IF NOT EXISTS idx_job_requests_seller ON job_requests (seller_id);`,
	`CREATE TABLE IF NOT EXISTS offers (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		job_request_id UUID NOT NULL REFERENCES job_requests(id),
		version INT NOT NULL,
		seller_id UUID NOT NULL REFERENCES profiles(id),
		price NUMERIC(12,2) NOT NULL,
		pricing_type VARCHAR(16) NOT NULL,
		estimated_duration VARCHAR(100),
		scope_description TEXT NOT NULL,
		valid_until TIMESTAMPTZ,
		status offer_status NOT NULL DEFAULT 'pending',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_offer_version ON offers (job_request_id, version);`,
	// The ledger's safety rail: the database refuses a second pending offer
	// even if application-level serialization is bypassed.
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_offer_single_pending ON offers (job_request_id) WHERE status = 'pending';`,
	`CREATE TABLE IF NOT EXISTS deals (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		job_request_id UUID NOT NULL REFERENCES job_requests(id),
		offer_id UUID NOT NULL REFERENCES offers(id),
		customer_id UUID NOT NULL REFERENCES profiles(id),
		seller_id UUID NOT NULL REFERENCES profiles(id),
		status deal_status NOT NULL DEFAULT 'active',
		agreed_price NUMERIC(12,2) NOT NULL,
		agreed_scope TEXT NOT NULL,
		started_at TIMESTAMPTZ,
		completed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_deal_job_request ON deals (job_request_id);`,
	`CREATE TABLE IF NOT EXISTS messages (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		job_request_id UUID NOT NULL REFERENCES job_requests(id),
		sender_id UUID NOT NULL REFERENCES profiles(id),
		content TEXT NOT NULL,
		message_type VARCHAR(32) NOT NULL DEFAULT 'text',
		read_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_messages_job_request ON messages (job_request_id, created_at);`,
	`CREATE TABLE IF NOT EXISTS reviews (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		deal_id UUID NOT NULL REFERENCES deals(id),
		reviewer_id UUID NOT NULL REFERENCES profiles(id),
		reviewee_id UUID NOT NULL REFERENCES profiles(id),
		rating INT NOT NULL CHECK (rating BETWEEN 1 AND 5),
		rating_communication INT CHECK (rating_communication BETWEEN 1 AND 5),
		rating_quality INT CHECK (rating_quality BETWEEN 1 AND 5),
		rating_reliability INT CHECK (rating_reliability BETWEEN 1 AND 5),
		comment TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_review_per_reviewer ON reviews (deal_id, reviewer_id);`,
	`CREATE TABLE IF NOT EXISTS reports (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		reporter_id UUID NOT NULL REFERENCES profiles(id),
		reported_user_id UUID REFERENCES profiles(id),
		reported_listing_id UUID REFERENCES listings(id),
		reason TEXT NOT NULL,
		description TEXT,
		status VARCHAR(32) NOT NULL DEFAULT 'open',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
