package postgresql

// migrations returns the ordered schema migrations for the PostgreSQL
// persistence layer.
func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Campaigns group related patterns under a single initiative.
			CREATE TABLE IF NOT EXISTS campaigns (
				id UUID PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				status VARCHAR(50) NOT NULL DEFAULT 'draft',
				owner VARCHAR(255) NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_campaigns_owner ON campaigns(owner);
			CREATE INDEX IF NOT EXISTS idx_campaigns_status ON campaigns(status);
		`,
		2: `
			-- Patterns are ordered automation recipes owned by a user.
			CREATE TABLE IF NOT EXISTS patterns (
				id UUID PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				active BOOLEAN NOT NULL DEFAULT FALSE,
				owner VARCHAR(255) NOT NULL,
				priority INTEGER NOT NULL DEFAULT 0,
				type VARCHAR(100) NOT NULL DEFAULT '',
				campaign_id UUID REFERENCES campaigns(id) ON DELETE SET NULL,
				system_group_id UUID,
				schedule VARCHAR(255) NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX IF NOT EXISTS idx_patterns_owner ON patterns(owner);
			CREATE INDEX IF NOT EXISTS idx_patterns_campaign_id ON patterns(campaign_id);
			CREATE INDEX IF NOT EXISTS idx_patterns_active ON patterns(active) WHERE deleted_at IS NULL;
		`,
		3: `
			-- Steps carry a typed action and a free-form JSON configuration.
			-- Sort order is unique per pattern so execution order is total.
			CREATE TABLE IF NOT EXISTS pattern_steps (
				id UUID PRIMARY KEY,
				pattern_id UUID NOT NULL REFERENCES patterns(id) ON DELETE CASCADE,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				action VARCHAR(50) NOT NULL,
				configuration JSONB NOT NULL DEFAULT '{}',
				sort_order INTEGER NOT NULL,
				enabled BOOLEAN NOT NULL DEFAULT TRUE,
				UNIQUE (pattern_id, sort_order)
			);

			CREATE INDEX IF NOT EXISTS idx_pattern_steps_pattern_id ON pattern_steps(pattern_id);
		`,
		4: `
			-- Test results are append-only run records for a pattern.
			CREATE TABLE IF NOT EXISTS test_results (
				id UUID PRIMARY KEY,
				pattern_id UUID NOT NULL REFERENCES patterns(id) ON DELETE CASCADE,
				status VARCHAR(50) NOT NULL,
				input JSONB NOT NULL DEFAULT '{}',
				output JSONB,
				error TEXT NOT NULL DEFAULT '',
				duration_ms BIGINT NOT NULL DEFAULT 0,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_test_results_pattern_id ON test_results(pattern_id, created_at DESC);
		`,
	}
}
