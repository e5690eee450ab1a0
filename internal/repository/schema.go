package repository

// Schema returns idempotent DDL for every table the stores touch. The
// daily_positions, price_history and seasonal_anchors tables are loaded out
// of band; they are still created here so a fresh install boots cleanly.
func Schema() []string {
	return []string{
		`CREATE DATABASE IF NOT EXISTS astropull`,
		`CREATE TABLE IF NOT EXISTS astropull.daily_positions (
            date Date,
            body LowCardinality(String),
            longitude Float64,
            speed Float64
        ) ENGINE = ReplacingMergeTree ORDER BY (date, body)`,
		`CREATE TABLE IF NOT EXISTS astropull.price_history (
            category LowCardinality(String),
            symbol LowCardinality(String),
            date Date,
            close Float64,
            high Nullable(Float64),
            low Nullable(Float64)
        ) ENGINE = ReplacingMergeTree ORDER BY (category, symbol, date)`,
		`CREATE TABLE IF NOT EXISTS astropull.seasonal_anchors (
            date Date,
            type LowCardinality(String),
            sign LowCardinality(String)
        ) ENGINE = ReplacingMergeTree ORDER BY date`,
		`CREATE TABLE IF NOT EXISTS astropull.astro_aspects (
            date Date,
            body1 LowCardinality(String),
            body2 LowCardinality(String),
            type LowCardinality(String),
            nature LowCardinality(String),
            orb Float64,
            exact UInt8,
            body1_sign LowCardinality(String),
            body2_sign LowCardinality(String),
            tier LowCardinality(String),
            influence_weight Float64
        ) ENGINE = MergeTree ORDER BY (date, body1, body2)`,
		`CREATE TABLE IF NOT EXISTS astropull.astro_ingresses (
            date Date,
            body LowCardinality(String),
            sign LowCardinality(String),
            from_sign LowCardinality(String),
            ruler LowCardinality(String),
            element LowCardinality(String)
        ) ENGINE = MergeTree ORDER BY (date, body)`,
		`CREATE TABLE IF NOT EXISTS astropull.astro_retrogrades (
            date Date,
            body LowCardinality(String),
            status LowCardinality(String),
            sign LowCardinality(String),
            stationary UInt8,
            tier LowCardinality(String),
            bonus_eligible UInt8,
            influence_weight Float64
        ) ENGINE = MergeTree ORDER BY (date, body)`,
		`CREATE TABLE IF NOT EXISTS astropull.astro_lunar_phases (
            date Date,
            phase LowCardinality(String),
            illumination Float64,
            sign LowCardinality(String),
            ruler LowCardinality(String)
        ) ENGINE = MergeTree ORDER BY date`,
		`CREATE TABLE IF NOT EXISTS astropull.astro_nodal_phases (
            date Date,
            cycle_position Float64,
            node_longitude Float64,
            phase LowCardinality(String),
            description String,
            orb Float64,
            bonus_eligible UInt8,
            cycle_days_elapsed Int32
        ) ENGINE = MergeTree ORDER BY date`,
		`CREATE TABLE IF NOT EXISTS astropull.confidence_scores (
            run_date Date,
            symbol LowCardinality(String),
            category LowCardinality(String),
            sector LowCardinality(String),
            date Date,
            total_score Float64,
            base_score Float64,
            rating LowCardinality(String),
            ingress_period Float64,
            planetary_aspects Float64,
            lunar_phase Float64,
            cycle_bonus Float64,
            is_featured UInt8
        ) ENGINE = MergeTree ORDER BY (run_date, category, symbol)`,
	}
}
