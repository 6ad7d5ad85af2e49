package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema lists the tables read and written by the repositories, in
// dependency order.  Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS venues (
		id            VARCHAR(64)  NOT NULL PRIMARY KEY,
		name          VARCHAR(255) NOT NULL,
		canvas_width  DOUBLE       NOT NULL,
		canvas_height DOUBLE       NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS stage_points (
		venue_id VARCHAR(64) NOT NULL,
		position INT         NOT NULL,
		x        DOUBLE      NOT NULL,
		y        DOUBLE      NOT NULL,
		PRIMARY KEY (venue_id, position),
		FOREIGN KEY (venue_id) REFERENCES venues(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS sections (
		venue_id         VARCHAR(64)  NOT NULL,
		id               VARCHAR(64)  NOT NULL,
		name             VARCHAR(255) NOT NULL,
		color            VARCHAR(16)  NOT NULL DEFAULT '',
		price_multiplier DOUBLE       NOT NULL DEFAULT 1.0,
		position         INT          NOT NULL,
		PRIMARY KEY (venue_id, id),
		FOREIGN KEY (venue_id) REFERENCES venues(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS section_points (
		venue_id   VARCHAR(64) NOT NULL,
		section_id VARCHAR(64) NOT NULL,
		position   INT         NOT NULL,
		x          DOUBLE      NOT NULL,
		y          DOUBLE      NOT NULL,
		PRIMARY KEY (venue_id, section_id, position),
		FOREIGN KEY (venue_id, section_id) REFERENCES sections(venue_id, id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS seats (
		venue_id   VARCHAR(64) NOT NULL,
		id         VARCHAR(64) NOT NULL,
		section_id VARCHAR(64) NOT NULL,
		row_label  VARCHAR(16) NOT NULL,
		number     INT         NOT NULL,
		x          DOUBLE      NOT NULL,
		y          DOUBLE      NOT NULL,
		status     VARCHAR(16) NOT NULL DEFAULT 'available',
		PRIMARY KEY (venue_id, section_id, id),
		KEY idx_seats_venue (venue_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS seat_holds (
		venue_id   VARCHAR(64)  NOT NULL,
		seat_id    VARCHAR(64)  NOT NULL,
		holder     VARCHAR(64)  NOT NULL,
		hold_token CHAR(64)     NOT NULL,
		expires_at DATETIME(3)  NOT NULL,
		created_at DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (venue_id, seat_id),
		KEY idx_seat_holds_expires (expires_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS addons (
		venue_id         VARCHAR(64)  NOT NULL,
		id               VARCHAR(64)  NOT NULL,
		name             VARCHAR(255) NOT NULL,
		unit_price_pence BIGINT       NOT NULL DEFAULT 0,
		percent_bps      BIGINT       NOT NULL DEFAULT 0,
		stock            INT          NULL,
		position         INT          NOT NULL,
		PRIMARY KEY (venue_id, id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS tickets (
		id               VARCHAR(64) NOT NULL PRIMARY KEY,
		venue_id         VARCHAR(64) NOT NULL,
		seat_id          VARCHAR(64) NOT NULL,
		face_value_pence BIGINT      NOT NULL,
		issued_at        DATETIME    NOT NULL DEFAULT CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS resale_listings (
		id                  VARCHAR(36) NOT NULL PRIMARY KEY,
		ticket_id           VARCHAR(64) NOT NULL,
		face_value_pence    BIGINT      NOT NULL,
		listing_price_pence BIGINT      NOT NULL,
		cap_pence           BIGINT      NOT NULL,
		fee_pence           BIGINT      NOT NULL,
		payout_pence        BIGINT      NOT NULL,
		created_at          DATETIME    NOT NULL,
		UNIQUE KEY uq_resale_ticket (ticket_id),
		FOREIGN KEY (ticket_id) REFERENCES tickets(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates any missing tables.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
