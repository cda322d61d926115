package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mailbridge/mailbridge/internal/db"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create database tables",
	Long:  "Creates the users and emails tables and their indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		if err := db.Init(ctx); err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()

		fmt.Println("Running migrations...")
		migrationSQL := `
			-- Credential store: one row per local user, current OAuth token pair
			CREATE TABLE IF NOT EXISTS users (
			    id BIGSERIAL PRIMARY KEY,
			    email VARCHAR(255) NOT NULL UNIQUE,
			    name VARCHAR(255) NOT NULL DEFAULT '',
			    google_id VARCHAR(255) NOT NULL DEFAULT '',
			    access_token TEXT NOT NULL DEFAULT '',
			    refresh_token TEXT NOT NULL DEFAULT '',
			    is_active BOOLEAN NOT NULL DEFAULT TRUE,
			    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
			);

			CREATE UNIQUE INDEX IF NOT EXISTS idx_users_google_id
			    ON users(google_id) WHERE google_id <> '';

			-- Local mirror of remote message metadata.
			-- message_id is unique across the whole store: a re-sync never
			-- duplicates a row, and concurrent syncs fail closed on conflict.
			CREATE TABLE IF NOT EXISTS emails (
			    id BIGSERIAL PRIMARY KEY,
			    message_id VARCHAR(255) NOT NULL UNIQUE,
			    user_id BIGINT NOT NULL REFERENCES users(id),
			    thread_id VARCHAR(255) NOT NULL DEFAULT '',
			    subject TEXT NOT NULL DEFAULT '',
			    sender TEXT NOT NULL DEFAULT '',
			    recipient TEXT NOT NULL DEFAULT '',
			    body_text TEXT NOT NULL DEFAULT '',
			    body_html TEXT NOT NULL DEFAULT '',
			    is_read BOOLEAN NOT NULL DEFAULT FALSE,
			    is_starred BOOLEAN NOT NULL DEFAULT FALSE,
			    is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
			    labels TEXT[] NOT NULL DEFAULT '{}',
			    received_at TIMESTAMP WITH TIME ZONE NOT NULL,
			    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
			);

			CREATE INDEX IF NOT EXISTS idx_emails_user_id ON emails(user_id);
			CREATE INDEX IF NOT EXISTS idx_emails_received_at ON emails(received_at DESC);
		`

		if _, err := db.Pool.Exec(ctx, migrationSQL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		fmt.Println("✓ Database setup complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
