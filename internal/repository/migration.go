package repository

import (
	"fmt"

	"hangoutz/internal/domain/conversation"
	"hangoutz/internal/domain/event"
	"hangoutz/internal/domain/message"
	"hangoutz/internal/domain/user"

	"gorm.io/gorm"
)

// Models lists every table owned by the service, parents first.
func Models() []interface{} {
	return []interface{}{
		&user.User{},
		&event.Event{},
		&event.Participant{},
		&conversation.Conversation{},
		&conversation.Participant{},
		&message.Message{},
		&message.Receipt{},
	}
}

// InitSchema runs gorm auto-migration and then adds the check constraints and
// foreign keys gorm cannot express from struct tags.
func InitSchema(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto-migration failed: %w", err)
	}

	// We use 'DO $$ BEGIN ... END $$' blocks so re-running is safe.
	constraints := []string{
		`DO $$ BEGIN
			ALTER TABLE events ADD CONSTRAINT chk_events_coordinates
				CHECK (latitude BETWEEN -90 AND 90 AND longitude BETWEEN -180 AND 180);
		EXCEPTION
			WHEN duplicate_object THEN null;
		END $$;`,
		`DO $$ BEGIN
			ALTER TABLE events ADD CONSTRAINT chk_events_status
				CHECK (status IN ('upcoming', 'ongoing', 'completed', 'cancelled'));
		EXCEPTION
			WHEN duplicate_object THEN null;
		END $$;`,
		`DO $$ BEGIN
			ALTER TABLE events ADD CONSTRAINT chk_events_title
				CHECK (char_length(title) BETWEEN 3 AND 200);
		EXCEPTION
			WHEN duplicate_object THEN null;
		END $$;`,
		`DO $$ BEGIN
			ALTER TABLE users ADD CONSTRAINT chk_users_trust_score
				CHECK (trust_score BETWEEN 0 AND 100);
		EXCEPTION
			WHEN duplicate_object THEN null;
		END $$;`,
		`DO $$ BEGIN
			ALTER TABLE conversations ADD CONSTRAINT chk_conversations_type
				CHECK (type IN ('direct', 'group'));
		EXCEPTION
			WHEN duplicate_object THEN null;
		END $$;`,
		`DO $$ BEGIN
			ALTER TABLE messages ADD CONSTRAINT chk_messages_type
				CHECK (type IN ('text', 'image', 'system'));
		EXCEPTION
			WHEN duplicate_object THEN null;
		END $$;`,
		`DO $$ BEGIN
			ALTER TABLE messages ADD CONSTRAINT chk_messages_body
				CHECK (char_length(body) BETWEEN 1 AND 5000);
		EXCEPTION
			WHEN duplicate_object THEN null;
		END $$;`,
		`DO $$ BEGIN
			ALTER TABLE messages ADD CONSTRAINT fk_messages_conversation
				FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE;
		EXCEPTION
			WHEN duplicate_object THEN null;
		END $$;`,
	}

	for _, stmt := range constraints {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to apply constraint: %w", err)
		}
	}

	return nil
}
