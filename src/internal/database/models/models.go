package models

// GetAllModels returns all model types for migration
func GetAllModels() []interface{} {
	return []interface{}{
		// User models
		&User{},
		&Session{},
		&PasswordResetCode{},

		// Content models
		&Content{},
		&Reference{},
		&ContentTag{},

		// Label models
		&Tag{},
		&Category{},

		// Request models
		&TagRequest{},
		&CategoryRequest{},

		// Social models
		&Comment{},
		&Vote{},
		&Bookmark{},
		&ReadLater{},
		&Notification{},
	}
}
