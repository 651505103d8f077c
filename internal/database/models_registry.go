package database

import "kaizen/internal/models"

// PersistentModels returns the schema-managed GORM models in dependency
// order: referenced tables come before the tables pointing at them.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Category{},
		&models.Post{},
		&models.Image{},
		&models.Survey{},
		&models.Comment{},
		&models.Like{},
		&models.Notification{},
		&models.BlacklistedToken{},
	}
}
