package database

import "arche/internal/models"

// PersistentModels lists every model owned by the schema, in dependency order.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.Profile{},
		&models.Identity{},
		&models.Savoir{},
		&models.Vote{},
		&models.Comment{},
		&models.Reaction{},
		&models.Favorite{},
		&models.Follow{},
		&models.Activity{},
	}
}
