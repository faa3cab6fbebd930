package database

import "github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Question{},
		&models.MatchRequest{},
		&models.MatchResponse{},
		&models.Match{},
	}
}
