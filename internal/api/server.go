package api

import (
	"database/sql"

	"github.com/ederson/cardforge/internal/services"
)

type Server struct {
	DB             *sql.DB
	ProfileService services.ProfileService
	DeckService    services.DeckService
	CardService    services.CardService
	StudyService   services.StudyService
	ExamService    services.ExamService
	ScanService    services.ScanService
}
