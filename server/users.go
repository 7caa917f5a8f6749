package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hvila/tablero/internal/logger"
	"github.com/hvila/tablero/internal/model"
)

// handleListUsers returns all accounts. Clients filter assignable
// advisors (active + advisor role) themselves; inactive users are still
// needed to resolve names on old items and bitácora rows.
func (s *Server) handleListUsers(c echo.Context) error {
	rows, err := s.db.Query(`
		SELECT id, name, email, role, active, avatar_url, created_at
		FROM users
		ORDER BY name ASC`)
	if err != nil {
		logger.Error("db error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.Active, &u.AvatarURL, &u.CreatedAt); err != nil {
			logger.Error("scan error", logger.F("error", err))
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
		}
		users = append(users, u)
	}

	return c.JSON(http.StatusOK, users)
}
