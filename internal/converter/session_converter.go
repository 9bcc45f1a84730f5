package converter

import (
	"patient-appointments-bff/internal/delivery/dto"
	"patient-appointments-bff/internal/domain/entity"
)

// SessionToUserResponse converts a login Session to the UserResponse DTO
func SessionToUserResponse(session *entity.Session) *dto.UserResponse {
	if session == nil {
		return nil
	}

	return &dto.UserResponse{
		ID:            session.UserID,
		BackendUserID: session.BackendUserID,
		Name:          session.DisplayName,
		SessionID:     session.ID,
		LoggedInAt:    session.CreatedAt,
	}
}
