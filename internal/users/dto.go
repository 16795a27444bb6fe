package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/craftshoplabs/craftshop-backend/internal/ownership"
	"github.com/craftshoplabs/craftshop-backend/pkg/db/models"
	"github.com/craftshoplabs/craftshop-backend/pkg/enums"
)

// UserDTO is the transport shape of a user record.
type UserDTO struct {
	ID          uuid.UUID        `json:"id"`
	OwnerID     uuid.UUID        `json:"owner_id"`
	FamilyID    *uuid.UUID       `json:"family_id,omitempty"`
	Name        string           `json:"name"`
	Email       string           `json:"email"`
	Phone       string           `json:"phone,omitempty"`
	Role        string           `json:"role"`
	Permissions []string         `json:"permissions"`
	Status      enums.UserStatus `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:          u.ID,
		OwnerID:     u.OwnerID,
		FamilyID:    u.FamilyID,
		Name:        u.Name,
		Email:       u.Email,
		Phone:       u.Phone,
		Role:        u.Role,
		Permissions: append([]string(nil), u.Permissions...),
		Status:      u.Status,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func FromModels(rows []models.User) []*UserDTO {
	out := make([]*UserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out
}

// FanoutFailureDTO is one row the propagation engine could not update.
type FanoutFailureDTO struct {
	Entity string    `json:"entity"`
	RowID  uuid.UUID `json:"row_id"`
	Error  string    `json:"error"`
}

// FanoutReportDTO summarizes an ownership fan-out for API callers.
type FanoutReportDTO struct {
	Succeeded int                `json:"succeeded"`
	Failed    []FanoutFailureDTO `json:"failed,omitempty"`
}

func ReportFromEngine(r *ownership.Report) *FanoutReportDTO {
	if r == nil {
		return nil
	}
	out := &FanoutReportDTO{Succeeded: r.Succeeded}
	for _, f := range r.Failed {
		msg := ""
		if f.Err != nil {
			msg = f.Err.Error()
		}
		out.Failed = append(out.Failed, FanoutFailureDTO{
			Entity: string(f.Entity),
			RowID:  f.RowID,
			Error:  msg,
		})
	}
	return out
}
