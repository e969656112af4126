package echoapi

import (
	"github.com/go-playground/validator/v10"

	"github.com/tachera/mlango/core"
)

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}

	ToggleFeatureRequest struct {
		CenterID    string `json:"center_id" validate:"required,uuid4"`
		FeatureName string `json:"feature_name" validate:"required"`
		IsEnabled   *bool  `json:"is_enabled" validate:"required"`
	}

	ToggleFeatureResponse struct {
		Success bool   `json:"success"`
		Error   string `json:"error,omitempty"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Username = core.CleanString(lr.Username, true /* lower */)
	return validate.Struct(lr)
}

func (pr *PasswordResetRequest) Validate(validate *validator.Validate) error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return validate.Struct(pr)
}

func (tr *ToggleFeatureRequest) Validate(validate *validator.Validate) error {
	tr.FeatureName = core.CleanString(tr.FeatureName, true /* lower */)
	return validate.Struct(tr)
}
