package service

import (
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/hr-rewards-api/internal/models"
)

func registerRewardValidators(validate *validator.Validate) {
	_ = validate.RegisterValidation("reward_category", func(fl validator.FieldLevel) bool {
		return models.RewardCategory(fl.Field().String()).Valid()
	})
	_ = validate.RegisterValidation("calculation_method", func(fl validator.FieldLevel) bool {
		return models.CalculationMethod(fl.Field().String()).Valid()
	})
	_ = validate.RegisterValidation("trigger_type", func(fl validator.FieldLevel) bool {
		return models.TriggerType(fl.Field().String()).Valid()
	})
	_ = validate.RegisterValidation("reward_frequency", func(fl validator.FieldLevel) bool {
		return models.RewardFrequency(fl.Field().String()).Valid()
	})
	_ = validate.RegisterValidation("reward_status", func(fl validator.FieldLevel) bool {
		return models.RewardStatus(fl.Field().String()).Valid()
	})
}
