package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"fleetview/internal/model"
)

// PrefsService persists per-operator display preferences.
type PrefsService struct {
	db *gorm.DB
}

// NewPrefsService creates a preferences service.
func NewPrefsService(db *gorm.DB) *PrefsService {
	return &PrefsService{db: db}
}

// Get returns the operator's preferences, creating the default row on first
// access.
func (s *PrefsService) Get(ctx context.Context, operator string) (*model.DisplayPreferences, error) {
	var prefs model.DisplayPreferences
	if err := s.db.WithContext(ctx).Where("operator = ?", operator).First(&prefs).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			prefs = model.DisplayPreferences{
				Operator:      operator,
				SpeedUnit:     model.UnitKn,
				DirectionMode: model.DirectionSelected,
			}
			if err := s.db.WithContext(ctx).Create(&prefs).Error; err != nil {
				return nil, err
			}
			return &prefs, nil
		}
		return nil, err
	}
	return &prefs, nil
}

// Update validates and stores new preference values for the operator.
func (s *PrefsService) Update(ctx context.Context, operator, speedUnit, directionMode string) (*model.DisplayPreferences, error) {
	if !model.ValidSpeedUnit(speedUnit) {
		return nil, fmt.Errorf("invalid speed unit %q", speedUnit)
	}
	if !model.ValidDirectionMode(directionMode) {
		return nil, fmt.Errorf("invalid direction mode %q", directionMode)
	}

	prefs, err := s.Get(ctx, operator)
	if err != nil {
		return nil, err
	}
	prefs.SpeedUnit = speedUnit
	prefs.DirectionMode = directionMode
	if err := s.db.WithContext(ctx).Save(prefs).Error; err != nil {
		return nil, err
	}
	return prefs, nil
}
