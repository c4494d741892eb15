package flight

import (
	"errors"
	"fmt"
	"math"
)

// Params tunes one approach. Distances are world units, speeds units/s, angles radians.
type Params struct {
	ArrivalDistance    float64 `yaml:"arrival_distance"`
	ArrivalSpeed       float64 `yaml:"arrival_speed"`
	CloseApproachSpeed float64 `yaml:"close_approach_speed"`
	VelocityTolerance  float64 `yaml:"velocity_tolerance"`
	ThrustAngleLimit   float64 `yaml:"thrust_angle_limit"`
	MaxTimeToIntercept float64 `yaml:"max_time_to_intercept"`
}

func DefaultParams() Params {
	return Params{
		ArrivalDistance:    20,
		ArrivalSpeed:       10,
		CloseApproachSpeed: 40,
		VelocityTolerance:  2,
		ThrustAngleLimit:   math.Pi / 12,
		MaxTimeToIntercept: 2,
	}
}

func (p Params) Validate() error {
	var errs []error
	if p.ArrivalDistance < 0 {
		errs = append(errs, fmt.Errorf("arrival_distance must be >= 0, got %v", p.ArrivalDistance))
	}
	if p.ArrivalSpeed <= 0 {
		errs = append(errs, fmt.Errorf("arrival_speed must be > 0, got %v", p.ArrivalSpeed))
	}
	if p.CloseApproachSpeed < p.ArrivalSpeed {
		errs = append(errs, fmt.Errorf("close_approach_speed %v is below arrival_speed %v", p.CloseApproachSpeed, p.ArrivalSpeed))
	}
	if p.VelocityTolerance <= 0 {
		errs = append(errs, fmt.Errorf("velocity_tolerance must be > 0, got %v", p.VelocityTolerance))
	}
	if p.ThrustAngleLimit <= 0 || p.ThrustAngleLimit > math.Pi {
		errs = append(errs, fmt.Errorf("thrust_angle_limit must be in (0, π], got %v", p.ThrustAngleLimit))
	}
	if p.MaxTimeToIntercept < 0 {
		errs = append(errs, fmt.Errorf("max_time_to_intercept must be >= 0, got %v", p.MaxTimeToIntercept))
	}
	return errors.Join(errs...)
}

// FollowParams tunes the escort follow controller.
type FollowParams struct {
	FollowRadius       float64 `yaml:"follow_radius"`
	MaxTimeToIntercept float64 `yaml:"max_time_to_intercept"`
	VelocityTolerance  float64 `yaml:"velocity_tolerance"`
	ThrustAngleLimit   float64 `yaml:"thrust_angle_limit"`
}

func DefaultFollowParams() FollowParams {
	return FollowParams{
		FollowRadius:       60,
		MaxTimeToIntercept: 2,
		VelocityTolerance:  2,
		ThrustAngleLimit:   math.Pi / 12,
	}
}

func (p FollowParams) Validate() error {
	var errs []error
	if p.FollowRadius <= 0 {
		errs = append(errs, fmt.Errorf("follow_radius must be > 0, got %v", p.FollowRadius))
	}
	if p.VelocityTolerance <= 0 {
		errs = append(errs, fmt.Errorf("velocity_tolerance must be > 0, got %v", p.VelocityTolerance))
	}
	if p.ThrustAngleLimit <= 0 || p.ThrustAngleLimit > math.Pi {
		errs = append(errs, fmt.Errorf("thrust_angle_limit must be in (0, π], got %v", p.ThrustAngleLimit))
	}
	if p.MaxTimeToIntercept < 0 {
		errs = append(errs, fmt.Errorf("max_time_to_intercept must be >= 0, got %v", p.MaxTimeToIntercept))
	}
	return errors.Join(errs...)
}
