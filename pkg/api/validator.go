package api

import (
	"errors"
	"fmt"
	"math"
)

// Validator - интерфейс, который могут реализовать DTO
type Validator interface {
	Validate() error
}

func (p InterestPayload) Validate() error {
	for _, v := range []float64{p.X, p.Y, p.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New("viewpoint must be finite")
		}
	}
	return nil
}

func (p ActorPayload) Validate() error {
	if p.ActorType == "" {
		return errors.New("actorType is required")
	}
	return validateParams(p.Props)
}

func (p ActorRefPayload) Validate() error {
	if p.ActorID == "" {
		return errors.New("actorId is required")
	}
	return nil
}

func (p MessagePayload) Validate() error {
	if p.Type == "" {
		return errors.New("type is required")
	}
	return validateParams(p.Params)
}

func validateParams(params []ParamView) error {
	seen := make(map[string]bool, len(params))
	for _, p := range params {
		if p.Name == "" {
			return errors.New("parameter name is required")
		}
		if p.Type == "" {
			return fmt.Errorf("parameter %q: type is required", p.Name)
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate parameter %q", p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}
