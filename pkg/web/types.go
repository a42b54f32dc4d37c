// Package web provides HTTP request and response types for the caravel API.
package web

import "encoding/json"

// CreateCampaignRequest represents the request body for creating a campaign.
type CreateCampaignRequest struct {
	Name        string `json:"name"        validate:"required,min=1"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty" validate:"omitempty,oneof=draft active paused archived"`
}

// UpdateCampaignRequest represents the request body for updating a campaign.
// All fields are optional to support partial updates.
type UpdateCampaignRequest struct {
	Name        *string `json:"name,omitempty"   validate:"omitempty,min=1"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty" validate:"omitempty,oneof=draft active paused archived"`
}

// CreatePatternRequest represents the request body for creating a pattern.
// Ownership comes from the authenticated principal, not the body.
type CreatePatternRequest struct {
	Name          string  `json:"name"        validate:"required,min=1"`
	Description   string  `json:"description,omitempty"`
	Active        bool    `json:"active"`
	Priority      int     `json:"priority"`
	Type          string  `json:"type,omitempty"`
	CampaignID    *string `json:"campaign_id,omitempty"`
	SystemGroupID *string `json:"system_group_id,omitempty"`
	Schedule      string  `json:"schedule,omitempty"`
}

// UpdatePatternRequest represents the request body for updating a pattern.
// All fields are optional to support partial updates.
type UpdatePatternRequest struct {
	Name          *string `json:"name,omitempty" validate:"omitempty,min=1"`
	Description   *string `json:"description,omitempty"`
	Active        *bool   `json:"active,omitempty"`
	Priority      *int    `json:"priority,omitempty"`
	Type          *string `json:"type,omitempty"`
	CampaignID    *string `json:"campaign_id,omitempty"`
	SystemGroupID *string `json:"system_group_id,omitempty"`
	Schedule      *string `json:"schedule,omitempty"`
}

// CreateStepRequest represents the request body for adding a step to a
// pattern. Enabled defaults to true when omitted.
type CreateStepRequest struct {
	Name          string          `json:"name"   validate:"required,min=1"`
	Description   string          `json:"description,omitempty"`
	Action        string          `json:"action" validate:"required"`
	Configuration json.RawMessage `json:"configuration,omitempty"`
	SortOrder     int             `json:"sort_order"`
	Enabled       *bool           `json:"enabled,omitempty"`
}

// UpdateStepRequest represents the request body for updating a step.
type UpdateStepRequest struct {
	Name          *string         `json:"name,omitempty" validate:"omitempty,min=1"`
	Description   *string         `json:"description,omitempty"`
	Action        *string         `json:"action,omitempty" validate:"omitempty,min=1"`
	Configuration json.RawMessage `json:"configuration,omitempty"`
	SortOrder     *int            `json:"sort_order,omitempty"`
	Enabled       *bool           `json:"enabled,omitempty"`
}

// ReorderStepsRequest carries the full ordered list of a pattern's step ids.
type ReorderStepsRequest struct {
	StepIDs []string `json:"step_ids" validate:"required,min=1,dive,required"`
}

// RunTestRequest represents the request body for running a pattern test.
// The input object is optional and defaults to empty.
type RunTestRequest struct {
	Input map[string]any `json:"input,omitempty"`
}
