// Package models defines the core domain models for pattern-based marketing automation.
package models

import (
	"sort"
	"time"
)

// Pattern represents a named, owned, ordered sequence of steps.
// A pattern exclusively owns its steps and its test results.
type Pattern struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"                      validate:"required,min=1"`
	Description   string     `json:"description,omitempty"`
	Active        bool       `json:"active"`
	Owner         string     `json:"owner"                     validate:"required"`
	Priority      int        `json:"priority"`
	Type          string     `json:"type,omitempty"`
	CampaignID    *string    `json:"campaign_id,omitempty"`
	SystemGroupID *string    `json:"system_group_id,omitempty"`
	Schedule      string     `json:"schedule,omitempty"` // cron expression, empty means never scheduled
	Steps         []*Step    `json:"steps"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
}

// EnabledSteps returns the pattern's enabled steps ordered ascending by sort
// position. Execution order is defined over enabled steps only.
func (p *Pattern) EnabledSteps() []*Step {
	enabled := make([]*Step, 0, len(p.Steps))

	for _, step := range p.Steps {
		if step.Enabled {
			enabled = append(enabled, step)
		}
	}

	sort.SliceStable(enabled, func(i, j int) bool {
		return enabled[i].SortOrder < enabled[j].SortOrder
	})

	return enabled
}

// FindStep returns the step with the given ID, if present.
func (p *Pattern) FindStep(stepID string) (*Step, bool) {
	for _, step := range p.Steps {
		if step.ID == stepID {
			return step, true
		}
	}

	return nil, false
}
