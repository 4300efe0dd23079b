package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/repository"
	"github.com/google/uuid"
)

type planService struct {
	phases     repository.PhaseRepo
	milestones repository.MilestoneRepo
}

func NewPlanService(phases repository.PhaseRepo, milestones repository.MilestoneRepo) PlanService {
	return &planService{phases: phases, milestones: milestones}
}

func (s *planService) AddPhase(ctx context.Context, ph *domain.Phase) error {
	if strings.TrimSpace(ph.Title) == "" {
		return errors.New("phase title is required")
	}
	if ph.ID == "" {
		ph.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	ph.CreatedAt = now
	ph.UpdatedAt = now
	return s.phases.Create(ctx, ph)
}

// AddMilestone rejects a phase that belongs to another project.
func (s *planService) AddMilestone(ctx context.Context, m *domain.Milestone) error {
	if strings.TrimSpace(m.Title) == "" {
		return errors.New("milestone title is required")
	}
	if m.PhaseID != nil {
		ph, err := s.phases.GetByID(ctx, *m.PhaseID)
		if err != nil {
			return fmt.Errorf("looking up phase: %w", err)
		}
		if ph.ProjectID != m.ProjectID {
			return fmt.Errorf("phase %s belongs to another project", ph.ID)
		}
	}
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now
	return s.milestones.Create(ctx, m)
}

func (s *planService) ListPhases(ctx context.Context, projectID string) ([]*domain.Phase, error) {
	return s.phases.ListByProject(ctx, projectID)
}

func (s *planService) ListMilestones(ctx context.Context, projectID string) ([]*domain.Milestone, error) {
	return s.milestones.ListByProject(ctx, projectID)
}
