// Package service contains the business logic layer.
//
// Handlers parse HTTP and delegate here; this layer validates, enforces the
// ownership rule, and talks to the repository interfaces. It returns apperror
// values, never HTTP status codes.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/arefin/snippetbin/internal/apperror"
	"github.com/arefin/snippetbin/internal/model"
	"github.com/arefin/snippetbin/internal/repository"
)

// MaxCodeLength bounds snippet bodies at ~100KB.
const MaxCodeLength = 100000

// SnippetService handles snippet business logic.
//
// enforceOwner selects between the two deployment variants: when false, any
// caller (including anonymous) may create, update, and delete, and snippets
// carry no owner; when true, creation requires an authenticated caller and
// mutation requires the owner.
type SnippetService struct {
	repo         repository.SnippetRepository
	enforceOwner bool
	logger       *slog.Logger
}

// NewSnippetService creates a SnippetService.
func NewSnippetService(repo repository.SnippetRepository, enforceOwner bool, logger *slog.Logger) *SnippetService {
	return &SnippetService{
		repo:         repo,
		enforceOwner: enforceOwner,
		logger:       logger,
	}
}

// authorize decides whether callerID may mutate snippet. It is a pure
// function of its inputs: no I/O, evaluated before every mutating operation.
// callerID zero means anonymous.
func (s *SnippetService) authorize(callerID int64, snippet *model.Snippet) error {
	if !s.enforceOwner {
		return nil
	}
	if callerID == 0 {
		return apperror.Forbidden("authentication required")
	}
	if snippet.OwnerID != callerID {
		return apperror.Forbidden("you do not have permission to modify this snippet")
	}
	return nil
}

// List returns every snippet in creation order.
func (s *SnippetService) List(ctx context.Context) ([]model.Snippet, error) {
	snippets, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list snippets", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing snippets: %w", err)
	}
	return snippets, nil
}

// GetByID retrieves a snippet. Returns apperror.ErrNotFound for unknown IDs.
func (s *SnippetService) GetByID(ctx context.Context, id int64) (*model.Snippet, error) {
	return s.repo.GetByID(ctx, id)
}

// Create validates and saves a new snippet owned by callerID. With ownership
// enforcement on, an anonymous caller gets Forbidden and nothing is stored.
func (s *SnippetService) Create(ctx context.Context, code string, callerID int64) (*model.Snippet, error) {
	if s.enforceOwner && callerID == 0 {
		return nil, apperror.Forbidden("authentication required")
	}
	if len(code) > MaxCodeLength {
		return nil, apperror.ValidationFailed("code",
			fmt.Sprintf("code must be %d characters or less", MaxCodeLength))
	}

	snippet := &model.Snippet{Code: code}
	if s.enforceOwner {
		snippet.OwnerID = callerID
	}

	if err := s.repo.Create(ctx, snippet); err != nil {
		s.logger.Error("failed to create snippet", slog.String("error", err.Error()))
		return nil, fmt.Errorf("creating snippet: %w", err)
	}

	s.logger.Info("snippet created",
		slog.Int64("id", snippet.ID),
		slog.Int64("ownerID", snippet.OwnerID),
	)

	return snippet, nil
}

// Update replaces the code of an existing snippet. The snippet is fetched
// first, so an unknown ID yields NotFound for every caller; the ownership
// check runs only against an existing snippet.
func (s *SnippetService) Update(ctx context.Context, id int64, code string, callerID int64) (*model.Snippet, error) {
	snippet, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.authorize(callerID, snippet); err != nil {
		return nil, err
	}

	if len(code) > MaxCodeLength {
		return nil, apperror.ValidationFailed("code",
			fmt.Sprintf("code must be %d characters or less", MaxCodeLength))
	}

	snippet.Code = code
	if err := s.repo.Update(ctx, snippet); err != nil {
		s.logger.Error("failed to update snippet",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating snippet: %w", err)
	}

	s.logger.Info("snippet updated", slog.Int64("id", id))
	return snippet, nil
}

// Delete removes a snippet, subject to the same fetch-then-authorize order as
// Update.
func (s *SnippetService) Delete(ctx context.Context, id int64, callerID int64) error {
	snippet, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.authorize(callerID, snippet); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("snippet deleted", slog.Int64("id", id))
	return nil
}
