package audit

import (
	"context"
	"errors"
	"strings"
)

// Repository lists audit entries newest first.
type Repository interface {
	ListEntries(ctx context.Context, q Query) ([]Entry, error)
}

// Service pages through the audit trail.
type Service struct {
	repo Repository
}

// NewService builds a timeline service over repo.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Timeline returns one page of entries matching filters.
func (s *Service) Timeline(ctx context.Context, filters Filters) (Result, error) {
	if s == nil || s.repo == nil {
		return Result{}, errors.New("audit: repository not configured")
	}
	size := filters.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	q := query(filters)
	q.Offset = (page - 1) * size
	q.Limit = size + 1
	entries, err := s.repo.ListEntries(ctx, q)
	if err != nil {
		return Result{}, err
	}
	paging := Paging{Page: page, PageSize: size, HasNext: len(entries) > size}
	if paging.HasNext {
		entries = entries[:size]
		paging.NextPage = page + 1
	}
	if page > 1 {
		paging.PrevPage = page - 1
	}
	return Result{Entries: entries, Paging: paging}, nil
}

// Export returns every entry matching filters, ignoring paging.
func (s *Service) Export(ctx context.Context, filters Filters) ([]Entry, error) {
	if s == nil || s.repo == nil {
		return nil, errors.New("audit: repository not configured")
	}
	return s.repo.ListEntries(ctx, query(filters))
}

func query(f Filters) Query {
	return Query{
		From:   f.From,
		To:     f.To,
		Entity: strings.TrimSpace(f.Entity),
		Action: strings.TrimSpace(f.Action),
	}
}
