package service

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hellenika/hellenika/internal/apiclient"
	"github.com/hellenika/hellenika/internal/model"
)

// AdminService reads the admin dashboard endpoints.
type AdminService struct {
	api API
}

// NewAdminService returns a service sending requests through api.
func NewAdminService(api API) *AdminService { return &AdminService{api: api} }

// Stats returns the dashboard counters.
func (s *AdminService) Stats(ctx context.Context) (*model.DashboardStats, error) {
	var st model.DashboardStats
	if err := s.api.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: "/admin/stats"}, &st); err != nil {
		return nil, fmt.Errorf("admin stats: %w", err)
	}
	return &st, nil
}

// RecentUsers returns the most recently registered users.
func (s *AdminService) RecentUsers(ctx context.Context) ([]model.RecentUser, error) {
	var out []model.RecentUser
	if err := s.api.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: "/admin/users"}, &out); err != nil {
		return nil, fmt.Errorf("admin users: %w", err)
	}
	return out, nil
}

// RecentContent returns the most recently submitted words.
func (s *AdminService) RecentContent(ctx context.Context) ([]model.RecentContent, error) {
	var out []model.RecentContent
	if err := s.api.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: "/admin/content"}, &out); err != nil {
		return nil, fmt.Errorf("admin content: %w", err)
	}
	return out, nil
}
