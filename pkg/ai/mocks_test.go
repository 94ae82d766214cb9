package ai

import (
	"context"
	"strings"

	"github.com/stretchr/testify/mock"
)

type mockText struct {
	mock.Mock
}

func (m *mockText) Name() string { return "mock-text" }

func (m *mockText) Generate(ctx context.Context, req TextRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type mockVision struct {
	mock.Mock
}

func (m *mockVision) Name() string { return "mock-vision" }

func (m *mockVision) Describe(ctx context.Context, req VisionRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func promptContains(s string) any {
	return mock.MatchedBy(func(req TextRequest) bool {
		return strings.Contains(req.Prompt, s)
	})
}

func contains(haystack, needle string) bool {
	return strings.Contains(haystack, needle)
}
