// Package mocks provides mock implementations for testing the gateway's auth ports.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the
// port interfaces. The mocks are generated using go:generate directives and provide
// a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	mockGateway := mocks.NewMockBackendGateway(ctrl)
//	mockGateway.EXPECT().Login(gomock.Any(), gomock.Any()).Return(outcome, nil)
package mocks

// Generate mock for the marketplace backend gateway:
// RegisterBuyer, RegisterVendor, Login, VerifyOTP, VerifyToken, Logout
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=backend_gateway_mock.go github.com/Dipk2003/itm-portal-gateway/internal/ports BackendGateway

// Generate mock for role-partitioned token storage:
// Write, Read, Clear, ClearAll, SaveProfile, Profile
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=token_store_mock.go github.com/Dipk2003/itm-portal-gateway/internal/ports TokenStore

// Generate mock for the context-scoped token vault:
// ForContext
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=token_vault_mock.go github.com/Dipk2003/itm-portal-gateway/internal/ports TokenVault

// Generate mock for the verified-session cache:
// Save, Get, Delete
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=session_cache_mock.go github.com/Dipk2003/itm-portal-gateway/internal/ports SessionCache

// Generate mock for the staff SSO provider:
// Begin, Exchange
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=staff_provider_mock.go github.com/Dipk2003/itm-portal-gateway/internal/ports StaffProvider

// Generate mock for the audit recorder:
// Record
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=audit_recorder_mock.go github.com/Dipk2003/itm-portal-gateway/internal/ports AuditRecorder
