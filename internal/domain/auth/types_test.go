package auth

import (
	"testing"

	apperrors "github.com/Dipk2003/itm-portal-gateway/internal/errors"
)

func TestCredentials_Validate(t *testing.T) {
	tests := []struct {
		name  string
		creds Credentials
		field string
	}{
		{name: "valid", creds: Credentials{Identifier: "a@b.com", Password: "pw"}},
		{name: "missing identifier", creds: Credentials{Password: "pw"}, field: "identifier"},
		{name: "blank identifier", creds: Credentials{Identifier: "  ", Password: "pw"}, field: "identifier"},
		{name: "missing password", creds: Credentials{Identifier: "a@b.com"}, field: "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.creds.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !apperrors.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestBuyerRegistration_Validate(t *testing.T) {
	valid := BuyerRegistration{Name: "Asha", Email: "asha@example.com", Password: "pw"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	phoneOnly := BuyerRegistration{Name: "Asha", Phone: "9999900000", Password: "pw"}
	if err := phoneOnly.Validate(); err != nil {
		t.Fatalf("expected phone-only registration to validate, got %v", err)
	}

	tests := []struct {
		name string
		reg  BuyerRegistration
	}{
		{name: "missing name", reg: BuyerRegistration{Email: "a@b.com", Password: "pw"}},
		{name: "missing contact", reg: BuyerRegistration{Name: "Asha", Password: "pw"}},
		{name: "missing password", reg: BuyerRegistration{Name: "Asha", Email: "a@b.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.reg.Validate(); !apperrors.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestBuyerRegistration_Identifier(t *testing.T) {
	reg := BuyerRegistration{Email: "a@b.com", Phone: "9999900000"}
	if got := reg.Identifier(); got != "a@b.com" {
		t.Errorf("expected email to win, got %q", got)
	}

	reg = BuyerRegistration{Phone: "9999900000"}
	if got := reg.Identifier(); got != "9999900000" {
		t.Errorf("expected phone fallback, got %q", got)
	}
}

func TestVendorRegistration_Validate(t *testing.T) {
	valid := VendorRegistration{
		BuyerRegistration: BuyerRegistration{Name: "Vikram", Email: "v@example.com", Password: "pw"},
		BusinessName:      "Vikram Traders",
		BusinessAddress:   "12 Market Road",
		GSTIN:             "22AAAAA0000A1Z5",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	panOnly := valid
	panOnly.GSTIN = ""
	panOnly.PAN = "AAAAA0000A"
	if err := panOnly.Validate(); err != nil {
		t.Fatalf("expected PAN to satisfy tax identifier, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*VendorRegistration)
	}{
		{name: "missing business name", mutate: func(r *VendorRegistration) { r.BusinessName = "" }},
		{name: "missing business address", mutate: func(r *VendorRegistration) { r.BusinessAddress = "" }},
		{name: "missing tax identifier", mutate: func(r *VendorRegistration) { r.GSTIN = ""; r.PAN = "" }},
		{name: "missing buyer fields propagate", mutate: func(r *VendorRegistration) { r.Password = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := valid
			tt.mutate(&reg)
			if err := reg.Validate(); !apperrors.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestTokenPair_Present(t *testing.T) {
	if (TokenPair{}).Present() {
		t.Error("empty pair should not be present")
	}
	if !(TokenPair{Access: "a"}).Present() {
		t.Error("pair with access token should be present")
	}
}

func TestSession_Empty(t *testing.T) {
	if !(Session{}).Empty() {
		t.Error("zero session should be empty")
	}
	if (Session{Stage: StageOTPPending}).Empty() {
		t.Error("session with pending workflow is not empty")
	}
	if authorizedSession(RoleBuyer).Empty() {
		t.Error("authenticated session is not empty")
	}
}
