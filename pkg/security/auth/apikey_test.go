package auth

import "testing"

func TestAdminKeyValidator_Validate(t *testing.T) {
	validator := NewAdminKeyValidator([]*AdminKeyInfo{
		{Key: "ck-valid", UserID: "ops", Enabled: true},
		{Key: "ck-disabled", UserID: "former", Enabled: false},
	})

	tests := []struct {
		name    string
		key     string
		wantErr bool
		wantUID string
	}{
		{name: "valid key", key: "ck-valid", wantUID: "ops"},
		{name: "unknown key", key: "ck-unknown", wantErr: true},
		{name: "disabled key", key: "ck-disabled", wantErr: true},
		{name: "empty key", key: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := validator.Validate(tt.key)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if info.UserID != tt.wantUID {
				t.Errorf("expected user id %q, got %q", tt.wantUID, info.UserID)
			}
		})
	}
}

func TestAdminKeyValidator_Replace(t *testing.T) {
	validator := NewAdminKeyValidator([]*AdminKeyInfo{
		{Key: "ck-old", UserID: "old", Enabled: true},
	})

	validator.Replace([]*AdminKeyInfo{
		{Key: "ck-rotated", UserID: "ops", Enabled: true},
	})

	if _, err := validator.Validate("ck-old"); err == nil {
		t.Error("expected old key to be rejected after Replace")
	}
	if _, err := validator.Validate("ck-rotated"); err != nil {
		t.Errorf("expected rotated key to validate, got: %v", err)
	}

	validator.Replace(nil)
	if _, err := validator.Validate("ck-rotated"); err == nil {
		t.Error("expected all keys to be rejected after Replace(nil)")
	}
}
