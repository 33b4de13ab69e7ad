package database

import (
	"testing"

	"inkwell/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestSchemaPolicy(t *testing.T) {
	tests := []struct {
		name        string
		mode        string
		env         string
		destructive bool
		wantSQL     bool
		wantAuto    bool
		wantErr     bool
	}{
		{"hybrid dev", "", "development", false, true, true, false},
		{"hybrid prod", "hybrid", "production", false, true, false, false},
		{"sql", "sql", "development", false, true, false, false},
		{"auto dev", "auto", "development", false, false, true, false},
		{"auto prod refused", "auto", "production", false, false, false, true},
		{"auto prod allowed", "auto", "staging", true, false, true, false},
		{"unknown", "magic", "development", false, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{DBSchemaMode: tt.mode, Env: tt.env, DBAutoMigrateAllowDestructive: tt.destructive}
			runSQL, runAuto, err := schemaPolicy(cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantSQL, runSQL)
			assert.Equal(t, tt.wantAuto, runAuto)
		})
	}
}
