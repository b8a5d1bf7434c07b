package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("写入配置文件失败: %v", err)
	}
	return path
}

func TestLoad_DefaultsAndFile(t *testing.T) {
	path := writeConfigFile(t, `
auth:
  jwt_secret: "test-secret-key-for-unit-testing"
server:
  base_path: "Freya-App/"
db:
  driver: sqlite
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load 失败: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("期望默认端口 8080，实际=%d", cfg.Server.Port)
	}
	if cfg.Server.BasePath != "/Freya-App" {
		t.Errorf("期望 BasePath=/Freya-App，实际=%q", cfg.Server.BasePath)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("期望 Driver=sqlite，实际=%s", cfg.Database.Driver)
	}
	if cfg.Auth.NoteEditTTL.Minutes() != 30 {
		t.Errorf("期望 NoteEditTTL=30m，实际=%v", cfg.Auth.NoteEditTTL)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
auth:
  jwt_secret: "test-secret-key-for-unit-testing"
`)
	t.Setenv("FREYA_SERVER_PORT", "9090")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load 失败: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("期望环境变量覆盖端口为 9090，实际=%d", cfg.Server.Port)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "合法配置",
			cfg: Config{
				Server:   ServerConfig{Port: 8080},
				Database: DatabaseConfig{Driver: "postgres"},
				Auth:     AuthConfig{JWTSecret: "0123456789abcdef"},
			},
		},
		{
			name: "密钥为空",
			cfg: Config{
				Server:   ServerConfig{Port: 8080},
				Database: DatabaseConfig{Driver: "postgres"},
			},
			wantErr: true,
		},
		{
			name: "密钥过短",
			cfg: Config{
				Server:   ServerConfig{Port: 8080},
				Database: DatabaseConfig{Driver: "postgres"},
				Auth:     AuthConfig{JWTSecret: "short"},
			},
			wantErr: true,
		},
		{
			name: "端口越界",
			cfg: Config{
				Server:   ServerConfig{Port: 70000},
				Database: DatabaseConfig{Driver: "postgres"},
				Auth:     AuthConfig{JWTSecret: "0123456789abcdef"},
			},
			wantErr: true,
		},
		{
			name: "不支持的数据库驱动",
			cfg: Config{
				Server:   ServerConfig{Port: 8080},
				Database: DatabaseConfig{Driver: "mysql"},
				Auth:     AuthConfig{JWTSecret: "0123456789abcdef"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err=%v, wantErr=%v", err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeBasePath(t *testing.T) {
	cases := map[string]string{
		"":             "",
		"/":            "",
		"Freya-App":    "/Freya-App",
		"/Freya-App/":  "/Freya-App",
		" /Freya-App ": "/Freya-App",
	}
	for in, want := range cases {
		if got := normalizeBasePath(in); got != want {
			t.Errorf("normalizeBasePath(%q)=%q，期望 %q", in, got, want)
		}
	}
}
