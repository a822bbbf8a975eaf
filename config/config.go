package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
// FTP connection parameters are fixed at process start and shared by
// every gateway request; they are never re-specified per request.
type Config struct {
	FTPHost     string
	FTPPort     int
	FTPUser     string
	FTPPassword string

	HTTPPort int

	// 日志配置
	LogLevel  string
	LogOutput string // 日志文件路径，为空时仅输出到控制台
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or
// defaults, then applies the command-line arguments on top. The first
// argument is the connection target in user:password@host:port form, the
// optional second one is the HTTP listen port.
func Load(args []string) (*Config, error) {
	// Attempt to load .env file. godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on existing environment variables and defaults.")
	}

	cfg := &Config{
		FTPHost:     getEnv("FTP_HOST", ""),
		FTPPort:     getEnvInt("FTP_PORT", 21),
		FTPUser:     getEnv("FTP_USER", ""),
		FTPPassword: os.Getenv("FTP_PASSWORD"), // 密码不提供默认值
		HTTPPort:    getEnvInt("HTTP_PORT", 3000),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogOutput:   getEnv("LOG_OUTPUT", ""),
	}

	if len(args) > 0 {
		if err := cfg.applyTarget(args[0]); err != nil {
			return nil, err
		}
	}
	if len(args) > 1 {
		port, err := strconv.Atoi(args[1])
		if err != nil {
			return nil, fmt.Errorf("invalid http port %q", args[1])
		}
		cfg.HTTPPort = port
	}

	if cfg.FTPHost == "" || cfg.FTPUser == "" || cfg.FTPPassword == "" {
		return nil, fmt.Errorf("missing FTP connection information")
	}
	return cfg, nil
}

// applyTarget 解析 user:password@host:port 形式的连接目标。
// 端口缺省时使用标准 FTP 端口 21。
func (c *Config) applyTarget(target string) error {
	userPart, hostPart, ok := strings.Cut(target, "@")
	if !ok || userPart == "" || hostPart == "" {
		return fmt.Errorf("invalid FTP connection format %q", target)
	}

	user, password, ok := strings.Cut(userPart, ":")
	if !ok || user == "" || password == "" {
		return fmt.Errorf("missing FTP credentials in %q", target)
	}

	host := hostPart
	port := 21
	if h, p, ok := strings.Cut(hostPart, ":"); ok {
		parsed, err := strconv.Atoi(p)
		if err != nil || parsed <= 0 {
			return fmt.Errorf("invalid FTP port %q", p)
		}
		host = h
		port = parsed
	}
	if host == "" {
		return fmt.Errorf("missing FTP host in %q", target)
	}

	c.FTPUser = user
	c.FTPPassword = password
	c.FTPHost = host
	c.FTPPort = port
	return nil
}

// FTPAddr returns the host:port dial address of the FTP server.
func (c *Config) FTPAddr() string {
	return fmt.Sprintf("%s:%d", c.FTPHost, c.FTPPort)
}
