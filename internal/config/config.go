package config

import (
	"fmt"

	"github.com/parassareen1/relay-chat/internal/attach"
	"github.com/parassareen1/relay-chat/internal/notify"
)

type Config struct {
	ServerAddr     string
	AllowedOrigins []string
	AdminKey       string
	ArchiveDSN     string
	S3             attach.S3Config
	SMTP           notify.SMTPConfig
}

func NewConfig(serverAddr, adminKey, archiveDSN string, allowedOrigins []string, s3 attach.S3Config, smtp notify.SMTPConfig) (*Config, error) {
	if serverAddr == "" {
		return nil, fmt.Errorf("server address cannot be empty")
	}
	if adminKey == "" {
		return nil, fmt.Errorf("admin key cannot be empty")
	}
	if smtp.Host != "" && smtp.To == "" {
		return nil, fmt.Errorf("notification recipient required when smtp host is set")
	}
	if s3.Bucket == "" && (s3.Endpoint != "" || s3.AccessKeyID != "") {
		return nil, fmt.Errorf("s3 bucket required when s3 settings are provided")
	}

	return &Config{
		ServerAddr:     serverAddr,
		AllowedOrigins: allowedOrigins,
		AdminKey:       adminKey,
		ArchiveDSN:     archiveDSN,
		S3:             s3,
		SMTP:           smtp,
	}, nil
}
