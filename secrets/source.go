package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// ErrMasterKeyMissing 主密钥缺失错误
var ErrMasterKeyMissing = errors.New("未配置主密钥")

// Source 主密钥来源
type Source interface {
	// MasterKey 获取主密钥
	MasterKey(ctx context.Context) ([]byte, error)
}

// StaticSource 以固定值提供主密钥，用于测试与简单部署
type StaticSource []byte

// MasterKey 实现Source接口
func (s StaticSource) MasterKey(ctx context.Context) ([]byte, error) {
	if len(s) == 0 {
		return nil, ErrMasterKeyMissing
	}
	return s, nil
}

// EnvSource 从环境变量读取主密钥
type EnvSource struct {
	// Name 环境变量名
	Name string
}

// MasterKey 实现Source接口
func (s EnvSource) MasterKey(ctx context.Context) ([]byte, error) {
	v := os.Getenv(s.Name)
	if v == "" {
		return nil, fmt.Errorf("%w: 环境变量 %s 为空", ErrMasterKeyMissing, s.Name)
	}
	return []byte(v), nil
}

// SecretsManagerSource 从AWS Secrets Manager读取主密钥
type SecretsManagerSource struct {
	// SecretID 密钥的名称或ARN
	SecretID string
	// Region 区域（为空时走默认配置链）
	Region string

	client *secretsmanager.Client
}

// MasterKey 实现Source接口
func (s *SecretsManagerSource) MasterKey(ctx context.Context) ([]byte, error) {
	if s.SecretID == "" {
		return nil, fmt.Errorf("%w: 未指定SecretID", ErrMasterKeyMissing)
	}

	if s.client == nil {
		var opts []func(*awsconfig.LoadOptions) error
		if s.Region != "" {
			opts = append(opts, awsconfig.WithRegion(s.Region))
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("加载AWS配置失败: %w", err)
		}
		s.client = secretsmanager.NewFromConfig(cfg)
	}

	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: &s.SecretID,
	})
	if err != nil {
		return nil, fmt.Errorf("读取Secrets Manager密钥失败: %w", err)
	}

	if out.SecretString != nil {
		return []byte(*out.SecretString), nil
	}
	if len(out.SecretBinary) > 0 {
		return out.SecretBinary, nil
	}
	return nil, ErrMasterKeyMissing
}
