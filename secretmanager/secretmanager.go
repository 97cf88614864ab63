package secretmanager

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

type secretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

var (
	loadDefaultConfig       = config.LoadDefaultConfig
	newSecretsManagerClient = func(cfg aws.Config) secretsManagerAPI {
		return secretsmanager.NewFromConfig(cfg)
	}
	setenv = os.Setenv
)

// GetSecret returns the string value of the named secret.
func GetSecret(name string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg, err := loadDefaultConfig(ctx)
	if err != nil {
		return "", fmt.Errorf("load aws config: %w", err)
	}

	out, err := newSecretsManagerClient(cfg).GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		return "", fmt.Errorf("get secret %s: %w", name, err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value", name)
	}
	return *out.SecretString, nil
}

// ExportJSON exports every key of a JSON object secret as an environment
// variable. Non-string values are formatted with their JSON text.
func ExportJSON(secret string) error {
	var values map[string]any
	if err := json.Unmarshal([]byte(secret), &values); err != nil {
		return fmt.Errorf("decode secret: %w", err)
	}
	for key, value := range values {
		var text string
		switch v := value.(type) {
		case string:
			text = v
		default:
			encoded, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("encode secret value %s: %w", key, err)
			}
			text = string(encoded)
		}
		if err := setenv(key, text); err != nil {
			return fmt.Errorf("export %s: %w", key, err)
		}
	}
	return nil
}
