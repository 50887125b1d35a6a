package aws

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// databaseCredential is the JSON shape stored in Secrets Manager
type databaseCredential struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func secretName(stackName string) string {
	return stackName + "/database"
}

// GeneratePassword returns a random credential for the shared database
func GeneratePassword() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate password: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// LookupPassword returns the password already stored for the stack, or
// empty when no secret exists yet. A re-apply must reuse the original
// credential, not mint a new one the database never heard of.
func (c *Client) LookupPassword(ctx context.Context, stackName string) (string, error) {
	output, err := c.Secrets.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretName(stackName)),
	})
	if err != nil {
		if isNotFound(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read secret: %w", err)
	}

	var cred databaseCredential
	if err := json.Unmarshal([]byte(deref(output.SecretString)), &cred); err != nil {
		return "", fmt.Errorf("failed to parse secret: %w", err)
	}
	return cred.Password, nil
}

// ensureSecret stores the database credential, creating the secret on
// first apply and leaving an existing one untouched
func (c *Client) ensureSecret(ctx context.Context, stackName, username, password string) (string, error) {
	name := secretName(stackName)

	existing, err := c.Secrets.DescribeSecret(ctx, &secretsmanager.DescribeSecretInput{
		SecretId: aws.String(name),
	})
	if err == nil {
		return deref(existing.ARN), nil
	}
	if !isNotFound(err) {
		return "", fmt.Errorf("failed to describe secret: %w", err)
	}

	payload, err := json.Marshal(databaseCredential{Username: username, Password: password})
	if err != nil {
		return "", fmt.Errorf("failed to marshal credential: %w", err)
	}

	created, err := c.Secrets.CreateSecret(ctx, &secretsmanager.CreateSecretInput{
		Name:         aws.String(name),
		Description:  aws.String("Database credential for the " + stackName + " stack"),
		SecretString: aws.String(string(payload)),
	})
	if err != nil {
		// lost the race to a concurrent apply; the existing secret wins
		if isDuplicate(err) {
			winner, derr := c.Secrets.DescribeSecret(ctx, &secretsmanager.DescribeSecretInput{
				SecretId: aws.String(name),
			})
			if derr != nil {
				return "", fmt.Errorf("failed to describe secret: %w", derr)
			}
			return deref(winner.ARN), nil
		}
		return "", fmt.Errorf("failed to create secret: %w", err)
	}

	return deref(created.ARN), nil
}

func (c *Client) deleteSecret(ctx context.Context, stackName string) error {
	_, err := c.Secrets.DeleteSecret(ctx, &secretsmanager.DeleteSecretInput{
		SecretId:                   aws.String(secretName(stackName)),
		ForceDeleteWithoutRecovery: aws.Bool(true),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to delete secret: %w", err)
	}
	return nil
}
