package key

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"
)

var (
	_ Signer           = (*KMSSigner)(nil)
	_ PublicKeyFetcher = (*KMSSigner)(nil)
)

// KMSClient is the part of the AWS KMS API the signer needs.
type KMSClient interface {
	GetPublicKey(context.Context, *kms.GetPublicKeyInput, ...func(*kms.Options)) (*kms.GetPublicKeyOutput, error)
	Sign(context.Context, *kms.SignInput, ...func(*kms.Options)) (*kms.SignOutput, error)
}

// ClientFactory builds a KMS client for a region.
type ClientFactory func(ctx context.Context, region string) (KMSClient, error)

// NewAWSClientFactory returns a ClientFactory that loads credentials through
// the AWS SDK default chain.
func NewAWSClientFactory(optFns ...func(*config.LoadOptions) error) ClientFactory {
	return func(ctx context.Context, region string) (KMSClient, error) {
		opts := append([]func(*config.LoadOptions) error{config.WithRegion(region)}, optFns...)
		cfg, err := config.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		return kms.NewFromConfig(cfg), nil
	}
}

// KMSSigner signs with asymmetric AWS KMS keys.
type KMSSigner struct {
	logger    *slog.Logger
	newClient ClientFactory

	mu      sync.Mutex
	clients map[string]KMSClient
}

func NewKMSSigner(logger *slog.Logger, newClient ClientFactory) *KMSSigner {
	return &KMSSigner{
		logger:    logger,
		newClient: newClient,
		clients:   make(map[string]KMSClient),
	}
}

func (s *KMSSigner) client(ctx context.Context, region string) (KMSClient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.clients[region]; ok {
		return c, nil
	}
	c, err := s.newClient(ctx, region)
	if err != nil {
		return nil, err
	}
	s.clients[region] = c
	return c, nil
}

func (s *KMSSigner) Sign(ctx context.Context, message []byte, keyID, region string) ([]byte, error) {
	c, err := s.client(ctx, region)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("signing with KMS key", slog.String("key-id", keyID), slog.String("region", region))
	out, err := c.Sign(ctx, &kms.SignInput{
		KeyId:            aws.String(keyID),
		Message:          message,
		MessageType:      types.MessageTypeRaw,
		SigningAlgorithm: types.SigningAlgorithmSpecRsassaPkcs1V15Sha256,
	})
	if err != nil {
		return nil, fmt.Errorf("kms sign: %w", err)
	}
	if len(out.Signature) == 0 {
		return nil, errors.New("kms sign: empty signature")
	}
	return out.Signature, nil
}

func (s *KMSSigner) PublicKey(ctx context.Context, keyID, region string) ([]byte, error) {
	c, err := s.client(ctx, region)
	if err != nil {
		return nil, err
	}

	out, err := c.GetPublicKey(ctx, &kms.GetPublicKeyInput{KeyId: aws.String(keyID)})
	if err != nil {
		return nil, fmt.Errorf("kms get public key: %w", err)
	}
	return out.PublicKey, nil
}
