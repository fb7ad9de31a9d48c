package key

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/stretchr/testify/require"
)

type fakeKMS struct {
	signInput *kms.SignInput
	signErr   error
	signature []byte
	publicKey []byte
}

func (f *fakeKMS) Sign(_ context.Context, in *kms.SignInput, _ ...func(*kms.Options)) (*kms.SignOutput, error) {
	f.signInput = in
	if f.signErr != nil {
		return nil, f.signErr
	}
	return &kms.SignOutput{KeyId: in.KeyId, Signature: f.signature, SigningAlgorithm: in.SigningAlgorithm}, nil
}

func (f *fakeKMS) GetPublicKey(_ context.Context, in *kms.GetPublicKeyInput, _ ...func(*kms.Options)) (*kms.GetPublicKeyOutput, error) {
	return &kms.GetPublicKeyOutput{KeyId: in.KeyId, PublicKey: f.publicKey}, nil
}

func TestKMSSigner_Sign(t *testing.T) {
	t.Parallel()

	t.Run("sends a raw PKCS1 v1.5 SHA-256 request", func(t *testing.T) {
		client := &fakeKMS{signature: []byte{1, 2, 3}}
		var regions []string
		signer := NewKMSSigner(slog.Default(), func(_ context.Context, region string) (KMSClient, error) {
			regions = append(regions, region)
			return client, nil
		})

		sig, err := signer.Sign(context.Background(), []byte("header.payload"), "abc-123", "us-east-1")
		require.NoError(t, err)
		require.Equal(t, []byte{1, 2, 3}, sig)
		require.Equal(t, "abc-123", aws.ToString(client.signInput.KeyId))
		require.Equal(t, []byte("header.payload"), client.signInput.Message)
		require.Equal(t, types.MessageTypeRaw, client.signInput.MessageType)
		require.Equal(t, types.SigningAlgorithmSpecRsassaPkcs1V15Sha256, client.signInput.SigningAlgorithm)

		_, err = signer.Sign(context.Background(), []byte("again"), "abc-123", "us-east-1")
		require.NoError(t, err)
		require.Equal(t, []string{"us-east-1"}, regions)
	})

	t.Run("propagates client errors", func(t *testing.T) {
		cause := errors.New("NotFoundException")
		signer := NewKMSSigner(slog.Default(), func(context.Context, string) (KMSClient, error) {
			return &fakeKMS{signErr: cause}, nil
		})

		_, err := signer.Sign(context.Background(), []byte("x"), "missing", "us-east-1")
		require.ErrorIs(t, err, cause)
	})

	t.Run("propagates client construction errors", func(t *testing.T) {
		cause := errors.New("no region")
		signer := NewKMSSigner(slog.Default(), func(context.Context, string) (KMSClient, error) {
			return nil, cause
		})

		_, err := signer.Sign(context.Background(), []byte("x"), "k", "")
		require.ErrorIs(t, err, cause)
	})

	t.Run("rejects empty signatures", func(t *testing.T) {
		signer := NewKMSSigner(slog.Default(), func(context.Context, string) (KMSClient, error) {
			return &fakeKMS{}, nil
		})

		_, err := signer.Sign(context.Background(), []byte("x"), "k", "us-east-1")
		require.Error(t, err)
	})
}

func TestKMSSigner_PublicKey(t *testing.T) {
	t.Parallel()

	signer := NewKMSSigner(slog.Default(), func(context.Context, string) (KMSClient, error) {
		return &fakeKMS{publicKey: []byte("der")}, nil
	})

	der, err := signer.PublicKey(context.Background(), "k", "us-east-1")
	require.NoError(t, err)
	require.Equal(t, []byte("der"), der)
}
