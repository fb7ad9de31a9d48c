package server

import (
	"context"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"
	v1 "k8s.io/externaljwt/apis/v1"

	"github.com/zarvd/kms-app-signer/internal/key"
)

type V1Server struct {
	v1.UnimplementedExternalJWTSignerServer

	logger *slog.Logger
	km     key.KeyManager
}

func NewV1Server(logger *slog.Logger, km key.KeyManager) *V1Server {
	return &V1Server{
		logger: logger,
		km:     km,
	}
}

func (svr *V1Server) Sign(ctx context.Context, req *v1.SignJWTRequest) (*v1.SignJWTResponse, error) {
	logger := svr.logger.With(slog.String("method", "Sign"))

	signed, err := svr.km.Sign(ctx, req.Claims)
	if err != nil {
		logger.Error("Failed to sign JWT", slog.Any("error", err))
		return nil, status.Errorf(codes.Internal, "not able to sign JWT")
	}
	logger.Info("Signed JWT", slog.String("key-id", signed.KeyID))

	return &v1.SignJWTResponse{
		Header:    signed.Header,
		Signature: signed.Signature,
	}, nil
}

func (svr *V1Server) FetchKeys(ctx context.Context, req *v1.FetchKeysRequest) (*v1.FetchKeysResponse, error) {
	logger := svr.logger.With(slog.String("method", "FetchKeys"))

	publicKeys, err := svr.km.PublicKeys(ctx)
	if err != nil {
		logger.Error("Failed to fetch keys", slog.Any("error", err))
		return nil, status.Errorf(codes.Internal, "not able to fetch keys")
	}

	keys := make([]*v1.Key, 0, len(publicKeys))
	for _, publicKey := range publicKeys {
		keys = append(keys, &v1.Key{
			KeyId:                    publicKey.KeyID,
			Key:                      publicKey.Key,
			ExcludeFromOidcDiscovery: false,
		})
	}

	rv := &v1.FetchKeysResponse{
		Keys:               keys,
		DataTimestamp:      timestamppb.New(svr.km.LastRotatedAt()),
		RefreshHintSeconds: int64(svr.km.Expiration().Seconds() / 2),
	}
	logger.Info("Fetched keys",
		slog.Int("num-keys", len(keys)),
		slog.Int64("refresh-hint-seconds", rv.RefreshHintSeconds),
	)

	return rv, nil
}

func (svr *V1Server) Metadata(ctx context.Context, req *v1.MetadataRequest) (*v1.MetadataResponse, error) {
	logger := svr.logger.With(slog.String("method", "Metadata"))

	rv := &v1.MetadataResponse{
		MaxTokenExpirationSeconds: int64(svr.km.Expiration().Seconds()),
	}
	logger.Info("Fetched metadata", slog.Int64("max-token-expiration-seconds", rv.MaxTokenExpirationSeconds))

	return rv, nil
}
