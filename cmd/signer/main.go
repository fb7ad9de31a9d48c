package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"google.golang.org/grpc"
	v1 "k8s.io/externaljwt/apis/v1"
	"k8s.io/externaljwt/apis/v1alpha1"

	"github.com/zarvd/kms-app-signer/internal/appauth"
	"github.com/zarvd/kms-app-signer/internal/key"
	"github.com/zarvd/kms-app-signer/internal/server"
)

type CLI struct {
	Issue IssueCmd `cmd:"" help:"Issue a short-lived app token signed by a KMS key"`
	Serve ServeCmd `cmd:"" help:"Serve a KMS key over the Kubernetes external JWT signer API"`
}

type IssueCmd struct {
	AppID          string `required:"" env:"APP_ID" help:"Application ID, used as the token issuer"`
	PrivateKey     string `required:"" env:"PRIVATE_KEY" help:"Key reference in the form awskms:<JSON with region and keyId>"`
	TimeDifference int64  `env:"TIME_DIFFERENCE" help:"Seconds to add to the local clock"`
}

func (cmd *IssueCmd) Run(ctx context.Context, logger *slog.Logger) error {
	signer := key.NewKMSSigner(logger, key.NewAWSClientFactory())
	issuer := appauth.NewIssuer(logger, signer)

	auth, err := issuer.Issue(ctx, appauth.Identity{
		AppID:          cmd.AppID,
		PrivateKey:     cmd.PrivateKey,
		TimeDifference: cmd.TimeDifference,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(auth)
}

type ServeCmd struct {
	UnixDomainSocket   string        `arg:"" required:"" help:"Unix domain socket to listen on"`
	KeyReference       string        `required:"" env:"KEY_REFERENCE" help:"Reference to the KMS signing key"`
	MaxTokenExpiration time.Duration `default:"10m" help:"Maximum lifetime of tokens signed by this server"`
}

func (cmd *ServeCmd) Run(ctx context.Context, logger *slog.Logger) error {
	signer := key.NewKMSSigner(logger, key.NewAWSClientFactory())
	km, err := key.NewKMSKeyManager(logger, signer, cmd.KeyReference, cmd.MaxTokenExpiration)
	if err != nil {
		return fmt.Errorf("failed to create key manager: %w", err)
	}

	v1Server := server.NewV1Server(logger, km)
	v1alpha1Server := server.NewV1Alpha1Server(logger, km)

	grpcServer := grpc.NewServer()
	v1.RegisterExternalJWTSignerServer(grpcServer, v1Server)
	v1alpha1.RegisterExternalJWTSignerServer(grpcServer, v1alpha1Server)

	listener, err := net.Listen("unix", cmd.UnixDomainSocket)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	defer listener.Close()

	go func() {
		logger.Info("serving on", slog.String("address", listener.Addr().String()))
		if err := grpcServer.Serve(listener); err != nil {
			logger.Error("failed to serve", slog.Any("error", err))
		}
	}()

	<-ctx.Done()
	grpcServer.GracefulStop()
	logger.Info("shutting down")
	return nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var cli CLI
	cliCtx := kong.Parse(&cli)

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cliCtx.BindTo(ctx, (*context.Context)(nil))
	cliCtx.Bind(logger)

	if err := cliCtx.Run(); err != nil {
		logger.Error("failed to run CLI", slog.Any("error", err))
		os.Exit(1)
	}
}
