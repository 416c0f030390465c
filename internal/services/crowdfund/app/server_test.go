package server

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"path/filepath"
	"testing"
	"time"

	grpcmetadata "google.golang.org/grpc/metadata"

	platformgrpc "github.com/Yochiyuu/stellar-crowdFunding/internal/platform/grpc"
	crowdfundservice "github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/api/grpc/crowdfund"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/api/grpc/metadata"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/auth"
)

func TestServerServesCrowdfundAndHealth(t *testing.T) {
	publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	srv, err := NewWithAddr("127.0.0.1:0", Options{
		DBPath:         filepath.Join(t.TempDir(), "nested", "crowdfund.db"),
		EngineIdentity: "crowdfund-engine",
		Grant:          auth.GrantConfig{Issuer: "test", Audience: "crowdfund", Key: publicKey, Now: time.Now},
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()

	serveDone := make(chan error, 1)
	go func() {
		serveDone <- srv.Serve(runCtx)
	}()
	t.Cleanup(func() {
		runCancel()
		select {
		case serveErr := <-serveDone:
			if serveErr != nil {
				t.Errorf("serve: %v", serveErr)
			}
		case <-time.After(5 * time.Second):
			t.Error("timeout waiting for server shutdown")
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, err := platformgrpc.Dial(ctx, srv.Addr(), crowdfundservice.ServiceName, 3*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	client := crowdfundservice.NewClient(conn)
	next, err := client.Call(ctx, crowdfundservice.MethodGetNextCampaignID, nil)
	if err != nil {
		t.Fatalf("get next campaign id: %v", err)
	}
	if got := next.GetFields()["next_campaign_id"].GetStringValue(); got != "0" {
		t.Fatalf("next_campaign_id = %q, want 0", got)
	}

	grant, err := auth.MintGrant("admin", auth.SignerConfig{
		Issuer: "test", Audience: "crowdfund", Key: privateKey, TTL: time.Minute, Now: time.Now,
	})
	if err != nil {
		t.Fatalf("mint grant: %v", err)
	}
	authed := grpcmetadata.AppendToOutgoingContext(ctx, metadata.AuthorizationHeader, "Bearer "+grant)
	if _, err := client.Call(authed, crowdfundservice.MethodInitializeAsset, map[string]any{
		"asset": "TST", "admin": "admin", "name": "Test Token", "symbol": "TST", "total_supply": "100",
	}); err != nil {
		t.Fatalf("initialize asset: %v", err)
	}
	balance, err := client.Call(ctx, crowdfundservice.MethodGetBalance, map[string]any{"asset": "TST", "holder": "admin"})
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if got := balance.GetFields()["balance"].GetStringValue(); got != "100" {
		t.Fatalf("balance = %q, want 100", got)
	}
}

func TestNewWithAddrRequiresEngineIdentity(t *testing.T) {
	if _, err := NewWithAddr("127.0.0.1:0", Options{DBPath: filepath.Join(t.TempDir(), "crowdfund.db")}); err == nil {
		t.Fatal("expected error")
	}
}

func TestServeNilServer(t *testing.T) {
	var srv *Server
	if err := srv.Serve(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if got := srv.Addr(); got != "" {
		t.Fatalf("addr = %q, want empty", got)
	}
}
