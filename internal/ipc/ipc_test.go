package ipc_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"casctl/internal/factory"
	"casctl/internal/ipc"
	"casctl/internal/logging"
	"casctl/internal/testsupport"
)

func TestIPCServerClient(t *testing.T) {
	apiAddr := testsupport.StartFakeAPI(t)
	bin := testsupport.WriteFakeDaemon(t, testsupport.FakeDaemonOptions{APIAddr: apiAddr})
	cfg := testsupport.NewConfig(t, testsupport.WithExecPath(bin))
	if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatalf("mkdir log dir: %v", err)
	}
	logger := logging.NewNop()
	f := factory.New(cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	socket := filepath.Join(cfg.Paths.LogDir, "casctld.sock")
	srv, err := ipc.NewServer(ctx, socket, f, logger)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(func() {
		srv.Close()
	})

	time.Sleep(50 * time.Millisecond)

	client, err := ipc.Dial(socket)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
	})

	spawnResp, err := client.Spawn(ipc.SpawnRequest{})
	if err != nil {
		t.Fatalf("Spawn RPC failed: %v", err)
	}
	inst := spawnResp.Instance
	if inst.ID == "" || !inst.Started || !inst.Disposable {
		t.Fatalf("unexpected spawn snapshot: %+v", inst)
	}
	if inst.APIAddr != apiAddr {
		t.Fatalf("spawn api addr = %q, want %q", inst.APIAddr, apiAddr)
	}
	if inst.PeerID != "QmFakeDaemon" {
		t.Fatalf("spawn peer id = %q", inst.PeerID)
	}
	if inst.PID <= 0 {
		t.Fatalf("spawn pid = %d", inst.PID)
	}

	listResp, err := client.List()
	if err != nil {
		t.Fatalf("List RPC failed: %v", err)
	}
	if len(listResp.Instances) != 1 || listResp.Instances[0].ID != inst.ID {
		t.Fatalf("unexpected list: %+v", listResp.Instances)
	}

	stopResp, err := client.Stop(ipc.StopRequest{ID: inst.ID, TimeoutSeconds: 5})
	if err != nil {
		t.Fatalf("Stop RPC failed: %v", err)
	}
	if !stopResp.Stopped {
		t.Fatal("expected Stopped=true")
	}

	listResp, err = client.List()
	if err != nil {
		t.Fatalf("List RPC failed: %v", err)
	}
	if len(listResp.Instances) != 1 || listResp.Instances[0].Started {
		t.Fatalf("unexpected list after stop: %+v", listResp.Instances)
	}

	cleanResp, err := client.Clean()
	if err != nil {
		t.Fatalf("Clean RPC failed: %v", err)
	}
	if cleanResp.Cleaned != 1 || cleanResp.Message != "" {
		t.Fatalf("unexpected clean response: %+v", cleanResp)
	}

	listResp, err = client.List()
	if err != nil {
		t.Fatalf("List RPC failed: %v", err)
	}
	if len(listResp.Instances) != 0 {
		t.Fatalf("instances remain after clean: %+v", listResp.Instances)
	}

	if _, err := client.Stop(ipc.StopRequest{ID: "missing"}); err == nil {
		t.Fatal("Stop of unknown instance succeeded")
	}
}
