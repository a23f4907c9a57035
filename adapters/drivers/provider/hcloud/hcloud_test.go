package hcloud

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
	"github.com/hetznercloud/hcloud-go/v2/hcloud/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	providerdrv "github.com/yaegashi/clusterops/adapters/drivers/provider"
	"github.com/yaegashi/clusterops/domain/model"
	"github.com/yaegashi/clusterops/internal/logging"
)

// testServer mocks the Hetzner Cloud API.
type testServer struct {
	server *httptest.Server
	mux    *http.ServeMux
}

func newTestServer(t *testing.T) *testServer {
	mux := http.NewServeMux()
	ts := &testServer{server: httptest.NewServer(mux), mux: mux}
	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) driver(settings map[string]string) *driver {
	client := hcloud.NewClient(hcloud.WithToken("test-token"), hcloud.WithEndpoint(ts.server.URL))
	p := &model.Provider{Name: "hz", Driver: "hcloud", Settings: settings}
	return newDriver(client, p, providerdrv.Env{Logger: logging.Discard()})
}

func jsonResponse(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

func notFound(w http.ResponseWriter) {
	jsonResponse(w, http.StatusNotFound, schema.ErrorResponse{Error: schema.Error{Code: "not_found", Message: "not found"}})
}

func serverSchema(id int64, status, ip string) schema.Server {
	return schema.Server{
		ID:     id,
		Name:   "srv",
		Status: status,
		PublicNet: schema.ServerPublicNet{
			IPv4: schema.ServerPublicNetIPv4{IP: ip},
		},
	}
}

func TestServerStatus(t *testing.T) {
	cases := map[hcloud.ServerStatus]model.InstanceStatus{
		hcloud.ServerStatusRunning:      model.StatusRunning,
		hcloud.ServerStatusOff:          model.StatusStopped,
		hcloud.ServerStatusStarting:     model.StatusPending,
		hcloud.ServerStatusStopping:     model.StatusPending,
		hcloud.ServerStatusInitializing: model.StatusPending,
		hcloud.ServerStatusDeleting:     model.StatusPending,
		hcloud.ServerStatus("weird"):    model.StatusUnknown,
	}
	for in, want := range cases {
		assert.Equal(t, want, serverStatus(in), "status %s", in)
	}
}

func TestInstanceStatus(t *testing.T) {
	ts := newTestServer(t)
	ts.mux.HandleFunc("/servers/1", func(w http.ResponseWriter, _ *http.Request) {
		jsonResponse(w, http.StatusOK, schema.ServerGetResponse{Server: serverSchema(1, "off", "203.0.113.1")})
	})
	ts.mux.HandleFunc("/servers/2", func(w http.ResponseWriter, _ *http.Request) { notFound(w) })
	d := ts.driver(map[string]string{"token": "x"})
	ctx := context.Background()

	st, err := d.InstanceStatus(ctx, &model.Instance{ProviderInstanceID: "1"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusStopped, st)

	st, err = d.InstanceStatus(ctx, &model.Instance{ProviderInstanceID: "2"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusTerminated, st)

	_, err = d.InstanceStatus(ctx, &model.Instance{ProviderInstanceID: "abc"})
	assert.Error(t, err)
}

func TestInstanceStart(t *testing.T) {
	ts := newTestServer(t)
	var created []map[string]any
	ts.mux.HandleFunc("/ssh_keys", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, schema.SSHKeyListResponse{SSHKeys: []schema.SSHKey{{ID: 7, Name: r.URL.Query().Get("name")}}})
	})
	ts.mux.HandleFunc("/servers", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		created = append(created, req)
		id := int64(100 + len(created))
		jsonResponse(w, http.StatusCreated, schema.ServerCreateResponse{
			Server: serverSchema(id, "initializing", "203.0.113.10"),
			Action: schema.Action{ID: id, Status: "success", Progress: 100},
		})
	})
	d := ts.driver(map[string]string{"token": "x", "ssh_key_name": "ops"})

	owner := model.InstanceOwner{Kind: model.OwnerWorker, ID: "wg-1", Name: "pool", ProviderID: "p"}
	insts, err := d.InstanceStart(context.Background(), owner, 2)
	require.NoError(t, err)
	require.Len(t, insts, 2)
	assert.Equal(t, "101", insts[0].ProviderInstanceID)
	assert.Equal(t, "102", insts[1].ProviderInstanceID)
	assert.Equal(t, "203.0.113.10", insts[1].IPAddress)

	require.Len(t, created, 2)
	assert.NotEqual(t, created[0]["name"], created[1]["name"])
	labels, _ := created[0]["labels"].(map[string]any)
	assert.Equal(t, "worker", labels[labelKind])
	keys, _ := created[0]["ssh_keys"].([]any)
	assert.Len(t, keys, 1)
}

func TestInstanceStart_KeepsServerWhenBootFails(t *testing.T) {
	ts := newTestServer(t)
	creates := 0
	ts.mux.HandleFunc("/servers", func(w http.ResponseWriter, _ *http.Request) {
		creates++
		jsonResponse(w, http.StatusCreated, schema.ServerCreateResponse{
			Server: serverSchema(200, "initializing", "203.0.113.20"),
			Action: schema.Action{ID: 50, Status: "running"},
		})
	})
	failed := schema.Action{ID: 50, Status: "error", Progress: 100, Error: &schema.ActionError{Code: "boot_failed", Message: "boot failed"}}
	ts.mux.HandleFunc("/actions", func(w http.ResponseWriter, _ *http.Request) {
		jsonResponse(w, http.StatusOK, schema.ActionListResponse{Actions: []schema.Action{failed}})
	})
	ts.mux.HandleFunc("/actions/50", func(w http.ResponseWriter, _ *http.Request) {
		jsonResponse(w, http.StatusOK, schema.ActionGetResponse{Action: failed})
	})
	d := ts.driver(map[string]string{"token": "x"})

	owner := model.InstanceOwner{Kind: model.OwnerController, ID: "c-1", Name: "ctl", ProviderID: "p"}
	insts, err := d.InstanceStart(context.Background(), owner, 2)
	require.Error(t, err)
	require.Len(t, insts, 1, "a created server must be returned even if its boot action fails")
	assert.Equal(t, "200", insts[0].ProviderInstanceID)
	assert.Equal(t, "203.0.113.20", insts[0].IPAddress)
	assert.Equal(t, 1, creates)
}

func TestInstanceResume_RefreshesIP(t *testing.T) {
	ts := newTestServer(t)
	ts.mux.HandleFunc("/servers/5/actions/poweron", func(w http.ResponseWriter, _ *http.Request) {
		jsonResponse(w, http.StatusCreated, schema.ServerActionPoweronResponse{Action: schema.Action{ID: 1, Status: "success", Progress: 100}})
	})
	ts.mux.HandleFunc("/servers/5", func(w http.ResponseWriter, _ *http.Request) {
		jsonResponse(w, http.StatusOK, schema.ServerGetResponse{Server: serverSchema(5, "running", "198.51.100.5")})
	})
	ts.mux.HandleFunc("/servers/6/actions/poweron", func(w http.ResponseWriter, _ *http.Request) { notFound(w) })
	d := ts.driver(map[string]string{"token": "x"})

	ok := &model.Instance{ProviderInstanceID: "5", IPAddress: "10.0.0.1"}
	bad := &model.Instance{ProviderInstanceID: "6"}
	err := d.InstanceResume(context.Background(), []*model.Instance{bad, ok})
	var be *model.BatchError
	require.ErrorAs(t, err, &be)
	require.Len(t, be.Failures, 1)
	assert.Same(t, bad, be.Failures[0].Instance)
	assert.Equal(t, "198.51.100.5", ok.IPAddress)
}

func TestInstanceTerminate_AlreadyGone(t *testing.T) {
	ts := newTestServer(t)
	ts.mux.HandleFunc("/servers/8", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		jsonResponse(w, http.StatusOK, schema.ServerDeleteResponse{Action: schema.Action{ID: 2, Status: "success", Progress: 100}})
	})
	ts.mux.HandleFunc("/servers/9", func(w http.ResponseWriter, _ *http.Request) { notFound(w) })
	d := ts.driver(map[string]string{"token": "x"})

	err := d.InstanceTerminate(context.Background(), []*model.Instance{{ProviderInstanceID: "8"}, {ProviderInstanceID: "9"}})
	require.NoError(t, err)
}

func TestPrepare_CreatesKeyAndFirewall(t *testing.T) {
	ts := newTestServer(t)
	var keyCreated, fwCreated bool
	ts.mux.HandleFunc("/ssh_keys", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			keyCreated = true
			jsonResponse(w, http.StatusCreated, schema.SSHKeyCreateResponse{SSHKey: schema.SSHKey{ID: 1, Name: "ops"}})
			return
		}
		jsonResponse(w, http.StatusOK, schema.SSHKeyListResponse{SSHKeys: []schema.SSHKey{}})
	})
	ts.mux.HandleFunc("/firewalls", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			fwCreated = true
			jsonResponse(w, http.StatusCreated, schema.FirewallCreateResponse{Firewall: schema.Firewall{ID: 3, Name: "ops-fw"}})
			return
		}
		jsonResponse(w, http.StatusOK, schema.FirewallListResponse{Firewalls: []schema.Firewall{}})
	})
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "id.pub"), []byte("ssh-ed25519 AAAA test\n"), 0o600))
	d := ts.driver(map[string]string{"token": "x", "ssh_key_name": "ops", "ssh_public_key_file": filepath.Join(dir, "id.pub"), "firewall_name": "ops-fw", "open_ports": "22, 8080"})

	notes, err := d.Prepare(context.Background())
	require.NoError(t, err)
	assert.Len(t, notes, 2)
	assert.True(t, keyCreated)
	assert.True(t, fwCreated)
	assert.Len(t, d.firewallRules(), 2)
}

func TestFactory_RequiresToken(t *testing.T) {
	factory, ok := providerdrv.GetDriverFactory("hcloud")
	require.True(t, ok)
	_, err := factory(&model.Provider{Name: "hz", Driver: "hcloud"}, providerdrv.Env{})
	assert.Error(t, err)
	d, err := factory(&model.Provider{Name: "hz", Driver: "hcloud", Settings: map[string]string{"token": "x"}}, providerdrv.Env{})
	require.NoError(t, err)
	assert.Equal(t, "hcloud", d.ID())
}
