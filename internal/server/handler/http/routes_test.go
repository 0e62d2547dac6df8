package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/storystudio/ledger/internal/models"
	handler "github.com/storystudio/ledger/internal/server/handler/http"
	"github.com/storystudio/ledger/internal/service"
	"github.com/storystudio/ledger/internal/sheet"
)

// memStore backs both repositories in memory.
type memStore struct {
	mu          sync.Mutex
	deployments map[string]models.Deployment
	revisions   []models.Revision
}

func newMemStore() *memStore {
	return &memStore{deployments: map[string]models.Deployment{}}
}

func (m *memStore) CreateDeployment(_ context.Context, d models.Deployment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deployments[d.ID] = d
	return nil
}

func (m *memStore) GetDeployment(_ context.Context, id string) (*models.Deployment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deployments[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (m *memStore) LatestRevision(_ context.Context, deploymentID, name string) (*models.Revision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.revisions) - 1; i >= 0; i-- {
		if r := m.revisions[i]; r.DeploymentID == deploymentID && r.Sheet == name {
			return &r, nil
		}
	}
	return nil, nil
}

func (m *memStore) SaveRevisions(_ context.Context, revs []models.Revision) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range revs {
		r.ID = int64(len(m.revisions) + 1)
		m.revisions = append(m.revisions, r)
	}
	return nil
}

func newServer(t *testing.T, store *memStore, adminToken string) *httptest.Server {
	t.Helper()
	deployments := service.NewDeploymentService(store)
	router := handler.NewRouter(
		&handler.SheetHandler{SheetService: service.NewSheetService(store), Log: zap.NewNop()},
		&handler.DeploymentHandler{DeploymentService: deployments},
		deployments,
		adminToken,
		zap.NewNop(),
	)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func createDeployment(t *testing.T, srv *httptest.Server, token string, access models.Access) handler.CreateDeploymentResponse {
	t.Helper()
	body, _ := json.Marshal(handler.CreateDeploymentRequest{Access: access})
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/admin/deployments", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out handler.CreateDeploymentResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestRouter_ClientRoundTrip(t *testing.T) {
	store := newMemStore()
	srv := newServer(t, store, "tok")
	dep := createDeployment(t, srv, "tok", models.AccessAnyone)

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		t.Run(method, func(t *testing.T) {
			client := sheet.NewClient(srv.Client(), sheet.WithReadMethod(method))

			ds, err := client.Load(context.Background(), dep.URL)
			require.NoError(t, err)
			assert.Empty(t, ds.Transactions, "a fresh deployment holds header rows only")
			assert.Empty(t, ds.Users)
			assert.True(t, client.Initialize(context.Background(), dep.URL))

			want := models.Dataset{
				Transactions: []models.Transaction{
					{ID: "t1", InvoiceNumber: "ST-20250001", Date: "2025-03-10", Type: models.Income,
						Description: "Poster", Amount: 100, Quantity: 2, CustomerName: "Horizon"},
				},
				Users: []models.User{{ID: "u1", Name: "Root", Email: "root@example.com", Password: "pw", Role: models.SuperAdmin}},
			}
			require.NoError(t, client.Save(context.Background(), dep.URL, want))

			got, err := client.Load(context.Background(), dep.URL)
			require.NoError(t, err)
			assert.Equal(t, want, got)

			// reset for the next method
			require.NoError(t, client.Save(context.Background(), dep.URL, models.Dataset{}))
		})
	}
}

func TestRouter_DevPathServesSameSheet(t *testing.T) {
	store := newMemStore()
	srv := newServer(t, store, "")
	dep := createDeployment(t, srv, "", models.AccessAnyone)
	client := sheet.NewClient(srv.Client())

	ds := models.Dataset{Users: []models.User{{ID: "u1", Name: "A", Email: "a@x", Password: "p", Role: models.Viewer}}}
	require.NoError(t, client.Save(context.Background(), dep.URL, ds))

	devURL := srv.URL + "/macros/s/" + dep.ID + "/dev"
	got, err := client.Load(context.Background(), devURL)
	require.NoError(t, err)
	assert.Equal(t, ds.Users, got.Users)
}

func TestRouter_PrivateAndUnknownAnswerHTML(t *testing.T) {
	store := newMemStore()
	srv := newServer(t, store, "")
	private := createDeployment(t, srv, "", models.AccessPrivate)
	client := sheet.NewClient(srv.Client())

	for _, url := range []string{private.URL, srv.URL + "/macros/s/unknown/exec"} {
		_, err := client.Load(context.Background(), url)
		assert.ErrorIs(t, err, sheet.ErrUnexpectedHTML, url)

		err = client.Save(context.Background(), url, models.Dataset{})
		assert.ErrorIs(t, err, sheet.ErrUnexpectedHTML, url)
	}
	assert.Empty(t, store.revisions)
}

func TestRouter_AdminRequiresToken(t *testing.T) {
	srv := newServer(t, newMemStore(), "tok")

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/admin/deployments", bytes.NewBufferString(`{}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err = http.NewRequest(http.MethodPost, srv.URL+"/admin/deployments", bytes.NewBufferString(`{}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Authorization", "Bearer tok")
	resp, err = srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}
