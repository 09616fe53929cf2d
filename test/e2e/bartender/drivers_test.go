package bartender_test

import (
	"context"
	"maps"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/network"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startDependency runs image on net under alias and returns once it is ready.
func startDependency(t *testing.T, net *testcontainers.DockerNetwork, req testcontainers.ContainerRequest, alias string) {
	t.Helper()

	req.Networks = []string{net.Name}
	req.NetworkAliases = map[string][]string{net.Name: {alias}}

	c, err := testcontainers.GenericContainer(context.Background(), testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })
}

// TestExternalStores runs the lifecycle against the postgres and redis
// drivers, each backing the service over a private docker network.
func TestExternalStores(t *testing.T) {
	if !imageBuilt {
		t.Skip("set BARTENDER_E2E=1 with docker available to run e2e tests")
	}

	tests := []struct {
		name  string
		dep   testcontainers.ContainerRequest
		alias string
		env   map[string]string
	}{
		{
			name:  "postgres",
			alias: "db",
			dep: testcontainers.ContainerRequest{
				Image: "postgres:16-alpine",
				Env: map[string]string{
					"POSTGRES_USER":     "bartender",
					"POSTGRES_PASSWORD": "bartender",
					"POSTGRES_DB":       "bartender",
				},
				WaitingFor: wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60 * time.Second),
			},
			env: map[string]string{
				"STORE_DRIVER": "postgres",
				"DATABASE_URL": "postgres://bartender:bartender@db:5432/bartender?sslmode=disable",
			},
		},
		{
			name:  "redis",
			alias: "cache",
			dep: testcontainers.ContainerRequest{
				Image:      "redis:7-alpine",
				WaitingFor: wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
			},
			env: map[string]string{
				"STORE_DRIVER": "redis",
				"REDIS_URL":    "redis://cache:6379/0",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			net, err := network.New(context.Background())
			require.NoError(t, err)
			t.Cleanup(func() { _ = net.Remove(context.Background()) })

			startDependency(t, net, tt.dep, tt.alias)

			env := map[string]string{}
			maps.Copy(env, relaxedLimits)
			maps.Copy(env, tt.env)
			client := startServiceOn(t, net, env)

			userID := register(t, client, "frank")
			pair, err := client.Login(t.Context(), "frank", testPassword)
			require.NoError(t, err)

			v, err := client.Validate(t.Context(), pair.AccessToken)
			require.NoError(t, err)
			require.Equal(t, userID, v.UserID)

			_, err = client.Refresh(t.Context(), pair.RefreshToken)
			require.NoError(t, err)
		})
	}
}
