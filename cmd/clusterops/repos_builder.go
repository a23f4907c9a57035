package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/yaegashi/clusterops/adapters/store/inmem"
	"github.com/yaegashi/clusterops/adapters/store/rdb"
	"github.com/yaegashi/clusterops/domain"
)

// reposCache keeps one set of repositories per db-url for the process lifetime
// so that use cases built for the same command share one connection.
var (
	reposCache   = map[string]*domain.Repositories{}
	reposCacheMu sync.Mutex
)

// findFlag looks up a flag on cmd or any of its parents.
func findFlag(cmd *cobra.Command, name string) *pflag.Flag {
	for c := cmd; c != nil; c = c.Parent() {
		if f := c.Flags().Lookup(name); f != nil {
			return f
		}
		if f := c.PersistentFlags().Lookup(name); f != nil {
			return f
		}
	}
	return nil
}

// getDBURL resolves the registry URL from the db-url flag and the config directory.
func getDBURL(cmd *cobra.Command) string {
	var flag string
	if f := findFlag(cmd, "db-url"); f != nil {
		flag = f.Value.String()
	}
	return opsEnv.DBURL(flag)
}

// buildRepos opens the registry selected by db-url.
func buildRepos(cmd *cobra.Command) (*domain.Repositories, error) {
	dbURL := getDBURL(cmd)

	reposCacheMu.Lock()
	defer reposCacheMu.Unlock()
	if cached, ok := reposCache[dbURL]; ok {
		return cached, nil
	}

	var repos *domain.Repositories
	switch {
	case dbURL == "memory:":
		repos = inmem.NewStore().Repositories()
	case strings.HasPrefix(dbURL, "sqlite:") || strings.HasPrefix(dbURL, "sqlite3:"):
		db, err := rdb.OpenFromURL(dbURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open registry %s: %w", dbURL, err)
		}
		if err := rdb.AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("failed to migrate registry %s: %w", dbURL, err)
		}
		repos = &domain.Repositories{
			Provider:    rdb.NewProviderRepository(db),
			Controller:  rdb.NewControllerRepository(db),
			WorkerGroup: rdb.NewWorkerGroupRepository(db),
			Instance:    rdb.NewInstanceRepository(db),
		}
	default:
		return nil, fmt.Errorf("unsupported db-url: %s", dbURL)
	}
	reposCache[dbURL] = repos
	return repos, nil
}
