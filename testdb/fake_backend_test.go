package testdb

import (
	"context"
	"database/sql"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/phrazzld/pgfixture/internal/platform/postgres"
)

var errInUse = postgres.ErrDatabaseInUse

// recorder collects the operations issued against a fake server, in order.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *recorder) count(prefix string) int {
	n := 0
	for _, c := range r.list() {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// fakeServer is an in-memory stand-in for a PostgreSQL server. Errors set on
// it are returned by the matching operation.
type fakeServer struct {
	rec       *recorder
	databases map[string]bool
	sessions  map[string]int

	connectErr   error
	createErr    error
	openErr      error
	migrateErr   error
	terminateErr error
	dropErr      error
	listErr      error
	existsErr    error

	migrateVersions []int64
	migratePanic    bool
	adminURLs       []string
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		rec:             &recorder{},
		databases:       map[string]bool{"postgres": true},
		sessions:        map[string]int{},
		migrateVersions: []int64{1, 2},
	}
}

func (s *fakeServer) backend() backend {
	return backend{
		connectAdmin: func(_ context.Context, url string, _ int, _ *slog.Logger) (adminSession, error) {
			s.rec.add("connect_admin")
			s.adminURLs = append(s.adminURLs, url)
			if s.connectErr != nil {
				return nil, s.connectErr
			}
			return &fakeAdmin{server: s}, nil
		},
		openTarget: func(_ context.Context, url string) (*sql.DB, error) {
			s.rec.add("open_target " + url[strings.LastIndex(url, "/")+1:])
			if s.openErr != nil {
				return nil, s.openErr
			}
			return nil, nil
		},
		migrate: func(_ context.Context, _ *sql.DB, dir, table string) ([]int64, error) {
			s.rec.add("migrate " + dir + " " + table)
			if s.migratePanic {
				panic("migration blew up")
			}
			if s.migrateErr != nil {
				return nil, s.migrateErr
			}
			return s.migrateVersions, nil
		},
	}
}

type fakeAdmin struct {
	server *fakeServer
}

func (a *fakeAdmin) CreateDatabase(_ context.Context, name string) error {
	a.server.rec.add("create " + name)
	if a.server.createErr != nil {
		return a.server.createErr
	}
	a.server.databases[name] = true
	return nil
}

func (a *fakeAdmin) TerminateBackends(_ context.Context, name string) (int, error) {
	a.server.rec.add("terminate " + name)
	if a.server.terminateErr != nil {
		return 0, a.server.terminateErr
	}
	n := a.server.sessions[name]
	delete(a.server.sessions, name)
	return n, nil
}

func (a *fakeAdmin) DropDatabase(_ context.Context, name string) error {
	a.server.rec.add("drop " + name)
	if a.server.dropErr != nil {
		return a.server.dropErr
	}
	if a.server.sessions[name] > 0 {
		return errInUse
	}
	delete(a.server.databases, name)
	return nil
}

func (a *fakeAdmin) DatabaseExists(_ context.Context, name string) (bool, error) {
	a.server.rec.add("exists " + name)
	if a.server.existsErr != nil {
		return false, a.server.existsErr
	}
	return a.server.databases[name], nil
}

func (a *fakeAdmin) ListDatabases(_ context.Context, prefix string) ([]string, error) {
	a.server.rec.add("list " + prefix)
	if a.server.listErr != nil {
		return nil, a.server.listErr
	}
	var names []string
	for name := range a.server.databases {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (a *fakeAdmin) Close(context.Context) error {
	a.server.rec.add("close_admin")
	return nil
}
