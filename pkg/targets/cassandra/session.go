package cassandra

import (
	"context"
	"fmt"
	"strings"

	"github.com/gocql/gocql"
	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/cql"
	"github.com/leapstack-labs/leapmigrate/pkg/target"
)

// Dialer opens a session. An empty keyspace opens a session that is not
// bound to any keyspace.
type Dialer func(ctx context.Context, cfg core.ConnectionConfig, p Params, keyspace string) (target.Session, error)

// Dial opens a gocql session. Host may list several comma-separated contact
// points.
func Dial(_ context.Context, cfg core.ConnectionConfig, p Params, keyspace string) (target.Session, error) {
	var hosts []string
	for _, h := range strings.Split(cfg.Host, ",") {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}

	cluster := gocql.NewCluster(hosts...)
	if cfg.Port != 0 {
		cluster.Port = cfg.Port
	}
	cluster.Keyspace = keyspace
	cluster.Timeout = p.Timeout
	cluster.ConnectTimeout = p.Timeout
	if p.ProtoVersion != 0 {
		cluster.ProtoVersion = p.ProtoVersion
	}
	consistency, err := p.consistency()
	if err != nil {
		return nil, err
	}
	cluster.Consistency = consistency
	if cfg.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.Username,
			Password: cfg.Password,
		}
	}

	s, err := cluster.CreateSession()
	if err != nil {
		return nil, err
	}
	return &session{s: s}, nil
}

// session adapts *gocql.Session to target.Session.
type session struct {
	s *gocql.Session
}

func (g *session) Exec(ctx context.Context, stmt cql.Statement) error {
	return g.s.Query(stmt.Text, stmt.Args...).WithContext(ctx).Exec()
}

func (g *session) Query(ctx context.Context, stmt cql.Statement) ([]core.Row, error) {
	iter := g.s.Query(stmt.Text, stmt.Args...).WithContext(ctx).Iter()
	cols := iter.Columns()

	var out []core.Row
	for {
		m := make(map[string]any, len(cols))
		if !iter.MapScan(m) {
			break
		}
		row := make(core.Row, 0, len(cols))
		for _, c := range cols {
			row = append(row, core.Field{Name: c.Name, Value: m[c.Name]})
		}
		out = append(out, row)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return out, nil
}

func (g *session) Close() error {
	g.s.Close()
	return nil
}
